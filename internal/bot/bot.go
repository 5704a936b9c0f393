package bot

import (
	"context"
	"fmt"
	"log"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todopro/internal/service"
)

const (
	cbDonePrefix   = "done:"
	cbUndonePrefix = "undone:"
	cbDeletePrefix = "delete:"
)

const (
	btnConfirm       = "✅ Confirm"
	btnCancel        = "↩️ Cancel"
	menuLabelTasks   = "📋 Tasks"
	menuLabelExpired = "⚠️ Expired"
	menuLabelStats   = "📊 Stats"
	menuLabelHelp    = "ℹ️ Help"
)

// Sender is the part of the Telegram API the bot talks through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Services are the application services the bot drives.
type Services struct {
	Accounts *service.AccountService
	Tasks    *service.TaskService
	Profiles *service.ProfileService
	Reports  *service.ReportService
	Digests  *service.DigestService
}

// Bot aggregates Telegram API with services.
type Bot struct {
	client        *tgbotapi.BotAPI
	api           Sender
	svc           Services
	confirmations map[int64]uint
	mu            sync.Mutex
}

func New(token string, svc Services) (*Bot, error) {
	client, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[bot] authorized on account %s", client.Self.UserName)

	b := newBot(client, svc)
	b.client = client
	return b, nil
}

func newBot(api Sender, svc Services) *Bot {
	return &Bot{
		api:           api,
		svc:           svc,
		confirmations: make(map[int64]uint),
	}
}

// Start polls updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.client == nil {
		return fmt.Errorf("bot has no telegram client")
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.client.GetUpdatesChan(updateConfig)

	log.Println("[bot] start polling updates")

	go func() {
		<-ctx.Done()
		b.client.StopReceivingUpdates()
	}()

	for update := range updates {
		b.HandleUpdate(ctx, update)
	}
	return nil
}

// HandleUpdate dispatches one update. Only private chats are served.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			log.Printf("[bot] handle callback: %v", err)
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			log.Printf("[bot] handle message: %v", err)
		}
	}
}

// SendDigests sends the expired-task digest to every linked user with something expired.
func (b *Bot) SendDigests(ctx context.Context) error {
	users, err := b.svc.Accounts.ListLinked(ctx)
	if err != nil {
		return err
	}

	sent := 0
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if user.TelegramID == nil {
			continue
		}

		text, ok, err := b.svc.Digests.Digest(ctx, user)
		if err != nil {
			log.Printf("[bot] build digest for user %d: %v", user.ID, err)
			continue
		}
		if !ok {
			continue
		}
		if err := b.sendText(*user.TelegramID, text); err != nil {
			log.Printf("[bot] send digest to %d: %v", *user.TelegramID, err)
			continue
		}
		sent++
	}
	log.Printf("[bot] digest sent to %d of %d linked users", sent, len(users))
	return nil
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) ack(cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("[bot] callback ack: %v", err)
	}
}

func (b *Bot) getConfirmation(chatID int64) (uint, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	taskID, ok := b.confirmations[chatID]
	return taskID, ok
}

func (b *Bot) setConfirmation(chatID int64, taskID uint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[chatID] = taskID
}

func (b *Bot) clearConfirmation(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, chatID)
}
