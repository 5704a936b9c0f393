package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todopro/internal/model"
	"todopro/internal/service"
)

const helpText = "ℹ️ <b>Commands</b>\n" +
	"• /link &lt;username&gt; &lt;password&gt; - connect your todoPro account\n" +
	"• /unlink - disconnect this chat\n" +
	"• /tasks - all your tasks\n" +
	"• /expired - tasks past their due date\n" +
	"• /stats - your completion statistics\n" +
	"• /done &lt;id&gt; - mark a task completed\n" +
	"• /undone &lt;id&gt; - mark a task not completed\n" +
	"• /delete &lt;id&gt; - delete a task\n" +
	"• /idle - users without tasks (administrators)"

const notLinkedText = "This chat is not linked yet. Use /link &lt;username&gt; &lt;password&gt;."

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if msg.IsCommand() {
		// arguments may carry a password
		log.Printf("[bot] command from %d: /%s", msg.From.ID, msg.Command())
		return b.handleCommand(ctx, msg)
	}

	if taskID, ok := b.getConfirmation(msg.Chat.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, taskID)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	return b.sendText(msg.Chat.ID, "I did not understand that. Send /help for the list of commands.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.sendText(msg.Chat.ID, helpText)
	case "link":
		return b.handleLink(ctx, msg)
	case "unlink":
		return b.handleUnlink(ctx, msg)
	case "tasks":
		return b.handleListTasks(ctx, msg.Chat.ID)
	case "expired":
		return b.handleExpired(ctx, msg.Chat.ID)
	case "stats":
		return b.handleStats(ctx, msg.Chat.ID)
	case "done":
		return b.handleSetStatus(ctx, msg, true)
	case "undone":
		return b.handleSetStatus(ctx, msg, false)
	case "delete":
		return b.handleDelete(ctx, msg)
	case "idle":
		return b.handleIdle(ctx, msg.Chat.ID)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}

	greeting := fmt.Sprintf("👋 Hi, %s!\n<b>I keep an eye on your todoPro tasks.</b>\n\n", escape(name))
	if user, err := b.linkedUser(ctx, msg.Chat.ID); err == nil {
		greeting += fmt.Sprintf("This chat is linked to <b>%s</b>.\n\n", escape(user.Username))
	} else if !errors.Is(err, service.ErrNotFound) {
		return err
	}
	return b.sendText(msg.Chat.ID, greeting+helpText)
}

func (b *Bot) handleLink(ctx context.Context, msg *tgbotapi.Message) error {
	// the message carries a password, remove it from the chat history
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(msg.Chat.ID, msg.MessageID)); err != nil {
		log.Printf("[bot] delete /link message: %v", err)
	}

	username, password, ok := parseCredentials(msg.CommandArguments())
	if !ok {
		return b.sendText(msg.Chat.ID, "Usage: /link &lt;username&gt; &lt;password&gt;")
	}

	user, err := b.svc.Accounts.LinkTelegram(ctx, username, password, msg.Chat.ID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return b.sendText(msg.Chat.ID, "❌ Please enter a correct username and password.")
		}
		return err
	}

	log.Printf("[bot] chat %d linked to user %d", msg.Chat.ID, user.ID)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("✅ Linked to <b>%s</b>. You will get a daily digest of expired tasks.", escape(user.Username)))
}

func (b *Bot) handleUnlink(ctx context.Context, msg *tgbotapi.Message) error {
	err := b.svc.Accounts.UnlinkTelegram(ctx, msg.Chat.ID)
	switch {
	case errors.Is(err, service.ErrNotFound):
		return b.sendText(msg.Chat.ID, notLinkedText)
	case err != nil:
		return err
	}
	b.clearConfirmation(msg.Chat.ID)
	return b.sendText(msg.Chat.ID, "👋 This chat is no longer linked.")
}

func (b *Bot) handleListTasks(ctx context.Context, chatID int64) error {
	user, ok, err := b.requireUser(ctx, chatID)
	if !ok {
		return err
	}

	tasks, err := b.svc.Tasks.List(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return b.sendText(chatID, "You have no tasks yet.")
	}

	now := b.svc.Tasks.Now()
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📋 <b>Your tasks</b> (%d)\n\n", len(tasks)))

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, task := range tasks {
		builder.WriteString(service.FormatTask(task, now, now.Location()))
		buttons = append(buttons, taskButtons(task))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) handleExpired(ctx context.Context, chatID int64) error {
	user, ok, err := b.requireUser(ctx, chatID)
	if !ok {
		return err
	}

	tasks, err := b.svc.Tasks.Expired(ctx, user.ID)
	if err != nil {
		return err
	}

	now := b.svc.Tasks.Now()
	var builder strings.Builder
	for _, task := range tasks {
		builder.WriteString(service.FormatTask(task, now, now.Location()))
	}
	if builder.Len() > 0 {
		builder.WriteByte('\n')
	}
	builder.WriteString(escape(service.ExpiredSummary(len(tasks)).Text))
	return b.sendText(chatID, builder.String())
}

func (b *Bot) handleStats(ctx context.Context, chatID int64) error {
	user, ok, err := b.requireUser(ctx, chatID)
	if !ok {
		return err
	}

	stats, err := b.svc.Profiles.Stats(ctx, user.ID)
	if err != nil {
		return err
	}
	return b.sendText(chatID, formatStats(stats))
}

func (b *Bot) handleSetStatus(ctx context.Context, msg *tgbotapi.Message, done bool) error {
	taskID, err := parseTaskArg(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Give the task number, for example /%s 12", msg.Command()))
	}
	return b.setStatus(ctx, msg.Chat.ID, taskID, done)
}

func (b *Bot) setStatus(ctx context.Context, chatID int64, taskID uint, done bool) error {
	user, ok, err := b.requireUser(ctx, chatID)
	if !ok {
		return err
	}

	task, err := b.svc.Tasks.SetStatus(ctx, user.ID, taskID, done)
	if errors.Is(err, service.ErrNotFound) {
		return b.sendText(chatID, "Task not found.")
	}
	if err != nil {
		return err
	}

	log.Printf("[bot] task %d status done=%t user=%d", task.ID, task.Done, user.ID)
	return b.sendText(chatID, escape(service.MsgTaskStatus(*task).Text))
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	taskID, err := parseTaskArg(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give the task number, for example /delete 12")
	}
	return b.askDeleteConfirmation(ctx, msg.Chat.ID, taskID)
}

func (b *Bot) askDeleteConfirmation(ctx context.Context, chatID int64, taskID uint) error {
	user, ok, err := b.requireUser(ctx, chatID)
	if !ok {
		return err
	}

	task, err := b.svc.Tasks.Get(ctx, user.ID, taskID)
	if errors.Is(err, service.ErrNotFound) {
		return b.sendText(chatID, "Task not found.")
	}
	if err != nil {
		return err
	}

	b.setConfirmation(chatID, task.ID)
	text := fmt.Sprintf("⚠️ You are about to delete task: \"%s\" (#%d). This action cannot be undone!", escape(task.Title), task.ID)
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, taskID uint) error {
	switch text := strings.TrimSpace(msg.Text); {
	case isConfirmInput(text):
		b.clearConfirmation(msg.Chat.ID)
		return b.deleteTask(ctx, msg.Chat.ID, taskID)
	case isCancelInput(text):
		b.clearConfirmation(msg.Chat.ID)
		return b.sendText(msg.Chat.ID, "Deletion cancelled.")
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Confirm or cancel the deletion.", confirmKeyboard())
	}
}

func (b *Bot) deleteTask(ctx context.Context, chatID int64, taskID uint) error {
	user, ok, err := b.requireUser(ctx, chatID)
	if !ok {
		return err
	}

	task, err := b.svc.Tasks.Delete(ctx, user.ID, taskID)
	if errors.Is(err, service.ErrNotFound) {
		return b.sendText(chatID, "Task not found or already deleted.")
	}
	if err != nil {
		return err
	}

	log.Printf("[bot] task deleted id=%d user=%d", task.ID, user.ID)
	return b.sendText(chatID, escape(service.MsgTaskDeleted(task.Title).Text))
}

func (b *Bot) handleIdle(ctx context.Context, chatID int64) error {
	user, ok, err := b.requireUser(ctx, chatID)
	if !ok {
		return err
	}

	report, err := b.svc.Reports.UsersWithoutTasks(ctx, user)
	if errors.Is(err, service.ErrForbidden) {
		return b.sendText(chatID, escape(service.MsgAccessDenied().Text))
	}
	if err != nil {
		return err
	}
	return b.sendText(chatID, formatIdleReport(*report))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	b.ack(cb)

	chatID := cb.Message.Chat.ID
	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbDonePrefix):
		if taskID, err := parseTaskID(data, cbDonePrefix); err == nil {
			return b.setStatus(ctx, chatID, taskID, true)
		}
	case strings.HasPrefix(data, cbUndonePrefix):
		if taskID, err := parseTaskID(data, cbUndonePrefix); err == nil {
			return b.setStatus(ctx, chatID, taskID, false)
		}
	case strings.HasPrefix(data, cbDeletePrefix):
		if taskID, err := parseTaskID(data, cbDeletePrefix); err == nil {
			return b.askDeleteConfirmation(ctx, chatID, taskID)
		}
	}
	return nil
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.TrimSpace(msg.Text) {
	case menuLabelTasks:
		return true, b.handleListTasks(ctx, msg.Chat.ID)
	case menuLabelExpired:
		return true, b.handleExpired(ctx, msg.Chat.ID)
	case menuLabelStats:
		return true, b.handleStats(ctx, msg.Chat.ID)
	case menuLabelHelp:
		return true, b.sendText(msg.Chat.ID, helpText)
	default:
		return false, nil
	}
}

func (b *Bot) linkedUser(ctx context.Context, chatID int64) (*model.User, error) {
	return b.svc.Accounts.FindByTelegramID(ctx, chatID)
}

// requireUser resolves the account linked to chatID. ok is false when the caller should
// stop; err is then whatever the caller should return.
func (b *Bot) requireUser(ctx context.Context, chatID int64) (*model.User, bool, error) {
	user, err := b.linkedUser(ctx, chatID)
	if errors.Is(err, service.ErrNotFound) {
		return nil, false, b.sendText(chatID, notLinkedText)
	}
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}
