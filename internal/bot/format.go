package bot

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todopro/internal/model"
	"todopro/internal/service"
)

func parseTaskID(data, prefix string) (uint, error) {
	raw := strings.TrimPrefix(data, prefix)
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if value == 0 {
		return 0, fmt.Errorf("task id must be positive")
	}
	return uint(value), nil
}

// parseTaskArg reads a task number from command arguments, accepting an optional leading '#'.
func parseTaskArg(args string) (uint, error) {
	return parseTaskID(strings.TrimSpace(args), "#")
}

// parseCredentials splits "/link" arguments into a username and a password.
// The password is everything after the first space and may itself contain spaces.
func parseCredentials(args string) (username, password string, ok bool) {
	args = strings.TrimSpace(args)
	username, password, found := strings.Cut(args, " ")
	if !found {
		return "", "", false
	}
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return "", "", false
	}
	return username, password, true
}

func escape(s string) string {
	return html.EscapeString(s)
}

func shortTitle(title string, maxLen int) string {
	clean := strings.Join(strings.Fields(title), " ")
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func taskButtons(task model.Task) []tgbotapi.InlineKeyboardButton {
	toggle := tgbotapi.NewInlineKeyboardButtonData(
		fmt.Sprintf("✅ #%d · %s", task.ID, shortTitle(task.Title, 20)),
		fmt.Sprintf("%s%d", cbDonePrefix, task.ID),
	)
	if task.Done {
		toggle = tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("↩️ #%d · %s", task.ID, shortTitle(task.Title, 20)),
			fmt.Sprintf("%s%d", cbUndonePrefix, task.ID),
		)
	}
	remove := tgbotapi.NewInlineKeyboardButtonData("🗑", fmt.Sprintf("%s%d", cbDeletePrefix, task.ID))
	return tgbotapi.NewInlineKeyboardRow(toggle, remove)
}

func formatStats(stats model.Stats) string {
	return fmt.Sprintf("📊 <b>Your statistics</b>\n"+
		"• Total tasks: %d\n"+
		"• Completed: %d\n"+
		"• Pending: %d\n"+
		"• Completion rate: %s%%",
		stats.Total, stats.Completed, stats.Pending, strconv.FormatFloat(stats.CompletionRate, 'f', -1, 64))
}

func formatIdleReport(report service.IdleUsersReport) string {
	var builder strings.Builder
	builder.WriteString("👥 <b>Users without tasks</b>\n")
	for _, user := range report.Users {
		builder.WriteString(fmt.Sprintf("• %s", escape(user.Username)))
		if full := user.FullName(); full != user.Username {
			builder.WriteString(fmt.Sprintf(" (%s)", escape(full)))
		}
		builder.WriteByte('\n')
	}
	if msg, ok := service.IdleUsersSummary(report); ok {
		builder.WriteString("\n")
		builder.WriteString(escape(msg.Text))
	} else {
		builder.WriteString("No registered users yet.")
	}
	return builder.String()
}

func isConfirmInput(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	return text == btnConfirm || normalized == "yes" || normalized == "confirm"
}

func isCancelInput(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	return text == btnCancel || normalized == "no" || normalized == "cancel"
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelTasks),
			tgbotapi.NewKeyboardButton(menuLabelExpired),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelStats),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}
