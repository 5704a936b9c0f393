package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"todopro/internal/model"
	"todopro/internal/repository"
)

// DigestService builds human-readable summaries of expired tasks for notifications.
type DigestService struct {
	taskRepo *repository.TaskRepository
	now      func() time.Time
	loc      *time.Location
}

func NewDigestService(taskRepo *repository.TaskRepository, now func() time.Time, loc *time.Location) *DigestService {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &DigestService{taskRepo: taskRepo, now: now, loc: loc}
}

// Digest renders the user's expired tasks as Telegram HTML. ok is false when nothing is expired.
func (s *DigestService) Digest(ctx context.Context, user model.User) (text string, ok bool, err error) {
	now := s.now()
	tasks, err := s.taskRepo.Expired(ctx, model.StartOfDay(now, s.loc), &user.ID)
	if err != nil {
		return "", false, err
	}
	if len(tasks) == 0 {
		return "", false, nil
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Expired tasks</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.In(s.loc).Format(dateLayout)))
	for _, task := range tasks {
		builder.WriteString(FormatTask(task, now, s.loc))
	}
	builder.WriteString("\n")
	builder.WriteString(html.EscapeString(ExpiredSummary(len(tasks)).Text))

	return builder.String(), true, nil
}

// FormatTask renders one task as a Telegram HTML line with a status icon.
func FormatTask(task model.Task, now time.Time, loc *time.Location) string {
	var sb strings.Builder

	due := task.DueDate.In(loc)
	expired := task.IsExpired(now, loc)

	icon := "🟢"
	switch {
	case task.Done:
		icon = "✅"
	case expired:
		icon = "⚠️"
	case due.Sub(now) <= 48*time.Hour:
		icon = "⏳"
	}

	sb.WriteString(fmt.Sprintf("%s <b>#%d</b> %s", icon, task.ID, html.EscapeString(strings.TrimSpace(task.Title))))

	when := due.Format(dateLayout)
	if task.DueTime != nil {
		when += " " + task.DueTime.Short()
	}
	if expired {
		sb.WriteString(fmt.Sprintf("\n   ⏰ due %s · <b>expired</b>", when))
	} else {
		sb.WriteString(fmt.Sprintf("\n   ⏰ due %s", when))
	}

	sb.WriteByte('\n')
	return sb.String()
}
