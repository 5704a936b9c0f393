package service

import (
	"fmt"
	"strconv"
	"time"

	"todopro/internal/model"
)

// Message levels.
const (
	LevelSuccess = "success"
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Message is a human-readable status line shown next to a response.
type Message struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

const dateLayout = "2006-01-02"

func MsgWelcomeBack(username string) Message {
	return Message{LevelSuccess, fmt.Sprintf("Welcome back, %s!", username)}
}

// MsgTaskListWelcome greets the user on the task list.
func MsgTaskListWelcome(username string) Message {
	return Message{LevelInfo, fmt.Sprintf("Welcome to your task manager, %s! Here are all your tasks.", username)}
}

func MsgGoodbye(username string) Message {
	return Message{LevelInfo, fmt.Sprintf("Goodbye, %s!", username)}
}

func MsgRegistered() Message {
	return Message{LevelSuccess, "Account created successfully! You can now log in."}
}

func MsgProfileUpdated() Message {
	return Message{LevelSuccess, "Profile updated successfully!"}
}

func MsgTaskCreated(task model.Task, loc *time.Location) Message {
	return Message{LevelSuccess, fmt.Sprintf("✅ Task %q has been created successfully! Due date: %s",
		task.Title, task.DueDate.In(loc).Format(dateLayout))}
}

func MsgTaskCreateFailed() Message {
	return Message{LevelError, "❌ Failed to create task. Please check the form for errors."}
}

func MsgTaskUpdated(title string) Message {
	return Message{LevelSuccess, fmt.Sprintf("✅ Task %q has been updated successfully!", title)}
}

func MsgTaskUpdateFailed(title string) Message {
	return Message{LevelError, fmt.Sprintf("❌ Failed to update task %q. Please check the form for errors.", title)}
}

func MsgTaskDeleted(title string) Message {
	return Message{LevelSuccess, fmt.Sprintf("🗑️ Task %q has been permanently deleted successfully!", title)}
}

// MsgTaskStatus describes the result of a status toggle.
func MsgTaskStatus(task model.Task) Message {
	if task.Done {
		return Message{LevelSuccess, fmt.Sprintf("🎉 Excellent! Task %q has been marked as COMPLETED!", task.Title)}
	}
	return Message{LevelInfo, fmt.Sprintf("📝 Task %q has been marked as NOT COMPLETED.", task.Title)}
}

// TaskDetailMessages warns about a past-due task and congratulates on a completed one.
func TaskDetailMessages(task model.Task, expired bool, loc *time.Location) []Message {
	var msgs []Message
	if expired {
		msgs = append(msgs, Message{LevelWarning, fmt.Sprintf("⚠️ This task %q is past its due date (%s)!",
			task.Title, task.DueDate.In(loc).Format(dateLayout))})
	}
	if task.Done {
		msgs = append(msgs, Message{LevelSuccess, fmt.Sprintf("🎉 Great job! Task %q is completed!", task.Title)})
	}
	return msgs
}

// ExpiredSummary summarises how many of the caller's tasks are expired.
func ExpiredSummary(count int) Message {
	switch count {
	case 0:
		return Message{LevelSuccess, "✅ Excellent! You have no expired tasks. Keep up the good work!"}
	case 1:
		return Message{LevelWarning, "⚠️ You have 1 expired task. Consider completing it soon!"}
	default:
		return Message{LevelWarning, fmt.Sprintf("⚠️ You have %d expired tasks. Consider prioritizing these!", count)}
	}
}

func MsgAccessDenied() Message {
	return Message{LevelError, "❌ Access denied! You must be an administrator to view this page."}
}

// IdleUsersSummary describes the users-without-tasks report. ok is false when there are no users.
func IdleUsersSummary(r IdleUsersReport) (msg Message, ok bool) {
	if r.TotalUsers == 0 {
		return Message{}, false
	}
	if r.WithoutTasks == 0 {
		return Message{LevelSuccess, "✅ All registered users have created at least one task!"}, true
	}
	return Message{LevelInfo, fmt.Sprintf("📊 Statistics: %d out of %d users (%s%%) have not created any tasks.",
		r.WithoutTasks, r.TotalUsers, strconv.FormatFloat(r.Percentage, 'f', -1, 64))}, true
}
