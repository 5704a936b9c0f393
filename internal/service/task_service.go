package service

import (
	"context"
	"strings"
	"time"

	"todopro/internal/model"
	"todopro/internal/repository"
)

// TaskInput is the form payload for creating or updating a task.
// Ownership is deliberately absent: the owner always comes from the caller.
type TaskInput struct {
	Title   string `json:"title" validate:"required,max=200"`
	DueDate string `json:"due_date" validate:"required"`
	DueTime string `json:"due_time"`
	Done    *bool  `json:"done"`
}

// TaskOverview is the owner's task list with its expired subset.
type TaskOverview struct {
	Tasks        []model.Task
	Expired      []model.Task
	ExpiredCount int
	Total        int
	Today        time.Time
}

// TaskService wraps task-related business logic.
type TaskService struct {
	taskRepo *repository.TaskRepository
	now      func() time.Time
	loc      *time.Location
}

func NewTaskService(taskRepo *repository.TaskRepository, now func() time.Time, loc *time.Location) *TaskService {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &TaskService{taskRepo: taskRepo, now: now, loc: loc}
}

// Now returns the current time in the service's time zone.
func (s *TaskService) Now() time.Time {
	return s.now().In(s.loc)
}

// IsExpired evaluates the expiry predicate against the current wall clock.
func (s *TaskService) IsExpired(task model.Task) bool {
	return task.IsExpired(s.now(), s.loc)
}

func (s *TaskService) cutoff() time.Time {
	return model.StartOfDay(s.now(), s.loc)
}

func (s *TaskService) List(ctx context.Context, ownerID uint) ([]model.Task, error) {
	return s.taskRepo.ListByOwner(ctx, ownerID)
}

// Overview returns all of the owner's tasks together with the expired ones.
func (s *TaskService) Overview(ctx context.Context, ownerID uint) (*TaskOverview, error) {
	tasks, err := s.taskRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	expired := make([]model.Task, 0)
	for _, task := range tasks {
		if task.IsExpired(now, s.loc) {
			expired = append(expired, task)
		}
	}

	return &TaskOverview{
		Tasks:        tasks,
		Expired:      expired,
		ExpiredCount: len(expired),
		Total:        len(tasks),
		Today:        now.In(s.loc),
	}, nil
}

// Expired returns the owner's open tasks due before today.
func (s *TaskService) Expired(ctx context.Context, ownerID uint) ([]model.Task, error) {
	return s.taskRepo.Expired(ctx, s.cutoff(), &ownerID)
}

func (s *TaskService) Get(ctx context.Context, ownerID, taskID uint) (*model.Task, error) {
	return s.taskRepo.FindByID(ctx, ownerID, taskID)
}

// Create validates input and stores a new task owned by ownerID.
func (s *TaskService) Create(ctx context.Context, ownerID uint, input TaskInput) (*model.Task, error) {
	fields, err := s.parse(input)
	if err != nil {
		return nil, err
	}

	owner := ownerID
	task := model.Task{
		UserID:  &owner,
		Title:   fields.title,
		DueDate: fields.dueDate,
		DueTime: fields.dueTime,
	}
	if input.Done != nil {
		task.Done = *input.Done
	}

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Update validates input and rewrites the editable fields of one of the owner's tasks.
// A nil Done keeps the stored value.
func (s *TaskService) Update(ctx context.Context, ownerID, taskID uint, input TaskInput) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}

	fields, err := s.parse(input)
	if err != nil {
		return nil, err
	}

	task.Title = fields.title
	task.DueDate = fields.dueDate
	task.DueTime = fields.dueTime
	if input.Done != nil {
		task.Done = *input.Done
	}

	if err := s.taskRepo.Update(ctx, ownerID, task); err != nil {
		return nil, err
	}
	return s.taskRepo.FindByID(ctx, ownerID, taskID)
}

// SetStatus changes only the done flag. Setting the current value again is a no-op.
func (s *TaskService) SetStatus(ctx context.Context, ownerID, taskID uint, done bool) (*model.Task, error) {
	if err := s.taskRepo.SetDone(ctx, ownerID, taskID, done); err != nil {
		return nil, err
	}
	return s.taskRepo.FindByID(ctx, ownerID, taskID)
}

// Delete removes one of the owner's tasks and returns what was deleted.
func (s *TaskService) Delete(ctx context.Context, ownerID, taskID uint) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.taskRepo.Delete(ctx, ownerID, taskID); err != nil {
		return nil, err
	}
	return task, nil
}

type taskFields struct {
	title   string
	dueDate time.Time
	dueTime *model.TimeOfDay
}

func (s *TaskService) parse(input TaskInput) (taskFields, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.DueDate = strings.TrimSpace(input.DueDate)
	input.DueTime = strings.TrimSpace(input.DueTime)

	verr := check(input)
	var fields taskFields
	fields.title = input.Title

	if input.DueDate != "" {
		due, err := parseDueDate(input.DueDate, s.loc)
		if err != nil {
			verr.Add("due_date", msgInvalidDT)
		}
		fields.dueDate = due
	}

	if input.DueTime != "" {
		tod, err := model.ParseTimeOfDay(input.DueTime)
		if err != nil {
			verr.Add("due_time", msgInvalidTime)
		} else {
			fields.dueTime = &tod
		}
	}

	return fields, verr.Err()
}
