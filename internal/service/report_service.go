package service

import (
	"context"
	"time"

	"todopro/internal/model"
	"todopro/internal/repository"
)

// IdleUsersReport lists users that have never owned a task or have none left.
type IdleUsersReport struct {
	Users        []model.User
	TotalUsers   int64
	WithoutTasks int
	Percentage   float64
	GeneratedAt  time.Time
}

// ReportService computes the cross-user views.
type ReportService struct {
	users *repository.UserRepository
	tasks *repository.TaskRepository
	now   func() time.Time
	loc   *time.Location
}

func NewReportService(users *repository.UserRepository, tasks *repository.TaskRepository, now func() time.Time, loc *time.Location) *ReportService {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{users: users, tasks: tasks, now: now, loc: loc}
}

// ExpiredCount counts expired tasks across all owners, orphaned tasks included.
func (s *ReportService) ExpiredCount(ctx context.Context) (int64, error) {
	return s.tasks.CountExpired(ctx, model.StartOfDay(s.now(), s.loc), nil)
}

// Expired lists expired tasks across all owners.
func (s *ReportService) Expired(ctx context.Context) ([]model.Task, error) {
	return s.tasks.Expired(ctx, model.StartOfDay(s.now(), s.loc), nil)
}

// UsersWithoutTasks returns every user owning no task, ordered by username.
// Only superusers may run it.
func (s *ReportService) UsersWithoutTasks(ctx context.Context, caller *model.User) (*IdleUsersReport, error) {
	if caller == nil || !caller.IsSuperuser {
		return nil, ErrForbidden
	}

	users, err := s.users.ListWithoutTasks(ctx)
	if err != nil {
		return nil, err
	}
	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &IdleUsersReport{
		Users:        users,
		TotalUsers:   total,
		WithoutTasks: len(users),
		Percentage:   model.Percentage(int64(len(users)), total),
		GeneratedAt:  s.now().In(s.loc),
	}, nil
}
