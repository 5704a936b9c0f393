package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"todopro/internal/model"
)

// TaskRepository handles CRUD for tasks. Every per-task call is scoped by owner in the query itself.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	return wrap("create task", r.db.WithContext(ctx).Create(task).Error)
}

// ListByOwner returns the owner's tasks by ascending due date.
func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ?", ownerID).
		Order("due_date ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, wrap("list tasks", err)
	}
	return tasks, nil
}

// RecentByOwner returns up to limit tasks with the latest due dates first.
func (r *TaskRepository) RecentByOwner(ctx context.Context, ownerID uint, limit int) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ?", ownerID).
		Order("due_date DESC, id DESC").
		Limit(limit).
		Find(&tasks).Error; err != nil {
		return nil, wrap("list recent tasks", err)
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, ownerID, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", ownerID, taskID).First(&task).Error; err != nil {
		return nil, wrap("find task", err)
	}
	return &task, nil
}

// Update writes the editable fields of task. Ownership is part of the filter and never written.
func (r *TaskRepository) Update(ctx context.Context, ownerID uint, task *model.Task) error {
	updates := map[string]interface{}{
		"title":    task.Title,
		"due_date": task.DueDate.UTC(),
		"due_time": task.DueTime,
		"done":     task.Done,
	}
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND id = ?", ownerID, task.ID).
		Updates(updates)
	if res.Error != nil {
		return wrap("update task", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetDone changes only the completion flag.
func (r *TaskRepository) SetDone(ctx context.Context, ownerID, taskID uint, done bool) error {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND id = ?", ownerID, taskID).
		Update("done", done)
	if res.Error != nil {
		return wrap("update task status", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes one task of the owner.
func (r *TaskRepository) Delete(ctx context.Context, ownerID, taskID uint) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", ownerID, taskID).Delete(&model.Task{})
	if res.Error != nil {
		return wrap("delete task", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Expired returns open tasks due before cutoff, optionally limited to one owner.
func (r *TaskRepository) Expired(ctx context.Context, cutoff time.Time, ownerID *uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.expiredQuery(ctx, cutoff, ownerID).
		Order("due_date ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, wrap("list expired tasks", err)
	}
	return tasks, nil
}

// CountExpired counts open tasks due before cutoff, optionally limited to one owner.
func (r *TaskRepository) CountExpired(ctx context.Context, cutoff time.Time, ownerID *uint) (int64, error) {
	var count int64
	if err := r.expiredQuery(ctx, cutoff, ownerID).Count(&count).Error; err != nil {
		return 0, wrap("count expired tasks", err)
	}
	return count, nil
}

func (r *TaskRepository) expiredQuery(ctx context.Context, cutoff time.Time, ownerID *uint) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Task{}).Where("due_date < ? AND done = ?", cutoff.UTC(), false)
	if ownerID != nil {
		q = q.Where("user_id = ?", *ownerID)
	}
	return q
}

// Counts returns total and completed task counts for the owner in one statement.
func (r *TaskRepository) Counts(ctx context.Context, ownerID uint) (model.TaskCounts, error) {
	var row struct {
		Total     int64
		Completed int64
	}
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN done = ? THEN 1 ELSE 0 END), 0) AS completed", true).
		Where("user_id = ?", ownerID).
		Scan(&row).Error
	if err != nil {
		return model.TaskCounts{}, wrap("count tasks", err)
	}
	return model.TaskCounts{Total: row.Total, Completed: row.Completed}, nil
}
