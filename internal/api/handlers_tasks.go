package api

import (
	"github.com/gofiber/fiber/v2"

	"todopro/internal/service"
)

// ListTasks returns the caller's tasks ordered by due date.
func (s *Server) ListTasks(c *fiber.Ctx) error {
	user := currentUser(c)
	overview, err := s.deps.Tasks.Overview(c.UserContext(), user.ID)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(TaskListResponse{
		Tasks:        s.taskResponses(overview.Tasks),
		ExpiredCount: overview.ExpiredCount,
		TotalTasks:   overview.Total,
		Today:        overview.Today,
		Messages:     []service.Message{service.MsgTaskListWelcome(user.Username)},
	})
}

// ExpiredTasks returns the caller's expired tasks with a summary message.
func (s *Server) ExpiredTasks(c *fiber.Ctx) error {
	tasks, err := s.deps.Tasks.Expired(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(ExpiredTasksResponse{
		Tasks:        s.taskResponses(tasks),
		ExpiredCount: len(tasks),
		Today:        s.deps.Tasks.Now(),
		Messages:     []service.Message{service.ExpiredSummary(len(tasks))},
	})
}

// CreateTask stores a task owned by the caller.
func (s *Server) CreateTask(c *fiber.Ctx) error {
	var req service.TaskInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	task, err := s.deps.Tasks.Create(c.UserContext(), currentUser(c).ID, req)
	if err != nil {
		return handleError(c, err, service.MsgTaskCreateFailed())
	}

	resp := s.taskResponse(*task)
	return c.Status(fiber.StatusCreated).JSON(TaskEnvelope{
		Task:     &resp,
		Messages: []service.Message{service.MsgTaskCreated(*task, s.deps.Location)},
	})
}

// GetTask returns one of the caller's tasks.
func (s *Server) GetTask(c *fiber.Ctx) error {
	id, ok := taskID(c)
	if !ok {
		return notFound(c)
	}

	task, err := s.deps.Tasks.Get(c.UserContext(), currentUser(c).ID, id)
	if err != nil {
		return handleError(c, err)
	}

	resp := s.taskResponse(*task)
	msgs := service.TaskDetailMessages(*task, resp.Expired, s.deps.Location)
	if msgs == nil {
		msgs = []service.Message{}
	}
	return c.JSON(TaskEnvelope{Task: &resp, Messages: msgs})
}

// UpdateTask replaces the editable fields of one of the caller's tasks.
func (s *Server) UpdateTask(c *fiber.Ctx) error {
	id, ok := taskID(c)
	if !ok {
		return notFound(c)
	}

	ctx := c.UserContext()
	owner := currentUser(c).ID
	current, err := s.deps.Tasks.Get(ctx, owner, id)
	if err != nil {
		return handleError(c, err)
	}

	var req service.TaskInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	task, err := s.deps.Tasks.Update(ctx, owner, id, req)
	if err != nil {
		return handleError(c, err, service.MsgTaskUpdateFailed(current.Title))
	}

	resp := s.taskResponse(*task)
	return c.JSON(TaskEnvelope{
		Task:     &resp,
		Messages: []service.Message{service.MsgTaskUpdated(task.Title)},
	})
}

// SetTaskStatus changes only the completion flag.
func (s *Server) SetTaskStatus(c *fiber.Ctx) error {
	id, ok := taskID(c)
	if !ok {
		return notFound(c)
	}

	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}
	if req.Done == nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: "Please correct the errors below.",
			Fields:  map[string]string{"done": "This field is required."},
		})
	}

	task, err := s.deps.Tasks.SetStatus(c.UserContext(), currentUser(c).ID, id, *req.Done)
	if err != nil {
		return handleError(c, err)
	}

	resp := s.taskResponse(*task)
	return c.JSON(TaskEnvelope{
		Task:     &resp,
		Messages: []service.Message{service.MsgTaskStatus(*task)},
	})
}

// DeleteTask removes one of the caller's tasks.
func (s *Server) DeleteTask(c *fiber.Ctx) error {
	id, ok := taskID(c)
	if !ok {
		return notFound(c)
	}

	task, err := s.deps.Tasks.Delete(c.UserContext(), currentUser(c).ID, id)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(TaskEnvelope{
		Messages: []service.Message{service.MsgTaskDeleted(task.Title)},
	})
}
