package api

import (
	"time"

	"todopro/internal/model"
	"todopro/internal/service"
)

// LoginRequest represents a login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// StatusRequest sets the completion flag of a task.
type StatusRequest struct {
	Done *bool `json:"done"`
}

// TokenResponse represents an authentication token response.
type TokenResponse struct {
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
	ExpiresIn    int64             `json:"expires_in"`
	TokenType    string            `json:"token_type"`
	User         *UserResponse     `json:"user,omitempty"`
	Messages     []service.Message `json:"messages,omitempty"`
}

// UserResponse represents a user.
type UserResponse struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	FullName    string    `json:"full_name"`
	IsSuperuser bool      `json:"is_superuser"`
	DateJoined  time.Time `json:"date_joined"`
}

// ProfileResponse represents the contact fields of a profile.
type ProfileResponse struct {
	Phone     *string   `json:"phone"`
	Address   *string   `json:"address"`
	Bio       *string   `json:"bio"`
	BirthDate *string   `json:"birth_date"`
	JoinDate  time.Time `json:"join_date"`
}

// StatsResponse is the completion snapshot of the caller.
type StatsResponse struct {
	Total          int64   `json:"total_tasks"`
	Completed      int64   `json:"completed_tasks"`
	Pending        int64   `json:"pending_tasks"`
	CompletionRate float64 `json:"completion_rate"`
}

// TaskResponse represents a task.
type TaskResponse struct {
	ID        uint             `json:"id"`
	Title     string           `json:"title"`
	DueDate   time.Time        `json:"due_date"`
	DueTime   *model.TimeOfDay `json:"due_time"`
	Done      bool             `json:"done"`
	Expired   bool             `json:"expired"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// ProfilePageResponse is the profile with recent tasks and statistics.
type ProfilePageResponse struct {
	User        UserResponse      `json:"user"`
	Profile     ProfileResponse   `json:"profile"`
	RecentTasks []TaskResponse    `json:"recent_tasks"`
	Stats       StatsResponse     `json:"stats"`
	Messages    []service.Message `json:"messages,omitempty"`
}

// TaskListResponse is the caller's task list.
type TaskListResponse struct {
	Tasks        []TaskResponse    `json:"tasks"`
	ExpiredCount int               `json:"expired_count"`
	TotalTasks   int               `json:"total_tasks"`
	Today        time.Time         `json:"today_date"`
	Messages     []service.Message `json:"messages"`
}

// ExpiredTasksResponse lists the caller's expired tasks.
type ExpiredTasksResponse struct {
	Tasks        []TaskResponse    `json:"expired_tasks"`
	ExpiredCount int               `json:"expired_count"`
	Today        time.Time         `json:"today_date"`
	Messages     []service.Message `json:"messages"`
}

// TaskEnvelope wraps a single task with its status messages.
type TaskEnvelope struct {
	Task     *TaskResponse     `json:"task,omitempty"`
	Messages []service.Message `json:"messages"`
}

// IdleUsersResponse is the users-without-tasks report.
type IdleUsersResponse struct {
	Users        []UserResponse    `json:"users"`
	TotalUsers   int64             `json:"total_users"`
	WithoutTasks int               `json:"users_without_tasks_count"`
	Percentage   float64           `json:"percentage"`
	Today        time.Time         `json:"today_date"`
	Messages     []service.Message `json:"messages,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error    string            `json:"error"`
	Message  string            `json:"message"`
	Fields   map[string]string `json:"fields,omitempty"`
	Messages []service.Message `json:"messages,omitempty"`
}

func newUserResponse(u model.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		FullName:    u.FullName(),
		IsSuperuser: u.IsSuperuser,
		DateJoined:  u.CreatedAt,
	}
}

func newProfileResponse(p model.Profile) ProfileResponse {
	resp := ProfileResponse{
		Phone:    p.Phone,
		Address:  p.Address,
		Bio:      p.Bio,
		JoinDate: p.JoinDate,
	}
	if p.BirthDate != nil {
		birth := p.BirthDate.Format("2006-01-02")
		resp.BirthDate = &birth
	}
	return resp
}

func newStatsResponse(s model.Stats) StatsResponse {
	return StatsResponse{
		Total:          s.Total,
		Completed:      s.Completed,
		Pending:        s.Pending,
		CompletionRate: s.CompletionRate,
	}
}

func (s *Server) taskResponse(t model.Task) TaskResponse {
	return TaskResponse{
		ID:        t.ID,
		Title:     t.Title,
		DueDate:   t.DueDate.In(s.deps.Location),
		DueTime:   t.DueTime,
		Done:      t.Done,
		Expired:   s.deps.Tasks.IsExpired(t),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func (s *Server) taskResponses(tasks []model.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, s.taskResponse(t))
	}
	return out
}
