package api

import (
	"github.com/gofiber/fiber/v2"

	"todopro/internal/service"
)

// UsersWithoutTasks lists users owning no tasks. Administrators only.
func (s *Server) UsersWithoutTasks(c *fiber.Ctx) error {
	report, err := s.deps.Reports.UsersWithoutTasks(c.UserContext(), currentUser(c))
	if err != nil {
		return handleError(c, err)
	}

	users := make([]UserResponse, 0, len(report.Users))
	for _, u := range report.Users {
		users = append(users, newUserResponse(u))
	}

	resp := IdleUsersResponse{
		Users:        users,
		TotalUsers:   report.TotalUsers,
		WithoutTasks: report.WithoutTasks,
		Percentage:   report.Percentage,
		Today:        report.GeneratedAt,
	}
	if msg, ok := service.IdleUsersSummary(*report); ok {
		resp.Messages = []service.Message{msg}
	}
	return c.JSON(resp)
}
