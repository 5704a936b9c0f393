package api

import (
	"github.com/gofiber/fiber/v2"

	"todopro/internal/service"
)

// GetProfile returns the caller's profile page.
func (s *Server) GetProfile(c *fiber.Ctx) error {
	view, err := s.deps.Profiles.Get(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(s.profilePage(view, nil))
}

// UpdateProfile edits the caller's name, email and profile fields.
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var req service.ProfileInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	view, err := s.deps.Profiles.Update(c.UserContext(), currentUser(c).ID, req)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(s.profilePage(view, []service.Message{service.MsgProfileUpdated()}))
}

func (s *Server) profilePage(view *service.ProfileView, msgs []service.Message) ProfilePageResponse {
	return ProfilePageResponse{
		User:        newUserResponse(view.User),
		Profile:     newProfileResponse(view.Profile),
		RecentTasks: s.taskResponses(view.RecentTasks),
		Stats:       newStatsResponse(view.Stats),
		Messages:    msgs,
	}
}
