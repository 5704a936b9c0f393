package api

import (
	"github.com/gofiber/fiber/v2"

	"todopro/internal/service"
)

// Home reports how many tasks are expired across all users.
func (s *Server) Home(c *fiber.Ctx) error {
	count, err := s.deps.Reports.ExpiredCount(c.UserContext())
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(fiber.Map{"expired_count": count})
}

// Register creates an account together with its profile.
func (s *Server) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	user, err := s.deps.Accounts.Register(c.UserContext(), req)
	if err != nil {
		return handleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":     newUserResponse(*user),
		"messages": []service.Message{service.MsgRegistered()},
	})
}

// Login exchanges credentials for a token pair.
func (s *Server) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}
	if req.Username == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Username and password are required",
		})
	}

	user, err := s.deps.Accounts.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return handleError(c, err)
	}

	pair, err := s.deps.Tokens.IssuePair(user.ID, user.Username)
	if err != nil {
		return handleError(c, err)
	}

	resp := newUserResponse(*user)
	return c.JSON(TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		TokenType:    "Bearer",
		User:         &resp,
		Messages:     []service.Message{service.MsgWelcomeBack(user.Username)},
	})
}

// Refresh issues a new token pair for a valid refresh token.
func (s *Server) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}
	if req.RefreshToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Refresh token is required",
		})
	}

	claims, err := s.deps.Tokens.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return unauthorized(c, "Invalid or expired refresh token")
	}
	user, err := s.deps.Accounts.GetUser(c.UserContext(), claims.UserID)
	if err != nil {
		return unauthorized(c, "Invalid or expired refresh token")
	}

	pair, err := s.deps.Tokens.IssuePair(user.ID, user.Username)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		TokenType:    "Bearer",
	})
}

// Logout says goodbye. Tokens are stateless; clients drop them.
func (s *Server) Logout(c *fiber.Ctx) error {
	user := currentUser(c)
	return c.JSON(fiber.Map{
		"messages": []service.Message{service.MsgGoodbye(user.Username)},
	})
}
