package api

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"golang.org/x/time/rate"

	"todopro/internal/auth"
	"todopro/internal/service"
)

// Deps are the collaborators the HTTP API is built from.
type Deps struct {
	Accounts *service.AccountService
	Profiles *service.ProfileService
	Tasks    *service.TaskService
	Reports  *service.ReportService
	Tokens   *auth.JWTManager
	Location *time.Location

	// AuthRate and AuthBurst bound requests per client IP on /auth endpoints.
	AuthRate  rate.Limit
	AuthBurst int
	// DisableAccessLog turns off the request logger, mostly for tests.
	DisableAccessLog bool
}

// Server is the fiber HTTP API.
type Server struct {
	app  *fiber.App
	deps Deps
}

// New creates the fiber app and registers every route.
func New(deps Deps) *Server {
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.AuthRate <= 0 {
		deps.AuthRate = 5
	}
	if deps.AuthBurst <= 0 {
		deps.AuthBurst = 10
	}

	s := &Server{deps: deps}
	s.app = fiber.New(fiber.Config{
		AppName:               "todopro",
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(requestid.New())
	if !deps.DisableAccessLog {
		s.app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path} ${locals:requestid}\n",
		}))
	}
	s.app.Use(cors.New())

	s.setupRoutes()
	return s
}

// App exposes the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves HTTP on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	log.Printf("[api] HTTP server listening on %s", addr)
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for active requests or ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("[api] shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) setupRoutes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	v1 := s.app.Group("/api/v1")
	v1.Get("/", s.Home)

	authRoutes := v1.Group("/auth", RateLimiter(s.deps.AuthRate, s.deps.AuthBurst))
	authRoutes.Post("/register", s.Register)
	authRoutes.Post("/login", s.Login)
	authRoutes.Post("/refresh", s.Refresh)

	protected := v1.Group("", AuthMiddleware(s.deps.Tokens, s.deps.Accounts))
	protected.Post("/auth/logout", s.Logout)

	protected.Get("/profile", s.GetProfile)
	protected.Put("/profile", s.UpdateProfile)

	protected.Get("/tasks", s.ListTasks)
	protected.Post("/tasks", s.CreateTask)
	protected.Get("/tasks/expired", s.ExpiredTasks)
	protected.Get("/tasks/:id", s.GetTask)
	protected.Put("/tasks/:id", s.UpdateTask)
	protected.Patch("/tasks/:id/status", s.SetTaskStatus)
	protected.Delete("/tasks/:id", s.DeleteTask)

	protected.Get("/reports/users-without-tasks", s.UsersWithoutTasks)
}

// customErrorHandler handles errors that escaped the handlers.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	} else {
		log.Printf("[api] unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}
