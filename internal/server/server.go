package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/iamvkosarev/marvel-ai-chat/config"
	"github.com/iamvkosarev/marvel-ai-chat/internal/usecase"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type ChatSessionService interface {
	CreateChatSession(ctx context.Context, req usecase.CreateChatSessionRequest) (usecase.Response, error)
	PostMessage(ctx context.Context, req usecase.PostMessageRequest) (usecase.Response, error)
	GetChatSession(ctx context.Context, authUID, chatID string) (usecase.Response, error)
	ListUserChatSessions(ctx context.Context, authUID string) (usecase.Response, error)
}

type ToolService interface {
	SubmitTool(ctx context.Context, req usecase.SubmitToolRequest) (usecase.Response, error)
	ListUserToolSessions(ctx context.Context, authUID string) (usecase.Response, error)
}

type ServerDeps struct {
	ChatSession ChatSessionService
	Tool        ToolService
	Logger      *slog.Logger
}

// Server exposes the usecases as callable endpoints: POST /<operation> with a
// {"data": ...} body, answered with {"result": ...} or {"error": ...}.
type Server struct {
	ServerDeps
	cfg  config.HTTP
	echo *echo.Echo
}

type getChatSessionRequest struct {
	ID string `json:"id"`
}

func New(cfg config.HTTP, deps ServerDeps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		ServerDeps: deps,
		cfg:        cfg,
		echo:       e,
	}

	e.Use(middleware.Recover())
	e.Use(
		middleware.RequestIDWithConfig(
			middleware.RequestIDConfig{
				Generator: uuid.NewString,
			},
		),
	)
	e.Use(
		middleware.RequestLoggerWithConfig(
			middleware.RequestLoggerConfig{
				LogStatus:    true,
				LogURI:       true,
				LogMethod:    true,
				LogLatency:   true,
				LogRequestID: true,
				LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
					s.Logger.InfoContext(
						c.Request().Context(), "request",
						"request_id", v.RequestID,
						"method", v.Method,
						"uri", v.URI,
						"status", v.Status,
						"duration_ms", v.Latency.Milliseconds(),
					)
					return nil
				},
			},
		),
	)

	e.GET("/healthz", s.handleHealth)

	auth := authMiddleware([]byte(cfg.JWTSecret))
	e.POST("/createChatSession", s.handleCreateChatSession, auth)
	e.POST("/chat", s.handlePostMessage, auth)
	e.POST("/getChatSession", s.handleGetChatSession, auth)
	e.POST("/listChatSessions", s.handleListChatSessions, auth)
	e.POST("/submitTool", s.handleSubmitTool, auth)
	e.POST("/listToolSessions", s.handleListToolSessions, auth)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Run() error {
	s.Logger.Info("http server started", "addr", s.cfg.Addr)
	if err := s.echo.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleCreateChatSession(c echo.Context) error {
	var req usecase.CreateChatSessionRequest
	if err := bindCallable(c, &req); err != nil {
		return writeError(c, err)
	}
	req.AuthUID = authUID(c)
	resp, err := s.ChatSession.CreateChatSession(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return writeResult(c, resp)
}

func (s *Server) handlePostMessage(c echo.Context) error {
	var req usecase.PostMessageRequest
	if err := bindCallable(c, &req); err != nil {
		return writeError(c, err)
	}
	resp, err := s.ChatSession.PostMessage(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return writeResult(c, resp)
}

func (s *Server) handleGetChatSession(c echo.Context) error {
	var req getChatSessionRequest
	if err := bindCallable(c, &req); err != nil {
		return writeError(c, err)
	}
	resp, err := s.ChatSession.GetChatSession(c.Request().Context(), authUID(c), req.ID)
	if err != nil {
		return writeError(c, err)
	}
	return writeResult(c, resp)
}

func (s *Server) handleListChatSessions(c echo.Context) error {
	resp, err := s.ChatSession.ListUserChatSessions(c.Request().Context(), authUID(c))
	if err != nil {
		return writeError(c, err)
	}
	return writeResult(c, resp)
}

func (s *Server) handleSubmitTool(c echo.Context) error {
	var req usecase.SubmitToolRequest
	if err := bindCallable(c, &req); err != nil {
		return writeError(c, err)
	}
	req.AuthUID = authUID(c)
	resp, err := s.Tool.SubmitTool(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return writeResult(c, resp)
}

func (s *Server) handleListToolSessions(c echo.Context) error {
	resp, err := s.Tool.ListUserToolSessions(c.Request().Context(), authUID(c))
	if err != nil {
		return writeError(c, err)
	}
	return writeResult(c, resp)
}
