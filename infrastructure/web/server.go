package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"chat-relay/domain"
	"chat-relay/services"

	"github.com/labstack/echo/v4"
)

// minSearchLength mirrors the minimum query size accepted on /search.
const minSearchLength = 3

// Server exposes the orchestrator over HTTP and WebSocket.
type Server struct {
	echo            *echo.Echo
	log             *slog.Logger
	chat            services.IChatService
	bufferSize      int
	deliveryTimeout time.Duration
}

func NewServer(log *slog.Logger, chat services.IChatService,
	apiKey string, rateLimitPerMin, bufferSize int, deliveryTimeout time.Duration) *Server {
	s := &Server{
		echo:            echo.New(),
		log:             log,
		chat:            chat,
		bufferSize:      bufferSize,
		deliveryTimeout: deliveryTimeout,
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true

	api := s.echo.Group("/api/messages", APIKeyAuth(apiKey), RateLimit(rateLimitPerMin))
	api.POST("", s.CreateMessage)
	api.POST("/", s.CreateMessage)
	api.GET("/search", s.SearchMessages)
	api.GET("/ws", s.ServeWS)
	api.GET("/:session_id", s.GetMessages)

	return s
}

// Start blocks serving requests until Shutdown or a listener error.
func (s *Server) Start(host string, port int) error {
	return s.echo.Start(fmt.Sprintf("%s:%d", host, port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// CreateMessage receives, processes, stores and broadcasts a new message.
// The broadcast to live subscribers happens inside the create use case;
// a response here means the message was durably persisted.
func (s *Server) CreateMessage(c echo.Context) error {
	var req CreateMessageRequest
	if err := c.Bind(&req); err != nil {
		return writeBadRequest(c, "MALFORMED_BODY", "request body is not valid JSON")
	}

	message, err := s.chat.PostMessage(c.Request().Context(), domain.PostMessageCommand{
		SessionID: req.SessionID,
		Sender:    req.Sender,
		Content:   req.Content,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, SuccessResponse{
		Status: "success",
		Data:   toMessageResponse(message),
	})
}

// GetMessages lists one page of a session's history.
func (s *Server) GetMessages(c echo.Context) error {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return writeBadRequest(c, "MALFORMED_QUERY", "limit must be an integer")
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return writeBadRequest(c, "MALFORMED_QUERY", "offset must be an integer")
	}

	messages, err := s.chat.GetMessages(domain.GetMessagesCommand{
		SessionID: c.Param("session_id"),
		Limit:     limit,
		Offset:    offset,
		Sender:    c.QueryParam("sender"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toMessageResponses(messages))
}

// SearchMessages finds messages across all sessions containing the term.
func (s *Server) SearchMessages(c echo.Context) error {
	query := c.QueryParam("q")
	if len([]rune(query)) < minSearchLength {
		return writeBadRequest(c, "QUERY_TOO_SHORT",
			fmt.Sprintf("q must be at least %d characters", minSearchLength))
	}

	messages, err := s.chat.SearchMessages(c.Request().Context(), query)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toMessageResponses(messages))
}

func queryInt(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
