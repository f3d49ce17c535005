package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Prag-18/Reviva/internal/config"
	"github.com/Prag-18/Reviva/internal/service"
	"github.com/Prag-18/Reviva/pkg/log"
	"github.com/Prag-18/Reviva/pkg/middleware"
	"github.com/Prag-18/Reviva/pkg/response"
)

type HTTPHandler struct {
	chatService service.ChatService
	auth        *middleware.AuthMiddleware
	history     config.HistoryConfig
}

func NewHTTPHandler(chatService service.ChatService, auth *middleware.AuthMiddleware, history config.HistoryConfig) *HTTPHandler {
	if history.DefaultLimit <= 0 {
		history.DefaultLimit = 50
	}
	if history.MaxLimit <= 0 {
		history.MaxLimit = 100
	}
	return &HTTPHandler{
		chatService: chatService,
		auth:        auth,
		history:     history,
	}
}

func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	chat := r.Group("/chat", h.auth.RequireAuth())
	{
		chat.GET("/history/:other_user_id", h.GetHistory)
		chat.GET("/conversations", h.GetConversations)
	}

	r.GET("/health", h.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// GetHistory serves the conversation with other_user_id. Fetching marks the
// caller's unread messages in the page as read, so responses must not be cached.
func (h *HTTPHandler) GetHistory(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	otherID, err := uuid.Parse(c.Param("other_user_id"))
	if err != nil {
		response.BadRequest(c, "other_user_id must be a uuid")
		return
	}

	limit := h.history.DefaultLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			response.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = parsed
		if limit > h.history.MaxLimit {
			limit = h.history.MaxLimit
		}
	}

	offset := 0
	if offsetStr := c.Query("offset"); offsetStr != "" {
		parsed, err := strconv.Atoi(offsetStr)
		if err != nil || parsed < 0 {
			response.BadRequest(c, "offset must be a non-negative integer")
			return
		}
		offset = parsed
	}

	callerID := middleware.GetUserID(c)
	messages, err := h.chatService.GetHistory(c.Request.Context(), callerID, otherID.String(), limit, offset)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, "User not found")
			return
		}
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Msg("failed to get chat history")
		response.InternalError(c, "failed to get chat history")
		return
	}

	response.Success(c, messages)
}

func (h *HTTPHandler) GetConversations(c *gin.Context) {
	callerID := middleware.GetUserID(c)
	conversations, err := h.chatService.GetConversations(c.Request.Context(), callerID)
	if err != nil {
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Msg("failed to get conversations")
		response.InternalError(c, "failed to get conversations")
		return
	}

	response.Success(c, conversations)
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	response.Success(c, gin.H{
		"status": "ok",
	})
}
