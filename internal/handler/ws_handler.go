package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Prag-18/Reviva/internal/audit"
	"github.com/Prag-18/Reviva/internal/config"
	"github.com/Prag-18/Reviva/internal/hub"
	"github.com/Prag-18/Reviva/internal/identity"
	"github.com/Prag-18/Reviva/internal/metrics"
	"github.com/Prag-18/Reviva/internal/service"
	"github.com/Prag-18/Reviva/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Verifier authorises a websocket caller against the id in the path.
type Verifier interface {
	Verify(ctx context.Context, credential, claimedID string) (string, error)
}

type WSHandler struct {
	hub      *hub.Hub
	service  service.ChatService
	verifier Verifier
	wsCfg    config.WebSocketConfig
}

func NewWSHandler(h *hub.Hub, svc service.ChatService, verifier Verifier, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:      h,
		service:  svc,
		verifier: verifier,
		wsCfg:    wsCfg,
	}
}

func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/chat/ws/:user_id", h.HandleWebSocket)
}

// HandleWebSocket serves GET /chat/ws/:user_id?token=JWT. The connection is
// upgraded before authorisation so refusals can carry a close code. The
// handler returns when the channel closes.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	claimedID := c.Param("user_id")
	ctx := c.Request.Context()

	userID, verifyErr := h.verifier.Verify(ctx, c.Query("token"), claimedID)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	if verifyErr != nil {
		h.reject(ctx, conn, claimedID, verifyErr)
		return
	}

	c.Set(log.FieldUserID, userID)
	client := hub.NewClient(userID, h.hub, conn, h.wsCfg)
	ctx = log.WithChannel(ctx, userID, client.ID)

	h.hub.Register(client)
	audit.Log(ctx, audit.ActionConnect, userID, "chat channel opened")

	go client.WritePump()
	client.ReadPump(ctx, h.handleMessage)

	audit.Log(ctx, audit.ActionDisconnect, userID, "chat channel closed")
}

func (h *WSHandler) reject(ctx context.Context, conn *websocket.Conn, claimedID string, verifyErr error) {
	defer conn.Close()

	code := identity.CloseCode(verifyErr)
	metrics.ConnectRejected.WithLabelValues(strconv.Itoa(code)).Inc()

	l := log.Ctx(ctx)
	if code >= 4000 {
		l.Debug().Err(verifyErr).Int("close_code", code).Msg("chat connection refused")
	} else {
		l.Error().Err(verifyErr).Int("close_code", code).Msg("chat connection authorisation failed")
	}
	audit.LogWithDetail(ctx, audit.ActionConnectRejected, claimedID, strconv.Itoa(code), "chat connection rejected")

	msg := websocket.FormatCloseMessage(code, closeReason(code))
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(h.wsCfg.WriteWait))
}

func closeReason(code int) string {
	switch code {
	case identity.CloseInvalidCredential:
		return "invalid token"
	case identity.CloseIdentityMismatch:
		return "token does not match user"
	case identity.CloseUnknownUser:
		return "user not found"
	default:
		return "internal error"
	}
}

func (h *WSHandler) handleMessage(ctx context.Context, client *hub.Client, message []byte) {
	if err := h.service.HandleInbound(ctx, client, message); err != nil {
		l := log.Ctx(ctx)
		if service.IsRecoverable(err) {
			l.Debug().Err(err).Msg("inbound event rejected")
			return
		}
		l.Error().Err(err).Msg("inbound event failed")
	}
}
