package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/kuisku-participant/internal/middleware"
	"github.com/stemsi/kuisku-participant/internal/session"
	ws "github.com/stemsi/kuisku-participant/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams session snapshots to the participant UI.
type WSHandler struct {
	manager  *session.Manager
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(manager *session.Manager, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		manager:  manager,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// ParticipantStream godoc
// WS /ws/v1/participant/stream
// Upgrades to WebSocket and pushes a full snapshot on every state
// change. The client only ever sends pings; all mutations go through
// the REST surface.
func (h *WSHandler) ParticipantStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	rt := h.manager.Get(claims.ParticipantID())
	if rt == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active runtime"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("participant_id", claims.ParticipantID()).Logger()
	wsLog.Info().Msg("Participant connected")

	ctx := c.Request.Context()

	// Buffered so the runtime's non-blocking publish rarely drops; a
	// dropped snapshot is superseded by the next one anyway.
	snaps := make(chan *session.Snapshot, 8)
	if err := rt.Subscribe(ctx, snaps); err != nil {
		ws.WriteError(conn, "runtime unavailable")
		return
	}
	defer rt.Unsubscribe(ctx, snaps)

	// Initial snapshot so the UI renders before the first change.
	snap, err := rt.Snapshot(ctx)
	if err != nil {
		ws.WriteError(conn, "runtime unavailable")
		return
	}
	if err := ws.WriteSnapshot(conn, snap); err != nil {
		return
	}

	pings := make(chan struct{}, 1)
	closed := make(chan struct{})
	go h.readLoop(conn, wsLog, pings, closed)

	for {
		select {
		case snap := <-snaps:
			if err := ws.WriteSnapshot(conn, snap); err != nil {
				wsLog.Debug().Err(err).Msg("Snapshot write failed")
				return
			}
		case <-pings:
			if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
				return
			}
		case <-closed:
			wsLog.Info().Msg("Participant disconnected")
			return
		case <-ctx.Done():
			return
		}
	}
}

// readLoop drains inbound messages. Pings keep the read deadline
// fresh; anything else is logged and ignored. All writes stay on the
// streaming goroutine since the connection allows one writer.
func (h *WSHandler) readLoop(conn *websocket.Conn, wsLog zerolog.Logger, pings chan<- struct{}, closed chan<- struct{}) {
	defer close(closed)

	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionPing:
			select {
			case pings <- struct{}{}:
			default:
			}
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
		}
	}
}
