package realtime

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"facilityhub/internal/domain"
	"facilityhub/internal/pkg/jwt"
	"facilityhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Handler struct {
	hub        *Hub
	jwtService *jwt.Service
}

func NewHandler(hub *Hub, jwtService *jwt.Service) *Handler {
	return &Handler{hub: hub, jwtService: jwtService}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/ws/bookings", h.Serve)
}

// Serve upgrades a staff connection.
//
// Endpoint: GET /ws/bookings?token=JWT&resource_id=1,2
//
// Browsers cannot set headers on websocket requests, so the token travels in
// the query string.
func (h *Handler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Token is required")
		return
	}
	claims, err := h.jwtService.ValidateToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
		return
	}
	actor := domain.Actor{UserID: claims.UserID, Role: claims.Role}
	if !actor.IsStaff() {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Staff role required")
		return
	}

	resources, err := parseResourceFilter(c.Query("resource_id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid resource_id")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws_upgrade_failed user_id=%d error=%v", actor.UserID, err)
		return
	}

	cl := &client{
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		userID:    actor.UserID,
		resources: resources,
	}
	h.hub.register(cl)
	log.Printf("ws_connected user_id=%d resources=%d", actor.UserID, len(resources))

	go writePump(cl)
	readPump(h.hub, cl)
}

func parseResourceFilter(raw string) (map[int64]bool, error) {
	out := map[int64]bool{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, strconv.ErrSyntax
		}
		out[id] = true
	}
	return out, nil
}

// readPump discards client frames and keeps the deadline fresh. It returns
// when the connection drops.
func readPump(hub *Hub, cl *client) {
	defer func() {
		hub.unregister(cl)
		_ = cl.conn.Close()
		log.Printf("ws_disconnected user_id=%d", cl.userID)
	}()

	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ws_read_error user_id=%d error=%v", cl.userID, err)
			}
			return
		}
	}
}

func writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
