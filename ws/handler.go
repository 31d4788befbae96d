package ws

import (
	"log"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/kalp9197/luxe-ecommerce-site/models"
)

// TokenVerifier is the one method of services.TokenIssuer the socket needs.
// Declared here so ws does not import services.
type TokenVerifier interface {
	Verify(token string) (*models.TokenClaims, error)
}

type Handler struct {
	hub      *Hub
	verifier TokenVerifier
	upgrader websocket.Upgrader
}

// NewHandler accepts upgrades from allowedOrigins; an empty list allows any
// origin.
func NewHandler(hub *Hub, verifier TokenVerifier, allowedOrigins []string) *Handler {
	return &Handler{
		hub:      hub,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// HandleConnection upgrades GET /ws?token=<jwt>. Browsers cannot set headers
// on a websocket handshake, so the token travels in the query string.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.verifier.Verify(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for user %s: %v", claims.UserID, err)
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		userID: claims.UserID,
		send:   make(chan []byte, sendBufferSize),
	}

	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}

	client.sendEvent(Event{Op: OpReady, Data: ReadyData{UserID: claims.UserID}})

	go client.WritePump()
	client.ReadPump()
}
