package ws

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalp9197/luxe-ecommerce-site/models"
)

type stubVerifier struct{}

func (stubVerifier) Verify(token string) (*models.TokenClaims, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return &models.TokenClaims{UserID: "user-1", Role: models.RoleUser}, nil
}

func startServer(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Shutdown)

	srv := httptest.NewServer(http.HandlerFunc(NewHandler(hub, stubVerifier{}, nil).HandleConnection))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestHandler_RejectsMissingAndBadTokens(t *testing.T) {
	_, url := startServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url+"?token=bad", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHub_BroadcastReachesEveryTabOfUser(t *testing.T) {
	hub, url := startServer(t)

	tab1, _, err := websocket.DefaultDialer.Dial(url+"?token=good", nil)
	require.NoError(t, err)
	defer tab1.Close()
	tab2, _, err := websocket.DefaultDialer.Dial(url+"?token=good", nil)
	require.NoError(t, err)
	defer tab2.Close()

	assert.Equal(t, OpReady, readEvent(t, tab1).Op)
	assert.Equal(t, OpReady, readEvent(t, tab2).Op)

	require.Eventually(t, func() bool { return hub.ConnectionCount("user-1") == 2 },
		2*time.Second, 10*time.Millisecond)

	hub.BroadcastToUser("user-1", Event{Op: OpCartUpdate, Data: map[string]int{"count": 3}})
	hub.BroadcastToUser("someone-else", Event{Op: OpCartUpdate})

	for _, conn := range []*websocket.Conn{tab1, tab2} {
		ev := readEvent(t, conn)
		assert.Equal(t, OpCartUpdate, ev.Op)
		assert.Positive(t, ev.Seq)
	}
}

func TestClient_HeartbeatIsAcknowledged(t *testing.T) {
	_, url := startServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token=good", nil)
	require.NoError(t, err)
	defer conn.Close()
	readEvent(t, conn)

	require.NoError(t, conn.WriteJSON(Event{Op: OpHeartbeat}))
	assert.Equal(t, OpHeartbeatAck, readEvent(t, conn).Op)
}
