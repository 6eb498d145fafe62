package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingocache/internal/config"
	"lingocache/internal/model"
	"lingocache/internal/service"
)

func dial(t *testing.T, srv *httptest.Server, query string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws/telemetry" + query
	return websocket.DefaultDialer.Dial(url, nil)
}

func TestTelemetryFeed(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Stop()
	srv := httptest.NewServer(http.HandlerFunc(NewHandler(hub, nil, nil).Telemetry))
	defer srv.Close()

	conn, _, err := dial(t, srv, "")
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	sink := service.NewBroadcastSink(hub)
	require.NoError(t, sink.Record(ctx, model.TelemetryEvent{
		ContentID: "42",
		Source:    model.ResponseTemplate,
	}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MsgEvaluation, msg.Type)
	var ev model.TelemetryEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &ev))
	assert.Equal(t, "42", ev.ContentID)
	assert.Equal(t, model.ResponseTemplate, ev.Source)
}

func TestTelemetryFeedRequiresToken(t *testing.T) {
	auth := service.NewAuthService(config.AuthConfig{
		JWTSecret: "secret", ClientID: "app", ClientSecret: "pw", TokenTTLMin: 5,
	})
	hub := NewHub(nil)
	defer hub.Stop()
	srv := httptest.NewServer(http.HandlerFunc(NewHandler(hub, auth, nil).Telemetry))
	defer srv.Close()

	_, resp, err := dial(t, srv, "")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = dial(t, srv, "?token=garbage")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	tok, err := auth.IssueToken("app", "pw")
	require.NoError(t, err)
	conn, _, err := dial(t, srv, "?token="+tok.Token)
	require.NoError(t, err)
	conn.Close()
}

func TestHubStopClosesSubscribers(t *testing.T) {
	hub := NewHub(nil)
	conn := &Connection{ClientID: "a", Send: make(chan []byte, 1)}
	hub.Register(conn)
	hub.Stop()

	select {
	case _, ok := <-conn.Send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
	hub.Broadcast("evaluation", map[string]string{"x": "y"})
}
