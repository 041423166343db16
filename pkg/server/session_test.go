package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-go/tablequery/pkg/tablequery"
)

type liveMessage struct {
	Type  string           `json:"type"`
	Mode  string           `json:"mode"`
	URL   string           `json:"url"`
	State tablequery.State `json:"state"`
	Error map[string]any   `json:"error"`
}

func wsURL(t *testing.T, baseURL, location string) string {
	t.Helper()
	if !strings.HasPrefix(baseURL, "http") {
		t.Fatalf("unexpected base URL: %q", baseURL)
	}
	return "ws" + strings.TrimPrefix(baseURL, "http") + "/ws?url=" + url.QueryEscape(location)
}

func dialLive(t *testing.T, ts *httptest.Server, location string, header http.Header) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(t, ts.URL, location), header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readLive(t *testing.T, conn *websocket.Conn) liveMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg liveMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func startLive(t *testing.T, cfg *Config, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	s := newTestServer(t, cfg, opts...)
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return s, ts
}

func TestLive_InitAndPush(t *testing.T) {
	_, ts := startLive(t, nil)
	conn := dialLive(t, ts, "https://app.example.com/users?tab=all&filters%5Bstatus%5D%5B0%5D=active", nil)

	hello := readLive(t, conn)
	assert.Equal(t, MessageInit, hello.Type)
	assert.Equal(t, "https://app.example.com/users?tab=all&filters%5Bstatus%5D%5B0%5D=active", hello.URL)
	assert.Equal(t, map[string][]string{"status": {"active"}}, hello.State.Filters)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": "push",
		"params": map[string]any{
			"queries": []map[string]string{{"field": "NAME", "text": "bo"}},
			"filters": []map[string]any{},
			"limit":   10,
			"page":    1,
		},
	}))

	patch := readLive(t, conn)
	assert.Equal(t, MessageURL, patch.Type)
	assert.Equal(t, "replace", patch.Mode)
	assert.Equal(t,
		"https://app.example.com/users?page=1&perPage=10&queries%5B0%5D%5Bfield%5D=NAME&queries%5B0%5D%5Btext%5D=bo&tab=all",
		patch.URL)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "selectAll", "value": true}))
	patch = readLive(t, conn)
	assert.Equal(t, MessageURL, patch.Type)
	assert.Contains(t, patch.URL, "isSelectedAll=true")
	assert.Contains(t, patch.URL, "queries%5B0%5D%5Btext%5D=bo", "select-all builds on the last patch")
}

func TestLive_LocationResyncs(t *testing.T) {
	_, ts := startLive(t, nil)
	conn := dialLive(t, ts, "/users", nil)
	readLive(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "location", "url": "/users?page=4&perPage=20"}))
	msg := readLive(t, conn)
	assert.Equal(t, MessageState, msg.Type)
	assert.Equal(t, tablequery.Number(4), msg.State.Page)
	assert.Equal(t, tablequery.Number(20), msg.State.Limit)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "selectAll", "value": true}))
	patch := readLive(t, conn)
	assert.Equal(t, "/users?isSelectedAll=true&page=4&perPage=20", patch.URL)
}

func TestLive_ProtocolErrorsKeepSessionOpen(t *testing.T) {
	_, ts := startLive(t, nil)
	conn := dialLive(t, ts, "/users", nil)
	readLive(t, conn)

	tests := []struct {
		name  string
		frame string
	}{
		{"not json", "{"},
		{"unknown type", `{"type":"explode"}`},
		{"push without params", `{"type":"push"}`},
		{"location without url", `{"type":"location"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.frame)))
			msg := readLive(t, conn)
			assert.Equal(t, MessageError, msg.Type)
			assert.Equal(t, "T160", msg.Error["code"])
		})
	}

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "selectAll", "value": true}))
	assert.Equal(t, MessageURL, readLive(t, conn).Type)
}

func TestLive_InvalidLocationReportsT100(t *testing.T) {
	_, ts := startLive(t, nil)
	conn := dialLive(t, ts, "http://[::1]:namedport/p", nil)
	readLive(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "selectAll", "value": true}))
	msg := readLive(t, conn)
	assert.Equal(t, MessageError, msg.Type)
	assert.Equal(t, "T100", msg.Error["code"])
}

func TestLive_RequiresURL(t *testing.T) {
	_, ts := startLive(t, nil)

	resp, err := http.Get(ts.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLive_OriginCheck(t *testing.T) {
	t.Run("cross origin rejected", func(t *testing.T) {
		_, ts := startLive(t, nil)
		header := http.Header{"Origin": {"https://evil.example"}}
		_, resp, err := websocket.DefaultDialer.Dial(wsURL(t, ts.URL, "/users"), header)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("allowed origin accepted", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.AllowedOrigins = []string{"https://App.Example.com/"}
		_, ts := startLive(t, cfg)
		header := http.Header{"Origin": {"https://app.example.com"}}
		conn := dialLive(t, ts, "/users", header)
		assert.Equal(t, MessageInit, readLive(t, conn).Type)
	})
}

func TestLive_SessionsTrackedAndClosedOnShutdown(t *testing.T) {
	s, ts := startLive(t, nil, WithRegistry(prometheus.NewRegistry()))
	conn := dialLive(t, ts, "/users", nil)
	readLive(t, conn)

	require.Eventually(t, func() bool { return s.SessionCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, s.Shutdown(context.Background()))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)

	require.Eventually(t, func() bool { return s.SessionCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestAllowOrigins(t *testing.T) {
	check := AllowOrigins([]string{"https://a.example"})

	req := httptest.NewRequest(http.MethodGet, "http://srv.example/ws", nil)
	assert.True(t, check(req), "no Origin header")

	req.Header.Set("Origin", "http://srv.example")
	assert.True(t, check(req), "same origin")

	req.Header.Set("Origin", "https://A.example")
	assert.True(t, check(req), "listed origin")

	req.Header.Set("Origin", "https://b.example")
	assert.False(t, check(req))

	assert.True(t, AllowOrigins([]string{"*"})(req), "wildcard")
}
