package realtime_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/stratacrm/internal/app/system/realtime"
	"github.com/dalemusser/stratacrm/internal/app/system/tenant"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// tokenAuth treats the token query parameter as the tenant id.
type tokenAuth struct{}

func (tokenAuth) Authenticate(r *http.Request) (tenant.Info, error) {
	tok := r.URL.Query().Get("token")
	if tok == "" {
		return tenant.Info{}, errors.New("no token")
	}
	return tenant.Info{TenantID: tok, UserID: "user-" + tok}, nil
}

type frame struct {
	Event     string `json:"event"`
	RequestID string `json:"requestId"`
	Data      struct {
		Done  bool            `json:"done"`
		Data  json.RawMessage `json:"data"`
		Error string          `json:"error"`
		Code  string          `json:"code"`
	} `json:"data"`
}

func newTestHub(t *testing.T) (*realtime.Hub, *httptest.Server) {
	t.Helper()
	hub := realtime.NewHub(newRouter(), tokenAuth{}, realtime.Options{}, zap.NewNop())
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = hub.Stop(ctx)
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestHub_RoundTrip(t *testing.T) {
	_, srv := newTestHub(t)
	conn := dial(t, srv, "acme")

	require.NoError(t, conn.WriteJSON(map[string]any{"event": "whoami", "requestId": "r1"}))
	f := readFrame(t, conn)

	assert.Equal(t, "whoamiResponse", f.Event)
	assert.Equal(t, "r1", f.RequestID)
	require.True(t, f.Data.Done)

	var info tenant.Info
	require.NoError(t, json.Unmarshal(f.Data.Data, &info))
	assert.Equal(t, "acme", info.TenantID)
	assert.Equal(t, "user-acme", info.UserID)
}

func TestHub_UnknownEventAndMalformed(t *testing.T) {
	_, srv := newTestHub(t)
	conn := dial(t, srv, "acme")

	require.NoError(t, conn.WriteJSON(map[string]any{"event": "doesNotExist"}))
	f := readFrame(t, conn)
	assert.Equal(t, "doesNotExistResponse", f.Event)
	assert.False(t, f.Data.Done)
	assert.Equal(t, realtime.CodeUnknownEvent, f.Data.Code)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	f = readFrame(t, conn)
	assert.Equal(t, "error", f.Event)
	assert.Equal(t, realtime.CodeBadRequest, f.Data.Code)
}

func TestHub_RejectsUnauthenticated(t *testing.T) {
	_, srv := newTestHub(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHub_PublishReachesOnlyTenant(t *testing.T) {
	hub, srv := newTestHub(t)
	a1 := dial(t, srv, "acme")
	a2 := dial(t, srv, "acme")
	other := dial(t, srv, "globex")

	require.Eventually(t, func() bool {
		return hub.ClientCount("acme") == 2 && hub.ClientCount("globex") == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.Publish("acme", "leadsChanged", map[string]string{"id": "x"})

	for _, c := range []*websocket.Conn{a1, a2} {
		f := readFrame(t, c)
		assert.Equal(t, "leadsChanged", f.Event)
	}

	require.NoError(t, other.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "other tenant must not receive the event")
}

func TestHub_UnregisterOnClose(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, srv, "acme")

	require.Eventually(t, func() bool { return hub.ClientCount("acme") == 1 },
		2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool { return hub.ClientCount("acme") == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestHub_CapsEventsInFlightPerConnection(t *testing.T) {
	var inFlight, peak atomic.Int32
	release := make(chan struct{})

	rt := realtime.NewRouter(nil, zap.NewNop())
	rt.Handle("work", 5*time.Second, func(ctx context.Context, _ json.RawMessage) (any, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		select {
		case <-release:
			return "ok", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})

	hub := realtime.NewHub(rt, tokenAuth{}, realtime.Options{MaxInFlight: 2}, zap.NewNop())
	go hub.Run()
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = hub.Stop(ctx)
		srv.Close()
	})

	conn := dial(t, srv, "acme")
	for i := 0; i < 5; i++ {
		require.NoError(t, conn.WriteJSON(map[string]any{"event": "work", "requestId": strconv.Itoa(i)}))
	}

	require.Eventually(t, func() bool { return inFlight.Load() == 2 },
		2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), peak.Load())

	close(release)
	for i := 0; i < 5; i++ {
		f := readFrame(t, conn)
		assert.Equal(t, "workResponse", f.Event)
		assert.True(t, f.Data.Done)
	}
	assert.Equal(t, int32(2), peak.Load())
}
