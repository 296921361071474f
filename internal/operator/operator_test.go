package operator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ashureev/briefbot/internal/intake"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(ctx context.Context, t *testing.T, url string, opts *websocket.DialOptions) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, url, opts)
	require.NoError(t, err)

	var ready wsMessage
	require.NoError(t, wsjson.Read(ctx, conn, &ready))
	require.Equal(t, "ready", ready.Type)
	return conn
}

func TestFeedStreamsBroadcasts(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(NewHandler(hub, "", nil))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := dial(ctx, t, wsURL(srv), nil)

	assert.Equal(t, 1, hub.Count())
	assert.Equal(t, 1, hub.Broadcast(Brief{Type: "brief", Text: "BRF-001", Delivered: true}))

	var got Brief
	require.NoError(t, wsjson.Read(ctx, conn, &got))
	assert.Equal(t, "BRF-001", got.Text)
	assert.True(t, got.Delivered)

	require.NoError(t, wsjson.Write(ctx, conn, wsMessage{Type: "ping"}))
	var pong wsMessage
	require.NoError(t, wsjson.Read(ctx, conn, &pong))
	assert.Equal(t, "pong", pong.Type)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))
	assert.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestFeedRequiresToken(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(NewHandler(hub, "op-token", nil))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, wsURL(srv), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn := dial(ctx, t, wsURL(srv), &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer op-token"}},
	})
	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))

	conn = dial(ctx, t, wsURL(srv)+"?token=op-token", nil)
	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))

	assert.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(NewHandler(hub, "", nil))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := dial(ctx, t, wsURL(srv), nil)
	defer conn.CloseNow()

	hub.Close()

	var b Brief
	assert.Error(t, wsjson.Read(ctx, conn, &b))
	assert.Zero(t, hub.Count())
	assert.Nil(t, hub.register(), "closed hub refuses new dashboards")
}

func TestBroadcastDropsForSlowClient(t *testing.T) {
	hub := NewHub()
	c := hub.register()
	require.NotNil(t, c)

	for i := 0; i < sendBuffer; i++ {
		require.Equal(t, 1, hub.Broadcast(Brief{Type: "brief"}))
	}
	assert.Equal(t, 0, hub.Broadcast(Brief{Type: "brief"}), "full queue does not block")

	hub.unregister(c)
	hub.unregister(c)
	assert.Zero(t, hub.Count())
}

type stubMessenger struct {
	intake.Messenger
	channelErr error
	delivered  []string
}

func (s *stubMessenger) SendToChannel(_ context.Context, _ string, text string) error {
	if s.channelErr != nil {
		return s.channelErr
	}
	s.delivered = append(s.delivered, text)
	return nil
}

func TestFeedMessengerMirrorsDeliveries(t *testing.T) {
	hub := NewHub()
	c := hub.register()
	require.NotNil(t, c)
	defer hub.Close()

	inner := &stubMessenger{}
	m := WithFeed(inner, hub)

	require.NoError(t, m.SendToChannel(context.Background(), "@briefs", "brief one"))
	got := <-c.send
	assert.Equal(t, "brief", got.Type)
	assert.Equal(t, "@briefs", got.Channel)
	assert.Equal(t, "brief one", got.Text)
	assert.True(t, got.Delivered)
	assert.Equal(t, []string{"brief one"}, inner.delivered)

	inner.channelErr = errors.New("chat not found")
	err := m.SendToChannel(context.Background(), "@briefs", "brief two")
	require.EqualError(t, err, "chat not found")
	got = <-c.send
	assert.False(t, got.Delivered)
	assert.Equal(t, "chat not found", got.Error)
}
