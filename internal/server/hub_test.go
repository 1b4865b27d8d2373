package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/filedeck/internal/notify"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonReader(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func dial(t *testing.T, ts *httptest.Server, sid string) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	header.Set("Cookie", sidCookie+"="+sid)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/ws", header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var e Event
	require.NoError(t, conn.ReadJSON(&e))
	return e
}

// readUntil skips events until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) Event {
	t.Helper()
	for {
		if e := readEvent(t, conn); e.Type == typ {
			return e
		}
	}
}

func TestHub_StateAndSessionNotifications(t *testing.T) {
	h := newHarness(t)
	h.seed("a.txt", "text/plain", []byte("a"))

	ts := httptest.NewServer(h.server.Handler())
	t.Cleanup(ts.Close)

	const sidA = "0b7c1b2e-8f1a-4c55-9d39-5c7a2f6e8a11"
	const sidB = "6f0e9d43-2c44-4f5b-8a8d-1f4c9b7e2d22"
	a := dial(t, ts, sidA)
	b := dial(t, ts, sidB)

	first := readEvent(t, a)
	require.Equal(t, EventState, first.Type)
	require.NotNil(t, first.State)
	assert.Len(t, first.State.Files, 1)
	readEvent(t, b)

	require.Eventually(t, func() bool { return h.hub.Clients() == 2 }, time.Second, 10*time.Millisecond)

	h.hub.Session(sidA).Notify(context.Background(), notify.Info("", "only for a"))
	h.hub.Notify(context.Background(), notify.Info("", "for everyone"))

	got := readUntil(t, a, EventNotification)
	assert.Equal(t, "only for a", got.Notification.Message)
	got = readUntil(t, a, EventNotification)
	assert.Equal(t, "for everyone", got.Notification.Message)

	got = readUntil(t, b, EventNotification)
	assert.Equal(t, "for everyone", got.Notification.Message)
}

func TestRequestNotifier(t *testing.T) {
	late := &notify.Collector{}
	rn := newRequestNotifier(late)
	ctx := context.Background()

	rn.Notify(ctx, notify.Success("", "during"))
	items := rn.finish()
	rn.Notify(ctx, notify.Success("", "after"))

	require.Len(t, items, 1)
	assert.Equal(t, "during", items[0].Message)
	require.Len(t, late.Items(), 1)
	assert.Equal(t, "after", late.Items()[0].Message)
}
