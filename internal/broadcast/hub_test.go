package broadcast

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/1363V4/datastar-void/internal/domain"
	ws "github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memChannel is an in-process broadcast channel for hub tests.
type memChannel struct {
	mu         sync.Mutex
	subs       []*memSub
	subscribes int
	closes     int
}

func (c *memChannel) Publish(_ context.Context, msg domain.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sub := range c.subs {
		if sub.closed {
			continue
		}
		sub.ch <- msg
	}
	return nil
}

func (c *memChannel) Subscribe(_ context.Context) (domain.Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribes++
	sub := &memSub{parent: c, ch: make(chan domain.Message, 16)}
	c.subs = append(c.subs, sub)
	return sub, nil
}

func (c *memChannel) counts() (subscribes, closes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscribes, c.closes
}

type memSub struct {
	parent *memChannel
	ch     chan domain.Message
	closed bool
}

func (s *memSub) Messages() <-chan domain.Message { return s.ch }

func (s *memSub) Close() error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.parent.closes++
	close(s.ch)
	return nil
}

// testHub sets up a Hub with a test HTTP server.
func testHub(t *testing.T, channel *memChannel, maxClients int) (*Hub, func() *ws.Conn) {
	t.Helper()

	hub := NewHub(channel, clockwork.NewRealClock(), maxClients)
	t.Cleanup(func() { hub.Stop() })

	upgrader := ws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if err := hub.Register(conn); err != nil {
			return
		}

		go func() {
			defer hub.Unregister(conn)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					break
				}
			}
		}()
	}))
	t.Cleanup(server.Close)

	dial := func() *ws.Conn {
		t.Helper()
		url := "ws" + strings.TrimPrefix(server.URL, "http")
		conn, _, err := ws.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	}

	return hub, dial
}

func waitForClientCount(t *testing.T, hub *Hub, expected int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return hub.ClientCount() == expected
	}, time.Second, time.Millisecond)
}

func waitForSubscription(t *testing.T, channel *memChannel) {
	t.Helper()
	require.Eventually(t, func() bool {
		subs, _ := channel.counts()
		return subs == 1
	}, time.Second, time.Millisecond)
}

func TestHub_RegisterAndReceiveBroadcast(t *testing.T) {
	channel := &memChannel{}
	hub, dial := testHub(t, channel, 10)
	waitForSubscription(t, channel)

	conn := dial()
	waitForClientCount(t, hub, 1)

	msg := domain.Message{ID: "a", Text: "hello", Color: "#123456", X: 50, Y: 50}
	require.NoError(t, channel.Publish(context.Background(), msg))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var received domain.Message
	require.NoError(t, json.Unmarshal(data, &received))
	assert.Equal(t, msg, received)
}

func TestHub_FansOutToAllClients(t *testing.T) {
	channel := &memChannel{}
	hub, dial := testHub(t, channel, 10)
	waitForSubscription(t, channel)

	conns := []*ws.Conn{dial(), dial(), dial()}
	waitForClientCount(t, hub, 3)

	msg := domain.Message{ID: "a", Text: "hello", Color: "#123456", X: 50, Y: 50}
	require.NoError(t, channel.Publish(context.Background(), msg))

	for _, conn := range conns {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Contains(t, string(data), `"hello"`)
	}
}

func TestHub_MaxClientsRejectsOverflow(t *testing.T) {
	channel := &memChannel{}
	hub, dial := testHub(t, channel, 1)
	waitForSubscription(t, channel)

	dial()
	waitForClientCount(t, hub, 1)

	// Second client is rejected; server closes the connection.
	overflow := dial()
	require.NoError(t, overflow.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := overflow.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 1, hub.ClientCount())
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	channel := &memChannel{}
	hub, dial := testHub(t, channel, 10)
	waitForSubscription(t, channel)

	conn := dial()
	waitForClientCount(t, hub, 1)

	require.NoError(t, conn.Close())
	waitForClientCount(t, hub, 0)
}

func TestHub_SkipsKeepalivePayloads(t *testing.T) {
	channel := &memChannel{}
	hub, dial := testHub(t, channel, 10)
	waitForSubscription(t, channel)

	conn := dial()
	waitForClientCount(t, hub, 1)

	require.NoError(t, channel.Publish(context.Background(), domain.Message{}))
	require.NoError(t, channel.Publish(context.Background(), domain.Message{ID: "a", Text: "real"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"real"`)
}

func TestHub_StopClosesClientsAndUnsubscribes(t *testing.T) {
	channel := &memChannel{}
	hub, dial := testHub(t, channel, 10)
	waitForSubscription(t, channel)

	conn := dial()
	waitForClientCount(t, hub, 1)

	hub.Stop()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "clients are closed on shutdown")

	subs, closes := channel.counts()
	assert.Equal(t, subs, closes, "hub unsubscribes on shutdown")
}
