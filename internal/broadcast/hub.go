package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/1363V4/datastar-void/internal/domain"
	"github.com/1363V4/datastar-void/internal/metrics"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

const (
	commandTimeout   = 5 * time.Second
	stopTimeout      = 10 * time.Second
	resubscribeDelay = time.Second
)

// hubCmd is the command interface for the Hub actor.
type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type registerCmd struct {
	baseHubCmd
	connection   *websocket.Conn
	errorChannel chan error
}

type unregisterCmd struct {
	baseHubCmd
	connection *websocket.Conn
}

type clientCountCmd struct {
	baseHubCmd
	replyChannel chan int
}

type stopCmd struct {
	baseHubCmd
}

// Hub fans broadcast payloads out to WebSocket viewers. It holds the one
// subscription this process keeps on the broadcast channel, so a thousand
// WebSocket viewers cost one Redis subscription instead of a thousand.
// Single goroutine plus command channel, no mutexes; per-connection write
// goroutines absorb slow clients.
type Hub struct {
	cmdCh      chan hubCmd
	clock      clockwork.Clock
	channel    domain.Channel
	clients    map[*websocket.Conn]*clientWriter
	done       chan struct{}
	maxClients int

	cancel context.CancelFunc
}

// NewHub creates the hub and starts its actor goroutine. maxClients limits
// concurrent WebSocket viewers on this instance.
func NewHub(channel domain.Channel, clock clockwork.Clock, maxClients int) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		cmdCh:      make(chan hubCmd, 256),
		clock:      clock,
		channel:    channel,
		clients:    make(map[*websocket.Conn]*clientWriter),
		done:       make(chan struct{}),
		maxClients: maxClients,
		cancel:     cancel,
	}
	go h.run(ctx)
	return h
}

// Register attaches a WebSocket connection to the hub. Returns an error when
// the client cap is reached or the hub is unresponsive.
func (h *Hub) Register(conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- registerCmd{connection: conn, errorChannel: errCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister detaches a WebSocket connection.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.cmdCh <- unregisterCmd{connection: conn}
}

// ClientCount returns the number of attached clients, or -1 on timeout.
func (h *Hub) ClientCount() int {
	replyCh := make(chan int, 1)
	h.cmdCh <- clientCountCmd{replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("ClientCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop shuts the hub down, closing all client connections. Blocks until the
// actor goroutine has exited or the stop timeout is reached.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}

	timer := h.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
		slog.Info("Hub stopped gracefully")
	case <-timer.Chan():
		slog.Warn("Hub stop timeout exceeded, forcing exit", "timeout", stopTimeout)
		h.cancel()
	}
}

func (h *Hub) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Hub panic recovered", "panic", r)
			h.closeAllClients("hub panic")
		}
	}()
	defer close(h.done)
	defer h.cancel()

	sub := h.subscribe(ctx)
	if sub == nil {
		return
	}
	defer func() {
		if err := sub.Close(); err != nil {
			slog.Warn("Failed to close hub subscription", "error", err)
		}
	}()

	for {
		select {
		case cmd := <-h.cmdCh:
			switch c := cmd.(type) {
			case registerCmd:
				h.handleRegister(c)
			case unregisterCmd:
				h.handleUnregister(c)
			case clientCountCmd:
				c.replyChannel <- len(h.clients)
			case stopCmd:
				h.handleStop()
				return
			default:
				slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
			}
		case msg, ok := <-sub.Messages():
			if !ok {
				// Subscription torn down under us; reconnect.
				_ = sub.Close()
				if sub = h.subscribe(ctx); sub == nil {
					return
				}
				continue
			}
			h.handleBroadcast(msg)
		case <-ctx.Done():
			h.closeAllClients("server shutting down")
			return
		}
	}
}

// subscribe keeps retrying until the channel accepts the subscription or the
// hub is cancelled. Returns nil on cancellation.
func (h *Hub) subscribe(ctx context.Context) domain.Subscription {
	for {
		sub, err := h.channel.Subscribe(ctx)
		if err == nil {
			return sub
		}
		slog.Warn("Hub subscription failed, retrying", "error", err)

		select {
		case <-ctx.Done():
			return nil
		case <-h.clock.After(resubscribeDelay):
		}
	}
}

func (h *Hub) handleRegister(c registerCmd) {
	if len(h.clients) >= h.maxClients {
		slog.Warn("Rejecting client: max clients reached", "max_clients", h.maxClients)
		_ = c.connection.Close()
		c.errorChannel <- fmt.Errorf("max clients (%d) reached", h.maxClients)
		return
	}

	h.clients[c.connection] = newClientWriter(c.connection, h.clock)
	metrics.HubConnectedClients.Set(float64(len(h.clients)))

	slog.Debug("Client registered", "total_clients", len(h.clients))
	c.errorChannel <- nil
}

func (h *Hub) handleUnregister(c unregisterCmd) {
	cw, exists := h.clients[c.connection]
	if !exists {
		return
	}

	cw.stop()
	delete(h.clients, c.connection)
	metrics.HubConnectedClients.Set(float64(len(h.clients)))

	slog.Debug("Client unregistered", "remaining_clients", len(h.clients))
}

func (h *Hub) handleBroadcast(msg domain.Message) {
	if msg.ID == "" {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Failed to marshal broadcast message", "error", err)
		return
	}

	var slow []*websocket.Conn
	for conn, writer := range h.clients {
		select {
		case writer.sendChannel <- data:
		default:
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		slog.Warn("Disconnecting slow client")
		metrics.HubSlowClientsEvicted.Inc()
		h.handleUnregister(unregisterCmd{connection: conn})
	}
}

func (h *Hub) handleStop() {
	slog.Info("Hub shutting down", "clients", len(h.clients))
	h.closeAllClients("server shutting down")
}

func (h *Hub) closeAllClients(reason string) {
	for conn, cw := range h.clients {
		cw.stopGraceful(reason)
		delete(h.clients, conn)
	}
	metrics.HubConnectedClients.Set(0)
}
