// internal/app/system/realtime/hub.go
// Package realtime is the websocket transport: a hub of per-tenant
// connections, each dispatching inbound events to a Router.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/dalemusser/stratacrm/internal/app/system/tenant"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Authenticator identifies the caller of an upgrade request.
type Authenticator interface {
	Authenticate(r *http.Request) (tenant.Info, error)
}

// Options tunes a Hub.
type Options struct {
	// AllowedOrigins lists accepted Origin headers. Empty or "*" accepts any.
	AllowedOrigins []string
	// SendBuffer is the per-connection outbound queue length.
	SendBuffer int
	// MaxInFlight caps concurrently served events per connection. Reading
	// pauses while a connection is at the cap.
	MaxInFlight int
}

// Hub tracks connected clients by tenant.
type Hub struct {
	tenantClients map[string]map[*Client]bool
	register      chan *Client
	unregister    chan *Client
	mu            sync.RWMutex

	router   *Router
	auth     Authenticator
	upgrader websocket.Upgrader
	sendBuf  int
	inFlight int
	log      *zap.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewHub creates a hub. Call Run in its own goroutine before serving.
func NewHub(router *Router, auth Authenticator, opts Options, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = 4
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		tenantClients: make(map[string]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		router:        router,
		auth:          auth,
		sendBuf:       opts.SendBuffer,
		inFlight:      opts.MaxInFlight,
		log:           log,
		ctx:           ctx,
		cancel:        cancel,
		stopped:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(opts.AllowedOrigins),
	}
	return h
}

// Run is the hub's main loop. It returns after Stop.
func (h *Hub) Run() {
	defer close(h.stopped)

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if _, ok := h.tenantClients[c.Info.TenantID]; !ok {
				h.tenantClients[c.Info.TenantID] = make(map[*Client]bool)
			}
			h.tenantClients[c.Info.TenantID][c] = true
			h.mu.Unlock()
			h.log.Debug("realtime client registered",
				zap.String("tenant", c.Info.TenantID),
				zap.String("user", c.Info.UserID))

		case c := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.tenantClients[c.Info.TenantID]; ok {
				if _, ok := clients[c]; ok {
					delete(clients, c)
					if len(clients) == 0 {
						delete(h.tenantClients, c.Info.TenantID)
					}
				}
			}
			h.mu.Unlock()
			c.close()
			h.log.Debug("realtime client unregistered",
				zap.String("tenant", c.Info.TenantID),
				zap.String("user", c.Info.UserID))

		case <-h.ctx.Done():
			h.mu.Lock()
			for tenantID, clients := range h.tenantClients {
				for c := range clients {
					c.close()
				}
				delete(h.tenantClients, tenantID)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop closes every connection and waits for Run to return or ctx to end.
func (h *Hub) Stop(ctx context.Context) error {
	h.cancel()
	select {
	case <-h.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register queues c. It reports false once the hub is stopping.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// Unregister queues c for removal.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.ctx.Done():
		c.close()
	}
}

// ClientCount reports how many connections a tenant has open.
func (h *Hub) ClientCount(tenantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.tenantClients[tenantID])
}

// Publish sends an event to every connection of a tenant. Slow
// connections miss the message.
func (h *Hub) Publish(tenantID, event string, data any) {
	msg, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		h.log.Error("realtime publish marshal failed",
			zap.String("tenant", tenantID),
			zap.String("event", event),
			zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.tenantClients[tenantID] {
		c.enqueue(msg)
	}
}

// ServeWS authenticates and upgrades the request, then starts the
// connection's pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	info, err := h.auth.Authenticate(r)
	if err != nil {
		h.log.Debug("realtime handshake rejected",
			zap.String("remote", r.RemoteAddr),
			zap.Error(err))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		h.log.Warn("realtime upgrade failed",
			zap.String("tenant", info.TenantID),
			zap.Error(err))
		return
	}

	c := newClient(h, conn, info)
	if !h.Register(c) {
		c.close()
		_ = conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			set[strings.ToLower(o)] = struct{}{}
		}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.ToLower(origin)]
		return ok
	}
}
