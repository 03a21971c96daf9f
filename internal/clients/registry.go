// Package clients tracks every connected window explicitly, so routing and
// broadcast decisions work from a registry instead of enumerating windows.
package clients

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/sheikhshariarnehal/nesttask-edge/pkg/logger"
)

const mailboxSize = 64

// Client is one connected window. Messages are queued on a buffered mailbox
// that the transport drains; a full mailbox drops the client.
type Client struct {
	ID       string
	UserID   uuid.UUID
	URL      string
	Focused  bool
	mailbox  chan Message
	closeOne sync.Once
}

// Messages exposes the delivery queue to the transport.
func (c *Client) Messages() <-chan Message {
	return c.mailbox
}

func (c *Client) close() {
	c.closeOne.Do(func() { close(c.mailbox) })
}

// Registry is the authoritative set of connected clients.
type Registry struct {
	logg *logger.Logger

	mtx     sync.RWMutex
	clients map[string]*Client
}

// NewRegistry builds an empty registry.
func NewRegistry(logg *logger.Logger) (*Registry, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Registry{
		logg:    logg,
		clients: make(map[string]*Client),
	}, nil
}

// Register adds a client at the given location and returns it.
func (r *Registry) Register(userID uuid.UUID, url string) *Client {
	client := &Client{
		ID:      uuid.NewString(),
		UserID:  userID,
		URL:     url,
		mailbox: make(chan Message, mailboxSize),
	}
	r.mtx.Lock()
	r.clients[client.ID] = client
	r.mtx.Unlock()
	return client
}

// Deregister removes a client and closes its mailbox.
func (r *Registry) Deregister(id string) {
	r.mtx.Lock()
	client, ok := r.clients[id]
	if ok {
		delete(r.clients, id)
	}
	r.mtx.Unlock()
	if ok {
		client.close()
	}
}

// UpdateLocation records a navigation within an existing client.
func (r *Registry) UpdateLocation(id, url string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if client, ok := r.clients[id]; ok {
		client.URL = url
	}
}

// SetFocus records whether a client's window currently has focus.
func (r *Registry) SetFocus(id string, focused bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if client, ok := r.clients[id]; ok {
		client.Focused = focused
	}
}

// FindByURL returns the first client whose location matches the URL exactly.
func (r *Registry) FindByURL(url string) (*Client, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	for _, client := range r.clients {
		if client.URL == url {
			return client, true
		}
	}
	return nil, false
}

// List returns a snapshot of the registered clients.
func (r *Registry) List() []*Client {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	list := make([]*Client, 0, len(r.clients))
	for _, client := range r.clients {
		list = append(list, client)
	}
	return list
}

// Len reports how many clients are connected.
func (r *Registry) Len() int {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return len(r.clients)
}

// Send queues a message for one client. A full mailbox evicts the client,
// matching how a dead window is dropped by its transport.
func (r *Registry) Send(id string, msg Message) error {
	r.mtx.RLock()
	client, ok := r.clients[id]
	r.mtx.RUnlock()
	if !ok {
		return fmt.Errorf("client %s not registered", id)
	}
	select {
	case client.mailbox <- msg:
		return nil
	default:
		r.Deregister(id)
		return fmt.Errorf("client %s mailbox full, dropped", id)
	}
}

// Broadcast queues a message for every connected client.
func (r *Registry) Broadcast(msg Message) {
	for _, client := range r.List() {
		_ = r.Send(client.ID, msg)
	}
}

// OpenWindow registers a fresh client at the URL and queues an OPEN_WINDOW
// instruction on it. The new client takes part in any broadcast that follows.
func (r *Registry) OpenWindow(userID uuid.UUID, url string) *Client {
	client := r.Register(userID, url)
	_ = r.Send(client.ID, Message{Type: MessageOpenWindow, URL: url})
	return client
}

// Claim notifies every client that a new version took over.
func (r *Registry) Claim(ctx context.Context) error {
	r.Broadcast(Message{Type: MessageControllerChange})
	r.logg.Info(r.logg.WithField(ctx, "clients", r.Len()), "clients claimed")
	return nil
}
