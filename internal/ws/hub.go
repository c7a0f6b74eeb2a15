package ws

import (
	"encoding/json"
	"log"
	"time"

	"github.com/pairlink/pairlink/internal/identity"
	"github.com/pairlink/pairlink/internal/models"
	"github.com/pairlink/pairlink/internal/presence"
	"github.com/pairlink/pairlink/internal/store"
)

type inbound struct {
	client *Client
	event  Event
}

// Hub is the relay coordinator. Its single Run goroutine is the only
// mutator of the presence registry, the directory's key/last-seen fields,
// and the ledger, so every inbound event is serialized through one point.
// Outbound emission is a non-blocking enqueue onto per-client send
// channels; a stalled connection is dropped, never waited on.
type Hub struct {
	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Inbound events from the clients, FIFO per connection.
	events chan inbound

	// Registered clients by connection id.
	clients map[string]*Client

	directory *identity.Directory
	presence  *presence.Registry
	ledger    store.Ledger

	// now returns Unix milliseconds, swappable in tests.
	now func() int64
}

func NewHub(directory *identity.Directory, registry *presence.Registry, ledger store.Ledger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan inbound),
		clients:    make(map[string]*Client),
		directory:  directory,
		presence:   registry,
		ledger:     ledger,
		now:        func() int64 { return time.Now().UnixMilli() },
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client.id] = client
			log.Printf("client connected: %s", client.id)
		case client := <-h.unregister:
			h.dropClient(client)
		case in := <-h.events:
			h.dispatch(in.client, in.event)
		}
	}
}

func (h *Hub) dispatch(c *Client, ev Event) {
	switch ev.Type {
	case EventAuth:
		var data authData
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			log.Printf("bad auth event from %s: %v", c.id, err)
			return
		}
		h.handleAuth(c, data.Username)
	case EventSetPublicKey:
		var data keyData
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			log.Printf("bad setPublicKey event from %s: %v", c.id, err)
			return
		}
		h.handleSetPublicKey(data.Username, data.PublicKey)
	case EventSendMessage:
		var env models.Envelope
		if err := json.Unmarshal(ev.Data, &env); err != nil {
			log.Printf("bad sendMessage event from %s: %v", c.id, err)
			return
		}
		h.handleSendMessage(c, env)
	case EventTyping:
		var data typingData
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			log.Printf("bad typing event from %s: %v", c.id, err)
			return
		}
		h.handleTyping(data.To, data.From)
	case EventMessageRead:
		var data readData
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			log.Printf("bad message_read event from %s: %v", c.id, err)
			return
		}
		h.handleMessageRead(data.ID, data.Reader)
	default:
		log.Printf("unknown event type %q from %s", ev.Type, c.id)
	}
}

// handleAuth binds the connection to a username. A previous connection for
// the same user is silently replaced and left open; it just stops
// receiving events.
func (h *Hub) handleAuth(c *Client, username string) {
	c.username = username
	h.presence.Register(username, c.id)
	log.Printf("user authenticated: %s (connection %s)", username, c.id)

	// All connections, including the sender, learn about the new presence.
	h.broadcast(EventPresence, presenceData{User: username, Online: true})

	// Initial key sync: replay the counterpart's stored key to this
	// connection, recovering keys published while this user was offline.
	if other, ok := h.directory.Counterpart(username); ok && other.PublicKey != "" {
		h.send(c, EventOtherPublicKey, keyData{Username: other.Username, PublicKey: other.PublicKey})
		log.Printf("sent stored public key of %s to %s on auth", other.Username, username)
	}
}

func (h *Hub) handleSetPublicKey(username, publicKey string) {
	h.directory.SetPublicKey(username, publicKey)

	// Forwarded even when the directory did not know the publisher.
	other, ok := h.directory.Counterpart(username)
	if !ok {
		return
	}
	connID, online := h.presence.Lookup(other.Username)
	if !online {
		log.Printf("counterpart %s not connected; cannot forward public key", other.Username)
		return
	}
	h.sendTo(connID, EventOtherPublicKey, keyData{Username: username, PublicKey: publicKey})
	log.Printf("forwarded public key from %s to %s", username, other.Username)
}

func (h *Hub) handleSendMessage(c *Client, env models.Envelope) {
	env, err := h.ledger.Append(env)
	if err != nil {
		log.Printf("failed to append envelope from %s: %v", env.From, err)
		return
	}

	connID, delivered := h.presence.Lookup(env.To)
	if delivered {
		h.sendTo(connID, EventMessage, env)
		log.Printf("message %s relayed from %s to %s", env.ID, env.From, env.To)
	} else {
		log.Printf("recipient %s is offline; message %s saved but not sent", env.To, env.ID)
	}

	// delivered reflects recipient presence at send time only, not
	// transport-level receipt.
	h.send(c, EventSentAck, ackData{ID: env.ID, Delivered: delivered})
}

func (h *Hub) handleTyping(to, from string) {
	connID, ok := h.presence.Lookup(to)
	if !ok {
		return
	}
	h.sendTo(connID, EventTyping, typingData{From: from})
}

func (h *Hub) handleMessageRead(id, reader string) {
	env, ok, err := h.ledger.MarkRead(id, reader)
	if err != nil {
		log.Printf("failed to mark message %s read: %v", id, err)
		return
	}
	if !ok {
		log.Printf("message_read for unknown message %s", id)
		return
	}
	if connID, online := h.presence.Lookup(env.From); online {
		h.sendTo(connID, EventMessageRead, readData{ID: id, Reader: reader})
		log.Printf("read receipt for %s sent to %s", id, env.From)
	}
}

// dropClient runs the disconnect transition. It is idempotent: a second
// unregister for the same connection is a no-op.
func (h *Hub) dropClient(c *Client) {
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	close(c.send)

	if c.username == "" {
		log.Printf("client disconnected: %s", c.id)
		return
	}

	ts := h.now()
	h.directory.MarkLastSeen(c.username, ts)
	// Guarded: removes the mapping only if it still points at this
	// connection, so a stale disconnect never evicts a fresher session.
	h.presence.Unregister(c.id)
	h.broadcast(EventPresence, presenceData{User: c.username, Online: false, LastSeen: &ts})
	log.Printf("user disconnected: %s", c.username)
}

func marshalEvent(eventType string, data any) []byte {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal %s event: %v", eventType, err)
		return nil
	}
	frame, err := json.Marshal(Event{Type: eventType, Data: raw})
	if err != nil {
		log.Printf("failed to marshal %s frame: %v", eventType, err)
		return nil
	}
	return frame
}

// send enqueues a frame for one client without blocking; a client whose
// send buffer is full is dropped like a disconnect. Clients already
// dropped earlier in the same dispatch are skipped (their channel is
// closed).
func (h *Hub) send(c *Client, eventType string, data any) {
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	frame := marshalEvent(eventType, data)
	if frame == nil {
		return
	}
	select {
	case c.send <- frame:
	default:
		h.dropClient(c)
	}
}

func (h *Hub) sendTo(connID, eventType string, data any) {
	if c, ok := h.clients[connID]; ok {
		h.send(c, eventType, data)
	}
}

func (h *Hub) broadcast(eventType string, data any) {
	frame := marshalEvent(eventType, data)
	if frame == nil {
		return
	}
	for _, c := range h.clients {
		select {
		case c.send <- frame:
		default:
			h.dropClient(c)
		}
	}
}
