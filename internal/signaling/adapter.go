package signaling

import (
	"sync"

	"github.com/google/uuid"
)

// Connection is the contract the transfer core consumes from the
// signaling layer (spec §4.3). It is assumed multiplexable for multiple
// concurrent sessions, keyed by session id; the core does not own it.
type Connection interface {
	// SendOffer relays an Offer message to target, carrying a newly
	// generated session id.
	SendOffer(sessionID, target, encodedSDP string) error

	// SendAnswer relays an Answer message to originator, echoing its
	// session id.
	SendAnswer(sessionID, originator, encodedSDP string) error

	// Inbound returns the lazy sequence of server messages: Hello,
	// Joined, Left, Offer, Answer, Error.
	Inbound() <-chan ServerMessage
}

// Adapter is the thin contract layer over Connection described in
// spec §4.3: it generates session ids, registers session-scoped one-shot
// answer handlers, and unregisters them on teardown to avoid handler
// leaks (spec §9 design note).
type Adapter struct {
	conn Connection

	mu       sync.Mutex
	handlers map[string]func(sdp string)

	events chan ServerMessage
}

// NewAdapter wraps a Connection. Every inbound message is both
// fanned out through Inbound() and, for Answer messages, matched against
// a registered one-shot handler.
func NewAdapter(conn Connection) *Adapter {
	a := &Adapter{
		conn:     conn,
		handlers: make(map[string]func(sdp string)),
		events:   make(chan ServerMessage, 32),
	}
	go a.dispatch()
	return a
}

func (a *Adapter) dispatch() {
	defer close(a.events)

	for msg := range a.conn.Inbound() {
		if msg.Kind == KindAnswer {
			a.mu.Lock()
			handler, ok := a.handlers[msg.SessionID]
			if ok {
				delete(a.handlers, msg.SessionID)
			}
			a.mu.Unlock()

			if ok {
				handler(msg.SDP)
			}
		}

		a.events <- msg
	}
}

// NewSessionID generates a fresh UUIDv4 session id for send_offer.
func NewSessionID() string {
	return uuid.NewString()
}

// SendOffer relays an Offer for a fresh session id and returns it.
func (a *Adapter) SendOffer(target, encodedSDP string) (sessionID string, err error) {
	sessionID = NewSessionID()
	if err := a.conn.SendOffer(sessionID, target, encodedSDP); err != nil {
		return "", err
	}
	return sessionID, nil
}

// SendAnswer relays an Answer, echoing the originator's session id.
func (a *Adapter) SendAnswer(sessionID, originator, encodedSDP string) error {
	return a.conn.SendAnswer(sessionID, originator, encodedSDP)
}

// OnAnswer registers a handler invoked exactly once when the Answer for
// sessionID arrives. Unregister must be called on session teardown if the
// answer never arrives, to avoid leaking the handler.
func (a *Adapter) OnAnswer(sessionID string, handler func(sdp string)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handlers[sessionID] = handler
}

// Unregister removes a pending answer handler for sessionID, a no-op if
// it already fired or was never registered.
func (a *Adapter) Unregister(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.handlers, sessionID)
}

// Inbound exposes the full inbound message stream, including events the
// caller (e.g. a CLI host or the receiver state machine) needs to observe
// directly: Hello, Joined, Left, Offer, and Error. Answer messages also
// appear here after being routed to any matching OnAnswer handler.
func (a *Adapter) Inbound() <-chan ServerMessage {
	return a.events
}
