package signaling

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kiloframe/beam/internal/dns"
)

// Timing constants for WebSocket health checks.
const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait).
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer (64 KB - enough for a
	// Brotli-compressed, base64url-encoded SDP).
	maxMessageSize = 64 * 1024
)

// wireMessage is the JSON envelope actually exchanged over the
// websocket; ServerMessage is the decoded form the rest of the core
// consumes.
type wireMessage struct {
	Kind      ServerMessageKind `json:"kind"`
	Client    *ClientInfo       `json:"client,omitempty"`
	Peers     []ClientInfo      `json:"peers,omitempty"`
	Peer      *ClientInfo       `json:"peer,omitempty"`
	PeerID    string            `json:"peerId,omitempty"`
	SessionID string            `json:"sessionId,omitempty"`
	Target    string            `json:"target,omitempty"`
	SDP       string            `json:"sdp,omitempty"`
	Code      uint16            `json:"code,omitempty"`
}

// WSConnection is a gorilla/websocket-backed Connection: the concrete
// external signaling transport the CLI host dials. The transfer core
// itself only ever depends on the Connection interface.
type WSConnection struct {
	conn      *websocket.Conn
	serverURL string

	incoming chan ServerMessage
	outgoing chan wireMessage
	done     chan struct{}
	closed   bool
}

// NewWSConnection creates a signaling connection bound to serverURL. It
// must be started with Connect before use.
func NewWSConnection(serverURL string) *WSConnection {
	return &WSConnection{
		serverURL: serverURL,
		incoming:  make(chan ServerMessage, 32),
		outgoing:  make(chan wireMessage, 32),
		done:      make(chan struct{}),
	}
}

// Connect dials the signaling server and starts the read/write pumps.
// If the system resolver can't find the host, it falls back to racing a
// set of public DNS servers before giving up.
func (c *WSConnection) Connect() error {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("signaling: invalid server URL: %w", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		host := u.Hostname()
		ip, lookupErr := dns.Lookup(host)
		if lookupErr != nil {
			return fmt.Errorf("signaling: failed to connect: %w", err)
		}

		slog.Warn("signaling: system DNS lookup failed, retrying via public DNS", "host", host, "resolved", ip)
		dialer := *websocket.DefaultDialer
		dialer.NetDialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			_, port, splitErr := net.SplitHostPort(addr)
			if splitErr != nil {
				port = "443"
			}
			var d net.Dialer
			return d.DialContext(ctx, network, net.JoinHostPort(ip, port))
		}

		conn, _, err = dialer.Dial(u.String(), nil)
		if err != nil {
			return fmt.Errorf("signaling: failed to connect via resolved DNS fallback: %w", err)
		}
	}
	c.conn = conn

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.readPump()
	go c.writePump()

	return nil
}

func (c *WSConnection) readPump() {
	defer func() {
		c.conn.Close()
		close(c.incoming)
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		var msg wireMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			slog.Debug("signaling read error", "err", err)
			return
		}
		c.incoming <- toServerMessage(msg)
	}
}

func (c *WSConnection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.outgoing:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				slog.Debug("signaling write error", "err", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

func toServerMessage(w wireMessage) ServerMessage {
	msg := ServerMessage{
		Kind:      w.Kind,
		PeerID:    w.PeerID,
		SessionID: w.SessionID,
		SDP:       w.SDP,
		Code:      w.Code,
		Peers:     w.Peers,
	}
	if w.Client != nil {
		msg.Client = *w.Client
	}
	if w.Peer != nil {
		msg.Peer = *w.Peer
	}
	return msg
}

// SendOffer implements Connection.
func (c *WSConnection) SendOffer(sessionID, target, encodedSDP string) error {
	return c.send(wireMessage{Kind: KindOffer, SessionID: sessionID, Target: target, SDP: encodedSDP})
}

// SendAnswer implements Connection.
func (c *WSConnection) SendAnswer(sessionID, originator, encodedSDP string) error {
	return c.send(wireMessage{Kind: KindAnswer, SessionID: sessionID, Target: originator, SDP: encodedSDP})
}

func (c *WSConnection) send(msg wireMessage) error {
	select {
	case c.outgoing <- msg:
		return nil
	case <-c.done:
		return fmt.Errorf("signaling: connection closed")
	}
}

// Inbound implements Connection.
func (c *WSConnection) Inbound() <-chan ServerMessage {
	return c.incoming
}

// Close tears down the websocket connection. Safe to call more than
// once.
func (c *WSConnection) Close() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}
