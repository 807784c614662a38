package signaling

// Handler fans the Adapter's single Inbound stream out into
// typed, per-kind channels, the way a host (CLI or controller) wants to
// consume it rather than switching on Kind itself. Offer messages are
// routed to the Offer channel; Answer messages are dropped here, since
// Adapter's OnAnswer routing already delivers them to their session.
type Handler struct {
	adapter *Adapter

	Hello  chan ClientInfo
	Joined chan ClientInfo
	Left   chan string
	Offer  chan ServerMessage
	Error  chan uint16

	closed bool
}

// NewHandler wraps an Adapter's Inbound stream.
func NewHandler(adapter *Adapter) *Handler {
	return &Handler{
		adapter: adapter,
		Hello:   make(chan ClientInfo, 1),
		Joined:  make(chan ClientInfo, 8),
		Left:    make(chan string, 8),
		Offer:   make(chan ServerMessage, 8),
		Error:   make(chan uint16, 8),
	}
}

// Start begins routing Inbound messages to the typed channels. It
// returns once the adapter's stream closes, at which point it closes all
// of its own channels.
func (h *Handler) Start() {
	defer h.Close()

	for msg := range h.adapter.Inbound() {
		switch msg.Kind {
		case KindHello:
			h.Hello <- msg.Client
		case KindJoined:
			h.Joined <- msg.Peer
		case KindLeft:
			h.Left <- msg.PeerID
		case KindOffer:
			h.Offer <- msg
		case KindError:
			h.Error <- msg.Code
		case KindAnswer:
			// already routed by Adapter.OnAnswer; nothing for the host to do.
		}
	}
}

// Close closes all routed channels. Safe to call more than once.
func (h *Handler) Close() {
	if h.closed {
		return
	}
	h.closed = true

	close(h.Hello)
	close(h.Joined)
	close(h.Left)
	close(h.Offer)
	close(h.Error)
}
