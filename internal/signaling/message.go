package signaling

// DeviceType is the client's role/kind, advertised in ClientInfo so peers
// and the signaling server can tailor behavior.
type DeviceType string

const (
	DeviceMobile   DeviceType = "Mobile"
	DeviceDesktop  DeviceType = "Desktop"
	DeviceWeb      DeviceType = "Web"
	DeviceHeadless DeviceType = "Headless"
	DeviceServer   DeviceType = "Server"
)

// ClientInfo identifies a client to the signaling server.
type ClientInfo struct {
	ID          string     `json:"id"`
	Alias       string     `json:"alias"`
	Version     string     `json:"version"`
	DeviceModel string     `json:"deviceModel,omitempty"`
	DeviceType  DeviceType `json:"deviceType,omitempty"`
	Fingerprint string     `json:"fingerprint"`
}

// ServerMessageKind is the tag of the vocabulary in spec §6:
// Hello/Joined/Left/Offer/Answer/Error.
type ServerMessageKind string

const (
	KindHello  ServerMessageKind = "hello"
	KindJoined ServerMessageKind = "joined"
	KindLeft   ServerMessageKind = "left"
	KindOffer  ServerMessageKind = "offer"
	KindAnswer ServerMessageKind = "answer"
	KindError  ServerMessageKind = "error"
)

// ServerMessage carries one signaling-server event. Only the fields
// relevant to Kind are populated; it is a tagged union over the wire.
type ServerMessage struct {
	Kind ServerMessageKind `json:"kind"`

	// Hello
	Client ClientInfo   `json:"client,omitempty"`
	Peers  []ClientInfo `json:"peers,omitempty"`

	// Joined / Left
	Peer   ClientInfo `json:"peer,omitempty"`
	PeerID string     `json:"peerId,omitempty"`

	// Offer / Answer
	SessionID string `json:"sessionId,omitempty"`
	SDP       string `json:"sdp,omitempty"`

	// Error
	Code uint16 `json:"code,omitempty"`
}
