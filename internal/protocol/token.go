package protocol

import "github.com/google/uuid"

// NewToken generates a fresh opaque per-transfer token. Its sole purpose
// is letting the sender verify that inbound FileHeaders correspond to
// the receiver's current selection, defensively, within one session.
func NewToken() string {
	return uuid.NewString()
}
