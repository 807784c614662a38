// Package controller exposes the host-facing facades described in spec
// §4.7: SendController and ReceiveController, thin wrappers over
// internal/transfer's state machines that surface only the suspension
// points a host needs.
package controller

import (
	"github.com/kiloframe/beam/internal/pin"
	"github.com/kiloframe/beam/internal/protocol"
	"github.com/kiloframe/beam/internal/rtcpeer"
	"github.com/kiloframe/beam/internal/signaling"
	"github.com/kiloframe/beam/internal/transfer"
)

// SendController is the host-facing handle for one outbound session.
type SendController struct {
	sender *transfer.Sender
}

// NewSendController starts a sender session offering manifest to peerID
// over adapter, using opts for the underlying peer connection.
func NewSendController(peerID string, manifest []protocol.FileDescriptor, adapter *signaling.Adapter, opts rtcpeer.Options) (*SendController, error) {
	sender, err := transfer.NewSender(peerID, adapter, opts)
	if err != nil {
		return nil, err
	}
	sender.SetManifest(manifest)
	return &SendController{sender: sender}, nil
}

// ListenStatus returns the depth-1 coalescing status stream.
func (c *SendController) ListenStatus() <-chan transfer.Status {
	return c.sender.Status()
}

// ListenError returns the depth-1 coalescing per-file error stream.
func (c *SendController) ListenError() <-chan transfer.FileError {
	return c.sender.Errors()
}

// ListenSelectedFiles blocks until the receiver's selection reply
// arrives. One-shot: a second call fails with "already received".
func (c *SendController) ListenSelectedFiles() (map[string]struct{}, error) {
	return c.sender.SelectedFiles()
}

// SendPin is reserved for a future PIN-authentication handshake: it
// records the PIN on the underlying sender, but the transfer core does
// not yet act on it (see internal/pin).
func (c *SendController) SendPin(code string) error {
	c.sender.SetPin(&pin.Config{PIN: code})
	return nil
}

// SendFile looks up fileID's token and returns a FileSender the host
// feeds the file's bytes into.
func (c *SendController) SendFile(fileID string) (*transfer.FileSender, error) {
	return c.sender.SendFile(fileID)
}

// Finish signals that the host's file submission sequence has ended.
func (c *SendController) Finish() error {
	return c.sender.Finish()
}

// Close tears down the underlying session immediately.
func (c *SendController) Close() {
	c.sender.Close()
}

// ReceiveController is the host-facing handle for one inbound session.
type ReceiveController struct {
	receiver *transfer.Receiver
}

// NewReceiveController answers an inbound offer and begins the receiver
// state machine.
func NewReceiveController(sessionID, originator, encodedOfferSDP string, adapter *signaling.Adapter, opts rtcpeer.Options) (*ReceiveController, error) {
	receiver, err := transfer.NewReceiver(sessionID, originator, encodedOfferSDP, adapter, opts)
	if err != nil {
		return nil, err
	}
	return &ReceiveController{receiver: receiver}, nil
}

// RequirePin records the PIN a sender is expected to satisfy before this
// session accepts an offer. Reserved: the transfer core does not yet act
// on it (see internal/pin).
func (c *ReceiveController) RequirePin(code string, maxTries int) {
	c.receiver.SetPin(&pin.Config{PIN: code, MaxTries: maxTries})
}

// ListenStatus returns the depth-1 coalescing status stream.
func (c *ReceiveController) ListenStatus() <-chan transfer.Status {
	return c.receiver.Status()
}

// ListenError returns the depth-1 coalescing per-file error stream.
func (c *ReceiveController) ListenError() <-chan transfer.FileError {
	return c.receiver.Errors()
}

// ListenFiles blocks until the offer manifest arrives. One-shot: a
// second call fails with "already received".
func (c *ReceiveController) ListenFiles() ([]protocol.FileDescriptor, error) {
	return c.receiver.Files()
}

// SendSelection accepts the given set of file ids. Mutually exclusive
// with Decline; a second call to either fails with
// onceshot.ErrAlreadyConsumed ("already received").
func (c *ReceiveController) SendSelection(ids map[string]struct{}) error {
	return c.receiver.SendSelection(ids)
}

// Decline refuses the whole transfer. Mutually exclusive with
// SendSelection.
func (c *ReceiveController) Decline() error {
	return c.receiver.Decline()
}

// ListenReceiving returns the stream of inbound files, one per
// FileHeader the sender transmits.
func (c *ReceiveController) ListenReceiving() <-chan *transfer.FileReceiver {
	return c.receiver.Incoming()
}

// Close tears down the underlying session immediately.
func (c *ReceiveController) Close() {
	c.receiver.Close()
}
