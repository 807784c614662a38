package transfer

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/kiloframe/beam/internal/onceshot"
	"github.com/kiloframe/beam/internal/pin"
	"github.com/kiloframe/beam/internal/protocol"
	"github.com/kiloframe/beam/internal/rtcpeer"
	"github.com/kiloframe/beam/internal/sdp"
	"github.com/kiloframe/beam/internal/signaling"
	"github.com/pion/webrtc/v4"
)

// selectionDecision is the host's mutually-exclusive reply to the
// published file list: either a set of selected ids, or a decline.
type selectionDecision struct {
	selected map[string]struct{}
	declined bool
}

// FileReceiver is published to the host once per inbound file header. Its
// byte stream may be consumed exactly once.
type FileReceiver struct {
	FileID         string
	DeclaredSize   uint64
	DescriptorName string

	bytes chan []byte
	taken atomic.Bool
}

// Receive drains the file's byte stream into sink until the file body
// ends. It may be called at most once; a second call returns
// onceshot.ErrAlreadyConsumed.
func (f *FileReceiver) Receive(sink func([]byte) error) error {
	if !f.taken.CompareAndSwap(false, true) {
		return onceshot.ErrAlreadyConsumed
	}
	for b := range f.bytes {
		if err := sink(b); err != nil {
			return err
		}
	}
	return nil
}

// Receiver drives the AwaitingOffer → AnswerSent → Connected →
// FilesPublished → AwaitingSelection → ReceivingFiles →
// Finished|Error state machine (spec §4.6).
type Receiver struct {
	pc      *webrtc.PeerConnection
	failed  <-chan struct{}
	adapter *signaling.Adapter

	statusCh chan Status
	errorCh  chan FileError

	files        *onceshot.Slot[[]protocol.FileDescriptor]
	manifestByID map[string]protocol.FileDescriptor

	selectionCh   chan selectionDecision
	selectionOnce sync.Once

	incoming chan *FileReceiver

	dcSlot *onceshot.Slot[*webrtc.DataChannel]
	messages chan webrtc.DataChannelMessage

	mu          sync.Mutex
	handshake   []byte
	currentFile *FileReceiver
	pin         *pin.Config

	closeOnce sync.Once
}

// SetPin records the PIN challenge a host expects to be satisfied before
// a sender's offer is accepted. Stored for a future PIN protocol to
// consume; the state machine does not yet transition through
// PinRequired/TooManyAttempts on its own.
func (r *Receiver) SetPin(cfg *pin.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pin = cfg
}

// NewReceiver decodes the originator's offer, builds and answers a peer
// connection, and begins listening for the "data" channel. sessionID and
// originator identify the offer this answer replies to.
func NewReceiver(sessionID, originator, encodedOfferSDP string, adapter *signaling.Adapter, opts rtcpeer.Options) (*Receiver, error) {
	pc, failed, err := rtcpeer.New(opts)
	if err != nil {
		return nil, NewError("build peer connection", err)
	}

	r := &Receiver{
		pc:           pc,
		failed:       failed,
		adapter:      adapter,
		statusCh:     make(chan Status, 1),
		errorCh:      make(chan FileError, 1),
		files:        onceshot.NewSlot[[]protocol.FileDescriptor](),
		manifestByID: make(map[string]protocol.FileDescriptor),
		selectionCh:  make(chan selectionDecision, 1),
		incoming:     make(chan *FileReceiver, 1),
		dcSlot:       onceshot.NewSlot[*webrtc.DataChannel](),
		messages:     make(chan webrtc.DataChannelMessage, 16),
	}

	offerSDP, err := sdp.Decode(encodedOfferSDP)
	if err != nil {
		pc.Close()
		return nil, NewError("decode remote sdp", err)
	}

	if err := pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  offerSDP,
	}); err != nil {
		pc.Close()
		return nil, NewError("set remote description", err)
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		pc.Close()
		return nil, NewError("create answer", err)
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		pc.Close()
		return nil, NewError("set local description", err)
	}

	<-waitGatherComplete(pc)

	encoded, err := sdp.Encode(pc.LocalDescription().SDP)
	if err != nil {
		pc.Close()
		return nil, NewError("encode local sdp", err)
	}

	if err := adapter.SendAnswer(sessionID, originator, encoded); err != nil {
		pc.Close()
		return nil, NewError("send answer", err)
	}

	emitCoalesce(r.statusCh, Status{Kind: StatusSdpExchanged})

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() != DataChannelLabel {
			return
		}
		dc.OnOpen(func() { r.dcSlot.Fill(dc) })
		dc.OnMessage(func(msg webrtc.DataChannelMessage) {
			r.messages <- msg
		})
	})

	go r.run()
	go r.watchFailure()

	return r, nil
}

func (r *Receiver) watchFailure() {
	<-r.failed
	r.finishOnFailure()
}

func (r *Receiver) finishOnFailure() {
	emitCoalesce(r.statusCh, Status{Kind: StatusFinished})
	r.Close()
}

func (r *Receiver) fail(message string) {
	emitCoalesce(r.statusCh, Status{Kind: StatusError, Message: message})
	r.Close()
}

func (r *Receiver) run() {
	dc, err := r.dcSlot.Take()
	if err != nil {
		return
	}

	emitCoalesce(r.statusCh, Status{Kind: StatusConnected})

	manifest, ok := r.consumeManifest()
	if !ok {
		return
	}

	for _, f := range manifest.Files {
		r.manifestByID[f.ID] = f
	}
	r.files.Fill(manifest.Files)

	decision := <-r.selectionCh
	if decision.declined {
		// No SelectionReply is emitted; the bare terminator leaves the
		// sender's handshake accumulation buffer empty, which it treats
		// as an empty file-tokens map.
		sendTerminator(dc)
		emitCoalesce(r.statusCh, Status{Kind: StatusFinished})
		r.Close()
		return
	}

	reply := make(protocol.SelectionReply, len(decision.selected))
	for id := range decision.selected {
		reply[id] = uuid.NewString()
	}

	if err := sendHandshakePayload(dc, reply); err != nil {
		r.fail(NewError("send selection reply", err).Error())
		return
	}
	if err := sendTerminator(dc); err != nil {
		r.fail(NewError("send selection terminator", err).Error())
		return
	}

	r.consumeFiles(dc, reply)
}

// consumeManifest accumulates binary frames into a buffer until the
// first text frame, then parses it as OfferManifest. A parse failure is
// session-fatal on the receiver side.
func (r *Receiver) consumeManifest() (protocol.OfferManifest, bool) {
	var buf []byte
	for msg := range r.messages {
		if !msg.IsString {
			buf = append(buf, msg.Data...)
			continue
		}

		var manifest protocol.OfferManifest
		if err := json.Unmarshal(buf, &manifest); err != nil {
			r.fail(NewError("parse offer manifest", err).Error())
			return protocol.OfferManifest{}, false
		}
		return manifest, true
	}
	return protocol.OfferManifest{}, false
}

// SendSelection fulfills the host's (one-shot) selection decision with
// the given set of file ids. Mutually exclusive with Decline.
func (r *Receiver) SendSelection(ids map[string]struct{}) error {
	return r.resolveSelection(selectionDecision{selected: ids})
}

// Decline fulfills the host's selection decision as a refusal. Mutually
// exclusive with SendSelection.
func (r *Receiver) Decline() error {
	return r.resolveSelection(selectionDecision{declined: true})
}

func (r *Receiver) resolveSelection(d selectionDecision) error {
	sent := false
	r.selectionOnce.Do(func() {
		r.selectionCh <- d
		sent = true
	})
	if !sent {
		return onceshot.ErrAlreadyConsumed
	}
	return nil
}

// Files blocks until the offer manifest arrives and returns it. May be
// consumed at most once.
func (r *Receiver) Files() ([]protocol.FileDescriptor, error) {
	return r.files.Take()
}

// Incoming returns the stream of inbound files, one per FileHeader
// received.
func (r *Receiver) Incoming() <-chan *FileReceiver {
	return r.incoming
}

// Status returns the depth-1 coalescing status stream.
func (r *Receiver) Status() <-chan Status {
	return r.statusCh
}

// Errors returns the depth-1 coalescing per-file error stream.
func (r *Receiver) Errors() <-chan FileError {
	return r.errorCh
}

func (r *Receiver) consumeFiles(dc *webrtc.DataChannel, reply protocol.SelectionReply) {
	defer close(r.incoming)

	for msg := range r.messages {
		if msg.IsString {
			if len(msg.Data) == 0 {
				break
			}

			var header protocol.FileHeader
			if err := json.Unmarshal(msg.Data, &header); err != nil {
				if r.currentFile != nil {
					close(r.currentFile.bytes)
					r.currentFile = nil
				}
				emitCoalesce(r.errorCh, FileError{FileID: "unknown", Message: "malformed file header"})
				continue
			}

			descriptor, known := r.manifestByID[header.ID]
			if !known {
				if r.currentFile != nil {
					close(r.currentFile.bytes)
					r.currentFile = nil
				}
				emitCoalesce(r.errorCh, FileError{FileID: header.ID, Message: ErrUnknownFile.Error()})
				continue
			}
			if reply[header.ID] != header.Token {
				if r.currentFile != nil {
					close(r.currentFile.bytes)
					r.currentFile = nil
				}
				emitCoalesce(r.errorCh, FileError{FileID: header.ID, Message: "Invalid token"})
				continue
			}

			if r.currentFile != nil {
				close(r.currentFile.bytes)
			}

			fr := &FileReceiver{
				FileID:         header.ID,
				DeclaredSize:   descriptor.Size,
				DescriptorName: descriptor.Name,
				bytes:          make(chan []byte, 4),
			}
			r.currentFile = fr
			r.incoming <- fr

			continue
		}

		if r.currentFile == nil {
			emitCoalesce(r.errorCh, FileError{FileID: "unknown", Message: "Received binary data without a header"})
			continue
		}
		r.currentFile.bytes <- msg.Data
	}

	if r.currentFile != nil {
		close(r.currentFile.bytes)
	}

	emitCoalesce(r.statusCh, Status{Kind: StatusFinished})
	r.Close()
}

// Close tears down the peer connection. Safe to call more than once.
func (r *Receiver) Close() {
	r.closeOnce.Do(func() {
		if r.pc != nil {
			r.pc.Close()
		}
	})
}
