package transfer

import (
	"encoding/json"
	"sync"

	"github.com/kiloframe/beam/internal/onceshot"
	"github.com/kiloframe/beam/internal/pin"
	"github.com/kiloframe/beam/internal/protocol"
	"github.com/kiloframe/beam/internal/rtcpeer"
	"github.com/kiloframe/beam/internal/sdp"
	"github.com/kiloframe/beam/internal/signaling"
	"github.com/pion/webrtc/v4"
)

// Sender drives the InitialSdp → AwaitingAnswer → SdpExchanged →
// Connected → Handshaking → Sending → Finished|Error state machine
// (spec §4.5).
type Sender struct {
	pc        *webrtc.PeerConnection
	dc        *webrtc.DataChannel
	adapter   *signaling.Adapter
	failed    <-chan struct{}
	sessionID string

	statusCh chan Status
	errorCh  chan FileError

	selectedFiles *onceshot.Slot[map[string]struct{}]

	mu            sync.Mutex
	manifestFiles []protocol.FileDescriptor
	handshake     []byte
	tokens        map[string]string
	tokensReady   chan struct{}
	pin           *pin.Config
	lastFile      *FileSender

	closeOnce sync.Once
}

// NewSender builds a peer connection, opens the data channel, and
// creates+sends the local offer. It blocks until ICE gathering
// completes, but returns before the answer arrives; the answer and
// subsequent handshake are driven asynchronously in the background.
func NewSender(peerID string, adapter *signaling.Adapter, opts rtcpeer.Options) (*Sender, error) {
	pc, failed, err := rtcpeer.New(opts)
	if err != nil {
		return nil, NewError("build peer connection", err)
	}

	dc, err := createDataChannel(pc)
	if err != nil {
		pc.Close()
		return nil, err
	}

	s := &Sender{
		pc:            pc,
		dc:            dc,
		adapter:       adapter,
		failed:        failed,
		statusCh:      make(chan Status, 1),
		errorCh:       make(chan FileError, 1),
		selectedFiles: onceshot.NewSlot[map[string]struct{}](),
		tokensReady:   make(chan struct{}),
	}

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		pc.Close()
		return nil, NewError("create offer", err)
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		pc.Close()
		return nil, NewError("set local description", err)
	}

	<-waitGatherComplete(pc)

	encoded, err := sdp.Encode(pc.LocalDescription().SDP)
	if err != nil {
		pc.Close()
		return nil, NewError("encode local sdp", err)
	}

	sessionID, err := adapter.SendOffer(peerID, encoded)
	if err != nil {
		pc.Close()
		return nil, NewError("send offer", err)
	}
	s.sessionID = sessionID

	answer := make(chan string, 1)
	adapter.OnAnswer(sessionID, func(encodedSDP string) {
		select {
		case answer <- encodedSDP:
		default:
		}
	})

	go s.awaitAnswer(answer)
	go s.watchFailure()

	return s, nil
}

// SetPin records the PIN challenge a host wants a receiver to satisfy.
// Stored for a future PIN protocol to consume; the state machine does
// not yet transition through PinRequired/TooManyAttempts on its own.
func (s *Sender) SetPin(cfg *pin.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pin = cfg
}

// SetManifest records the files to advertise once the data channel
// opens. Must be called before the answer arrives.
func (s *Sender) SetManifest(files []protocol.FileDescriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifestFiles = files
}

func (s *Sender) awaitAnswer(answer chan string) {
	var encodedSDP string
	select {
	case encodedSDP = <-answer:
	case <-s.failed:
		s.adapter.Unregister(s.sessionID)
		return
	}

	remoteSDP, err := sdp.Decode(encodedSDP)
	if err != nil {
		s.fail(NewError("decode remote sdp", err).Error())
		return
	}

	if err := s.pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  remoteSDP,
	}); err != nil {
		s.fail(NewError("set remote description", err).Error())
		return
	}

	emitCoalesce(s.statusCh, Status{Kind: StatusSdpExchanged})

	s.dc.OnOpen(s.onDataChannelOpen)
	s.dc.OnMessage(s.onHandshakeMessage)
}

func (s *Sender) watchFailure() {
	<-s.failed
	s.fail("peer connection failed")
}

func (s *Sender) fail(message string) {
	emitCoalesce(s.statusCh, Status{Kind: StatusError, Message: message})
	s.Close()
}

func (s *Sender) onDataChannelOpen() {
	emitCoalesce(s.statusCh, Status{Kind: StatusConnected})

	s.mu.Lock()
	files := s.manifestFiles
	s.mu.Unlock()

	if err := sendHandshakePayload(s.dc, protocol.OfferManifest{Files: files}); err != nil {
		s.fail(NewError("send offer manifest", err).Error())
		return
	}
	if err := sendTerminator(s.dc); err != nil {
		s.fail(NewError("send manifest terminator", err).Error())
	}
}

// onHandshakeMessage accumulates binary frames into a buffer; the first
// text frame terminates the SelectionReply phase.
func (s *Sender) onHandshakeMessage(msg webrtc.DataChannelMessage) {
	if !msg.IsString {
		s.mu.Lock()
		s.handshake = append(s.handshake, msg.Data...)
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	buf := s.handshake
	s.handshake = nil
	s.mu.Unlock()

	var reply protocol.SelectionReply
	if err := json.Unmarshal(buf, &reply); err != nil {
		reply = protocol.SelectionReply{}
	}

	ids := make(map[string]struct{}, len(reply))
	for id := range reply {
		ids[id] = struct{}{}
	}

	s.mu.Lock()
	s.tokens = reply
	close(s.tokensReady)
	s.mu.Unlock()

	s.selectedFiles.Fill(ids)

	// Handshake is done; later inbound messages are not part of the
	// protocol and are ignored.
	s.dc.OnMessage(func(webrtc.DataChannelMessage) {})
}

// SelectedFiles blocks until the receiver's selection reply arrives and
// returns the set of selected file ids. It may be consumed at most once.
func (s *Sender) SelectedFiles() (map[string]struct{}, error) {
	return s.selectedFiles.Take()
}

// Status returns the depth-1 coalescing status stream.
func (s *Sender) Status() <-chan Status {
	return s.statusCh
}

// Errors returns the depth-1 coalescing per-file error stream.
func (s *Sender) Errors() <-chan FileError {
	return s.errorCh
}

// FileSender feeds one file's byte stream into the wire, chunked to
// exactly 16 KiB frames by internal/chunk.
type FileSender struct {
	in     chan []byte
	closed chan struct{}
	once   sync.Once
}

// Send feeds one chunk of the file's bytes. It may be called any number
// of times with arbitrarily sized slices; internal/chunk reassembles
// them into exact 16 KiB wire frames.
func (f *FileSender) Send(b []byte) error {
	select {
	case f.in <- b:
		return nil
	case <-f.closed:
		return ErrChannelClosed
	}
}

// Close signals end-of-file. Safe to call more than once.
func (f *FileSender) Close() {
	f.once.Do(func() { close(f.in) })
}

// SendFile looks up fileID's token from the selection reply and, if
// present, writes its FileHeader and returns a FileSender the host feeds
// the file's bytes into. A missing token is reported as a per-file error
// and does not terminate the session.
func (s *Sender) SendFile(fileID string) (*FileSender, error) {
	<-s.tokensReady

	s.awaitPreviousFile()

	s.mu.Lock()
	token, ok := s.tokens[fileID]
	s.mu.Unlock()

	if !ok {
		emitCoalesce(s.errorCh, FileError{FileID: fileID, Message: "Failed to get file token"})
		return nil, ErrUnknownFile
	}

	if err := sendJSON(s.dc, protocol.FileHeader{ID: fileID, Token: token}); err != nil {
		emitCoalesce(s.errorCh, FileError{FileID: fileID, Message: err.Error()})
		return nil, err
	}

	fs := &FileSender{in: make(chan []byte, 4), closed: make(chan struct{})}

	go func() {
		defer close(fs.closed)
		chunker := newFrameChunker(s.dc)
		for b := range fs.in {
			if err := chunker.Feed(b); err != nil {
				emitCoalesce(s.errorCh, FileError{FileID: fileID, Message: err.Error()})
				return
			}
		}
		if err := chunker.Flush(); err != nil {
			emitCoalesce(s.errorCh, FileError{FileID: fileID, Message: err.Error()})
		}
	}()

	s.mu.Lock()
	s.lastFile = fs
	s.mu.Unlock()

	emitCoalesce(s.statusCh, Status{Kind: StatusSending})
	return fs, nil
}

// awaitPreviousFile blocks until the most recently returned FileSender has
// finished piping its body onto the wire, so the next FileHeader (or the
// session terminator) is never written ahead of a prior file's trailing
// binary frames.
func (s *Sender) awaitPreviousFile() {
	s.mu.Lock()
	prev := s.lastFile
	s.mu.Unlock()
	if prev != nil {
		<-prev.closed
	}
}

// Finish sends the session terminator, emits Finished, and closes the
// data channel and peer connection. Call once the host's submission
// sequence of files has ended.
func (s *Sender) Finish() error {
	s.awaitPreviousFile()

	if err := sendTerminator(s.dc); err != nil {
		s.fail(NewError("send session terminator", err).Error())
		return err
	}
	emitCoalesce(s.statusCh, Status{Kind: StatusFinished})
	s.Close()
	return nil
}

// Close drops any pending answer handler for the session and tears down
// the data channel and peer connection. Safe to call more than once and
// from any exit path.
func (s *Sender) Close() {
	s.closeOnce.Do(func() {
		if s.adapter != nil && s.sessionID != "" {
			s.adapter.Unregister(s.sessionID)
		}
		if s.dc != nil {
			s.dc.Close()
		}
		if s.pc != nil {
			s.pc.Close()
		}
	})
}
