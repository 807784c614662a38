package transfer

import (
	"encoding/json"
	"time"

	"github.com/kiloframe/beam/internal/chunk"
	"github.com/kiloframe/beam/internal/protocol"
	"github.com/pion/webrtc/v4"
)

// Backpressure thresholds for the data channel's SCTP send buffer,
// carried from the teacher's buffer-management constants.
const (
	highWaterMark = 2 * 1024 * 1024
	lowWaterMark  = 512 * 1024
	sendTimeout   = 60 * time.Second
)

// sendJSON marshals v and writes it as a single text frame. Used for
// FileHeader, which is always small enough to need no chunking.
func sendJSON(dc *webrtc.DataChannel, v any) error {
	if dc == nil {
		return ErrChannelNotOpen
	}
	data, err := json.Marshal(v)
	if err != nil {
		return NewError("marshal handshake payload", err)
	}
	return dc.SendText(string(data))
}

// sendHandshakePayload marshals v and feeds it through the §4.2 chunker
// as binary frames, so OfferManifest and SelectionReply may be
// arbitrarily large without exceeding the SCTP fragmentation-free
// payload size. The caller is responsible for following this with
// sendTerminator.
func sendHandshakePayload(dc *webrtc.DataChannel, v any) error {
	if dc == nil {
		return ErrChannelNotOpen
	}
	data, err := json.Marshal(v)
	if err != nil {
		return NewError("marshal handshake payload", err)
	}
	return chunk.RunString(string(data), binaryFrameSink{dc: dc})
}

// sendTerminator writes the phase-terminator empty text frame.
func sendTerminator(dc *webrtc.DataChannel) error {
	if dc == nil {
		return ErrChannelNotOpen
	}
	return dc.SendText(protocol.Terminator)
}

// binaryFrameSink feeds chunker output onto the data channel as binary
// frames, the sink half of §4.2's chunker contract. It waits for the
// SCTP send buffer to drain below the high water mark before each send,
// so a fast sender never runs unbounded ahead of a slow receiver.
type binaryFrameSink struct {
	dc *webrtc.DataChannel
}

func (s binaryFrameSink) Send(b []byte) error {
	if s.dc == nil {
		return ErrChannelNotOpen
	}
	if err := s.waitForWindow(); err != nil {
		return err
	}
	return s.dc.Send(b)
}

func (s binaryFrameSink) waitForWindow() error {
	if s.dc.BufferedAmount() < highWaterMark {
		return nil
	}

	wait := make(chan struct{}, 1)
	s.dc.OnBufferedAmountLow(func() {
		select {
		case wait <- struct{}{}:
		default:
		}
	})

	select {
	case <-wait:
		return nil
	case <-time.After(sendTimeout):
		return ErrBufferTimeout
	}
}

// newFrameChunker builds a chunker that writes each 16 KiB chunk onto dc
// as a binary data-channel frame.
func newFrameChunker(dc *webrtc.DataChannel) *chunk.Chunker {
	dc.SetBufferedAmountLowThreshold(lowWaterMark)
	return chunk.New(binaryFrameSink{dc: dc})
}
