//go:build integration

package controller_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/kiloframe/beam/internal/controller"
	"github.com/kiloframe/beam/internal/protocol"
	"github.com/kiloframe/beam/internal/rtcpeer"
	"github.com/kiloframe/beam/internal/signaling"
)

// pairedConn connects two in-process signaling.Connection halves so a
// SendController and ReceiveController can exchange Offer/Answer
// messages without a real signaling server.
type pairedConn struct {
	peerID string
	out    chan signaling.ServerMessage
	peer   *pairedConn
}

func newPair(aID, bID string) (*pairedConn, *pairedConn) {
	a := &pairedConn{peerID: aID, out: make(chan signaling.ServerMessage, 8)}
	b := &pairedConn{peerID: bID, out: make(chan signaling.ServerMessage, 8)}
	a.peer = b
	b.peer = a
	return a, b
}

func (c *pairedConn) SendOffer(sessionID, target, encodedSDP string) error {
	c.peer.out <- signaling.ServerMessage{Kind: signaling.KindOffer, SessionID: sessionID, PeerID: c.peerID, SDP: encodedSDP}
	return nil
}

func (c *pairedConn) SendAnswer(sessionID, originator, encodedSDP string) error {
	c.peer.out <- signaling.ServerMessage{Kind: signaling.KindAnswer, SessionID: sessionID, PeerID: c.peerID, SDP: encodedSDP}
	return nil
}

func (c *pairedConn) Inbound() <-chan signaling.ServerMessage {
	return c.out
}

func TestSendReceiveControllerEndToEnd(t *testing.T) {
	senderConn, receiverConn := newPair("sender", "receiver")
	senderAdapter := signaling.NewAdapter(senderConn)
	receiverAdapter := signaling.NewAdapter(receiverConn)

	manifest := []protocol.FileDescriptor{{ID: "A", Name: "hello.txt", Size: 5}}

	sc, err := controller.NewSendController("receiver", manifest, senderAdapter, rtcpeer.Options{})
	if err != nil {
		t.Fatalf("NewSendController: %v", err)
	}
	defer sc.Close()

	offerMsg := <-receiverAdapter.Inbound()
	if offerMsg.Kind != signaling.KindOffer {
		t.Fatalf("expected an offer, got %v", offerMsg.Kind)
	}

	rc, err := controller.NewReceiveController(offerMsg.SessionID, offerMsg.PeerID, offerMsg.SDP, receiverAdapter, rtcpeer.Options{})
	if err != nil {
		t.Fatalf("NewReceiveController: %v", err)
	}
	defer rc.Close()

	descriptors, err := rc.ListenFiles()
	if err != nil {
		t.Fatalf("ListenFiles: %v", err)
	}
	if len(descriptors) != 1 || descriptors[0].ID != "A" {
		t.Fatalf("unexpected manifest: %+v", descriptors)
	}

	if err := rc.SendSelection(map[string]struct{}{"A": {}}); err != nil {
		t.Fatalf("SendSelection: %v", err)
	}

	selected, err := sc.ListenSelectedFiles()
	if err != nil {
		t.Fatalf("ListenSelectedFiles: %v", err)
	}
	if _, ok := selected["A"]; !ok {
		t.Fatalf("expected A to be selected, got %v", selected)
	}

	fs, err := sc.SendFile("A")
	if err != nil {
		t.Fatalf("SendFile: %v", err)
	}
	if err := fs.Send([]byte("hello")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	fs.Close()

	var buf bytes.Buffer
	select {
	case incoming := <-rc.ListenReceiving():
		if err := incoming.Receive(func(b []byte) error {
			buf.Write(b)
			return nil
		}); err != nil {
			t.Fatalf("Receive: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for incoming file")
	}

	if buf.String() != "hello" {
		t.Fatalf("expected %q, got %q", "hello", buf.String())
	}

	if err := sc.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
}

func TestSendControllerSendPinIsInert(t *testing.T) {
	senderConn, _ := newPair("sender", "receiver")
	senderAdapter := signaling.NewAdapter(senderConn)

	sc, err := controller.NewSendController("receiver", nil, senderAdapter, rtcpeer.Options{})
	if err != nil {
		t.Fatalf("NewSendController: %v", err)
	}
	defer sc.Close()

	if err := sc.SendPin("1234"); err != nil {
		t.Fatalf("SendPin should be a no-op, got %v", err)
	}
}
