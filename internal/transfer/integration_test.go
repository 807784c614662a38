//go:build integration

package transfer_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/kiloframe/beam/internal/pin"
	"github.com/kiloframe/beam/internal/protocol"
	"github.com/kiloframe/beam/internal/rtcpeer"
	"github.com/kiloframe/beam/internal/signaling"
	"github.com/kiloframe/beam/internal/transfer"
)

// pairedConn connects two in-process signaling.Connection halves so a
// Sender and Receiver can exchange Offer/Answer messages without a real
// signaling server.
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

func drainBytes(t *testing.T, fr *transfer.FileReceiver) []byte {
	t.Helper()
	var buf bytes.Buffer
	err := fr.Receive(func(b []byte) error {
		buf.Write(b)
		return nil
	})
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	return buf.Bytes()
}

func TestSingleSmallFileEndToEnd(t *testing.T) {
	senderConn, receiverConn := newPair("sender", "receiver")
	senderAdapter := signaling.NewAdapter(senderConn)
	receiverAdapter := signaling.NewAdapter(receiverConn)

	sender, err := transfer.NewSender("receiver", senderAdapter, rtcpeer.Options{})
	if err != nil {
		t.Fatalf("NewSender: %v", err)
	}
	defer sender.Close()

	sender.SetManifest([]protocol.FileDescriptor{{ID: "A", Name: "hello.txt", Size: 5}})

	offerMsg := <-receiverAdapter.Inbound()
	if offerMsg.Kind != signaling.KindOffer {
		t.Fatalf("expected an offer, got %v", offerMsg.Kind)
	}

	receiver, err := transfer.NewReceiver(offerMsg.SessionID, offerMsg.PeerID, offerMsg.SDP, receiverAdapter, rtcpeer.Options{})
	if err != nil {
		t.Fatalf("NewReceiver: %v", err)
	}
	defer receiver.Close()

	files, err := receiver.Files()
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(files) != 1 || files[0].ID != "A" {
		t.Fatalf("unexpected manifest: %+v", files)
	}

	if err := receiver.SendSelection(map[string]struct{}{"A": {}}); err != nil {
		t.Fatalf("SendSelection: %v", err)
	}

	selected, err := sender.SelectedFiles()
	if err != nil {
		t.Fatalf("SelectedFiles: %v", err)
	}
	if _, ok := selected["A"]; !ok {
		t.Fatalf("expected A to be selected, got %v", selected)
	}

	fs, err := sender.SendFile("A")
	if err != nil {
		t.Fatalf("SendFile: %v", err)
	}
	if err := fs.Send([]byte("hello")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	fs.Close()

	var incoming *transfer.FileReceiver
	select {
	case incoming = <-receiver.Incoming():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for incoming file")
	}

	if incoming.FileID != "A" || incoming.DeclaredSize != 5 {
		t.Fatalf("unexpected file receiver: %+v", incoming)
	}

	finishErr := make(chan error, 1)
	go func() { finishErr <- sender.Finish() }()

	got := drainBytes(t, incoming)
	if string(got) != "hello" {
		t.Fatalf("expected %q, got %q", "hello", got)
	}

	if err := <-finishErr; err != nil {
		t.Fatalf("Finish: %v", err)
	}

	if st := <-sender.Status(); st.Kind != transfer.StatusFinished {
		t.Fatalf("expected sender Finished, got %v", st.Kind)
	}
}

func TestDeclinePathEndToEnd(t *testing.T) {
	senderConn, receiverConn := newPair("sender", "receiver")
	senderAdapter := signaling.NewAdapter(senderConn)
	receiverAdapter := signaling.NewAdapter(receiverConn)

	sender, err := transfer.NewSender("receiver", senderAdapter, rtcpeer.Options{})
	if err != nil {
		t.Fatalf("NewSender: %v", err)
	}
	defer sender.Close()
	sender.SetManifest([]protocol.FileDescriptor{{ID: "A", Name: "secret.txt", Size: 3}})

	offerMsg := <-receiverAdapter.Inbound()
	receiver, err := transfer.NewReceiver(offerMsg.SessionID, offerMsg.PeerID, offerMsg.SDP, receiverAdapter, rtcpeer.Options{})
	if err != nil {
		t.Fatalf("NewReceiver: %v", err)
	}
	defer receiver.Close()

	if _, err := receiver.Files(); err != nil {
		t.Fatalf("Files: %v", err)
	}
	if err := receiver.Decline(); err != nil {
		t.Fatalf("Decline: %v", err)
	}

	selected, err := sender.SelectedFiles()
	if err != nil {
		t.Fatalf("SelectedFiles: %v", err)
	}
	if len(selected) != 0 {
		t.Fatalf("expected an empty selection on decline, got %v", selected)
	}

	if _, err := sender.SendFile("A"); err == nil {
		t.Fatal("expected SendFile to fail after a decline")
	}
}

func TestSetPinIsInertButDoesNotPanic(t *testing.T) {
	senderConn, receiverConn := newPair("sender", "receiver")
	senderAdapter := signaling.NewAdapter(senderConn)
	receiverAdapter := signaling.NewAdapter(receiverConn)

	sender, err := transfer.NewSender("receiver", senderAdapter, rtcpeer.Options{})
	if err != nil {
		t.Fatalf("NewSender: %v", err)
	}
	defer sender.Close()
	sender.SetPin(&pin.Config{PIN: "1234", MaxTries: 3})
	sender.SetManifest([]protocol.FileDescriptor{{ID: "A", Name: "note.txt", Size: 1}})

	offerMsg := <-receiverAdapter.Inbound()
	receiver, err := transfer.NewReceiver(offerMsg.SessionID, offerMsg.PeerID, offerMsg.SDP, receiverAdapter, rtcpeer.Options{})
	if err != nil {
		t.Fatalf("NewReceiver: %v", err)
	}
	defer receiver.Close()
	receiver.SetPin(&pin.Config{PIN: "1234", MaxTries: 3})

	if _, err := receiver.Files(); err != nil {
		t.Fatalf("Files: %v", err)
	}
	if err := receiver.Decline(); err != nil {
		t.Fatalf("Decline: %v", err)
	}
}
