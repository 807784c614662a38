package rtcpeer

import (
	"testing"

	"github.com/pion/webrtc/v4"
)

func TestNewUsesDefaultSTUNServer(t *testing.T) {
	pc, done, err := New(Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer pc.Close()

	if done == nil {
		t.Fatal("expected a non-nil done channel")
	}

	cfg := pc.GetConfiguration()
	if len(cfg.ICEServers) != 1 || len(cfg.ICEServers[0].URLs) != 1 || cfg.ICEServers[0].URLs[0] != DefaultSTUNServer {
		t.Fatalf("unexpected ICE servers: %+v", cfg.ICEServers)
	}
}

func TestNewWithTURNAddsSecondServer(t *testing.T) {
	pc, _, err := New(Options{
		TURN: &TURNServer{URLs: []string{"turn:example.com:3478"}, Username: "u", Credential: "p"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer pc.Close()

	cfg := pc.GetConfiguration()
	if len(cfg.ICEServers) != 2 {
		t.Fatalf("expected 2 ICE servers, got %d", len(cfg.ICEServers))
	}
}

func TestNewForceRelayWithoutTURNKeepsPolicyAll(t *testing.T) {
	pc, _, err := New(Options{ForceRelay: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer pc.Close()

	cfg := pc.GetConfiguration()
	if cfg.ICETransportPolicy != webrtc.ICETransportPolicyAll {
		t.Fatalf("expected policy all without TURN configured, got %v", cfg.ICETransportPolicy)
	}
}

func TestNewDoneStaysOpenBeforeFailure(t *testing.T) {
	pc, done, err := New(Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer pc.Close()

	select {
	case <-done:
		t.Fatal("done should not have fired yet")
	default:
	}
}
