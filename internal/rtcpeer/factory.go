// Package rtcpeer builds pion peer connections configured the way spec
// §4.4 requires: default codecs, default interceptors, a single STUN
// server (optionally TURN too), and a one-shot failure notification.
package rtcpeer

import (
	"sync"

	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"
)

// DefaultSTUNServer is the single hardcoded STUN server spec §6 names.
const DefaultSTUNServer = "stun:stun.l.google.com:19302"

// TURNServer carries optional relay credentials layered on top of the
// default STUN-only configuration.
type TURNServer struct {
	URLs       []string
	Username   string
	Credential string
}

// Options configures peer connection construction. A zero Options value
// falls back to the single hardcoded STUN server with no TURN.
type Options struct {
	STUNServer string
	TURN       *TURNServer

	// ForceRelay, when set, requests ICE transport policy "relay" instead
	// of "all" — the CGNAT/VPN heuristic's opt-in signal (spec §4 does
	// not mandate this; it is a host-side policy knob layered on top).
	ForceRelay bool
}

// New builds a media engine with default codecs, registers default
// interceptors, and constructs a peer connection with the configured ICE
// servers. It returns the peer connection and a channel that is closed,
// once, when the connection transitions to Failed.
func New(opts Options) (*webrtc.PeerConnection, <-chan struct{}, error) {
	m := &webrtc.MediaEngine{}
	if err := m.RegisterDefaultCodecs(); err != nil {
		return nil, nil, err
	}

	i := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(m, i); err != nil {
		return nil, nil, err
	}

	api := webrtc.NewAPI(webrtc.WithMediaEngine(m), webrtc.WithInterceptorRegistry(i))

	stun := opts.STUNServer
	if stun == "" {
		stun = DefaultSTUNServer
	}

	iceServers := []webrtc.ICEServer{{URLs: []string{stun}}}
	if opts.TURN != nil {
		iceServers = append(iceServers, webrtc.ICEServer{
			URLs:       opts.TURN.URLs,
			Username:   opts.TURN.Username,
			Credential: opts.TURN.Credential,
		})
	}

	policy := webrtc.ICETransportPolicyAll
	if opts.ForceRelay && opts.TURN != nil {
		policy = webrtc.ICETransportPolicyRelay
	}

	pc, err := api.NewPeerConnection(webrtc.Configuration{
		ICEServers:         iceServers,
		ICETransportPolicy: policy,
	})
	if err != nil {
		return nil, nil, err
	}

	done := make(chan struct{})
	var once sync.Once
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		if state == webrtc.PeerConnectionStateFailed {
			once.Do(func() { close(done) })
		}
	})

	return pc, done, nil
}
