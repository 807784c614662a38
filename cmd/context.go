package cmd

import (
	"fmt"
	"time"

	"github.com/kiloframe/beam/internal/config"
	"github.com/kiloframe/beam/internal/rtcpeer"
	"github.com/kiloframe/beam/internal/signaling"
)

// peerOptions translates a loaded Config into the ICE configuration the
// peer connection factory consumes.
func peerOptions(cfg *config.Config) rtcpeer.Options {
	opts := rtcpeer.Options{
		STUNServer: cfg.STUNServer,
		ForceRelay: cfg.ForceRelay,
	}

	if urls := cfg.GetTURNServers(); len(urls) > 0 {
		user, pass := cfg.GetTURNCredentials()
		opts.TURN = &rtcpeer.TURNServer{
			URLs:       urls,
			Username:   user,
			Credential: pass,
		}
	}

	return opts
}

// dialSignaling connects to the signaling server and blocks until the
// server's Hello announces our own client id.
func dialSignaling(cfg *config.Config) (*signaling.Adapter, signaling.ClientInfo, error) {
	conn := signaling.NewWSConnection(cfg.SignalingURL)
	if err := conn.Connect(); err != nil {
		return nil, signaling.ClientInfo{}, fmt.Errorf("connect to signaling server: %w", err)
	}

	adapter := signaling.NewAdapter(conn)

	select {
	case msg := <-adapter.Inbound():
		if msg.Kind != signaling.KindHello {
			return nil, signaling.ClientInfo{}, fmt.Errorf("expected hello, got %s", msg.Kind)
		}
		return adapter, msg.Client, nil
	case <-time.After(10 * time.Second):
		return nil, signaling.ClientInfo{}, fmt.Errorf("timed out waiting for signaling server hello")
	}
}
