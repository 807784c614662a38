// Package config loads Beam's runtume settings with CLI flag > env var >
// hardcoded default precedence, the way the rest of the pack's CLIs do.
package config

import (
	"os"

	"github.com/kiloframe/beam/internal/utils"
)

// Default configuration values.
const (
	DefaultSignalingURL = "wss://beam.example.dev/ws"
	DefaultSTUN         = "stun:stun.l.google.com:19302"
	DefaultTURN         = ""
)

// Config holds application configuration.
type Config struct {
	// SignalingURL is the websocket endpoint the adapter dials.
	SignalingURL string

	// ICE servers for the peer connection factory.
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string

	// ForceRelay pins the ICE transport policy to relay-only, either
	// because the operator asked for it or because the CGNAT/VPN
	// heuristic detected an unfavorable network.
	ForceRelay bool
}

// Options carries CLI flag overrides into Load.
type Options struct {
	SignalingURL string
	STUNServer   string
	TURNServer   string
	TURNUser     string
	TURNPass     string
	ForceRelay   bool
}

// Load reads configuration with the following priority:
//  1. CLI flags (passed via Options) - highest priority
//  2. Environment variables
//  3. Hardcoded defaults - lowest priority
//
// ForceRelay additionally falls back to utils.ShouldForceRelay's
// network heuristic when neither a flag nor an env var opts in.
func Load(opts Options) (*Config, error) {
	signalingURL := firstNonEmpty(opts.SignalingURL, os.Getenv("BEAM_SIGNALING_URL"), DefaultSignalingURL)
	stunServer := firstNonEmpty(opts.STUNServer, os.Getenv("BEAM_STUN_SERVER"), DefaultSTUN)
	turnServer := firstNonEmpty(opts.TURNServer, os.Getenv("BEAM_TURN_SERVER"), DefaultTURN)
	turnUser := firstNonEmpty(opts.TURNUser, os.Getenv("BEAM_TURN_USERNAME"), "")
	turnPass := firstNonEmpty(opts.TURNPass, os.Getenv("BEAM_TURN_PASSWORD"), "")

	forceRelay := opts.ForceRelay
	if !forceRelay {
		forceRelay = os.Getenv("BEAM_FORCE_RELAY") == "1"
	}
	if !forceRelay {
		forceRelay = utils.ShouldForceRelay()
	}

	return &Config{
		SignalingURL: signalingURL,
		STUNServer:   stunServer,
		TURNServer:   turnServer,
		TURNUser:     turnUser,
		TURNPass:     turnPass,
		ForceRelay:   forceRelay,
	}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// GetTURNServers returns TURN server URLs if configured.
func (c *Config) GetTURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	return []string{c.TURNServer}
}

// GetTURNCredentials returns TURN username and password.
func (c *Config) GetTURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}
