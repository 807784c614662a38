// Package sdp implements the compression/encoding used to carry SDP
// descriptions over the signaling side-channel: Brotli compression
// followed by unpadded base64url. The codec is pure, synchronous, and
// byte-stable so that interoperability with existing peers is preserved.
package sdp

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
)

const (
	windowBits = 24
	quality    = 11
	bufSize    = 4096
)

// Encode compresses s with Brotli (window 24, quality 11) and returns it
// base64url-encoded without padding.
func Encode(s string) (string, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterOptions(&buf, brotli.WriterOptions{
		Quality: quality,
		LGWin:   windowBits,
	})

	written := 0
	in := []byte(s)
	for written < len(in) {
		end := written + bufSize
		if end > len(in) {
			end = len(in)
		}
		if _, err := w.Write(in[written:end]); err != nil {
			return "", fmt.Errorf("sdp: compress: %w", err)
		}
		written = end
	}
	if len(in) == 0 {
		if _, err := w.Write(nil); err != nil {
			return "", fmt.Errorf("sdp: compress: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("sdp: compress: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode is the inverse of Encode. Decompression failure is treated as a
// session-fatal error by callers; it is always returned, never panicked.
func Decode(encoded string) (string, error) {
	compressed, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("sdp: invalid base64url: %w", err)
	}

	r := brotli.NewReader(bytes.NewReader(compressed))
	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("sdp: decompress: %w", err)
	}

	return string(out), nil
}
