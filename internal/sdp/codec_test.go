package sdp

import (
	"strings"
	"testing"
)

const sampleSDP = `v=0
o=- 46117317 2 IN IP4 127.0.0.1
s=-
t=0 0
a=group:BUNDLE 0
m=application 9 UDP/DTLS/SCTP webrtc-datachannel
c=IN IP4 0.0.0.0
a=sctp-port:5000
`

func TestRoundTrip(t *testing.T) {
	cases := []string{"", "x", sampleSDP, strings.Repeat("a=candidate\n", 500)}

	for _, s := range cases {
		encoded, err := Encode(s)
		if err != nil {
			t.Fatalf("Encode(%q): %v", s, err)
		}

		for _, c := range encoded {
			if !strings.ContainsRune("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_", c) {
				t.Fatalf("Encode(%q) produced non-base64url char %q", s, c)
			}
		}
		if strings.Contains(encoded, "=") {
			t.Fatalf("Encode(%q) produced padding: %q", s, encoded)
		}

		decoded, err := Decode(encoded)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if decoded != s {
			t.Fatalf("round trip mismatch: got %q, want %q", decoded, s)
		}
	}
}

func TestDecodeInvalidBase64(t *testing.T) {
	if _, err := Decode("not valid base64url!!!"); err == nil {
		t.Fatal("expected error for invalid base64url input")
	}
}

func TestDecodeInvalidBrotliStream(t *testing.T) {
	// Valid base64url, but not a Brotli stream.
	if _, err := Decode("aGVsbG8"); err == nil {
		t.Fatal("expected error for non-Brotli payload")
	}
}
