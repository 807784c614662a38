package dns

import "testing"

func TestLookupResolvesLocalhost(t *testing.T) {
	ip, err := Lookup("localhost")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if ip == "" {
		t.Fatal("expected a non-empty IP for localhost")
	}
}

func TestLocalLookupIPRejectsUnknownHost(t *testing.T) {
	if _, err := localLookupIP("this-host-should-not-resolve.invalid"); err == nil {
		t.Fatal("expected an error for an unresolvable host")
	}
}
