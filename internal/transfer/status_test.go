package transfer

import "testing"

func TestEmitCoalesceDropsStaleValue(t *testing.T) {
	ch := make(chan Status, 1)

	emitCoalesce(ch, Status{Kind: StatusConnected})
	emitCoalesce(ch, Status{Kind: StatusSending})
	emitCoalesce(ch, Status{Kind: StatusFinished})

	got := <-ch
	if got.Kind != StatusFinished {
		t.Fatalf("expected only the latest status to survive, got %v", got.Kind)
	}

	select {
	case v := <-ch:
		t.Fatalf("expected channel to be drained, got extra value %v", v)
	default:
	}
}

func TestEmitCoalesceDeliversWhenReaderIsReady(t *testing.T) {
	ch := make(chan FileError, 1)
	done := make(chan FileError, 1)

	go func() {
		done <- <-ch
	}()

	emitCoalesce(ch, FileError{FileID: "A", Message: "boom"})

	got := <-done
	if got.FileID != "A" || got.Message != "boom" {
		t.Fatalf("unexpected value: %+v", got)
	}
}
