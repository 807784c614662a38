package onceshot

import (
	"errors"
	"testing"
	"time"
)

func TestSlotTakeBlocksUntilFilled(t *testing.T) {
	s := NewSlot[int]()

	result := make(chan int, 1)
	go func() {
		v, err := s.Take()
		if err != nil {
			t.Error(err)
		}
		result <- v
	}()

	select {
	case <-result:
		t.Fatal("Take returned before Fill")
	case <-time.After(20 * time.Millisecond):
	}

	s.Fill(42)

	select {
	case v := <-result:
		if v != 42 {
			t.Fatalf("got %d, want 42", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Take never unblocked after Fill")
	}
}

func TestSlotSecondTakeFails(t *testing.T) {
	s := NewSlot[string]()
	s.Fill("hello")

	if v, err := s.Take(); err != nil || v != "hello" {
		t.Fatalf("first Take: v=%q err=%v", v, err)
	}

	if _, err := s.Take(); !errors.Is(err, ErrAlreadyConsumed) {
		t.Fatalf("second Take: got %v, want ErrAlreadyConsumed", err)
	}
}

func TestSlotTryTakeBeforeFill(t *testing.T) {
	s := NewSlot[int]()
	if _, ok := s.TryTake(); ok {
		t.Fatal("TryTake succeeded before Fill")
	}
}

func TestSlotFillTwicePanics(t *testing.T) {
	s := NewSlot[int]()
	s.Fill(1)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on second Fill")
		}
	}()
	s.Fill(2)
}
