package chunk

import (
	"bytes"
	"errors"
	"testing"
)

type collector struct {
	chunks [][]byte
	failAt int // -1 disables
}

func (c *collector) Send(chunk []byte) error {
	if c.failAt >= 0 && len(c.chunks) == c.failAt {
		return errors.New("sink failure")
	}
	cp := make([]byte, len(chunk))
	copy(cp, chunk)
	c.chunks = append(c.chunks, cp)
	return nil
}

func TestChunkerExactness(t *testing.T) {
	cases := []int{0, 1, Size - 1, Size, Size + 1, Size*3 + 7, Size * 2}

	for _, n := range cases {
		input := make([]byte, n)
		for i := range input {
			input[i] = byte(i)
		}

		c := &collector{failAt: -1}
		if err := RunString(string(input), c); err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}

		wantChunks := n / Size
		if n%Size != 0 {
			wantChunks++
		}
		if len(c.chunks) != wantChunks {
			t.Fatalf("n=%d: got %d chunks, want %d", n, len(c.chunks), wantChunks)
		}

		for i, ch := range c.chunks {
			if i < len(c.chunks)-1 && len(ch) != Size {
				t.Fatalf("n=%d: chunk %d has length %d, want %d", n, i, len(ch), Size)
			}
		}

		var got []byte
		for _, ch := range c.chunks {
			got = append(got, ch...)
		}
		if !bytes.Equal(got, input) {
			t.Fatalf("n=%d: concatenation mismatch", n)
		}
	}
}

func TestChunkerEmptyInputEmitsNothing(t *testing.T) {
	c := &collector{failAt: -1}
	if err := RunString("", c); err != nil {
		t.Fatal(err)
	}
	if len(c.chunks) != 0 {
		t.Fatalf("got %d chunks for empty input, want 0", len(c.chunks))
	}
}

func TestChunkerSinkFailurePropagates(t *testing.T) {
	c := &collector{failAt: 1}
	input := make([]byte, Size*3)

	err := RunString(string(input), c)
	if err == nil {
		t.Fatal("expected sink failure to propagate")
	}
	if len(c.chunks) != 1 {
		t.Fatalf("got %d chunks before failure, want 1", len(c.chunks))
	}
}

func TestChunkerMultipleFeeds(t *testing.T) {
	c := &collector{failAt: -1}
	ch := New(c)

	if err := ch.Feed(make([]byte, Size/2)); err != nil {
		t.Fatal(err)
	}
	if len(c.chunks) != 0 {
		t.Fatalf("premature flush: got %d chunks", len(c.chunks))
	}

	if err := ch.Feed(make([]byte, Size/2+10)); err != nil {
		t.Fatal(err)
	}
	if len(c.chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(c.chunks))
	}

	if err := ch.Flush(); err != nil {
		t.Fatal(err)
	}
	if len(c.chunks) != 2 {
		t.Fatalf("got %d chunks after flush, want 2", len(c.chunks))
	}
	if len(c.chunks[1]) != 10 {
		t.Fatalf("tail chunk has length %d, want 10", len(c.chunks[1]))
	}
}
