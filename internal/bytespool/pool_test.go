package bytespool

import (
	"bytes"
	"testing"
)

func TestPutDropsLargeBuffers(t *testing.T) {
	t.Parallel()

	b := Get()
	if b.Len() != 0 {
		t.Fatalf("expected empty buffer got %d bytes", b.Len())
	}

	big := bytes.NewBuffer(make([]byte, 0, maxPooled+1))
	Put(big)
	b.WriteString(`{"winner":"blue"}`)
	b.Reset()
	Put(b)

	if got := Get(); got.Len() != 0 {
		t.Errorf("expected empty buffer got %d bytes", got.Len())
	}
}
