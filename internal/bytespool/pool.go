package bytespool

import (
	"bytes"
	"sync"
)

var pool = sync.Pool{
	New: func() interface{} {
		return &bytes.Buffer{}
	},
}

// Get returns an empty buffer for encoding records, callers Reset and Put it
// back when the bytes are no longer referenced.
func Get() *bytes.Buffer {
	return pool.Get().(*bytes.Buffer)
}

func Put(b *bytes.Buffer) {
	if b.Cap() > maxPooled {
		return
	}
	pool.Put(b)
}

// buffers that grew past this are left to the garbage collector
const maxPooled = 1 << 20
