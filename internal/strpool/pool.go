package strpool

import (
	"strings"
	"sync"
)

var pool = sync.Pool{
	New: func() interface{} {
		return &strings.Builder{}
	},
}

// Get returns an empty builder for rendering scoreboard and operator text.
func Get() *strings.Builder {
	return pool.Get().(*strings.Builder)
}

// Put returns b to the pool, callers Reset it first.
func Put(b *strings.Builder) {
	pool.Put(b)
}
