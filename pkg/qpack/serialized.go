package adapter

import (
	"io"
	"sync"
)

// serializedQpack wraps a QpackApi with a mutex so per-stream parsers running
// on different goroutines still drive the connection scoped codec one field
// section at a time, in frame order.
type serializedQpack struct {
	mu    sync.Mutex
	inner QpackApi
}

var _ QpackApi = (*serializedQpack)(nil)

func NewSerializedQpack(inner QpackApi) QpackApi {
	return &serializedQpack{inner: inner}
}

func (s *serializedQpack) Encode(buffer io.Writer, headerFields ...HeaderField) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Encode(buffer, headerFields...)
}

func (s *serializedQpack) Decode(block []byte) ([]HeaderField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Decode(block)
}
