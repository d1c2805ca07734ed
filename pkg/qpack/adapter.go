package adapter

import "io"

// QpackApi is the header compression boundary. Decode receives one whole
// encoded field section, never a partial one: the frame layer buffers the
// full HEADERS or PUSH_PROMISE payload before calling it.
//
// Implementations are connection scoped and order dependent across frames,
// so callers must serialize Decode calls per connection even when streams
// are otherwise parsed concurrently.
type QpackApi interface {
	Encode(buffer io.Writer, headerFields ...HeaderField) error
	Decode(block []byte) ([]HeaderField, error)
}

type HeaderField struct {
	Name  string
	Value string
}
