package frameparser

import (
	"bytes"
	"fmt"

	qpack "h3wire/pkg/qpack"
)

// headersBodyParser handles HEADERS frames. QPACK needs the whole field
// section at once, so the payload is buffered until the declared length is
// reached and only then handed to the decoder. The decoder is connection
// scoped and order dependent, the caller keeps it serialized across streams.
type headersBodyParser struct {
	body
	decoder qpack.QpackApi
	length  uint64
	block   []byte
	active  bool
}

func newHeadersBodyParser(streamId uint64, header *headerParser, listener Listener, decoder qpack.QpackApi) *headersBodyParser {
	return &headersBodyParser{
		body:    body{streamId: streamId, header: header, listener: listener},
		decoder: decoder,
	}
}

func (h *headersBodyParser) parse(buf *bytes.Buffer) (bool, error) {
	if !h.active {
		h.length = h.header.FrameLength()
		h.block = make([]byte, 0, h.length)
		h.active = true
	}

	n := h.length
	if avail := uint64(buf.Len()); avail < n {
		n = avail
	}
	h.block = append(h.block, buf.Next(int(n))...)
	h.length -= n

	if h.length > 0 {
		return false, nil
	}

	block := h.block
	h.block = nil
	h.active = false

	fields, err := h.decoder.Decode(block)
	if err != nil {
		return false, fmt.Errorf("%w: qpack decode failed: %w", errMalformedFrame, err)
	}

	h.listener.OnHeaders(&HeadersFrame{Block: block, Fields: fields})
	return true, nil
}

func (h *headersBodyParser) emptyBody(buf *bytes.Buffer) error {
	// an empty field section cannot carry the mandatory QPACK prefix
	return fmt.Errorf("%w: empty HEADERS body", errMalformedFrame)
}
