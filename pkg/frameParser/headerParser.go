package frameparser

import "bytes"

type headerState int

const (
	headerStateType headerState = iota
	headerStateLength
)

// headerParser decodes the (type, length) pair that precedes every frame
// body. It owns the partial decode progress: when parse returns false the
// bytes consumed so far are kept in the two varint decoders and the next
// call continues from the exact byte where this one stopped.
type headerParser struct {
	state       headerState
	typeDecoder varintDecoder
	lenDecoder  varintDecoder
	frameType   uint64
	frameLength uint64
}

// parse consumes bytes from buf and reports whether the full header was
// decoded. It never fails: any byte sequence is a valid (type, length)
// prefix, bad values only surface later as body grammar violations.
func (h *headerParser) parse(buf *bytes.Buffer) bool {
	for {
		switch h.state {
		case headerStateType:
			v, ok := h.typeDecoder.decode(buf)
			if !ok {
				return false
			}
			h.frameType = v
			h.state = headerStateLength

		case headerStateLength:
			v, ok := h.lenDecoder.decode(buf)
			if !ok {
				return false
			}
			h.frameLength = v
			return true
		}
	}
}

// FrameType is only valid after parse returned true and before reset.
func (h *headerParser) FrameType() uint64 {
	return h.frameType
}

// FrameLength is only valid after parse returned true and before reset.
func (h *headerParser) FrameLength() uint64 {
	return h.frameLength
}

// reset clears decode progress. The driver calls it only once the whole
// frame, header and body, has been consumed.
func (h *headerParser) reset() {
	h.state = headerStateType
	h.typeDecoder.reset()
	h.lenDecoder.reset()
	h.frameType = 0
	h.frameLength = 0
}
