package frameparser

import (
	"bytes"
	"fmt"
)

// idBodyParser is the shared shape of the three frame bodies that consist of
// exactly one varint: CANCEL_PUSH, GOAWAY and MAX_PUSH_ID. The declared
// length must match the varint's encoded size exactly, shorter and longer
// are both grammar violations.
type idBodyParser struct {
	body
	name    string
	emit    func(id uint64)
	length  uint64
	decoder varintDecoder
	active  bool
}

func (p *idBodyParser) parse(buf *bytes.Buffer) (bool, error) {
	if !p.active {
		p.length = p.header.FrameLength()
		p.active = true
	}

	for p.length > 0 {
		b, err := buf.ReadByte()
		if err != nil {
			return false, nil
		}
		p.length--
		if !p.decoder.feed(b) {
			continue
		}
		if p.length != 0 {
			p.reset()
			return false, fmt.Errorf("%w: %s length exceeds its id field", errMalformedFrame, p.name)
		}
		id := p.decoder.value
		p.reset()
		p.emit(id)
		return true, nil
	}

	// declared length exhausted mid varint
	p.reset()
	return false, fmt.Errorf("%w: %s id field truncated", errMalformedFrame, p.name)
}

func (p *idBodyParser) emptyBody(buf *bytes.Buffer) error {
	return fmt.Errorf("%w: empty %s body", errMalformedFrame, p.name)
}

func (p *idBodyParser) reset() {
	p.decoder.reset()
	p.length = 0
	p.active = false
}

func newCancelPushBodyParser(header *headerParser, listener Listener) *idBodyParser {
	p := &idBodyParser{body: body{header: header, listener: listener}, name: "CANCEL_PUSH"}
	p.emit = func(id uint64) { listener.OnCancelPush(&CancelPushFrame{PushId: id}) }
	return p
}

func newGoAwayBodyParser(header *headerParser, listener Listener) *idBodyParser {
	p := &idBodyParser{body: body{header: header, listener: listener}, name: "GOAWAY"}
	p.emit = func(id uint64) { listener.OnGoAway(&GoAwayFrame{Id: id}) }
	return p
}

func newMaxPushIdBodyParser(header *headerParser, listener Listener) *idBodyParser {
	p := &idBodyParser{body: body{header: header, listener: listener}, name: "MAX_PUSH_ID"}
	p.emit = func(id uint64) { listener.OnMaxPushId(&MaxPushIdFrame{Id: id}) }
	return p
}
