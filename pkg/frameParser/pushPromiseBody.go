package frameparser

import (
	"bytes"
	"fmt"

	qpack "h3wire/pkg/qpack"
)

type pushPromiseState int

const (
	pushPromiseStateInit pushPromiseState = iota
	pushPromiseStatePushId
	pushPromiseStateBlock
)

// pushPromiseBodyParser handles PUSH_PROMISE frames: a push id varint
// followed by a QPACK field section filling the rest of the declared length.
// Like HEADERS the field section is buffered whole before decoding.
type pushPromiseBodyParser struct {
	body
	decoder qpack.QpackApi
	state   pushPromiseState
	length  uint64
	idDec   varintDecoder
	pushId  uint64
	block   []byte
}

func newPushPromiseBodyParser(streamId uint64, header *headerParser, listener Listener, decoder qpack.QpackApi) *pushPromiseBodyParser {
	return &pushPromiseBodyParser{
		body:    body{streamId: streamId, header: header, listener: listener},
		decoder: decoder,
	}
}

func (p *pushPromiseBodyParser) parse(buf *bytes.Buffer) (bool, error) {
	if p.state == pushPromiseStateInit {
		p.length = p.header.FrameLength()
		p.state = pushPromiseStatePushId
	}

	if p.state == pushPromiseStatePushId {
		for {
			if p.length == 0 {
				p.state = pushPromiseStateInit
				p.idDec.reset()
				return false, fmt.Errorf("%w: PUSH_PROMISE push id truncated", errMalformedFrame)
			}
			b, err := buf.ReadByte()
			if err != nil {
				return false, nil
			}
			p.length--
			if p.idDec.feed(b) {
				break
			}
		}
		p.pushId = p.idDec.value
		p.idDec.reset()
		p.block = make([]byte, 0, p.length)
		p.state = pushPromiseStateBlock
	}

	n := p.length
	if avail := uint64(buf.Len()); avail < n {
		n = avail
	}
	p.block = append(p.block, buf.Next(int(n))...)
	p.length -= n

	if p.length > 0 {
		return false, nil
	}

	block := p.block
	p.block = nil
	p.state = pushPromiseStateInit

	if len(block) == 0 {
		return false, fmt.Errorf("%w: PUSH_PROMISE carries no field section", errMalformedFrame)
	}

	fields, err := p.decoder.Decode(block)
	if err != nil {
		return false, fmt.Errorf("%w: qpack decode failed: %w", errMalformedFrame, err)
	}

	p.listener.OnPushPromise(&PushPromiseFrame{PushId: p.pushId, Block: block, Fields: fields})
	return true, nil
}

func (p *pushPromiseBodyParser) emptyBody(buf *bytes.Buffer) error {
	return fmt.Errorf("%w: empty PUSH_PROMISE body", errMalformedFrame)
}
