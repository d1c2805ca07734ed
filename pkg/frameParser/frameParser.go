package frameparser

import (
	"bytes"
	"fmt"

	qpack "h3wire/pkg/qpack"

	"github.com/rs/zerolog"
)

// Listener receives the fully decoded frames and the failure events of one
// stream's parser. Callbacks fire synchronously from inside Parse, in decode
// order, and the parser never inspects their outcome. Embed ListenerAdapter
// to implement only the callbacks the upper layer cares about.
type Listener interface {
	OnData(frame *DataFrame)
	OnHeaders(frame *HeadersFrame)
	OnCancelPush(frame *CancelPushFrame)
	OnSettings(frame *SettingsFrame)
	OnPushPromise(frame *PushPromiseFrame)
	OnGoAway(frame *GoAwayFrame)
	OnMaxPushId(frame *MaxPushIdFrame)
	OnStreamFailure(streamId uint64, code ErrorCode, reason string)
	OnSessionFailure(code ErrorCode, reason string)
}

// ListenerAdapter is a no-op implementation of every Listener callback.
type ListenerAdapter struct{}

var _ Listener = (*ListenerAdapter)(nil)

func (ListenerAdapter) OnData(frame *DataFrame)                                        {}
func (ListenerAdapter) OnHeaders(frame *HeadersFrame)                                  {}
func (ListenerAdapter) OnCancelPush(frame *CancelPushFrame)                            {}
func (ListenerAdapter) OnSettings(frame *SettingsFrame)                                {}
func (ListenerAdapter) OnPushPromise(frame *PushPromiseFrame)                          {}
func (ListenerAdapter) OnGoAway(frame *GoAwayFrame)                                    {}
func (ListenerAdapter) OnMaxPushId(frame *MaxPushIdFrame)                              {}
func (ListenerAdapter) OnStreamFailure(streamId uint64, code ErrorCode, reason string) {}
func (ListenerAdapter) OnSessionFailure(code ErrorCode, reason string)                 {}

type parserState int

const (
	stateHeader parserState = iota
	stateBody
)

// FrameParser is the per-stream frame dispatch state machine. It alternates
// between decoding a frame header and the matching body, emitting listener
// callbacks for every completed frame. One instance is bound to exactly one
// stream for the stream's whole lifetime and must be driven from a single
// goroutine at a time; distinct streams get distinct instances and share
// nothing except the connection scoped QPACK decoder.
type FrameParser struct {
	streamId    uint64
	header      headerParser
	bodyParsers [maxFrameType]bodyParser
	unknown     *unknownBodyParser
	listener    Listener
	state       parserState
	failed      bool
	log         zerolog.Logger
}

// NewFrameParser binds a parser to a stream. The qpack decoder is the
// connection scoped header decompression collaborator used by the HEADERS
// and PUSH_PROMISE bodies.
func NewFrameParser(streamId uint64, listener Listener, decoder qpack.QpackApi) *FrameParser {
	p := &FrameParser{
		streamId: streamId,
		listener: listener,
		log:      zerolog.Nop(),
	}
	p.bodyParsers[FrameData] = newDataBodyParser(streamId, &p.header, listener)
	p.bodyParsers[FrameHeaders] = newHeadersBodyParser(streamId, &p.header, listener, decoder)
	p.bodyParsers[FrameCancelPush] = newCancelPushBodyParser(&p.header, listener)
	p.bodyParsers[FrameSettings] = newSettingsBodyParser(&p.header, listener)
	p.bodyParsers[FramePushPromise] = newPushPromiseBodyParser(streamId, &p.header, listener, decoder)
	p.bodyParsers[FrameGoAway] = newGoAwayBodyParser(&p.header, listener)
	p.bodyParsers[FrameMaxPushId] = newMaxPushIdBodyParser(&p.header, listener)
	p.unknown = newUnknownBodyParser(&p.header, listener)
	return p
}

// SetLogger attaches a debug logger. The parser logs nothing above debug
// level, everything observable goes through the listener.
func (p *FrameParser) SetLogger(log zerolog.Logger) {
	p.log = log
}

// Parse consumes the bytes newly available on the stream. It drains buf
// until it is exhausted or a partial field blocks on missing input, emitting
// one listener callback per fully decoded frame along the way. It never
// blocks, never performs I/O, and never fails past its own boundary: any
// grammar violation or internal failure is converted into exactly one
// session failure callback, after which the parser is dead and discards all
// further input.
func (p *FrameParser) Parse(buf *bytes.Buffer) {
	if p.failed {
		buf.Reset()
		return
	}

	defer func() {
		if r := recover(); r != nil {
			p.fail(buf, fmt.Errorf("parser panic: %v", r))
		}
	}()

	for {
		switch p.state {
		case stateHeader:
			if !p.header.parse(buf) {
				return
			}
			p.state = stateBody

		case stateBody:
			var parser bodyParser
			frameType := p.header.FrameType()
			if frameType < maxFrameType {
				parser = p.bodyParsers[frameType]
			}

			if parser == nil {
				// unknown frame types must be ignored
				p.log.Debug().Uint64("type", frameType).Msg("ignoring unknown frame type")
				parser = p.unknown
			}

			if p.header.FrameLength() == 0 {
				if err := parser.emptyBody(buf); err != nil {
					p.fail(buf, err)
					return
				}
			} else {
				done, err := parser.parse(buf)
				if err != nil {
					p.fail(buf, err)
					return
				}
				if !done {
					return
				}
			}
			p.reset()
		}
	}
}

func (p *FrameParser) reset() {
	p.header.reset()
	p.state = stateHeader
}

// fail is the single error boundary of a Parse call. The remaining buffered
// bytes are dropped because frame boundaries cannot be trusted after a
// decode failure, and the listener sees one generic session failure no
// matter which grammar violation occurred.
func (p *FrameParser) fail(buf *bytes.Buffer, err error) {
	if p.failed {
		buf.Reset()
		return
	}
	p.log.Debug().Uint64("stream", p.streamId).Err(err).Msg("frame parse failed")
	buf.Reset()
	p.failed = true
	p.listener.OnSessionFailure(ErrInternalError, "parser_error")
}
