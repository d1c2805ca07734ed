package frameparser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"
	"testing"

	qpack "h3wire/pkg/qpack"
)

// stubQpack stands in for the connection scoped QPACK codec. Decode echoes
// the block back as a single field so tests can check which block arrived.
type stubQpack struct {
	fail bool
}

var _ qpack.QpackApi = (*stubQpack)(nil)

func (s *stubQpack) Encode(w io.Writer, headerFields ...qpack.HeaderField) error {
	for _, hf := range headerFields {
		if _, err := w.Write([]byte(hf.Name + ":" + hf.Value)); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubQpack) Decode(block []byte) ([]qpack.HeaderField, error) {
	if s.fail {
		return nil, errors.New("stub decode failure")
	}
	return []qpack.HeaderField{{Name: "block", Value: string(block)}}, nil
}

// recordingListener captures every callback in arrival order. DATA chunks
// are additionally concatenated so tests can compare payloads independently
// of how the parser happened to chunk them.
type recordingListener struct {
	ListenerAdapter
	events          []string
	data            []byte
	sessionFailures int
	failureCode     ErrorCode
	failureReason   string
}

func (r *recordingListener) OnData(frame *DataFrame) {
	r.data = append(r.data, frame.Data...)
	r.events = append(r.events, "data")
}

func (r *recordingListener) OnHeaders(frame *HeadersFrame) {
	r.events = append(r.events, fmt.Sprintf("headers(%q)", frame.Block))
}

func (r *recordingListener) OnCancelPush(frame *CancelPushFrame) {
	r.events = append(r.events, fmt.Sprintf("cancel_push(%d)", frame.PushId))
}

func (r *recordingListener) OnSettings(frame *SettingsFrame) {
	r.events = append(r.events, fmt.Sprintf("settings(%v)", frame.Settings))
}

func (r *recordingListener) OnPushPromise(frame *PushPromiseFrame) {
	r.events = append(r.events, fmt.Sprintf("push_promise(%d,%q)", frame.PushId, frame.Block))
}

func (r *recordingListener) OnGoAway(frame *GoAwayFrame) {
	r.events = append(r.events, fmt.Sprintf("goaway(%d)", frame.Id))
}

func (r *recordingListener) OnMaxPushId(frame *MaxPushIdFrame) {
	r.events = append(r.events, fmt.Sprintf("max_push_id(%d)", frame.Id))
}

func (r *recordingListener) OnSessionFailure(code ErrorCode, reason string) {
	r.sessionFailures++
	r.failureCode = code
	r.failureReason = reason
	r.events = append(r.events, "session_failure")
}

func encodeAll(t *testing.T, frames ...interface{ Encode() ([]byte, error) }) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, f := range frames {
		encoded, err := f.Encode()
		if err != nil {
			t.Fatalf("failed to encode frame: %v", err)
		}
		buf.Write(encoded)
	}
	return buf.Bytes()
}

func TestParseFrameSequence(t *testing.T) {
	encoded := encodeAll(t,
		&SettingsFrame{Settings: []Setting{{Id: 0x01, Value: 0x100}, {Id: 0x06, Value: 0x200}}},
		&HeadersFrame{Block: []byte("compressed")},
		&CancelPushFrame{PushId: 7},
		&PushPromiseFrame{PushId: 3, Block: []byte("promise")},
		&GoAwayFrame{Id: 16384},
		&MaxPushIdFrame{Id: 99},
	)

	listener := &recordingListener{}
	parser := NewFrameParser(0, listener, &stubQpack{})
	parser.Parse(bytes.NewBuffer(encoded))

	expected := []string{
		"settings([{1 256} {6 512}])",
		`headers("compressed")`,
		"cancel_push(7)",
		`push_promise(3,"promise")`,
		"goaway(16384)",
		"max_push_id(99)",
	}
	if !reflect.DeepEqual(listener.events, expected) {
		t.Errorf("unexpected events:\nexpected %v\ngot      %v", expected, listener.events)
	}
	if listener.sessionFailures != 0 {
		t.Errorf("expected no session failure, got %d", listener.sessionFailures)
	}
}

// splitting a valid frame sequence at every byte boundary must produce the
// exact same callbacks as a single delivery
func TestParseResumability(t *testing.T) {
	encoded := encodeAll(t,
		&SettingsFrame{Settings: []Setting{{Id: 0x01, Value: 16384}}},
		&HeadersFrame{Block: []byte("hdrs")},
		&GoAwayFrame{Id: 5},
	)

	reference := &recordingListener{}
	NewFrameParser(0, reference, &stubQpack{}).Parse(bytes.NewBuffer(encoded))

	for split := 1; split < len(encoded); split++ {
		listener := &recordingListener{}
		parser := NewFrameParser(0, listener, &stubQpack{})
		parser.Parse(bytes.NewBuffer(encoded[:split]))
		parser.Parse(bytes.NewBuffer(encoded[split:]))

		if !reflect.DeepEqual(listener.events, reference.events) {
			t.Fatalf("split at %d diverged:\nexpected %v\ngot      %v", split, reference.events, listener.events)
		}
	}

	// one byte per call is the worst case
	listener := &recordingListener{}
	parser := NewFrameParser(0, listener, &stubQpack{})
	for _, b := range encoded {
		parser.Parse(bytes.NewBuffer([]byte{b}))
	}
	if !reflect.DeepEqual(listener.events, reference.events) {
		t.Errorf("byte at a time diverged:\nexpected %v\ngot      %v", reference.events, listener.events)
	}
}

// a DATA body may be chunked arbitrarily but the reassembled payload and the
// frames around it must not change, and the body must never eat into the
// next frame's header
func TestParseDataExactConsumption(t *testing.T) {
	payload := []byte("hello, HTTP/3")
	encoded := encodeAll(t,
		&DataFrame{Data: payload},
		&GoAwayFrame{Id: 42},
	)

	for split := 1; split < len(encoded); split++ {
		listener := &recordingListener{}
		parser := NewFrameParser(0, listener, &stubQpack{})
		parser.Parse(bytes.NewBuffer(encoded[:split]))
		parser.Parse(bytes.NewBuffer(encoded[split:]))

		if !bytes.Equal(listener.data, payload) {
			t.Fatalf("split at %d: payload %q, expected %q", split, listener.data, payload)
		}
		if last := listener.events[len(listener.events)-1]; last != "goaway(42)" {
			t.Fatalf("split at %d: trailing frame not parsed, events %v", split, listener.events)
		}
		if listener.sessionFailures != 0 {
			t.Fatalf("split at %d: unexpected session failure", split)
		}
	}
}

func TestParseUnknownFrameTypeIgnored(t *testing.T) {
	var buf bytes.Buffer
	// out of range type id with 5 payload bytes
	buf.Write(encodeVarint(0x21))
	buf.Write(encodeVarint(5))
	buf.Write([]byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00})
	// an unpopulated id inside the table bound behaves the same
	buf.Write(encodeVarint(0x02))
	buf.Write(encodeVarint(1))
	buf.WriteByte(0xFF)
	// parsing must continue correctly afterwards
	buf.Write(encodeAll(t, &GoAwayFrame{Id: 1}))

	listener := &recordingListener{}
	parser := NewFrameParser(0, listener, &stubQpack{})
	parser.Parse(&buf)

	expected := []string{"goaway(1)"}
	if !reflect.DeepEqual(listener.events, expected) {
		t.Errorf("expected only %v, got %v", expected, listener.events)
	}
}

func TestParseUnknownFrameAcrossCalls(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(encodeVarint(0x1F))
	buf.Write(encodeVarint(4))
	buf.Write([]byte{1, 2, 3, 4})
	buf.Write(encodeAll(t, &MaxPushIdFrame{Id: 8}))
	encoded := buf.Bytes()

	listener := &recordingListener{}
	parser := NewFrameParser(0, listener, &stubQpack{})
	for _, b := range encoded {
		parser.Parse(bytes.NewBuffer([]byte{b}))
	}

	expected := []string{"max_push_id(8)"}
	if !reflect.DeepEqual(listener.events, expected) {
		t.Errorf("expected %v, got %v", expected, listener.events)
	}
}

func TestParseEmptySettings(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(encodeVarint(FrameSettings))
	buf.Write(encodeVarint(0))

	listener := &recordingListener{}
	parser := NewFrameParser(0, listener, &stubQpack{})
	parser.Parse(&buf)

	expected := []string{"settings([])"}
	if !reflect.DeepEqual(listener.events, expected) {
		t.Errorf("expected %v, got %v", expected, listener.events)
	}
}

func TestParseEmptyData(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(encodeVarint(FrameData))
	buf.Write(encodeVarint(0))
	buf.Write(encodeAll(t, &GoAwayFrame{Id: 2}))

	listener := &recordingListener{}
	parser := NewFrameParser(0, listener, &stubQpack{})
	parser.Parse(&buf)

	expected := []string{"data", "goaway(2)"}
	if !reflect.DeepEqual(listener.events, expected) {
		t.Errorf("expected %v, got %v", expected, listener.events)
	}
	if len(listener.data) != 0 {
		t.Errorf("empty DATA frame delivered %d payload bytes", len(listener.data))
	}
}

func TestParseFailFastTruncatedSettings(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(encodeVarint(FrameSettings))
	buf.Write(encodeVarint(3))
	// one full pair (2 bytes) then the first byte of a 2 byte varint: the
	// declared length boundary falls mid pair
	buf.Write([]byte{0x01, 0x01, 0x41})

	listener := &recordingListener{}
	parser := NewFrameParser(0, listener, &stubQpack{})
	parser.Parse(&buf)

	if listener.sessionFailures != 1 {
		t.Fatalf("expected exactly one session failure, got %d", listener.sessionFailures)
	}
	if listener.failureCode != ErrInternalError {
		t.Errorf("expected error code %d, got %d", ErrInternalError, listener.failureCode)
	}
	if listener.failureReason != "parser_error" {
		t.Errorf("expected reason parser_error, got %q", listener.failureReason)
	}
	if len(listener.events) != 1 {
		t.Errorf("expected no frame callbacks, got %v", listener.events)
	}

	// the parser is dead: further input, valid or not, produces nothing
	parser.Parse(bytes.NewBuffer(encodeAll(t, &GoAwayFrame{Id: 1})))
	if len(listener.events) != 1 || listener.sessionFailures != 1 {
		t.Errorf("events after failure: %v", listener.events)
	}
}

func TestParseFailureDiscardsRemainingBuffer(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(encodeVarint(FrameGoAway))
	buf.Write(encodeVarint(2)) // declared length does not match the 1 byte id
	buf.Write([]byte{0x01, 0x01})
	buf.Write(encodeAll(t, &MaxPushIdFrame{Id: 3}))

	listener := &recordingListener{}
	parser := NewFrameParser(0, listener, &stubQpack{})
	parser.Parse(&buf)

	if listener.sessionFailures != 1 {
		t.Fatalf("expected one session failure, got %d", listener.sessionFailures)
	}
	if buf.Len() != 0 {
		t.Errorf("expected buffer to be drained on failure, %d bytes left", buf.Len())
	}
	expected := []string{"session_failure"}
	if !reflect.DeepEqual(listener.events, expected) {
		t.Errorf("expected %v, got %v", expected, listener.events)
	}
}

func TestParseControlFrameLengthMismatch(t *testing.T) {
	cases := []struct {
		name      string
		frameType FrameType
		length    uint64
		payload   []byte
	}{
		{"goaway truncated varint", FrameGoAway, 1, []byte{0x41}},
		{"cancel_push trailing byte", FrameCancelPush, 2, []byte{0x01, 0x00}},
		{"max_push_id empty body", FrameMaxPushId, 0, nil},
		{"headers empty body", FrameHeaders, 0, nil},
		{"push_promise empty body", FramePushPromise, 0, nil},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var buf bytes.Buffer
			buf.Write(encodeVarint(c.frameType))
			buf.Write(encodeVarint(c.length))
			buf.Write(c.payload)

			listener := &recordingListener{}
			parser := NewFrameParser(0, listener, &stubQpack{})
			parser.Parse(&buf)

			if listener.sessionFailures != 1 {
				t.Fatalf("expected one session failure, got %d (events %v)", listener.sessionFailures, listener.events)
			}
		})
	}
}

func TestParseHeadersDecodeFailure(t *testing.T) {
	encoded := encodeAll(t, &HeadersFrame{Block: []byte("broken")})

	listener := &recordingListener{}
	parser := NewFrameParser(0, listener, &stubQpack{fail: true})
	parser.Parse(bytes.NewBuffer(encoded))

	if listener.sessionFailures != 1 {
		t.Fatalf("expected one session failure, got %d", listener.sessionFailures)
	}
	if listener.failureCode != ErrInternalError {
		t.Errorf("expected error code %d, got %d", ErrInternalError, listener.failureCode)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	frames := []interface{ Encode() ([]byte, error) }{
		&DataFrame{Data: []byte("round trip payload")},
		&HeadersFrame{Block: []byte{0x00, 0x00, 0x51, 0x0B}},
		&CancelPushFrame{PushId: 1<<30 + 5},
		&SettingsFrame{Settings: []Setting{{Id: 6, Value: 16383}, {Id: 1, Value: 1 << 40}}},
		&PushPromiseFrame{PushId: 64, Block: []byte("pp")},
		&GoAwayFrame{Id: 1 << 20},
		&MaxPushIdFrame{Id: 0},
	}

	for _, original := range frames {
		listener := &recordingListener{}
		parser := NewFrameParser(0, listener, &stubQpack{})

		encoded, err := original.Encode()
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		parser.Parse(bytes.NewBuffer(encoded))

		if listener.sessionFailures != 0 {
			t.Fatalf("%T: unexpected session failure", original)
		}
		if len(listener.events) == 0 {
			t.Fatalf("%T: no callback fired", original)
		}

		switch f := original.(type) {
		case *DataFrame:
			if !bytes.Equal(listener.data, f.Data) {
				t.Errorf("DATA payload mismatch: %q vs %q", listener.data, f.Data)
			}
		case *SettingsFrame:
			expected := fmt.Sprintf("settings(%v)", f.Settings)
			if listener.events[0] != expected {
				t.Errorf("SETTINGS mismatch: expected %s, got %s", expected, listener.events[0])
			}
		case *HeadersFrame:
			expected := fmt.Sprintf("headers(%q)", f.Block)
			if listener.events[0] != expected {
				t.Errorf("HEADERS mismatch: expected %s, got %s", expected, listener.events[0])
			}
		case *PushPromiseFrame:
			expected := fmt.Sprintf("push_promise(%d,%q)", f.PushId, f.Block)
			if listener.events[0] != expected {
				t.Errorf("PUSH_PROMISE mismatch: expected %s, got %s", expected, listener.events[0])
			}
		case *CancelPushFrame:
			expected := fmt.Sprintf("cancel_push(%d)", f.PushId)
			if listener.events[0] != expected {
				t.Errorf("CANCEL_PUSH mismatch: expected %s, got %s", expected, listener.events[0])
			}
		case *GoAwayFrame:
			expected := fmt.Sprintf("goaway(%d)", f.Id)
			if listener.events[0] != expected {
				t.Errorf("GOAWAY mismatch: expected %s, got %s", expected, listener.events[0])
			}
		case *MaxPushIdFrame:
			expected := fmt.Sprintf("max_push_id(%d)", f.Id)
			if listener.events[0] != expected {
				t.Errorf("MAX_PUSH_ID mismatch: expected %s, got %s", expected, listener.events[0])
			}
		}
	}
}

// the no-op adapter alone must be enough for the parser to function
func TestParseWithBareAdapter(t *testing.T) {
	encoded := encodeAll(t,
		&SettingsFrame{Settings: []Setting{{Id: 1, Value: 2}}},
		&DataFrame{Data: []byte("ignored")},
	)

	parser := NewFrameParser(0, &ListenerAdapter{}, &stubQpack{})
	parser.Parse(bytes.NewBuffer(encoded))
}
