package frameparser

import (
	"bytes"
	"fmt"
)

type settingsState int

const (
	settingsStateInit settingsState = iota
	settingsStateId
	settingsStateValue
)

// settingsBodyParser handles SETTINGS frames: a sequence of (id, value)
// varint pairs that must exhaust the declared length exactly. A boundary
// that falls inside a varint or between an id and its value is a grammar
// violation.
type settingsBodyParser struct {
	body
	state    settingsState
	length   uint64 // declared payload bytes still unconsumed
	decoder  varintDecoder
	id       uint64
	settings []Setting
}

func newSettingsBodyParser(header *headerParser, listener Listener) *settingsBodyParser {
	return &settingsBodyParser{
		body: body{header: header, listener: listener},
	}
}

func (s *settingsBodyParser) parse(buf *bytes.Buffer) (bool, error) {
	if s.state == settingsStateInit {
		s.length = s.header.FrameLength()
		s.settings = make([]Setting, 0, 4)
		s.state = settingsStateId
	}

	// feed the varint decoder byte by byte so it can never run past the
	// declared frame length into the next frame's header
	for s.length > 0 {
		b, err := buf.ReadByte()
		if err != nil {
			return false, nil
		}
		s.length--
		if !s.decoder.feed(b) {
			continue
		}
		value := s.decoder.value
		s.decoder.reset()

		switch s.state {
		case settingsStateId:
			s.id = value
			s.state = settingsStateValue
		case settingsStateValue:
			s.settings = append(s.settings, Setting{Id: s.id, Value: value})
			s.state = settingsStateId
		}
	}

	if s.state == settingsStateValue || s.decoder.inProgress() {
		return false, fmt.Errorf("%w: SETTINGS length not a whole number of id/value pairs", errMalformedFrame)
	}

	s.emit()
	return true, nil
}

func (s *settingsBodyParser) emptyBody(buf *bytes.Buffer) error {
	// a SETTINGS frame with no pairs is valid
	s.settings = nil
	s.emit()
	return nil
}

func (s *settingsBodyParser) emit() {
	frame := &SettingsFrame{Settings: s.settings}
	s.settings = nil
	s.state = settingsStateInit
	s.listener.OnSettings(frame)
}
