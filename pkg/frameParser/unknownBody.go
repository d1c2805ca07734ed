package frameparser

import "bytes"

// unknownBodyParser discards the payload of frame types the parser does not
// recognize. Unknown frame types must be ignored, not rejected, so this
// parser only counts bytes and never fails regardless of content. No frame
// ever reaches the listener from here.
type unknownBodyParser struct {
	body
	length uint64
	active bool
}

func newUnknownBodyParser(header *headerParser, listener Listener) *unknownBodyParser {
	return &unknownBodyParser{
		body: body{header: header, listener: listener},
	}
}

func (u *unknownBodyParser) parse(buf *bytes.Buffer) (bool, error) {
	if !u.active {
		u.length = u.header.FrameLength()
		u.active = true
	}

	n := u.length
	if avail := uint64(buf.Len()); avail < n {
		n = avail
	}
	buf.Next(int(n))
	u.length -= n

	if u.length > 0 {
		return false, nil
	}
	u.active = false
	return true, nil
}

func (u *unknownBodyParser) emptyBody(buf *bytes.Buffer) error {
	return nil
}
