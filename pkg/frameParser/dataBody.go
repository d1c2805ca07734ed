package frameparser

import "bytes"

// dataBodyParser handles DATA frames. The payload is opaque, so there is
// nothing to validate and no reason to buffer: every available chunk is
// handed to the listener as soon as it arrives, and the frame completes once
// the declared length has been consumed.
type dataBodyParser struct {
	body
	length uint64
	active bool
}

func newDataBodyParser(streamId uint64, header *headerParser, listener Listener) *dataBodyParser {
	return &dataBodyParser{
		body: body{streamId: streamId, header: header, listener: listener},
	}
}

func (d *dataBodyParser) parse(buf *bytes.Buffer) (bool, error) {
	if !d.active {
		d.length = d.header.FrameLength()
		d.active = true
	}

	if buf.Len() == 0 {
		return false, nil
	}

	n := d.length
	if avail := uint64(buf.Len()); avail < n {
		n = avail
	}

	// copy out of the transport buffer, the listener may retain the chunk
	chunk := append([]byte(nil), buf.Next(int(n))...)
	d.length -= n

	d.listener.OnData(&DataFrame{Data: chunk})

	if d.length > 0 {
		return false, nil
	}
	d.active = false
	return true, nil
}

func (d *dataBodyParser) emptyBody(buf *bytes.Buffer) error {
	d.listener.OnData(&DataFrame{})
	return nil
}
