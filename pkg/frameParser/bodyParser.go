package frameparser

import "bytes"

// bodyParser is the contract shared by every frame payload decoder.
//
// parse consumes at most the remaining undecoded portion of the current
// frame's declared length from buf. It returns (true, nil) once exactly that
// many bytes were consumed across however many calls it took, (false, nil)
// when more bytes are needed, and a non-nil error on a grammar violation.
// "Need more bytes" and "malformed" are never conflated: an error is final.
//
// emptyBody is invoked instead of parse when the declared length is zero, so
// the parsers never see a zero byte "normal" decode call.
//
// A body parser emits the listener callback for its frame as part of
// completing; the driver only resets and moves on.
type bodyParser interface {
	parse(buf *bytes.Buffer) (bool, error)
	emptyBody(buf *bytes.Buffer) error
}

// body carries what every body parser variant needs: the stream it belongs
// to, the header parser holding the declared frame length, and the listener
// to notify on completion.
type body struct {
	streamId uint64
	header   *headerParser
	listener Listener
}
