package quicgo

import (
	"io"

	adapter "h3wire/pkg/quic"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/quicvarint"
)

type quicBiStream struct {
	stream quic.Stream
}

func NewBiStream(stream quic.Stream) adapter.QuicBiStream {
	return &quicBiStream{
		stream: stream,
	}
}

func (qs *quicBiStream) ID() adapter.StreamId {
	return adapter.StreamId(qs.stream.StreamID())
}

func (qs *quicBiStream) Write(p []byte) (n int, err error) {
	return qs.stream.Write(p)
}

func (qs *quicBiStream) Close(reason adapter.ApplicationError) {
	if reason == 0 {
		_ = qs.stream.Close()
		return
	}
	qs.stream.CancelWrite(quic.StreamErrorCode(reason))
	qs.stream.CancelRead(quic.StreamErrorCode(reason))
}

type quicUniStream struct {
	stream quic.SendStream
}

func NewUniStream(stream quic.SendStream) adapter.QuicUniStream {
	return &quicUniStream{
		stream: stream,
	}
}

func (qs *quicUniStream) ID() adapter.StreamId {
	return adapter.StreamId(qs.stream.StreamID())
}

func (qs *quicUniStream) Write(p []byte) (n int, err error) {
	return qs.stream.Write(p)
}

func (qs *quicUniStream) Close() error {
	return qs.stream.Close()
}

func writeStreamType(w io.Writer, streamType adapter.StreamType) error {
	_, err := w.Write(quicvarint.Append(nil, uint64(streamType)))
	return err
}
