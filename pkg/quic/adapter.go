package adapter

import "io"

type StreamId uint64

// ApplicationError is the application level close code handed to the QUIC
// layer, for HTTP/3 these are the RFC 9114 error codes.
type ApplicationError uint64

// unidirectional stream types as defined by RFC 9114 section 6.2
type StreamType uint64

const (
	StreamTypeControl      StreamType = 0x00
	StreamTypePush         StreamType = 0x01
	StreamTypeQpackEncoder StreamType = 0x02
	StreamTypeQpackDecoder StreamType = 0x03
)

// QuicAPI is the callback surface a QUIC backend drives. The transport owns
// accepting connections and streams and pumping their bytes; everything
// above it reacts through these notifications.
type QuicAPI interface {
	OnNewConnection(conn QuicConn)
	OnCanceledConn(conn QuicConn)
	OnNewBiStream(conn QuicConn, stream QuicBiStream)
	OnReadBiStream(conn QuicConn, stream QuicBiStream, reader io.Reader)
	OnNewUniStream(conn QuicConn, id StreamId)
	OnReadUniStream(conn QuicConn, id StreamId, reader io.Reader)
}

type QuicConn interface {
	// String returns the connection id in printable form
	String() string
	CreateUniStream(streamType StreamType) (QuicUniStream, error)
	Close(reason ApplicationError)
	LocalAddress() string
	RemoteAddress() string
}

type QuicBiStream interface {
	io.Writer
	ID() StreamId
	Close(reason ApplicationError)
}

type QuicUniStream interface {
	io.Writer
	ID() StreamId
	Close() error
}

type QuicServer interface {
	Listen() error
}
