package quicgo

import (
	adapter "h3wire/pkg/quic"

	"github.com/quic-go/quic-go"
	"github.com/rs/zerolog/log"
)

type QuicGoConn struct {
	cid  quic.ConnectionID
	conn quic.Connection
}

func NewQuicGoConn(connId quic.ConnectionID, conn quic.Connection) adapter.QuicConn {
	return &QuicGoConn{
		cid:  connId,
		conn: conn,
	}
}

func (qc *QuicGoConn) String() string {
	return qc.cid.String()
}

// CreateUniStream opens a local unidirectional stream and writes its stream
// type varint prefix, as RFC 9114 section 6.2 requires before any payload.
func (qc *QuicGoConn) CreateUniStream(streamType adapter.StreamType) (adapter.QuicUniStream, error) {
	qs, err := qc.conn.OpenUniStream()
	if err != nil {
		return nil, err
	}
	us := NewUniStream(qs)
	if err := writeStreamType(qs, streamType); err != nil {
		return nil, err
	}
	return us, nil
}

func (qc *QuicGoConn) Close(reason adapter.ApplicationError) {
	err := qc.conn.CloseWithError(quic.ApplicationErrorCode(reason), "")
	if err != nil {
		log.Error().Err(err).Str("cid", qc.cid.String()).Msg("failed to close connection")
	}
}

func (qc *QuicGoConn) LocalAddress() string {
	return qc.conn.LocalAddr().String()
}

func (qc *QuicGoConn) RemoteAddress() string {
	return qc.conn.RemoteAddr().String()
}
