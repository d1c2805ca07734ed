package quicgo

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"time"

	adapter "h3wire/pkg/quic"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/logging"
	"github.com/quic-go/quic-go/qlog"
	"github.com/rs/zerolog/log"
)

type quicServer struct {
	quicApi   adapter.QuicAPI
	tlsConfig *tls.Config
	udpAddr   net.UDPAddr

	// written by the tracer callback on quic-go's goroutines, read by
	// handleConnection goroutines
	mu          sync.Mutex
	tracerToCid map[uint64]quic.ConnectionID
}

// NewQuicGoServer builds a quic-go backed server. The tls config must carry
// the certificate and the ALPN for the application on top.
func NewQuicGoServer(host string, tlsConfig *tls.Config, api adapter.QuicAPI) (adapter.QuicServer, error) {
	if host == "" {
		host = ":https"
	}

	udpAddr, err := net.ResolveUDPAddr("udp", host)
	if err != nil {
		return nil, err
	}

	return &quicServer{
		quicApi:     api,
		tlsConfig:   tlsConfig,
		tracerToCid: make(map[uint64]quic.ConnectionID),
		udpAddr:     *udpAddr,
	}, nil
}

func (q *quicServer) Listen() error {

	config := &quic.Config{
		EnableDatagrams: true,
		Tracer: func(ctx context.Context, p logging.Perspective, cid quic.ConnectionID) *logging.ConnectionTracer {
			traceId := ctx.Value(quic.ConnectionTracingKey).(uint64)
			q.storeTracedCid(traceId, cid)
			return qlog.DefaultTracer(ctx, p, cid)
		},
		MaxIdleTimeout: time.Minute * 5,
	}

	udpConn, err := net.ListenUDP("udp", &q.udpAddr)
	if err != nil {
		return err
	}
	defer udpConn.Close()

	listener, err := quic.Listen(udpConn, q.tlsConfig, config)
	if err != nil {
		return err
	}
	defer listener.Close()

	log.Info().Str("addr", q.udpAddr.String()).Msg("quic listener up")

	for {
		ctx := context.Background()
		conn, err := listener.Accept(ctx)
		if err != nil {
			log.Error().Err(err).Msg("failed to accept connection")
			continue
		}

		go q.handleConnection(ctx, conn)
	}
}

func (q *quicServer) storeTracedCid(id uint64, cid quic.ConnectionID) {
	q.mu.Lock()
	q.tracerToCid[id] = cid
	q.mu.Unlock()
}

// takeTracedCid returns the connection id recorded for a tracing id and
// drops the entry, the mapping is needed exactly once per connection.
func (q *quicServer) takeTracedCid(id uint64) quic.ConnectionID {
	q.mu.Lock()
	defer q.mu.Unlock()
	cid := q.tracerToCid[id]
	delete(q.tracerToCid, id)
	return cid
}

func (q *quicServer) handleConnection(ctx context.Context, conn quic.Connection) {
	connCtx := conn.Context()
	traceId := connCtx.Value(quic.ConnectionTracingKey).(uint64)
	cid := q.takeTracedCid(traceId)
	qConn := NewQuicGoConn(cid, conn)
	q.quicApi.OnNewConnection(qConn)
	defer q.quicApi.OnCanceledConn(qConn)

	go func() {
		for connCtx.Err() == nil {
			stream, err := conn.AcceptUniStream(ctx)
			if err != nil {
				return
			}
			go q.handleUniStream(qConn, stream)
		}
	}()

	for connCtx.Err() == nil {
		stream, err := conn.AcceptStream(ctx)
		if err != nil {
			log.Debug().Err(err).Str("cid", qConn.String()).Msg("accept stream ended")
			return
		}
		go q.handleBiStream(qConn, stream)
	}
}

func (q *quicServer) handleUniStream(conn adapter.QuicConn, stream quic.ReceiveStream) {
	id := adapter.StreamId(stream.StreamID())
	q.quicApi.OnNewUniStream(conn, id)
	q.quicApi.OnReadUniStream(conn, id, stream)
}

func (q *quicServer) handleBiStream(conn adapter.QuicConn, stream quic.Stream) {
	biStream := NewBiStream(stream)
	q.quicApi.OnNewBiStream(conn, biStream)
	q.quicApi.OnReadBiStream(conn, biStream, stream)
}
