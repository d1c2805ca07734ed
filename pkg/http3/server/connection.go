package server

import (
	"bufio"
	"bytes"
	"io"
	"net/http"
	"strconv"
	"sync"

	frameparser "h3wire/pkg/frameParser"
	"h3wire/pkg/headers"
	qpack "h3wire/pkg/qpack"
	qpackquicgo "h3wire/pkg/qpack/quicgo"
	adapter "h3wire/pkg/quic"
	responsewriter "h3wire/pkg/responseWriter"

	"github.com/quic-go/quic-go/quicvarint"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SETTINGS_MAX_FIELD_SECTION_SIZE, RFC 9114 section 7.2.4.1
const settingMaxFieldSectionSize = 0x06

// h3API reacts to the QUIC transport callbacks and runs one HTTP/3 session
// per connection.
type h3API struct {
	handler http.Handler
	metrics *Metrics

	mu       sync.Mutex
	sessions map[string]*session
}

var _ adapter.QuicAPI = (*h3API)(nil)

func newH3API(handler http.Handler, metrics *Metrics) *h3API {
	return &h3API{
		handler:  handler,
		metrics:  metrics,
		sessions: make(map[string]*session),
	}
}

// session is the connection wide HTTP/3 state: the QPACK codec shared by
// every stream of the connection (serialized, it is order dependent) and the
// peer's settings as last announced on the control stream.
type session struct {
	conn    adapter.QuicConn
	codec   qpack.QpackApi
	handler http.Handler
	metrics *Metrics
	log     zerolog.Logger

	mu           sync.Mutex
	peerSettings []frameparser.Setting
	closed       bool
}

func (api *h3API) OnNewConnection(conn adapter.QuicConn) {
	s := &session{
		conn:    conn,
		codec:   qpack.NewSerializedQpack(qpackquicgo.NewQuicGoQpackCodec()),
		handler: api.handler,
		metrics: api.metrics,
		log:     log.With().Str("cid", conn.String()).Logger(),
	}

	api.mu.Lock()
	api.sessions[conn.String()] = s
	api.mu.Unlock()
	api.metrics.connOpened()

	s.log.Debug().Str("remote", conn.RemoteAddress()).Msg("new connection")

	if err := s.sendSettings(); err != nil {
		s.log.Error().Err(err).Msg("failed to open control stream")
		s.fail(frameparser.ErrInternalError)
	}
}

func (api *h3API) OnCanceledConn(conn adapter.QuicConn) {
	api.mu.Lock()
	delete(api.sessions, conn.String())
	api.mu.Unlock()
	api.metrics.connClosed()
}

func (api *h3API) session(conn adapter.QuicConn) *session {
	api.mu.Lock()
	defer api.mu.Unlock()
	return api.sessions[conn.String()]
}

func (api *h3API) OnNewBiStream(conn adapter.QuicConn, stream adapter.QuicBiStream) {
	log.Debug().Str("cid", conn.String()).Uint64("stream", uint64(stream.ID())).Msg("accepted request stream")
}

func (api *h3API) OnReadBiStream(conn adapter.QuicConn, stream adapter.QuicBiStream, reader io.Reader) {
	if s := api.session(conn); s != nil {
		s.serveRequestStream(stream, reader)
	}
}

func (api *h3API) OnNewUniStream(conn adapter.QuicConn, id adapter.StreamId) {
	log.Debug().Str("cid", conn.String()).Uint64("stream", uint64(id)).Msg("accepted unidirectional stream")
}

func (api *h3API) OnReadUniStream(conn adapter.QuicConn, id adapter.StreamId, reader io.Reader) {
	if s := api.session(conn); s != nil {
		s.serveUniStream(id, reader)
	}
}

// sendSettings opens the local control stream and announces our settings,
// which must be the first frame on it (RFC 9114 section 6.2.1).
func (s *session) sendSettings() error {
	control, err := s.conn.CreateUniStream(adapter.StreamTypeControl)
	if err != nil {
		return err
	}

	frame := &frameparser.SettingsFrame{
		Settings: []frameparser.Setting{
			{Id: settingMaxFieldSectionSize, Value: 16384},
		},
	}
	encoded, err := frame.Encode()
	if err != nil {
		return err
	}
	_, err = control.Write(encoded)
	return err
}

// serveRequestStream pumps one request stream through its own frame parser
// and dispatches the assembled request to the handler once the peer closes
// its side.
func (s *session) serveRequestStream(stream adapter.QuicBiStream, reader io.Reader) {
	recv := &streamReceiver{session: s, streamId: uint64(stream.ID())}
	parser := frameparser.NewFrameParser(uint64(stream.ID()), recv, s.codec)
	parser.SetLogger(s.log)

	var parseBuf bytes.Buffer
	chunk := make([]byte, 4096)
	for {
		n, err := reader.Read(chunk)
		if n > 0 {
			parseBuf.Write(chunk[:n])
			parser.Parse(&parseBuf)
		}
		if recv.failed {
			return
		}
		if err != nil {
			break // io.EOF ends the request
		}
	}

	s.dispatch(recv, stream)
}

// serveUniStream classifies an incoming unidirectional stream by its type
// varint and, for the peer's control stream, parses the frames on it.
func (s *session) serveUniStream(id adapter.StreamId, reader io.Reader) {
	br := bufio.NewReader(reader)
	streamType, err := quicvarint.Read(br)
	if err != nil {
		return
	}

	switch adapter.StreamType(streamType) {
	case adapter.StreamTypeControl:
		s.serveControlStream(id, br)
	case adapter.StreamTypeQpackEncoder, adapter.StreamTypeQpackDecoder:
		// dynamic table updates are not consumed yet, drain so the peer is
		// not flow control blocked
		_, _ = io.Copy(io.Discard, br)
	default:
		// unknown stream types must be ignored (RFC 9114 section 6.2)
		_, _ = io.Copy(io.Discard, br)
	}
}

func (s *session) serveControlStream(id adapter.StreamId, reader io.Reader) {
	listener := &controlListener{session: s}
	parser := frameparser.NewFrameParser(uint64(id), listener, s.codec)
	parser.SetLogger(s.log)

	var parseBuf bytes.Buffer
	chunk := make([]byte, 4096)
	for {
		n, err := reader.Read(chunk)
		if n > 0 {
			parseBuf.Write(chunk[:n])
			parser.Parse(&parseBuf)
		}
		if err != nil {
			return
		}
	}
}

func (s *session) dispatch(recv *streamReceiver, stream adapter.QuicBiStream) {
	if recv.failed || recv.fields == nil {
		return
	}

	req, err := newRequest(recv)
	if err != nil {
		s.log.Debug().Err(err).Uint64("stream", recv.streamId).Msg("malformed request headers")
		stream.Close(adapter.ApplicationError(frameparser.ErrGeneralProtocolError))
		return
	}

	rw := responsewriter.NewResponseWriter(stream, s.codec)
	s.handler.ServeHTTP(rw, req)
	if err := rw.Flush(); err != nil {
		s.log.Debug().Err(err).Uint64("stream", recv.streamId).Msg("failed to flush response")
	}
	stream.Close(0)
}

func (s *session) fail(code frameparser.ErrorCode) {
	s.mu.Lock()
	closed := s.closed
	s.closed = true
	s.mu.Unlock()
	if closed {
		return
	}
	s.metrics.parseFailed()
	s.conn.Close(adapter.ApplicationError(code))
}

func (s *session) storePeerSettings(settings []frameparser.Setting) {
	s.mu.Lock()
	s.peerSettings = settings
	s.mu.Unlock()
}

// streamReceiver assembles one request from the frames of a request stream.
type streamReceiver struct {
	frameparser.ListenerAdapter
	session  *session
	streamId uint64
	fields   []qpack.HeaderField
	trailers []qpack.HeaderField
	body     bytes.Buffer
	failed   bool
}

func (r *streamReceiver) OnHeaders(frame *frameparser.HeadersFrame) {
	r.session.metrics.frameParsed("headers")
	if r.fields == nil {
		r.fields = frame.Fields
		return
	}
	// a second HEADERS frame carries trailers
	r.trailers = frame.Fields
}

func (r *streamReceiver) OnData(frame *frameparser.DataFrame) {
	r.session.metrics.frameParsed("data")
	r.body.Write(frame.Data)
}

func (r *streamReceiver) OnSessionFailure(code frameparser.ErrorCode, reason string) {
	r.failed = true
	r.session.log.Warn().Uint64("stream", r.streamId).Str("reason", reason).Msg("session failure, closing connection")
	r.session.fail(code)
}

func (r *streamReceiver) OnStreamFailure(streamId uint64, code frameparser.ErrorCode, reason string) {
	r.failed = true
	r.session.log.Warn().Uint64("stream", streamId).Str("reason", reason).Msg("stream failure")
}

func newRequest(recv *streamReceiver) (*http.Request, error) {
	req, err := headers.NewRequestFromHeaders(recv.fields)
	if err != nil {
		return nil, err
	}
	req.Body = io.NopCloser(&recv.body)
	if req.ContentLength == 0 && recv.body.Len() > 0 {
		req.ContentLength = int64(recv.body.Len())
		req.Header.Set("Content-Length", strconv.Itoa(recv.body.Len()))
	}
	return req, nil
}

// controlListener reacts to the frames of the peer's control stream.
type controlListener struct {
	frameparser.ListenerAdapter
	session *session
}

func (c *controlListener) OnSettings(frame *frameparser.SettingsFrame) {
	c.session.metrics.frameParsed("settings")
	c.session.storePeerSettings(frame.Settings)
	c.session.log.Debug().Int("count", len(frame.Settings)).Msg("peer settings received")
}

func (c *controlListener) OnGoAway(frame *frameparser.GoAwayFrame) {
	c.session.metrics.frameParsed("goaway")
	c.session.log.Info().Uint64("id", frame.Id).Msg("peer sent GOAWAY")
}

func (c *controlListener) OnMaxPushId(frame *frameparser.MaxPushIdFrame) {
	c.session.metrics.frameParsed("max_push_id")
}

func (c *controlListener) OnCancelPush(frame *frameparser.CancelPushFrame) {
	c.session.metrics.frameParsed("cancel_push")
}

func (c *controlListener) OnSessionFailure(code frameparser.ErrorCode, reason string) {
	c.session.log.Warn().Str("reason", reason).Msg("control stream failure, closing connection")
	c.session.fail(code)
}
