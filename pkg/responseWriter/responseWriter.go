package responsewriter

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	frameparser "h3wire/pkg/frameParser"
	qpack "h3wire/pkg/qpack"
	adapter "h3wire/pkg/quic"
)

// responseWriter implements http.ResponseWriter over an HTTP/3 request
// stream: headers become one QPACK encoded HEADERS frame, the body becomes
// DATA frames. Body bytes are buffered and flushed in chunks so small
// handler writes do not each pay for a frame header.
type responseWriter struct {
	stream        adapter.QuicBiStream
	encoder       qpack.QpackApi
	headers       http.Header
	statusCode    int
	written       bool // whether the HEADERS frame went out already
	contentLength int64
	bytesWritten  int64
	buffer        bytes.Buffer
}

const flushThreshold = 4096

func NewResponseWriter(stream adapter.QuicBiStream, encoder qpack.QpackApi) *responseWriter {
	return &responseWriter{
		stream:  stream,
		encoder: encoder,
		headers: http.Header{}, // filled by the handler during processing
	}
}

// Header returns the header map that will be sent by WriteHeader.
func (w *responseWriter) Header() http.Header {
	return w.headers
}

func (w *responseWriter) WriteHeader(statusCode int) {
	if w.written {
		return
	}

	if statusCode < 100 || statusCode > 999 {
		panic(fmt.Sprintf("invalid status code %v in ResponseWriter.WriteHeader", statusCode))
	}

	w.statusCode = statusCode

	// 1xx interim responses go out immediately and keep the stream open for
	// the final response headers (HTTP section 15.2)
	if statusCode < 200 {
		_ = w.sendHeadersFrame(statusCode)
		return
	}

	if _, ok := w.headers["Date"]; !ok {
		w.headers.Set("Date", time.Now().UTC().Format(http.TimeFormat))
	}
	if cl := w.headers.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil {
			w.contentLength = n
		}
	}

	w.written = true
	_ = w.sendHeadersFrame(statusCode)
}

func (w *responseWriter) sendHeadersFrame(statusCode int) error {
	fields := make([]qpack.HeaderField, 0, len(w.headers)+1)
	fields = append(fields, qpack.HeaderField{Name: ":status", Value: strconv.Itoa(statusCode)})
	for name, values := range w.headers {
		for _, value := range values {
			fields = append(fields, qpack.HeaderField{Name: http.CanonicalHeaderKey(name), Value: value})
		}
	}

	var block bytes.Buffer
	if err := w.encoder.Encode(&block, fields...); err != nil {
		return err
	}

	frame := &frameparser.HeadersFrame{Block: block.Bytes()}
	encoded, err := frame.Encode()
	if err != nil {
		return err
	}
	_, err = w.stream.Write(encoded)
	return err
}

func (w *responseWriter) Write(data []byte) (int, error) {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}

	// HEAD responses, interim responses, 204 and 304 carry no body
	if w.statusCode == http.StatusNoContent || (w.statusCode >= 100 && w.statusCode < 200) ||
		w.statusCode == http.StatusNotModified {
		return 0, http.ErrBodyNotAllowed
	}

	w.bytesWritten += int64(len(data))
	if w.contentLength != 0 && w.bytesWritten > w.contentLength {
		return 0, http.ErrContentLength
	}

	w.buffer.Write(data)

	if w.buffer.Len() > flushThreshold {
		if err := w.Flush(); err != nil {
			return 0, err
		}
	}

	return len(data), nil
}

// Flush sends the buffered body as one DATA frame regardless of size.
func (w *responseWriter) Flush() error {
	if w.buffer.Len() == 0 {
		return nil
	}

	frame := &frameparser.DataFrame{Data: w.buffer.Bytes()}
	encoded, err := frame.Encode()
	if err != nil {
		return err
	}
	w.buffer.Reset()

	_, err = w.stream.Write(encoded)
	return err
}
