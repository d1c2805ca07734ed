package quicgo

import (
	"errors"
	"io"

	adapter "h3wire/pkg/qpack"

	qpack "github.com/quic-go/qpack"
)

// quicgoQpackCodec backs the qpack adapter with github.com/quic-go/qpack.
// One codec per connection: the underlying decoder carries dynamic table
// state across field sections.
type quicgoQpackCodec struct {
	decoder *qpack.Decoder
}

var _ adapter.QpackApi = (*quicgoQpackCodec)(nil)

func NewQuicGoQpackCodec() adapter.QpackApi {
	return &quicgoQpackCodec{
		decoder: qpack.NewDecoder(nil),
	}
}

func (q *quicgoQpackCodec) Encode(buffer io.Writer, headerFields ...adapter.HeaderField) error {
	encoder := qpack.NewEncoder(buffer)

	var errs []error
	for _, headerField := range headerFields {
		if err := encoder.WriteField(qpack.HeaderField{
			Name:  headerField.Name,
			Value: headerField.Value,
		}); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (q *quicgoQpackCodec) Decode(block []byte) ([]adapter.HeaderField, error) {
	decodedFields, err := q.decoder.DecodeFull(block)
	if err != nil {
		return nil, err
	}

	result := make([]adapter.HeaderField, 0, len(decodedFields))
	for _, hf := range decodedFields {
		result = append(result, adapter.HeaderField{
			Name:  hf.Name,
			Value: hf.Value,
		})
	}

	return result, nil
}
