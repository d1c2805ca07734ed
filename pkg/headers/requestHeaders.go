package headers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	qpack "h3wire/pkg/qpack"
)

func NewRequestFromHeaders(headerFields []qpack.HeaderField) (*http.Request, error) {
	hdr, err := NewHeaderFromHeaderFields(headerFields, true)
	if err != nil {
		return nil, err
	}

	// NOTE: concatenate cookie headers, 4.2.1 of RFC 9114
	if len(hdr.Header["Cookie"]) > 0 {
		hdr.Header.Set("Cookie", strings.Join(hdr.Header["Cookie"], "; "))
	}

	if len(hdr.Path) == 0 || len(hdr.Authority) == 0 || len(hdr.Method) == 0 {
		return nil, errors.New(":path, :authority and :method must not be empty")
	}

	u, err := url.ParseRequestURI(hdr.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid request uri: %w", err)
	}

	return &http.Request{
		Method:     hdr.Method,
		URL:        u,
		Proto:      "HTTP/3.0",
		ProtoMajor: 3,
		ProtoMinor: 0,
		Header:     hdr.Header,
		// NOTE: the body is filled later from the DATA frames
		Body:          nil,
		ContentLength: hdr.ContentLength,
		Host:          hdr.Authority,
		RequestURI:    hdr.Path,
	}, nil
}
