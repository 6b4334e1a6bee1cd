package fetcher

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"golang.org/x/net/html/charset"
)

// DefaultMaxBodyBytes caps how much decoded markup a single fetch may return.
const DefaultMaxBodyBytes int64 = 10 << 20

var errBodyTooLarge = errors.New("response body exceeds size limit")

// readLimited reads at most limit bytes from r and fails when there is more.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", errBodyTooLarge, limit)
	}
	return data, nil
}

// decodeBody undoes the content encoding we asked for and transcodes the
// markup to UTF-8. The size limit applies to the decompressed body.
func decodeBody(resp *http.Response, limit int64) (string, error) {
	var r io.Reader = resp.Body

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip", "x-gzip":
		gz, err := gzip.NewReader(r)
		if err != nil {
			return "", fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	case "deflate":
		// Servers disagree on whether deflate means zlib-wrapped or raw.
		raw, err := readLimited(r, limit)
		if err != nil {
			return "", err
		}
		if zr, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
			defer zr.Close()
			r = zr
		} else {
			fr := flate.NewReader(bytes.NewReader(raw))
			defer fr.Close()
			r = fr
		}
	case "br":
		r = brotli.NewReader(r)
	}

	if utf8Reader, err := charset.NewReader(r, resp.Header.Get("Content-Type")); err == nil {
		r = utf8Reader
	}

	data, err := readLimited(r, limit)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
