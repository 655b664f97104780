// Package stream delivers byte spans of media files with RFC 7233
// partial-content semantics, which media players depend on for seeking.
package stream

import (
	"errors"
	"strconv"
	"strings"
)

// ErrUnsatisfiable signals a syntactically valid Range header that names
// no servable span; the response must be a 416 carrying the resource
// size.
var ErrUnsatisfiable = errors.New("stream: unsatisfiable range")

type (
	// ByteRange is an inclusive span within a resource.
	ByteRange struct {
		Start int64
		End   int64
	}
)

func (b ByteRange) Length() int64 { return b.End - b.Start + 1 }

// ParseRange interprets a Range header against a resource of size bytes.
// A nil range with nil error means "serve the full body": that covers a
// missing header, non-byte units and malformed specs, which RFC 7233
// tells servers to ignore. Multi-range requests are rejected as
// unsatisfiable rather than degraded to the first span.
func ParseRange(header string, size int64) (*ByteRange, error) {
	if header == "" {
		return nil, nil
	}
	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) {
		return nil, nil
	}
	spec := strings.TrimSpace(header[len(prefix):])
	if strings.Contains(spec, ",") {
		return nil, ErrUnsatisfiable
	}
	dash := strings.Index(spec, "-")
	if dash < 0 {
		return nil, nil
	}
	startPart := strings.TrimSpace(spec[:dash])
	endPart := strings.TrimSpace(spec[dash+1:])

	if startPart == "" {
		// suffix form: the last n bytes
		n, err := strconv.ParseInt(endPart, 10, 64)
		if err != nil {
			return nil, nil
		}
		if n <= 0 || size == 0 {
			return nil, ErrUnsatisfiable
		}
		if n > size {
			n = size
		}
		return &ByteRange{Start: size - n, End: size - 1}, nil
	}

	start, err := strconv.ParseInt(startPart, 10, 64)
	if err != nil {
		return nil, nil
	}
	if start >= size {
		return nil, ErrUnsatisfiable
	}
	end := size - 1
	if endPart != "" {
		e, err := strconv.ParseInt(endPart, 10, 64)
		if err != nil {
			return nil, nil
		}
		if e < start {
			return nil, ErrUnsatisfiable
		}
		if e < end {
			end = e
		}
	}
	return &ByteRange{Start: start, End: end}, nil
}
