package stream

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	const size = 1000
	cases := []struct {
		header string
		want   *ByteRange
	}{
		{"", nil},
		{"lines=0-10", nil},      // non-byte unit: ignored
		{"bytes=abc-def", nil},   // malformed: ignored
		{"bytes=10", nil},        // no dash: ignored
		{"bytes=0-0", &ByteRange{0, 0}},
		{"bytes=0-999", &ByteRange{0, 999}},
		{"bytes=100-199", &ByteRange{100, 199}},
		{"bytes=100-", &ByteRange{100, 999}},
		{"bytes=0-5000", &ByteRange{0, 999}}, // end clamped to size
		{"bytes=-100", &ByteRange{900, 999}},
		{"bytes=-5000", &ByteRange{0, 999}}, // suffix longer than file
	}
	for _, tc := range cases {
		got, err := ParseRange(tc.header, size)
		require.NoError(t, err, tc.header)
		require.Equal(t, tc.want, got, tc.header)
	}
}

func TestParseRangeUnsatisfiable(t *testing.T) {
	const size = 1000
	for _, header := range []string{
		"bytes=1000-1010", // starts at EOF
		"bytes=2000-",
		"bytes=200-100", // end before start
		"bytes=0-99,200-299", // multi-range policy: reject
		"bytes=-0",
	} {
		_, err := ParseRange(header, size)
		require.ErrorIs(t, err, ErrUnsatisfiable, header)
	}
}

func TestParseRangeEmptyFile(t *testing.T) {
	_, err := ParseRange("bytes=0-0", 0)
	require.ErrorIs(t, err, ErrUnsatisfiable)
	_, err = ParseRange("bytes=-1", 0)
	require.ErrorIs(t, err, ErrUnsatisfiable)
}

func body(size int) []byte {
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = byte(i % 251)
	}
	return buf
}

func serve(t *testing.T, content []byte, rangeHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/stream/x", nil)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	rec := httptest.NewRecorder()
	Serve(rec, req, bytes.NewReader(content), int64(len(content)), "audio/mpeg")
	return rec
}

func TestServeFullBody(t *testing.T) {
	content := body(1000)
	rec := serve(t, content, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
	require.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	require.Equal(t, "1000", rec.Header().Get("Content-Length"))
	require.Equal(t, content, rec.Body.Bytes())
}

func TestServeSingleByte(t *testing.T) {
	content := body(1000)
	rec := serve(t, content, "bytes=0-0")
	require.Equal(t, http.StatusPartialContent, rec.Code)
	require.Equal(t, "bytes 0-0/1000", rec.Header().Get("Content-Range"))
	require.Equal(t, "1", rec.Header().Get("Content-Length"))
	require.Equal(t, content[:1], rec.Body.Bytes())
}

func TestServeMiddleSpan(t *testing.T) {
	content := body(1000)
	rec := serve(t, content, "bytes=100-199")
	require.Equal(t, http.StatusPartialContent, rec.Code)
	require.Equal(t, "bytes 100-199/1000", rec.Header().Get("Content-Range"))
	require.Equal(t, "100", rec.Header().Get("Content-Length"))
	require.Equal(t, content[100:200], rec.Body.Bytes())
}

func TestServeOpenEndedTail(t *testing.T) {
	content := body(1000)
	rec := serve(t, content, "bytes=900-")
	require.Equal(t, http.StatusPartialContent, rec.Code)
	require.Equal(t, "bytes 900-999/1000", rec.Header().Get("Content-Range"))
	require.Equal(t, content[900:], rec.Body.Bytes())
}

func TestServePastEndIs416(t *testing.T) {
	content := body(1000)
	rec := serve(t, content, fmt.Sprintf("bytes=%d-%d", 1000, 1010))
	require.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)
	require.Equal(t, "bytes */1000", rec.Header().Get("Content-Range"))
}

func TestServeMultiRangeIs416(t *testing.T) {
	rec := serve(t, body(1000), "bytes=0-99,200-299")
	require.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)
	require.Equal(t, "bytes */1000", rec.Header().Get("Content-Range"))
}

func TestServeMalformedHeaderFallsBackToFullBody(t *testing.T) {
	content := body(100)
	rec := serve(t, content, "bytes=oops")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, content, rec.Body.Bytes())
}
