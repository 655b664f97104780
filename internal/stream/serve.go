package stream

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/mxmehl/home-stream/internal/logutil"
)

// Serve streams content to the client, honoring a single-range Range
// header. The caller owns content and closes it on every path; Serve
// never buffers the file, io.Copy/CopyN forward it in bounded chunks so
// memory use is independent of file size. A disconnecting client turns
// into a write error that simply ends the copy.
func Serve(w http.ResponseWriter, r *http.Request, content io.ReadSeeker, size int64, mimeType string) {
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", mimeType)

	br, err := ParseRange(r.Header.Get("Range"), size)
	if err != nil {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	if br == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, content); err != nil {
			logger := logutil.GetOrDefault(r.Context())
			logger.Debug().Err(err).Msg("full-body copy aborted")
		}
		return
	}

	if _, err := content.Seek(br.Start, io.SeekStart); err != nil {
		http.Error(w, "unable to read content", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", br.Start, br.End, size))
	w.Header().Set("Content-Length", strconv.FormatInt(br.Length(), 10))
	w.WriteHeader(http.StatusPartialContent)
	if _, err := io.CopyN(w, content, br.Length()); err != nil {
		logger := logutil.GetOrDefault(r.Context())
		logger.Debug().Err(err).Msg("range copy aborted")
	}
}
