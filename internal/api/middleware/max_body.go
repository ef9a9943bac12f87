package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/askhub/hub/internal/api/response"
)

// RequestBodyTooLargeRecorder records requests rejected for exceeding the body limit (optional).
type RequestBodyTooLargeRecorder interface {
	RecordRequestBodyTooLarge(ctx context.Context)
}

// MaxBody caps request bodies at maxBytes; maxBytes <= 0 disables the cap.
// For POST, PUT and PATCH the handler's response is buffered: if the handler read past the cap, whatever it
// wrote (usually a 400 for truncated JSON) is dropped and a 413 problem is sent instead. Other methods
// stream directly and only get the reader limit.
func MaxBody(maxBytes int64, recorder RequestBodyTooLargeRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if maxBytes <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body := &limitedBody{ReadCloser: http.MaxBytesReader(w, r.Body, maxBytes)}
			r.Body = body

			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch:
			default:
				next.ServeHTTP(w, r)
				return
			}

			buf := &bufferedResponse{header: http.Header{}}
			next.ServeHTTP(buf, r)

			if body.exceeded {
				if recorder != nil {
					recorder.RecordRequestBodyTooLarge(r.Context())
				}

				response.RespondRequestEntityTooLarge(w)

				return
			}

			buf.copyTo(w)
		})
	}
}

// limitedBody remembers whether a read hit the http.MaxBytesReader limit.
type limitedBody struct {
	io.ReadCloser

	exceeded bool
}

func (b *limitedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		b.exceeded = true
	}

	// io.EOF must reach the caller unwrapped; decoders compare it with ==.
	return n, err //nolint:wrapcheck // pass-through reader
}

// bufferedResponse holds a handler's headers, status and body until MaxBody decides to send them.
type bufferedResponse struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(code int) {
	if b.status == 0 {
		b.status = code
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}

	return b.body.Write(p) //nolint:wrapcheck // bytes.Buffer only panics
}

func (b *bufferedResponse) copyTo(w http.ResponseWriter) {
	dst := w.Header()
	for k, v := range b.header {
		dst[k] = v
	}

	if b.status != 0 {
		w.WriteHeader(b.status)
	}

	_, _ = b.body.WriteTo(w)
}
