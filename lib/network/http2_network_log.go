package network

import (
	"net/http"
	"time"

	logging "github.com/inconshreveable/log15"

	"boscoin.io/benor/lib/common"
)

// HTTP2ErrorLog15Writer takes the error log of `http.Server`.
type HTTP2ErrorLog15Writer struct {
	l logging.Logger
}

func (w HTTP2ErrorLog15Writer) Write(b []byte) (int, error) {
	w.l.Error("http server error", "error", string(b))
	return len(b), nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	size, err := r.ResponseWriter.Write(b)
	r.size += size
	return size, err
}

func (r *statusRecorder) WriteHeader(s int) {
	r.ResponseWriter.WriteHeader(s)
	r.status = s
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// HTTP2Log15Handler logs every request and its response under one id. Only
// the internal errors are logged above debug.
type HTTP2Log15Handler struct {
	log     logging.Logger
	handler http.Handler
}

func (l HTTP2Log15Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	logger := l.log.New(logging.Ctx{"request": common.GenerateUUID()})

	uri := r.RequestURI
	if uri == "" {
		uri = r.URL.RequestURI()
	}

	logger.Debug(
		"request",
		"method", r.Method,
		"uri", uri,
		"proto", r.Proto,
		"remote", r.RemoteAddr,
		"content-length", r.ContentLength,
		"user-agent", r.UserAgent(),
	)

	recorder := &statusRecorder{ResponseWriter: w}
	l.handler.ServeHTTP(recorder, r)

	ctx := []interface{}{
		"status", recorder.status,
		"size", recorder.size,
		"elapsed", time.Since(started),
	}
	if recorder.status == http.StatusInternalServerError {
		logger.Warn("response", ctx...)
		return
	}
	logger.Debug("response", ctx...)
}
