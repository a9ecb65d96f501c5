package http

import (
	"context"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/couchcryptid/covid19-data-etl/internal/adapter/file"
	"github.com/couchcryptid/covid19-data-etl/internal/domain"
)

// LatestDocument keeps the most recently loaded document in memory and
// serves it. It implements pipeline.Loader.
type LatestDocument struct {
	body atomic.Pointer[[]byte]
}

// NewLatestDocument returns an empty store; it serves 503 until the first
// Load.
func NewLatestDocument() *LatestDocument {
	return &LatestDocument{}
}

// Load replaces the served document.
func (l *LatestDocument) Load(_ context.Context, doc domain.Document) error {
	data, err := file.Encode(doc)
	if err != nil {
		return err
	}
	l.body.Store(&data)
	return nil
}

func (l *LatestDocument) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	body := l.body.Load()
	if body == nil {
		http.Error(w, "no document yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(*body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(*body)
}
