// Package server is the HTTP backend the mobile client calls. It fronts Open
// Food Facts and reshapes its products into the NutriLens JSON record.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Suryadikhit/NutriLens/internal/model"
	"github.com/Suryadikhit/NutriLens/internal/provider"
)

const (
	RequestIDHeader = "X-Request-ID"
	searchPageSize  = 20
	shutdownTimeout = 5 * time.Second
)

// ProductSource is the upstream product database. *openfoodfacts.Client
// satisfies it.
type ProductSource interface {
	LookupBarcode(ctx context.Context, barcode string) (model.Product, error)
	SearchFoods(ctx context.Context, query string, limit int) ([]model.Product, error)
}

type Server struct {
	source ProductSource
	log    *logrus.Logger
}

func New(source ProductSource, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{source: source, log: log}
}

func (s *Server) Router() *mux.Router {
	// Match on the escaped path so a %2F inside a query stays in {query}.
	r := mux.NewRouter().UseEncodedPath()
	r.Use(s.requestID, s.accessLog)
	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintln(w, "OK")
	}).Methods(http.MethodGet)
	r.HandleFunc("/product/{barcode}", s.handleProduct).Methods(http.MethodGet)
	r.HandleFunc("/products/search/{query}", s.handleSearch).Methods(http.MethodGet)
	r.NotFoundHandler = s.requestID(s.accessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})))
	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the NutriLens API"})
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	barcode, err := pathVar(r, "barcode")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.source.LookupBarcode(r.Context(), barcode)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query, err := pathVar(r, "query")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := s.source.SearchFoods(r.Context(), query, searchPageSize)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	if items == nil {
		items = []model.Product{}
	}
	writeJSON(w, http.StatusOK, items)
}

// pathVar unescapes a route variable; the router matches on the encoded path.
func pathVar(r *http.Request, name string) (string, error) {
	v, err := url.PathUnescape(mux.Vars(r)[name])
	if err != nil {
		return "", fmt.Errorf("invalid %s: %w", name, err)
	}
	return strings.TrimSpace(v), nil
}

func (s *Server) writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	entry := s.log.WithFields(logrus.Fields{
		"request_id": w.Header().Get(RequestIDHeader),
		"path":       r.URL.Path,
		"error":      err,
	})
	switch {
	case errors.Is(err, provider.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Product not found")
	case provider.IsTimeout(err), provider.StatusCode(err) == http.StatusGatewayTimeout:
		entry.Warn("upstream timed out")
		writeDetail(w, http.StatusGatewayTimeout, "Request timed out. Try again later.")
	default:
		entry.Warn("upstream request failed")
		writeDetail(w, http.StatusServiceUnavailable, "Error fetching product: "+err.Error())
	}
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"request_id": w.Header().Get(RequestIDHeader),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"bytes":      rec.bytes,
			"duration":   time.Since(start).String(),
		}).Info("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
