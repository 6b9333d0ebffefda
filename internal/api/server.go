// Package api exposes the tracking store and verifier over a
// loopback-only HTTP interface, so scanning contexts (and scripts) can
// register records and trigger verification of completed downloads.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sumwatch/sumwatch/internal/checksum"
	"github.com/sumwatch/sumwatch/internal/log"
	"github.com/sumwatch/sumwatch/internal/message"
	"github.com/sumwatch/sumwatch/internal/track"
)

// maxBodySize caps request bodies: scan records are small.
const maxBodySize = 1 << 20

// Server routes record registration, download lifecycle updates, and
// verification requests to the store and verifier.
type Server struct {
	store    *track.Store
	verifier *checksum.Verifier
	logger   log.Logger
	router   *chi.Mux
}

// NewServer wires a server over the given store and verifier.
func NewServer(store *track.Store, verifier *checksum.Verifier, logger log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		store:    store,
		verifier: verifier,
		logger:   logger,
		router:   chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe binds to the loopback interface only and serves until
// the listener fails.
func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}
	s.logger.Info("api listening", "addr", addr)
	return http.Serve(ln, s.router)
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Recoverer)

	s.router.Post("/v1/records", s.handleRecord)
	s.router.Get("/v1/downloads", s.handleList)
	s.router.Post("/v1/downloads/{id}/complete", s.handleComplete)
	s.router.Post("/v1/downloads/{id}/verify", s.handleVerify)
	s.router.Delete("/v1/downloads/{id}", s.handleRemove)
}

// handleRecord accepts a download message from a scanning context and
// registers one tracking entry per candidate URL. It answers with the
// corresponding downloading messages.
func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Errorf("failed to read body: %w", err))
		return
	}

	m, err := message.Decode(body)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	dl, ok := m.(message.Download)
	if !ok {
		s.fail(w, http.StatusBadRequest, fmt.Errorf("expected %s message, got %s",
			message.TypeDownload, m.MessageType()))
		return
	}
	if len(dl.URLs) == 0 || len(dl.Checksum.Values) == 0 {
		s.fail(w, http.StatusBadRequest, errors.New("record needs both urls and checksum values"))
		return
	}

	var started []message.Downloading
	for _, u := range dl.URLs {
		e, err := s.store.Add(u, dl.Checksum)
		if err != nil {
			s.fail(w, http.StatusInternalServerError, err)
			return
		}
		started = append(started, message.Downloading{ID: e.ID, URL: e.SourceURL})
	}

	s.logger.Info("record registered", "entries", len(started))
	s.respond(w, http.StatusCreated, started)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.List()
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	s.respond(w, http.StatusOK, entries)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Path string `json:"path"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
			s.fail(w, http.StatusBadRequest, fmt.Errorf("malformed body: %w", err))
			return
		}
	}

	e, err := s.store.MarkCompleted(id, req.Path)
	if errors.Is(err, track.ErrNotFound) {
		s.fail(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}

	s.respond(w, http.StatusOK, message.DownloadComplete{ID: e.ID, Path: e.Path})
}

// handleVerify runs the streaming verifier against a local file for a
// tracked entry. The entry is removed whatever the outcome, so the
// same download is never verified twice.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Errorf("malformed body: %w", err))
		return
	}

	e, err := s.store.Get(id)
	if errors.Is(err, track.ErrNotFound) {
		s.fail(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}

	path := req.Path
	if path == "" {
		path = e.Path
	}
	if path == "" {
		s.fail(w, http.StatusBadRequest, errors.New("no file path for verification"))
		return
	}

	// Cleanup contract: the entry goes away regardless of outcome.
	defer func() {
		if err := s.store.Remove(id); err != nil {
			s.logger.Warn("failed to remove verified entry", "id", id, "error", err)
		}
	}()

	outcome, err := s.verifier.VerifyFile(r.Context(), path, e.Checksum)
	if err != nil {
		// A failed computation is not a mismatch; the client renders
		// it as a generic error, not "unsafe".
		s.logger.Error("verification failed", "id", id, "error", err)
		s.respond(w, http.StatusInternalServerError, message.Error{ID: id, Message: err.Error()})
		return
	}

	s.logger.Info("verification finished", "id", id, "valid", outcome.Valid)
	s.respond(w, http.StatusOK, outcome)
}

// handleRemove deletes the file behind a tracked download (when its
// path is known) and drops the entry.
func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	e, err := s.store.Get(id)
	if errors.Is(err, track.ErrNotFound) {
		s.fail(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}

	if e.Path != "" {
		if err := os.Remove(e.Path); err != nil && !os.IsNotExist(err) {
			s.fail(w, http.StatusInternalServerError, fmt.Errorf("failed to delete file: %w", err))
			return
		}
	}
	if err := s.store.Remove(id); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}

	s.respond(w, http.StatusOK, message.Deleted{ID: id})
}

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	s.logger.Warn("request rejected", "status", status, "error", err)
	s.respond(w, status, message.Error{Message: err.Error()})
}
