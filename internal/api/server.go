// Package api exposes the scan pipeline over HTTP: upload an image,
// kick off a scan, poll its status, and fetch the result document. This
// is a thin collaborator surface around the orchestrator and session
// store — all forensic judgment lives in internal/engine.
package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/forensix-labs/wipetrace/internal/config"
	"github.com/forensix-labs/wipetrace/internal/engine/orchestrator"
	"github.com/forensix-labs/wipetrace/internal/forensics/hashing"
	"github.com/forensix-labs/wipetrace/internal/forensics/resultdoc"
	"github.com/forensix-labs/wipetrace/internal/forensics/session"
	"github.com/forensix-labs/wipetrace/internal/utils/logger"
)

// Server wires the session store and pipeline config into HTTP handlers.
type Server struct {
	cfg       *config.Config
	store     *session.Store
	uploadDir string
}

// NewServer creates a Server that stores uploads under uploadDir.
func NewServer(cfg *config.Config, uploadDir string) (*Server, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", uploadDir, err)
	}
	return &Server{cfg: cfg, store: session.NewStore(), uploadDir: uploadDir}, nil
}

// Handler returns the routed http.Handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /scan", s.handleScan)
	mux.HandleFunc("GET /scan/status/{session_id}", s.handleStatus)
	mux.HandleFunc("GET /results/{session_id}", s.handleResults)
	mux.HandleFunc("POST /hash", s.handleHash)
	mux.HandleFunc("DELETE /session/{session_id}", s.handleDeleteSession)
	return mux
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.IO.MaxUploadBytes)

	if err := r.ParseMultipartForm(s.cfg.IO.UploadChunk); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds the size ceiling")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing multipart field \"file\"")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	storedPath := filepath.Join(s.uploadDir, filename)

	dest, err := os.Create(storedPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not create destination file")
		return
	}
	defer dest.Close()

	h := sha256.New()
	// The struct wrapper hides any WriterTo on file so the copy really
	// goes through the UploadChunk-sized buffer.
	size, err := io.CopyBuffer(io.MultiWriter(dest, h), struct{ io.Reader }{file}, make([]byte, s.cfg.IO.UploadChunk))
	if err != nil {
		os.Remove(storedPath)
		writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds the size ceiling")
		return
	}

	sha := hex.EncodeToString(h.Sum(nil))
	id, err := session.NewID()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not allocate session id")
		return
	}
	s.store.Create(id, filename, storedPath, sha)

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":  id,
		"filename":    filename,
		"size_bytes":  size,
		"sha256":      sha,
		"stored_path": storedPath,
		"status":      "ready",
	})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read request body")
		return
	}
	fields, err := validateBody(scanSchema, body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, _ := fields["session_id"].(string)

	sess, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	if sess.Status != session.Pending {
		writeError(w, http.StatusConflict, "session is not pending")
		return
	}
	if !s.store.SetRunning(id) {
		writeError(w, http.StatusConflict, "session is already running")
		return
	}

	go s.runScan(id, sess)

	writeJSON(w, http.StatusOK, map[string]any{"session_id": id, "status": "running"})
}

func (s *Server) runScan(id string, sess session.Session) {
	log := logger.Logger()

	progress := func(done, total int64) {
		if total <= 0 {
			return
		}
		pct := int(100 * done / total)
		s.store.SetProgress(id, pct)
	}

	out, err := orchestrator.Run(context.Background(), sess.StoredPath, s.cfg, orchestrator.Options{Progress: progress})
	if err != nil {
		log.Errorw("scan failed", "session_id", id, "error", err)
		s.store.SetError(id, err)
		return
	}
	if out == nil {
		// Cancelled mid-run; no partial state to persist.
		return
	}

	info, statErr := os.Stat(sess.StoredPath)
	var size int64
	if statErr == nil {
		size = info.Size()
	}

	doc := resultdoc.Build(id, sess.Filename, sess.SHA256, size, time.Now(), out)
	resultPath := filepath.Join(s.uploadDir, "analysis_"+id+".json")
	if err := resultdoc.WriteJSON(resultPath, doc); err != nil {
		log.Errorw("failed to persist result document", "session_id", id, "error", err)
		s.store.SetError(id, err)
		return
	}

	s.store.SetDone(id, resultPath)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("session_id")
	sess, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("session_id")
	sess, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	if sess.Status != session.Done {
		writeError(w, http.StatusTooEarly, "scan is not done")
		return
	}
	doc, err := resultdoc.ReadJSON(sess.ResultPath)
	if err != nil {
		writeError(w, http.StatusNotFound, "result document is missing")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleHash(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read request body")
		return
	}
	fields, err := validateBody(hashSchema, body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	storedPath, _ := fields["stored_path"].(string)

	if !s.pathWithinUploadDir(storedPath) {
		writeError(w, http.StatusForbidden, "path escapes the upload directory")
		return
	}

	sha, err := hashing.HashFile(storedPath, s.cfg.IO.HashChunk, nil)
	if err != nil {
		writeError(w, http.StatusNotFound, "could not hash file")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stored_path": storedPath, "sha256": sha})
}

func (s *Server) pathWithinUploadDir(path string) bool {
	absUpload, err := filepath.Abs(s.uploadDir)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absUpload, absPath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("session_id")
	sess, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}

	if sess.StoredPath != "" {
		os.Remove(sess.StoredPath)
	}
	if sess.ResultPath != "" {
		os.Remove(sess.ResultPath)
	}
	s.store.Delete(id)

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
