// ABOUTME: HTTP handler methods for session lifecycle, generation control, and output polling.
// ABOUTME: Sketch uploads are inlined as data URLs; SVG files are served from the session build dir.
package webui

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// maxSketchSize caps uploaded sketch images at 10MB.
const maxSketchSize = 10 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleCreateSession creates a new session and notifies the manager.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Create()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	s.hooks.Connect(sess.ID)
	writeJSON(w, http.StatusCreated, map[string]string{"id": sess.ID})
}

// handleDeleteSession ends a session and notifies the manager.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.store.Delete(id) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	s.hooks.Disconnect(id)
	w.WriteHeader(http.StatusNoContent)
}

// handleGenerate starts a new generation request from a prompt and an
// optional sketch upload. A request already in flight for this session is
// superseded; one racing an in-flight delivery step is dropped and the
// response reports the still-current request.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSketchSize)
	if err := r.ParseMultipartForm(maxSketchSize); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			writeError(w, http.StatusRequestEntityTooLarge, "sketch too large (max 10MB)")
			return
		}
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "failed to parse form")
			return
		}
	}

	prompt := strings.TrimSpace(r.FormValue("prompt"))
	imageURL, err := sketchDataURL(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if prompt == "" && imageURL == "" {
		writeError(w, http.StatusUnprocessableEntity, "prompt or sketch is required")
		return
	}
	if prompt == "" {
		prompt = "Convert this sketch into a TikZ figure."
	}

	requestID := sess.StartGeneration(s.producerFor(prompt, imageURL))
	writeJSON(w, http.StatusAccepted, map[string]string{"requestId": requestID})
}

// handleCancel stops the session's in-flight generation run.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	sess.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

// handleOutputs returns the session's current snapshot for the polling UI.
func (s *Server) handleOutputs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// handleFile serves a rendered SVG from the session build dir. Only bare
// file names are accepted; path traversal is rejected.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	name := chi.URLParam(r, "name")
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		writeError(w, http.StatusBadRequest, "invalid file name")
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	http.ServeFile(w, r, filepath.Join(sess.BuildDir, name))
}

// sketchDataURL reads the uploaded sketch file, if any, and inlines it as a
// data URL for the vision model.
func sketchDataURL(r *http.Request) (string, error) {
	file, header, err := r.FormFile("sketch")
	if err != nil {
		return "", nil // no upload
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", io.ErrUnexpectedEOF
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
