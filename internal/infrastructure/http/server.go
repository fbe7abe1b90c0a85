// Package http provides the HTTP server infrastructure.
// Clean Architecture: Framework/driver layer - outermost circle.
// It hosts the form page and translates the JSON/multipart API into
// controller operations.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/visionask/visionask-go/internal/domain/entities"
	"github.com/visionask/visionask-go/internal/domain/ports"
	"github.com/visionask/visionask-go/internal/domain/usecases"
)

// Server is the HTTP server for the VQA form and its session API.
type Server struct {
	controller   *usecases.SessionController
	gallery      ports.GalleryStore // may be nil when no samples directory exists
	logger       *zap.SugaredLogger
	addr         string
	tokenHelpURL string
}

// NewServer creates a new HTTP server.
func NewServer(
	controller *usecases.SessionController,
	gallery ports.GalleryStore,
	logger *zap.SugaredLogger,
	addr string,
	tokenHelpURL string,
) *Server {
	return &Server{
		controller:   controller,
		gallery:      gallery,
		logger:       logger,
		addr:         addr,
		tokenHelpURL: tokenHelpURL,
	}
}

// Start runs the HTTP server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      corsMiddleware(s.loggingMiddleware(s.routes())),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 300 * time.Second, // Hosted models can take a while
	}

	s.logger.Infow("server starting", "addr", s.addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	return server.ListenAndServe()
}

// routes wires the handler table. Split out of Start for tests.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	// UI
	mux.HandleFunc("/", s.handleIndex)

	// Session API
	mux.HandleFunc("/api/session", s.handleSession)
	mux.HandleFunc("/api/session/image", s.handleImage)
	mux.HandleFunc("/api/session/image/gallery", s.handleGalleryIngest)
	mux.HandleFunc("/api/session/question", s.handleQuestion)
	mux.HandleFunc("/api/session/credential", s.handleCredential)
	mux.HandleFunc("/api/session/submit", s.handleSubmit)
	mux.HandleFunc("/api/session/reset", s.handleReset)

	// Gallery
	mux.HandleFunc("/api/gallery", s.handleGallery)
	mux.HandleFunc("/api/gallery/image", s.handleGalleryImage)

	mux.HandleFunc("/api/health", s.handleHealth)
	return mux
}

// stateResponse is the wire form of a session snapshot.
type stateResponse struct {
	Status        string `json:"status"`
	HasImage      bool   `json:"has_image"`
	ImageName     string `json:"image_name,omitempty"`
	Question      string `json:"question"`
	Answer        string `json:"answer"`
	Error         string `json:"error"`
	Configured    bool   `json:"configured"`
	HasCredential bool   `json:"has_credential"`
	SubmissionID  string `json:"submission_id,omitempty"`
}

func toStateResponse(state entities.SessionState) stateResponse {
	return stateResponse{
		Status:        state.Status.String(),
		HasImage:      state.HasImage,
		ImageName:     state.ImageName,
		Question:      state.Question,
		Answer:        state.Answer,
		Error:         state.Error,
		Configured:    state.Configured,
		HasCredential: state.HasCredential,
		SubmissionID:  state.SubmissionID,
	}
}

func (s *Server) writeState(w http.ResponseWriter, state entities.SessionState) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toStateResponse(state))
}

// writeError maps domain errors onto the API: validation problems are the
// caller's fault, everything else is a 500. The message is surfaced verbatim.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var vErr *entities.ValidationError
	if errors.As(err, &vErr) {
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// handleSession returns the current state snapshot.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeState(w, s.controller.Snapshot())
}

// handleImage ingests a multipart image upload into the session.
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Reject oversized bodies before any decoding work. The slack covers
	// multipart framing around the payload itself.
	maxBytes := s.controller.MaxImageBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		s.writeError(w, &entities.ValidationError{Reason: entities.ReasonSize, Err: err})
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeError(w, &entities.ValidationError{Reason: entities.ReasonMissingInput, Err: err})
		return
	}
	defer file.Close()

	if err := s.controller.IngestImage(header.Filename, file, header.Size); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeState(w, s.controller.Snapshot())
}

// handleGalleryIngest ingests a sample image by name.
func (s *Server) handleGalleryIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.gallery == nil {
		http.Error(w, "No gallery configured", http.StatusNotFound)
		return
	}

	name := s.formValue(r, "name")
	if name == "" {
		http.Error(w, "Name required", http.StatusBadRequest)
		return
	}

	f, size, err := s.gallery.Open(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	defer f.Close()

	if err := s.controller.IngestImage(name, f, size); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeState(w, s.controller.Snapshot())
}

// handleQuestion sets the question text.
func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.controller.SetQuestion(s.formValue(r, "question"))
	s.writeState(w, s.controller.Snapshot())
}

// handleCredential sets the bearer token for the session.
func (s *Server) handleCredential(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.controller.SetCredential(s.formValue(r, "token"))
	s.writeState(w, s.controller.Snapshot())
}

// handleSubmit runs one submission. The outcome is a domain state, not an
// HTTP error; the response is always the resulting snapshot.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	state := s.controller.Submit(r.Context())

	if state.Error != "" {
		s.logger.Errorw("submission failed",
			"id", state.SubmissionID,
			"status", state.Status.String(),
			"error", state.Error,
		)
	} else {
		s.logger.Infow("submission finished",
			"id", state.SubmissionID,
			"status", state.Status.String(),
		)
	}
	s.writeState(w, state)
}

// handleReset clears image, question, answer and error.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeState(w, s.controller.Reset())
}

// handleGallery lists the sample images.
func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	images := []entities.GalleryImage{}
	if s.gallery != nil {
		images = s.gallery.List()
	}

	type galleryEntry struct {
		Name string `json:"name"`
		Size int64  `json:"size"`
	}
	entries := make([]galleryEntry, len(images))
	for i, img := range images {
		entries[i] = galleryEntry{Name: img.Name, Size: img.Size}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"images": entries})
}

// handleGalleryImage serves a sample image's bytes for the picker preview.
func (s *Server) handleGalleryImage(w http.ResponseWriter, r *http.Request) {
	if s.gallery == nil {
		http.Error(w, "No gallery configured", http.StatusNotFound)
		return
	}

	name := r.URL.Query().Get("name")
	f, _, err := s.gallery.Open(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	defer f.Close()

	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	io.Copy(w, f)
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// formValue reads a named value from a JSON body or a form post.
func (s *Server) formValue(r *http.Request, key string) string {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		return body[key]
	}
	r.ParseForm()
	return r.FormValue(key)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Infow("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleIndex renders the form page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	maxMiB := s.controller.MaxImageBytes() >> 20
	html := fmt.Sprintf(indexPage, s.tokenHelpURL, maxMiB)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}
