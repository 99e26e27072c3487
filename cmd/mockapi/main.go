// File: cmd/mockapi/main.go
//
// mockapi is a local stand-in for the generation backend: upload, generate
// (with credit deduction, 402 on empty balance and refund on failure),
// status progression, publishing and SSE streaming. It exists for genctl
// development and for exercising the client against something real-ish.
// It is a test double, not a product backend.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const (
	generationCost = 100
	startCredits   = 300
	progressStep   = 40 // each status fetch advances this much until completion
)

type course struct {
	ID          int64             `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Style       string            `json:"style,omitempty"`
	Difficulty  string            `json:"difficulty,omitempty"`
	Status      string            `json:"status"`
	Progress    int               `json:"progress"`
	Content     map[string]string `json:"content,omitempty"`
	FailReason  string            `json:"fail_reason,omitempty"`
	CoverImage  string            `json:"cover_image,omitempty"`
	IsPublic    bool              `json:"is_public"`
}

type document struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	FileType string `json:"file_type"`
	FileSize int64  `json:"file_size"`
}

type state struct {
	mu      sync.Mutex
	nextID  int64
	credits int64
	courses map[int64]*course
	docs    map[int64]*document
}

func newState() *state {
	return &state{
		nextID:  1,
		credits: startCredits,
		courses: make(map[int64]*course),
		docs:    make(map[int64]*document),
	}
}

func (s *state) id() int64 {
	v := s.nextID
	s.nextID++
	return v
}

type server struct {
	st  *state
	log *zerolog.Logger
}

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	flag.Parse()

	out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(out).With().Timestamp().Logger()

	s := &server{st: newState(), log: &logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requireBearer)

	r.Post("/api/v1/documents/upload", s.handleUpload)
	r.Get("/api/v1/documents/", s.handleListDocs)
	r.Delete("/api/v1/documents/{id}", s.handleDeleteDoc)

	r.Post("/api/v1/courses/generate", s.handleGenerate)
	r.Get("/api/v1/courses/", s.handleListCourses)
	r.Get("/api/v1/courses/{id}", s.handleGetCourse)
	r.Put("/api/v1/courses/{id}", s.handleUpdateCourse)
	r.Delete("/api/v1/courses/{id}", s.handleDeleteCourse)
	r.Post("/api/v1/courses/{id}/publish", s.handlePublish)

	r.Get("/api/v1/auth/me", s.handleMe)
	r.Post("/api/v1/upload/course/cover", s.handleCoverUpload)

	r.Post("/api/v1/ai/generate/text", s.handleStream)
	r.Post("/api/v1/ai/generate/document", s.handleStream)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("/", r)

	logger.Info().Str("addr", *addr).Msg("mockapi listening")
	if err := http.ListenAndServe(*addr, mux); err != nil {
		logger.Fatal().Err(err).Msg("serve")
	}
}

func (s *server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(strings.ToLower(h), "bearer ") || len(h) <= len("bearer ") {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "file field missing")
		return
	}
	defer f.Close()

	title := r.URL.Query().Get("title")
	if title == "" {
		title = hdr.Filename
	}
	ext := ""
	if i := strings.LastIndex(hdr.Filename, "."); i >= 0 {
		ext = strings.ToLower(hdr.Filename[i+1:])
	}

	s.st.mu.Lock()
	doc := &document{ID: s.st.id(), Title: title, FileType: ext, FileSize: hdr.Size}
	s.st.docs[doc.ID] = doc
	s.st.mu.Unlock()

	s.log.Info().Int64("id", doc.ID).Str("title", title).Msg("document uploaded")
	writeJSON(w, http.StatusOK, map[string]any{"document": doc})
}

func (s *server) handleListDocs(w http.ResponseWriter, r *http.Request) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	items := make([]*document, 0, len(s.st.docs))
	for _, d := range s.st.docs {
		items = append(items, d)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items, "total": len(items), "page": 1, "size": len(items), "pages": 1,
	})
}

func (s *server) handleDeleteDoc(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusBadRequest, "bad id")
		return
	}
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	if _, ok := s.st.docs[id]; !ok {
		writeDetail(w, http.StatusNotFound, "document not found")
		return
	}
	delete(s.st.docs, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentID  *int64 `json:"document_id"`
		Content     string `json:"content"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Style       string `json:"style"`
		Difficulty  string `json:"difficulty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.DocumentID == nil && req.Content == "" {
		writeDetail(w, http.StatusBadRequest, "document_id or content required")
		return
	}

	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	if s.st.credits < generationCost {
		writeDetail(w, http.StatusPaymentRequired, "insufficient credits")
		return
	}
	s.st.credits -= generationCost

	c := &course{
		ID:         s.st.id(),
		Title:      req.Title,
		Style:      req.Style,
		Difficulty: req.Difficulty,
		Status:     "processing",
	}
	s.st.courses[c.ID] = c
	s.log.Info().Int64("id", c.ID).Str("title", c.Title).Msg("generation started")
	writeJSON(w, http.StatusOK, c)
}

func (s *server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusBadRequest, "bad id")
		return
	}
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	c, ok := s.st.courses[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "course not found")
		return
	}

	// scripted progression: every fetch advances the job; a title containing
	// "fail" makes it fail at the end and refunds the credits
	if c.Status == "processing" {
		c.Progress += progressStep
		if c.Progress >= 100 {
			if strings.Contains(strings.ToLower(c.Title), "fail") {
				c.Status = "failed"
				c.Progress = 0
				c.FailReason = "model timeout"
				s.st.credits += generationCost
			} else {
				c.Status = "completed"
				c.Progress = 100
				c.Content = map[string]string{
					"generated": fmt.Sprintf("<html><body><h1>%s</h1></body></html>", c.Title),
				}
			}
		}
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	items := make([]*course, 0, len(s.st.courses))
	for _, c := range s.st.courses {
		if status == "" || c.Status == status {
			items = append(items, c)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items, "total": len(items), "page": 1, "size": len(items), "pages": 1,
	})
}

func (s *server) handleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusBadRequest, "bad id")
		return
	}
	var upd struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		CoverImage  *string `json:"cover_image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	c, ok := s.st.courses[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "course not found")
		return
	}
	if upd.Title != nil {
		c.Title = *upd.Title
	}
	if upd.Description != nil {
		c.Description = *upd.Description
	}
	if upd.CoverImage != nil {
		c.CoverImage = *upd.CoverImage
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *server) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusBadRequest, "bad id")
		return
	}
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	if _, ok := s.st.courses[id]; !ok {
		writeDetail(w, http.StatusNotFound, "course not found")
		return
	}
	delete(s.st.courses, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handlePublish(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusBadRequest, "bad id")
		return
	}
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	c, ok := s.st.courses[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "course not found")
		return
	}
	if c.IsPublic {
		writeDetail(w, http.StatusBadRequest, "course already published")
		return
	}
	c.IsPublic = true
	writeJSON(w, http.StatusOK, c)
}

func (s *server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"id":                1,
		"email":             "dev@localhost",
		"username":          "dev",
		"subscription_tier": "free",
		"points_balance":    s.st.credits,
	})
}

func (s *server) handleCoverUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	_, hdr, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "file field missing")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"url": "http://localhost/static/covers/" + hdr.Filename,
	})
}

func (s *server) handleStream(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
		Text    string `json:"text"`
		Title   string `json:"title"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	fl, ok := w.(http.Flusher)
	if !ok {
		writeDetail(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)

	send := func(v any) {
		b, _ := json.Marshal(v)
		fmt.Fprintf(w, "data: %s\n", b)
		fl.Flush()
	}

	tokens := []string{"<html>", "<body>", "<h1>", req.Title, "</h1>", "</body>", "</html>"}
	for _, tok := range tokens {
		send(map[string]string{"token": tok})
		time.Sleep(50 * time.Millisecond)
	}
	send(map[string]string{"event": "[DONE]"})
}
