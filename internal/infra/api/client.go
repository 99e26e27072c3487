package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"coursegen/internal/domain"
	"coursegen/internal/domain/model"
	"coursegen/internal/domain/ports/adapter"
	"coursegen/internal/infra/logging"
	"coursegen/internal/infra/metrics"
)

// Compile-time assurance the client satisfies the port
var _ adapter.CourseAPI = (*Client)(nil)

// Client talks to the generation backend. It holds no token: the bearer
// credential is resolved from the TokenSource at call time and attached
// when present. Non-2xx responses become domain.RequestError carrying the
// server's detail message. The client never retries.
type Client struct {
	base   string
	tokens adapter.TokenSource
	hc     *http.Client
	sc     *http.Client // no overall timeout: a token stream outlives it
	log    *zerolog.Logger
}

func NewClient(baseURL string, tokens adapter.TokenSource, timeout time.Duration, logger *zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		tokens: tokens,
		hc:     &http.Client{Timeout: timeout},
		sc:     &http.Client{},
		log:    logger,
	}
}

func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("resolve token: %w", err)
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return nil
}

// do performs a JSON request and decodes a 2xx body into out (when non-nil).
// route is a stable label for metrics, not the URL.
func (c *Client) do(ctx context.Context, route, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.authorize(ctx, req); err != nil {
		return err
	}

	resp, err := c.roundTrip(route, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.NewRequestError(resp.StatusCode, decodeDetail(resp.Body))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) roundTrip(route string, req *http.Request) (*http.Response, error) {
	return c.roundTripWith(c.hc, route, req)
}

func (c *Client) roundTripWith(hc *http.Client, route string, req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := hc.Do(req)
	elapsed := float64(time.Since(start).Milliseconds())
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	metrics.ObserveRequest(route, status, elapsed)
	l := logging.With(req.Context(), c.log)
	if err != nil {
		l.Warn().Str("route", route).Err(err).Msg("api call failed")
		return nil, err
	}
	l.Debug().Str("route", route).Int("status", status).Dur("elapsed", time.Since(start)).Msg("api call")
	return resp, nil
}

// decodeDetail pulls the server's {"detail": "..."} message out of an error
// body. Empty on any parse trouble; the caller falls back to HTTP <status>.
func decodeDetail(r io.Reader) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return ""
	}
	return payload.Detail
}

// ----- Documents -----

func (c *Client) UploadDocument(ctx context.Context, name string, file io.Reader, title, description string) (*model.Document, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, file); err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	// title/description travel in the query string, matching the backend contract
	q := url.Values{"title": {title}}
	if description != "" {
		q.Set("description", description)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/v1/documents/upload?"+q.Encode(), &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := c.authorize(ctx, req); err != nil {
		return nil, err
	}

	resp, err := c.roundTrip("documents.upload", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, domain.NewRequestError(resp.StatusCode, decodeDetail(resp.Body))
	}

	var payload struct {
		Document *model.Document `json:"document"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if payload.Document == nil {
		return nil, fmt.Errorf("upload response missing document")
	}
	return payload.Document, nil
}

func (c *Client) ListDocuments(ctx context.Context, page, pageSize int) (*model.DocumentList, error) {
	var out model.DocumentList
	path := fmt.Sprintf("/api/v1/documents/?page=%d&page_size=%d", page, pageSize)
	if err := c.do(ctx, "documents.list", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteDocument(ctx context.Context, id int64) error {
	return c.do(ctx, "documents.delete", http.MethodDelete, "/api/v1/documents/"+strconv.FormatInt(id, 10), nil, nil)
}

// ----- Courses -----

func (c *Client) GenerateCourse(ctx context.Context, req adapter.GenerateRequest) (*model.Course, error) {
	var out model.Course
	if err := c.do(ctx, "courses.generate", http.MethodPost, "/api/v1/courses/generate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCourse(ctx context.Context, id int64) (*model.Course, error) {
	var out model.Course
	if err := c.do(ctx, "courses.get", http.MethodGet, "/api/v1/courses/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListCourses(ctx context.Context, page, pageSize int, status model.CourseStatus) (*model.CourseList, error) {
	path := fmt.Sprintf("/api/v1/courses/?page=%d&page_size=%d", page, pageSize)
	if status != "" {
		path += "&status=" + url.QueryEscape(string(status))
	}
	var out model.CourseList
	if err := c.do(ctx, "courses.list", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCourse(ctx context.Context, id int64, upd adapter.CourseUpdate) (*model.Course, error) {
	var out model.Course
	if err := c.do(ctx, "courses.update", http.MethodPut, "/api/v1/courses/"+strconv.FormatInt(id, 10), upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCourse(ctx context.Context, id int64) error {
	return c.do(ctx, "courses.delete", http.MethodDelete, "/api/v1/courses/"+strconv.FormatInt(id, 10), nil, nil)
}

// PublishCourse makes the course publicly visible. Publishing twice is
// tolerated: the backend answers 400 "already published" and that is
// treated as success so share links stay copyable.
func (c *Client) PublishCourse(ctx context.Context, id int64) error {
	err := c.do(ctx, "courses.publish", http.MethodPost, "/api/v1/courses/"+strconv.FormatInt(id, 10)+"/publish", nil, nil)
	var reqErr *domain.RequestError
	if errors.As(err, &reqErr) && reqErr.Status == http.StatusBadRequest && strings.Contains(reqErr.Detail, "already") {
		return nil
	}
	return err
}

// ----- Account -----

func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, "auth.me", http.MethodGet, "/api/v1/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ----- Cover images -----

func (c *Client) UploadCourseCover(ctx context.Context, courseID int64, image []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fmt.Sprintf("course_%d_cover.jpg", courseID))
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(image); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/v1/upload/course/cover", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := c.authorize(ctx, req); err != nil {
		return "", err
	}

	resp, err := c.roundTrip("upload.cover", req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", domain.NewRequestError(resp.StatusCode, decodeDetail(resp.Body))
	}

	var payload struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return payload.URL, nil
}

// ----- Streaming generation -----

func (c *Client) GenerateDocumentStream(ctx context.Context, req adapter.GenerateRequest, onToken func(string)) (adapter.TokenStream, error) {
	return c.stream(ctx, "ai.generate.document", "/api/v1/ai/generate/document", req, onToken)
}

func (c *Client) GenerateTextStream(ctx context.Context, req adapter.GenerateRequest, onToken func(string)) (adapter.TokenStream, error) {
	return c.stream(ctx, "ai.generate.text", "/api/v1/ai/generate/text", req, onToken)
}

func (c *Client) stream(ctx context.Context, route, path string, body adapter.GenerateRequest, onToken func(string)) (adapter.TokenStream, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if err := c.authorize(ctx, req); err != nil {
		return nil, err
	}

	resp, err := c.roundTripWith(c.sc, route, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, domain.NewRequestError(resp.StatusCode, decodeDetail(resp.Body))
	}
	return NewTokenStream(resp.Body, onToken), nil
}
