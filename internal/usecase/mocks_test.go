// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"io"
	"sync"
	"time"

	"coursegen/internal/domain/model"
	"coursegen/internal/domain/ports/adapter"
)

// ---- token sources ----

type fakeTokens struct {
	mu     sync.Mutex
	tokens []string // consumed one per call; the last value repeats
	err    error
	calls  int
}

func (f *fakeTokens) Token(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if len(f.tokens) == 0 {
		return "", nil
	}
	tok := f.tokens[0]
	if len(f.tokens) > 1 {
		f.tokens = f.tokens[1:]
	}
	return tok, nil
}

func authedTokens() *fakeTokens { return &fakeTokens{tokens: []string{"tok"}} }

// ---- backend API fake ----

type courseStep struct {
	course *model.Course
	err    error
}

// fakeAPI scripts the backend: GetCourse walks getSteps (the last step
// repeats), the rest record their inputs. Unused surface panics, so a test
// reaching it is a test bug.
type fakeAPI struct {
	mu sync.Mutex

	getSteps []courseStep
	getCalls int

	generated    *model.Course
	generateErr  error
	generateReqs []adapter.GenerateRequest

	uploadDoc   *model.Document
	uploadErr   error
	uploadCalls int

	coverURL    string
	coverErr    error
	coverCalls  int
	coverImages [][]byte

	updateErr error
	updates   []adapter.CourseUpdate

	stream          adapter.TokenStream
	streamErr       error
	textStreamReqs  []adapter.GenerateRequest
	docStreamReqs   []adapter.GenerateRequest
	streamCallbacks []func(string)
}

func (f *fakeAPI) GetCourse(ctx context.Context, id int64) (*model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.getCalls
	f.getCalls++
	if len(f.getSteps) == 0 {
		return nil, nil
	}
	if i >= len(f.getSteps) {
		i = len(f.getSteps) - 1
	}
	st := f.getSteps[i]
	return st.course, st.err
}

func (f *fakeAPI) GenerateCourse(ctx context.Context, req adapter.GenerateRequest) (*model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generateReqs = append(f.generateReqs, req)
	return f.generated, f.generateErr
}

func (f *fakeAPI) UploadDocument(ctx context.Context, name string, file io.Reader, title, description string) (*model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadCalls++
	return f.uploadDoc, f.uploadErr
}

func (f *fakeAPI) UploadCourseCover(ctx context.Context, courseID int64, image []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.coverCalls++
	f.coverImages = append(f.coverImages, image)
	return f.coverURL, f.coverErr
}

func (f *fakeAPI) UpdateCourse(ctx context.Context, id int64, upd adapter.CourseUpdate) (*model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, upd)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &model.Course{ID: id}, nil
}

func (f *fakeAPI) GenerateTextStream(ctx context.Context, req adapter.GenerateRequest, onToken func(string)) (adapter.TokenStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.textStreamReqs = append(f.textStreamReqs, req)
	f.streamCallbacks = append(f.streamCallbacks, onToken)
	return f.stream, f.streamErr
}

func (f *fakeAPI) GenerateDocumentStream(ctx context.Context, req adapter.GenerateRequest, onToken func(string)) (adapter.TokenStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docStreamReqs = append(f.docStreamReqs, req)
	f.streamCallbacks = append(f.streamCallbacks, onToken)
	return f.stream, f.streamErr
}

func (f *fakeAPI) ListDocuments(ctx context.Context, page, pageSize int) (*model.DocumentList, error) {
	panic("unimplemented")
}
func (f *fakeAPI) DeleteDocument(ctx context.Context, id int64) error { panic("unimplemented") }
func (f *fakeAPI) ListCourses(ctx context.Context, page, pageSize int, status model.CourseStatus) (*model.CourseList, error) {
	panic("unimplemented")
}
func (f *fakeAPI) DeleteCourse(ctx context.Context, id int64) error  { panic("unimplemented") }
func (f *fakeAPI) PublishCourse(ctx context.Context, id int64) error { panic("unimplemented") }
func (f *fakeAPI) Me(ctx context.Context) (*model.User, error)       { panic("unimplemented") }

// ---- token stream fake ----

type fakeStream struct {
	tokens []string
	pos    int
	closed bool
}

func (f *fakeStream) Recv() (string, error) {
	if f.pos >= len(f.tokens) {
		return "", io.EOF
	}
	tok := f.tokens[f.pos]
	f.pos++
	return tok, nil
}

func (f *fakeStream) Close() error {
	f.closed = true
	return nil
}

// ---- sleeper ----

// recordSleeper returns instantly while remembering every requested delay,
// so poll spacing is asserted without wall-clock waits.
type recordSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordSleeper) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return nil
}

// ---- renderer fake ----

type fakeRenderer struct {
	mu    sync.Mutex
	image []byte
	err   error
	calls int
}

func (f *fakeRenderer) Render(ctx context.Context, markup string, vp adapter.Viewport) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.image, f.err
}
