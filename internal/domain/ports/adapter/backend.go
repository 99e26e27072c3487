package adapter

import (
	"context"
	"io"

	"coursegen/internal/domain/model"
)

// GenerateRequest is the body of POST /api/v1/courses/generate and of the
// streaming generation endpoints. Exactly one of DocumentID/Content is the
// source material.
type GenerateRequest struct {
	DocumentID  *int64 `json:"document_id,omitempty"`
	Content     string `json:"content,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Style       string `json:"style,omitempty"`
	Difficulty  string `json:"difficulty,omitempty"`
}

// CourseUpdate is a partial update; nil fields are left untouched.
type CourseUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	CoverImage  *string `json:"cover_image,omitempty"`
}

// TokenStream is a finite, non-restartable, single-consumer sequence of
// generated text tokens. Recv returns io.EOF on a clean end (a [DONE]
// marker or the body running out).
type TokenStream interface {
	Recv() (string, error)
	Close() error
}

// CourseAPI is the port to the remote generation backend. Implementations
// attach bearer auth per call and map non-2xx responses to
// domain.RequestError; they never retry.
type CourseAPI interface {
	// Documents
	UploadDocument(ctx context.Context, name string, file io.Reader, title, description string) (*model.Document, error)
	ListDocuments(ctx context.Context, page, pageSize int) (*model.DocumentList, error)
	DeleteDocument(ctx context.Context, id int64) error

	// Courses
	GenerateCourse(ctx context.Context, req GenerateRequest) (*model.Course, error)
	GetCourse(ctx context.Context, id int64) (*model.Course, error)
	ListCourses(ctx context.Context, page, pageSize int, status model.CourseStatus) (*model.CourseList, error)
	UpdateCourse(ctx context.Context, id int64, upd CourseUpdate) (*model.Course, error)
	DeleteCourse(ctx context.Context, id int64) error
	PublishCourse(ctx context.Context, id int64) error

	// Account
	Me(ctx context.Context) (*model.User, error)

	// Cover images
	UploadCourseCover(ctx context.Context, courseID int64, image []byte) (string, error)

	// Streaming generation
	GenerateDocumentStream(ctx context.Context, req GenerateRequest, onToken func(string)) (TokenStream, error)
	GenerateTextStream(ctx context.Context, req GenerateRequest, onToken func(string)) (TokenStream, error)
}
