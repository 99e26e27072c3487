package model

import "time"

type CourseStatus string

const (
	CourseStatusPending    CourseStatus = "pending"
	CourseStatusProcessing CourseStatus = "processing"
	CourseStatusCompleted  CourseStatus = "completed"
	CourseStatusFailed     CourseStatus = "failed"
)

// Terminal reports whether the backend will never move the job forward again.
func (s CourseStatus) Terminal() bool {
	return s == CourseStatusCompleted || s == CourseStatusFailed
}

// CourseContent is the generated payload, present once status is completed.
// The markup is consumed by a sandboxed renderer and treated as opaque here.
type CourseContent struct {
	Generated string `json:"generated"`
}

// Course is the client-side snapshot of a generation job. All transitions
// are owned by the backend; a snapshot is only valid for the poll cycle
// that fetched it.
type Course struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Style       string         `json:"style,omitempty"`
	Difficulty  string         `json:"difficulty,omitempty"`
	Status      CourseStatus   `json:"status"`
	Progress    int            `json:"progress"`
	Content     *CourseContent `json:"content,omitempty"`
	FailReason  string         `json:"fail_reason,omitempty"`
	CoverImage  string         `json:"cover_image,omitempty"`
	DocumentID  *int64         `json:"document_id,omitempty"`
	IsPublic    bool           `json:"is_public,omitempty"`
	LikesCount  int            `json:"likes_count,omitempty"`
	ViewsCount  int            `json:"views_count,omitempty"`
	CreatedAt   time.Time      `json:"created_at,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at,omitempty"`
}

// Generated returns the completed markup, or "" when not completed yet.
func (c *Course) Generated() string {
	if c.Content == nil {
		return ""
	}
	return c.Content.Generated
}

// CourseList is the paginated envelope returned by list endpoints.
type CourseList struct {
	Items []*Course `json:"items"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Size  int       `json:"size"`
	Pages int       `json:"pages"`
}
