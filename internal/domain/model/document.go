package model

import "time"

// Document is an uploaded source file, referenced by id when generating.
// Owned by the backend; never mutated client-side.
type Document struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	FileType    string    `json:"file_type"`
	FileSize    int64     `json:"file_size"`
	FileURL     string    `json:"file_url,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

type DocumentList struct {
	Items []*Document `json:"items"`
	Total int         `json:"total"`
	Page  int         `json:"page"`
	Size  int         `json:"size"`
	Pages int         `json:"pages"`
}
