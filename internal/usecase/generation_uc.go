// File: internal/usecase/generation_uc.go
package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"coursegen/internal/domain"
	"coursegen/internal/domain/model"
	"coursegen/internal/domain/ports/adapter"
	"coursegen/internal/infra/logging"
)

// Compile-time check
var _ GenerationUseCase = (*generationUC)(nil)

// SourceFile is an on-disk or in-memory document to upload before generating.
type SourceFile struct {
	Name   string
	Reader io.Reader
}

// GenerateParams describes one submission. At least one of Text/File is
// required.
type GenerateParams struct {
	Text        string
	File        *SourceFile
	Title       string
	Description string
	Style       string
	Difficulty  string
}

type GenerationUseCase interface {
	// Submit creates a generation job and returns it immediately; watching
	// it to completion is the Poller's job.
	Submit(ctx context.Context, p GenerateParams) (*model.Course, error)
	// Stream runs the streaming variant: tokens are delivered through the
	// returned stream (and onToken) instead of a job record being polled.
	Stream(ctx context.Context, p GenerateParams, onToken func(string)) (adapter.TokenStream, error)
}

type generationUC struct {
	api    adapter.CourseAPI
	tokens adapter.TokenSource
	log    *zerolog.Logger
}

func NewGenerationUseCase(api adapter.CourseAPI, tokens adapter.TokenSource, logger *zerolog.Logger) *generationUC {
	return &generationUC{api: api, tokens: tokens, log: logger}
}

// precheck validates params and confirms a usable session before any
// network traffic happens.
func (g *generationUC) precheck(ctx context.Context, p GenerateParams) (context.Context, error) {
	if p.Text == "" && p.File == nil {
		return ctx, fmt.Errorf("%w: need text or a file", domain.ErrInvalidArgument)
	}
	tok, err := g.tokens.Token(ctx)
	if err != nil {
		return ctx, err
	}
	if tok == "" {
		return ctx, domain.ErrNotAuthenticated
	}
	return logging.WithTraceID(ctx, uuid.NewString()), nil
}

// upload pushes the source file first and rewrites the request to refer to
// the resulting document id. Upload failure aborts the whole submission.
func (g *generationUC) upload(ctx context.Context, p GenerateParams, req *adapter.GenerateRequest) (context.Context, error) {
	title := p.File.Name
	if p.Title != "" {
		title = p.Title
	}
	doc, err := g.api.UploadDocument(ctx, p.File.Name, p.File.Reader, title, p.Description)
	if err != nil {
		return ctx, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}
	ctx = logging.WithDocumentID(ctx, doc.ID)
	logging.With(ctx, g.log).Info().Str("file", p.File.Name).Msg("document uploaded")
	req.DocumentID = &doc.ID
	return ctx, nil
}

func (g *generationUC) buildRequest(p GenerateParams) adapter.GenerateRequest {
	title := p.Title
	if title == "" {
		if len(p.Text) > 50 {
			title = p.Text[:50]
		} else {
			title = p.Text
		}
		if title == "" && p.File != nil {
			title = p.File.Name
		}
	}
	return adapter.GenerateRequest{
		Content:     p.Text,
		Title:       title,
		Description: p.Description,
		Style:       p.Style,
		Difficulty:  p.Difficulty,
	}
}

func (g *generationUC) Submit(ctx context.Context, p GenerateParams) (*model.Course, error) {
	ctx, err := g.precheck(ctx, p)
	if err != nil {
		return nil, err
	}
	defer logging.TraceDuration(logging.With(ctx, g.log), "GenerationUC.Submit")()

	req := g.buildRequest(p)
	if p.File != nil {
		if ctx, err = g.upload(ctx, p, &req); err != nil {
			return nil, err
		}
	}

	course, err := g.api.GenerateCourse(ctx, req)
	if err != nil {
		// 402 comes back classified as ErrInsufficientBalance already;
		// everything else keeps the server's detail verbatim.
		return nil, err
	}
	logging.With(logging.WithCourseID(ctx, course.ID), g.log).
		Info().Str("status", string(course.Status)).Msg("generation submitted")
	return course, nil
}

func (g *generationUC) Stream(ctx context.Context, p GenerateParams, onToken func(string)) (adapter.TokenStream, error) {
	ctx, err := g.precheck(ctx, p)
	if err != nil {
		return nil, err
	}

	req := g.buildRequest(p)
	if p.File != nil {
		if ctx, err = g.upload(ctx, p, &req); err != nil {
			return nil, err
		}
		return g.api.GenerateDocumentStream(ctx, req, onToken)
	}
	return g.api.GenerateTextStream(ctx, req, onToken)
}
