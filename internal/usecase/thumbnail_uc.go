// File: internal/usecase/thumbnail_uc.go
package usecase

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"coursegen/internal/domain/ports/adapter"
	"coursegen/internal/infra/logging"
	"coursegen/internal/infra/metrics"
)

// Compile-time check
var _ ThumbnailUseCase = (*thumbnailUC)(nil)

type ThumbnailUseCase interface {
	// Capture rasterizes completed markup, uploads the image and attaches
	// the resulting URL to the course as its cover. Strictly best-effort:
	// nothing is returned and no failure here reaches the caller. Runs at
	// most once per course.
	Capture(ctx context.Context, courseID int64, markup string)
}

type thumbnailUC struct {
	api      adapter.CourseAPI
	renderer adapter.Renderer
	viewport adapter.Viewport
	log      *zerolog.Logger

	mu       sync.Mutex
	captured map[int64]bool
}

func NewThumbnailUseCase(api adapter.CourseAPI, renderer adapter.Renderer, vp adapter.Viewport, logger *zerolog.Logger) *thumbnailUC {
	if vp.Width <= 0 {
		vp.Width = 800
	}
	if vp.Height <= 0 {
		vp.Height = 600
	}
	if vp.Quality <= 0 || vp.Quality > 100 {
		vp.Quality = 85
	}
	return &thumbnailUC{
		api:      api,
		renderer: renderer,
		viewport: vp,
		log:      logger,
		captured: make(map[int64]bool),
	}
}

// markOnce returns false when this course was already captured.
func (t *thumbnailUC) markOnce(courseID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.captured[courseID] {
		return false
	}
	t.captured[courseID] = true
	return true
}

func (t *thumbnailUC) Capture(ctx context.Context, courseID int64, markup string) {
	if courseID == 0 || markup == "" {
		return
	}
	if !t.markOnce(courseID) {
		return
	}
	l := logging.With(logging.WithCourseID(ctx, courseID), t.log)

	img, err := t.renderer.Render(ctx, markup, t.viewport)
	if err != nil {
		metrics.IncThumbnailStage("render")
		l.Warn().Err(err).Msg("thumbnail render failed")
		return
	}

	url, err := t.api.UploadCourseCover(ctx, courseID, img)
	if err != nil {
		metrics.IncThumbnailStage("upload")
		l.Warn().Err(err).Msg("thumbnail upload failed")
		return
	}

	if _, err := t.api.UpdateCourse(ctx, courseID, adapter.CourseUpdate{CoverImage: &url}); err != nil {
		metrics.IncThumbnailStage("attach")
		l.Warn().Err(err).Str("url", url).Msg("cover attach failed")
		return
	}

	metrics.IncThumbnailStage("ok")
	l.Info().Str("url", url).Msg("thumbnail captured")
}
