package render

import (
	"context"
	"errors"

	"coursegen/internal/domain/ports/adapter"
)

var _ adapter.Renderer = (*NoopRenderer)(nil)

// NoopRenderer is used where no Chrome is available (CI, thumbnail.enabled
// false). It always errors, which the thumbnail flow logs and drops.
type NoopRenderer struct{}

func NewNoopRenderer() *NoopRenderer { return &NoopRenderer{} }

func (NoopRenderer) Render(ctx context.Context, markup string, vp adapter.Viewport) ([]byte, error) {
	return nil, errors.New("rendering disabled")
}
