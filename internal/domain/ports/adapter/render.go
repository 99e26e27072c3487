package adapter

import "context"

// Viewport is the virtual screen a thumbnail is rasterized at.
type Viewport struct {
	Width   int
	Height  int
	Quality int // JPEG quality 1..100
}

// Renderer rasterizes generated course markup to a compressed image.
type Renderer interface {
	Render(ctx context.Context, markup string, vp Viewport) ([]byte, error)
}
