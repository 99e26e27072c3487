package render

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/chromedp/chromedp"

	"coursegen/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.Renderer = (*ChromeRenderer)(nil)

// ChromeRenderer rasterizes course markup in a headless Chrome tab. The
// markup is loaded via a data: URL so nothing touches disk, given a short
// settle delay for its animations, and screenshotted at the requested
// viewport as JPEG.
type ChromeRenderer struct {
	timeout time.Duration
	settle  time.Duration
}

func NewChromeRenderer(timeout time.Duration) *ChromeRenderer {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &ChromeRenderer{timeout: timeout, settle: 500 * time.Millisecond}
}

func (r *ChromeRenderer) Render(ctx context.Context, markup string, vp adapter.Viewport) ([]byte, error) {
	if markup == "" {
		return nil, errors.New("empty markup")
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	actx, acancel := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer acancel()
	cctx, ccancel := chromedp.NewContext(actx)
	defer ccancel()

	url := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(markup))

	var buf []byte
	err := chromedp.Run(cctx,
		chromedp.EmulateViewport(int64(vp.Width), int64(vp.Height)),
		chromedp.Navigate(url),
		chromedp.Sleep(r.settle),
		chromedp.FullScreenshot(&buf, vp.Quality),
	)
	if err != nil {
		return nil, err
	}
	return buf, nil
}
