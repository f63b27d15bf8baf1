package printout

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const defaultTimeout = 30 * time.Second

// Options defines parameters for rendering the printable schedule to PDF.
type Options struct {
	// URL of the printable view, e.g. "http://127.0.0.1:8080/print/schedule?date=...".
	URL string

	// Landscape flips page orientation (default portrait).
	Landscape bool

	// Timeout bounds the whole render. Zero means defaultTimeout.
	Timeout time.Duration
}

// RenderPDF drives a headless Chromium via chromedp: it navigates to
// the printable schedule, waits for the page to signal that it has
// finished rendering via data-ready="true" on its root element, then
// prints it to PDF and returns the bytes.
func RenderPDF(parentCtx context.Context, opts Options) ([]byte, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("printout: URL is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var pdf []byte
	tasks := chromedp.Tasks{
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		// Small extra delay to allow final paints.
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithLandscape(opts.Landscape).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("printout: chromedp run failed: %w", err)
	}
	return pdf, nil
}
