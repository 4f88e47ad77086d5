package screenshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/ethereum/go-ethereum/log"
)

// ChromeConfig configures a headless Chrome session
type ChromeConfig struct {
	Headless bool
	WindowW  int
	WindowH  int
	FullPage bool   // Capture the full scrollable page instead of the viewport
	Quality  int    // JPEG quality for full page captures; 100 keeps PNG output
	TempDir  string // Where raw captures are written, defaults to os.TempDir()
	ExecPath string // Chrome binary, empty lets chromedp discover it
	Log      log.Logger
}

// ChromeDriver is a Driver backed by a chromedp browser context
type ChromeDriver struct {
	cfg    ChromeConfig
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

var _ Driver = (*ChromeDriver)(nil)

// NewChromeDriver allocates a browser context. The browser process itself is
// started lazily by the first action run against it.
func NewChromeDriver(parent context.Context, cfg ChromeConfig) *ChromeDriver {
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = 100
	}
	if cfg.WindowW <= 0 || cfg.WindowH <= 0 {
		cfg.WindowW, cfg.WindowH = 1920, 1080
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.WindowSize(cfg.WindowW, cfg.WindowH),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	ctx, ctxCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...interface{}) {
		cfg.Log.Debug(fmt.Sprintf(format, args...))
	}))

	cancel := func() {
		ctxCancel()
		allocCancel()
	}
	return &ChromeDriver{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Run executes browser actions (navigation, clicks) in the driver session
func (d *ChromeDriver) Run(actions ...chromedp.Action) error {
	if d.isClosed() {
		return NewSessionClosedError(nil)
	}
	return d.classify(chromedp.Run(d.ctx, actions...))
}

// Screenshot implements Driver
func (d *ChromeDriver) Screenshot(ctx context.Context) (string, error) {
	if d.isClosed() {
		return "", NewSessionClosedError(nil)
	}

	var buf []byte
	var action chromedp.Action
	if d.cfg.FullPage {
		action = chromedp.FullScreenshot(&buf, d.cfg.Quality)
	} else {
		action = chromedp.CaptureScreenshot(&buf)
	}
	if err := d.classify(chromedp.Run(d.ctx, action)); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.CreateTemp(d.cfg.TempDir, "screenshot-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary screenshot file: %w", err)
	}
	if _, err := f.Write(buf); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to write temporary screenshot file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to close temporary screenshot file: %w", err)
	}
	return f.Name(), nil
}

// Quit tears the browser down. Later calls fail with a SessionClosedError.
func (d *ChromeDriver) Quit() {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.cancel()
}

// isClosed also covers a nil driver, which never had a session
func (d *ChromeDriver) isClosed() bool {
	if d == nil {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// classify maps browser teardown errors onto SessionClosedError
func (d *ChromeDriver) classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, chromedp.ErrInvalidContext) || d.ctx.Err() != nil {
		return NewSessionClosedError(err)
	}
	return err
}
