package screenshot

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/op-reporter/metrics"
)

// FileExtension is the extension of every stored screenshot
const FileExtension = ".png"

// FileName returns the stored file name of a screenshot: "<name> - <timestamp>.png"
func FileName(name, timestamp string) string {
	return name + " - " + timestamp + FileExtension
}

// Capturer copies driver screenshots into a stable directory below the report
type Capturer struct {
	dir    string
	holder *Holder
	log    log.Logger
	tracer trace.Tracer
}

// NewCapturer creates a capturer storing screenshots in dir
func NewCapturer(dir string, holder *Holder, logger log.Logger) *Capturer {
	if logger == nil {
		logger = log.New()
	}
	return &Capturer{
		dir:    dir,
		holder: holder,
		log:    logger,
		tracer: otel.Tracer("screenshot capturer"),
	}
}

// Dir returns the directory screenshots are written to
func (c *Capturer) Dir() string {
	return c.dir
}

// RelativePath returns the report-relative reference of a stored screenshot.
// It is built from the last element of the screenshots directory, so reports
// stay portable when the directory sits next to the HTML file.
func (c *Capturer) RelativePath(name, timestamp string) string {
	leaf := strings.TrimSpace(filepath.Base(filepath.Clean(c.dir)))
	return path.Join(leaf, FileName(name, timestamp))
}

// Capture asks the current driver for a screenshot and stores it. It returns
// the report-relative path and true on success. Any failure is logged and
// reported as false; a closed driver session is dropped without logging.
func (c *Capturer) Capture(ctx context.Context, name, timestamp string) (string, bool) {
	driver := c.holder.Get()
	if driver == nil {
		c.log.Debug("No driver available, skipping screenshot", "test", name)
		metrics.RecordScreenshot(metrics.ScreenshotNoDriver)
		return "", false
	}

	ctx, span := c.tracer.Start(ctx, fmt.Sprintf("screenshot %s", name))
	defer span.End()

	dest, err := c.store(ctx, driver, name, timestamp)
	if err != nil {
		span.RecordError(err)
		if IsSessionClosed(err) {
			metrics.RecordScreenshot(metrics.ScreenshotSessionClosed)
			return "", false
		}
		c.log.Warn("Failed to capture screenshot", "test", name, "err", err)
		metrics.RecordScreenshot(metrics.ScreenshotFailed)
		metrics.RecordErrorDetails("screenshot", err)
		return "", false
	}

	span.SetAttributes(attribute.String("screenshot.path", dest))
	metrics.RecordScreenshot(metrics.ScreenshotCaptured)
	return c.RelativePath(name, timestamp), true
}

func (c *Capturer) store(ctx context.Context, driver Driver, name, timestamp string) (string, error) {
	src, err := driver.Screenshot(ctx)
	if err != nil {
		return "", err
	}
	defer os.Remove(src)

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create screenshots directory %s: %w", c.dir, err)
	}

	dest := filepath.Join(c.dir, FileName(name, timestamp))
	if err := copyFile(src, dest); err != nil {
		return "", err
	}
	return dest, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open screenshot %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create screenshot %s: %w", dest, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return fmt.Errorf("failed to copy screenshot to %s: %w", dest, err)
	}
	return out.Close()
}
