package reporter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-reporter/category"
	"github.com/ethereum-optimism/infra/op-reporter/properties"
	"github.com/ethereum-optimism/infra/op-reporter/screenshot"
	"github.com/ethereum-optimism/infra/op-reporter/types"
)

const testTimestamp = "20210704_1540"

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

type fakeDriver struct {
	err   error
	calls int
}

func (d *fakeDriver) Screenshot(ctx context.Context) (string, error) {
	d.calls++
	if d.err != nil {
		return "", d.err
	}
	f, err := os.CreateTemp("", "fake-screenshot-*.png")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.Write(pngHeader); err != nil {
		return "", err
	}
	return f.Name(), nil
}

type failingSource struct{}

func (failingSource) Property(key string) (string, error) {
	return "", errors.New("property file is corrupt")
}

func testLogger() log.Logger {
	return log.NewLogger(log.DiscardHandler())
}

func newTestRecorder(t *testing.T, modify func(*RecorderConfig)) (*Recorder, RecorderConfig) {
	t.Helper()
	cfg := RecorderConfig{
		ReportDir:  filepath.Join(t.TempDir(), "reports"),
		FilePrefix: "test-report-",
		Timestamp:  testTimestamp,
		Drivers:    screenshot.NewHolder(nil),
		Log:        testLogger(),
	}
	if modify != nil {
		modify(&cfg)
	}
	r, err := NewRecorder(cfg)
	require.NoError(t, err)
	return r, cfg
}

func loginOutcome() types.Outcome {
	return types.Outcome{
		Name:        "loginTest",
		ClassName:   "com.example.LoginTests",
		Description: "User can log in",
		Err:         errors.New("expected [true] but found [false]"),
		Stack:       "java.lang.AssertionError: expected [true] but found [false]\n\tat com.example.LoginTests.loginTest(LoginTests.java:42)",
	}
}

func TestNewRecorderValidation(t *testing.T) {
	_, err := NewRecorder(RecorderConfig{Timestamp: testTimestamp})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report directory is required")

	_, err = NewRecorder(RecorderConfig{ReportDir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timestamp is required")

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	_, err = NewRecorder(RecorderConfig{ReportDir: filepath.Join(blocker, "reports"), Timestamp: testTimestamp, Log: testLogger()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create report session")

	_, err = NewRecorder(RecorderConfig{ReportDir: t.TempDir(), Timestamp: testTimestamp, HTMLTemplate: "{{.Broken", Log: testLogger()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create HTML formatter")
}

func TestNewRecorderReportPath(t *testing.T) {
	r, cfg := newTestRecorder(t, nil)

	assert.Equal(t, filepath.Join(cfg.ReportDir, "test-report-20210704_1540.html"), r.ReportPath())
	assert.DirExists(t, cfg.ReportDir)
}

func TestNewRecorderProperties(t *testing.T) {
	r, _ := newTestRecorder(t, func(cfg *RecorderConfig) {
		cfg.Properties = properties.Map{
			properties.KeyTheme:           "DARK",
			properties.KeyDocumentTitle:   "UI Tests",
			properties.KeyReportName:      "Regression",
			properties.KeyApplicationName: "Shop",
			properties.KeyEnvironment:     "staging",
			properties.KeyBrowser:         "chrome",
			properties.KeyOperatingSystem: "linux",
			properties.KeyTestDeveloper:   "qa-team",
		}
	})

	cfg := r.Session().Config()
	assert.Equal(t, types.ThemeDark, cfg.Theme)
	assert.Equal(t, "UI Tests", cfg.DocumentTitle)
	assert.Equal(t, "Regression", cfg.ReportName)
	assert.Equal(t, []types.SystemInfo{
		{Name: "Application Name", Value: "Shop"},
		{Name: "Environment", Value: "staging"},
		{Name: "Browser", Value: "chrome"},
		{Name: "Operating System", Value: "linux"},
		{Name: "Test Developer", Value: "qa-team"},
	}, cfg.SystemInfo)
}

func TestNewRecorderExtentPropertyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.properties")
	require.NoError(t, os.WriteFile(path, []byte(
		"extent_reporter_theme=dark\nextent_document_title=My Doc\nextent_reporter_name=My Report\napplication_name=App\n"), 0644))
	props, err := properties.Load(path)
	require.NoError(t, err)

	r, _ := newTestRecorder(t, func(cfg *RecorderConfig) {
		cfg.Properties = props
	})

	cfg := r.Session().Config()
	assert.Equal(t, types.ThemeDark, cfg.Theme)
	assert.Equal(t, "My Doc", cfg.DocumentTitle)
	assert.Equal(t, "My Report", cfg.ReportName)
	assert.Equal(t, []types.SystemInfo{{Name: "Application Name", Value: "App"}}, cfg.SystemInfo)
}

func TestNewRecorderShortPropertyKeys(t *testing.T) {
	r, _ := newTestRecorder(t, func(cfg *RecorderConfig) {
		cfg.Properties = properties.Map{
			"report_theme":           "dark",
			"report_document_title":  "UI Tests",
			"report_name":            "Regression",
			properties.KeyReportName: "Nightly",
		}
	})

	cfg := r.Session().Config()
	assert.Equal(t, types.ThemeDark, cfg.Theme)
	assert.Equal(t, "UI Tests", cfg.DocumentTitle)
	assert.Equal(t, "Nightly", cfg.ReportName)
}

func TestNewRecorderPartialProperties(t *testing.T) {
	r, _ := newTestRecorder(t, func(cfg *RecorderConfig) {
		cfg.Properties = properties.Map{
			properties.KeyTheme:   "light",
			properties.KeyBrowser: "firefox",
		}
	})

	cfg := r.Session().Config()
	assert.Equal(t, types.ThemeStandard, cfg.Theme)
	assert.Empty(t, cfg.DocumentTitle)
	assert.Equal(t, []types.SystemInfo{{Name: "Browser", Value: "firefox"}}, cfg.SystemInfo)
}

func TestConfigReadFailureUsesStandardTheme(t *testing.T) {
	for name, src := range map[string]properties.Source{
		"failing source": failingSource{},
		"no source":      nil,
	} {
		t.Run(name, func(t *testing.T) {
			r, _ := newTestRecorder(t, func(cfg *RecorderConfig) {
				cfg.Properties = src
			})
			assert.Equal(t, types.ThemeStandard, r.Session().Config().Theme)
			assert.Empty(t, r.Session().Config().SystemInfo)

			r.RecordSuccess(context.Background(), types.Outcome{Name: "loginTest", ClassName: "com.example.LoginTests"})
			require.NoError(t, r.Finalize(context.Background()))

			content, err := os.ReadFile(r.ReportPath())
			require.NoError(t, err)
			assert.Contains(t, string(content), `class="theme-standard"`)
		})
	}
}

func TestRecordSuccess(t *testing.T) {
	r, _ := newTestRecorder(t, func(cfg *RecorderConfig) {
		cfg.Categories = category.Static{Categories: map[string]string{
			category.Key("com.example.LoginTests", "loginTest"): "Smoke",
		}}
	})

	start := time.Date(2021, 7, 4, 15, 40, 0, 0, time.UTC)
	entry := r.RecordSuccess(context.Background(), types.Outcome{
		Name:        "loginTest",
		ClassName:   "com.example.LoginTests",
		Description: "User can log in",
		StartTime:   start,
		EndTime:     start.Add(1500 * time.Millisecond),
	})

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "loginTest", entry.Name)
	assert.Equal(t, "com.example.LoginTests", entry.ClassName)
	assert.Equal(t, "User can log in", entry.Description)
	assert.Equal(t, "Smoke", entry.Category)
	assert.Equal(t, types.TestStatusPass, entry.Status)
	assert.Equal(t, 1500*time.Millisecond, entry.Duration)
	assert.Empty(t, entry.Message)
	assert.False(t, entry.HasScreenshot())
	assert.Equal(t, 1, r.Session().Len())
}

func TestRecordFailureWithScreenshot(t *testing.T) {
	driver := &fakeDriver{}
	r, cfg := newTestRecorder(t, func(cfg *RecorderConfig) {
		cfg.Drivers = screenshot.NewHolder(driver)
	})

	entry := r.RecordFailure(context.Background(), loginOutcome(), testTimestamp)

	assert.Equal(t, types.TestStatusFail, entry.Status)
	assert.Equal(t, "expected [true] but found [false]", entry.Message)
	assert.Contains(t, entry.Detail, "LoginTests.java:42")
	assert.Equal(t, "screenshots/loginTest - 20210704_1540.png", entry.Screenshot)
	assert.Equal(t, 1, driver.calls)

	stored := filepath.Join(cfg.ReportDir, "screenshots", "loginTest - 20210704_1540.png")
	content, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, content)
}

func TestRecordFailureWithoutDriver(t *testing.T) {
	r, cfg := newTestRecorder(t, nil)

	entry := r.RecordFailure(context.Background(), loginOutcome(), testTimestamp)

	assert.Equal(t, types.TestStatusFail, entry.Status)
	assert.Empty(t, entry.Screenshot)
	assert.Equal(t, 1, r.Session().Len())
	assert.NoDirExists(t, filepath.Join(cfg.ReportDir, "screenshots"))
}

func TestRecordFailureNilChromeDriver(t *testing.T) {
	r, _ := newTestRecorder(t, func(cfg *RecorderConfig) {
		cfg.Drivers = screenshot.NewHolder((*screenshot.ChromeDriver)(nil))
	})

	entry := r.RecordFailure(context.Background(), types.Outcome{Name: "loginTest"}, testTimestamp)

	assert.Equal(t, types.TestStatusFail, entry.Status)
	assert.Empty(t, entry.Screenshot)
	assert.Equal(t, 1, r.Session().Len())
}

func TestRecordFailureScreenshotErrors(t *testing.T) {
	for name, driverErr := range map[string]error{
		"session closed": screenshot.NewSessionClosedError(errors.New("browser gone")),
		"other error":    errors.New("devtools timeout"),
	} {
		t.Run(name, func(t *testing.T) {
			r, _ := newTestRecorder(t, func(cfg *RecorderConfig) {
				cfg.Drivers = screenshot.NewHolder(&fakeDriver{err: driverErr})
			})

			entry := r.RecordFailure(context.Background(), loginOutcome(), testTimestamp)
			assert.Equal(t, types.TestStatusFail, entry.Status)
			assert.Empty(t, entry.Screenshot)
			assert.Equal(t, 1, r.Session().Len())
		})
	}
}

func TestRecordFailureUsesScreenshotsDir(t *testing.T) {
	shots := filepath.Join(t.TempDir(), "captures")
	r, _ := newTestRecorder(t, func(cfg *RecorderConfig) {
		cfg.ScreenshotsDir = shots
		cfg.Drivers = screenshot.NewHolder(&fakeDriver{})
	})

	entry := r.RecordFailure(context.Background(), loginOutcome(), testTimestamp)
	assert.Equal(t, "captures/loginTest - 20210704_1540.png", entry.Screenshot)
	assert.FileExists(t, filepath.Join(shots, "loginTest - 20210704_1540.png"))
}

func TestRecordSkipped(t *testing.T) {
	driver := &fakeDriver{}
	r, _ := newTestRecorder(t, func(cfg *RecorderConfig) {
		cfg.Drivers = screenshot.NewHolder(driver)
	})

	entry := r.RecordSkipped(context.Background(), types.Outcome{
		Name:      "addToCart",
		ClassName: "com.example.CartTests",
		Err:       errors.New("depends on loginTest"),
	})

	assert.Equal(t, types.TestStatusSkip, entry.Status)
	assert.Equal(t, "depends on loginTest", entry.Message)
	assert.Equal(t, "depends on loginTest", entry.Detail)
	assert.Empty(t, entry.Screenshot)
	assert.Zero(t, driver.calls)
}

func TestFinalize(t *testing.T) {
	var summary strings.Builder
	r, _ := newTestRecorder(t, func(cfg *RecorderConfig) {
		cfg.Drivers = screenshot.NewHolder(&fakeDriver{})
		cfg.Properties = properties.Map{properties.KeyReportName: "Regression"}
		cfg.Summary = &stringWriter{b: &summary}
	})

	ctx := context.Background()
	r.RecordSuccess(ctx, types.Outcome{Name: "checkout", ClassName: "com.example.CartTests"})
	r.RecordFailure(ctx, loginOutcome(), testTimestamp)
	r.RecordSkipped(ctx, types.Outcome{Name: "addToCart", ClassName: "com.example.CartTests", Err: errors.New("skipped")})

	require.NoError(t, r.Finalize(ctx))

	html, err := os.ReadFile(r.ReportPath())
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h1>Regression</h1>")
	assert.Contains(t, string(html), `src="screenshots/loginTest%20-%2020210704_1540.png"`)
	assert.FileExists(t, strings.TrimSuffix(r.ReportPath(), ".html")+".json")
	assert.Contains(t, summary.String(), "TOTAL")
}

func TestFinalizeSinkFailure(t *testing.T) {
	r, cfg := newTestRecorder(t, nil)
	r.RecordSuccess(context.Background(), types.Outcome{Name: "loginTest"})

	// Replace the report directory with a file so writing fails
	require.NoError(t, os.RemoveAll(cfg.ReportDir))
	require.NoError(t, os.WriteFile(cfg.ReportDir, []byte("x"), 0644))

	err := r.Finalize(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write report")
}

type stringWriter struct {
	b *strings.Builder
}

func (w *stringWriter) Write(content string) error {
	_, err := w.b.WriteString(content)
	return err
}
