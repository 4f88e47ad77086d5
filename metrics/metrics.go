package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ethereum-optimism/infra/op-reporter/types"
)

const (
	MetricsNamespace = "reporter"
)

// Screenshot capture results
const (
	ScreenshotCaptured      = "captured"
	ScreenshotFailed        = "failed"
	ScreenshotNoDriver      = "no_driver"
	ScreenshotSessionClosed = "session_closed"
)

var (
	Debug                bool = false
	validResults              = []types.TestStatus{types.TestStatusPass, types.TestStatusFail, types.TestStatusSkip}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	entriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "entries_total",
		Help:      "Count of recorded report entries",
	}, []string{
		"status",
		"category",
	})

	screenshotsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "screenshots_total",
		Help:      "Count of screenshot capture attempts by result",
	}, []string{
		"result",
	})

	reportEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "report_entries",
		Help:      "Number of entries in the last flushed report",
	}, []string{
		"report",
		"status",
	})

	reportFlushDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "report_flush_duration_seconds",
		Help:      "Time spent writing the last report",
	}, []string{
		"report",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

func RecordEntry(status types.TestStatus, category string) {
	if !isValidResult(status) {
		log.Error("RecordEntry - invalid status", "status", status)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "entries_total",
			"status", status,
			"category", category)
	}
	entriesTotal.WithLabelValues(string(status), category).Inc()
}

func RecordScreenshot(result string) {
	screenshotsTotal.WithLabelValues(result).Inc()
}

func RecordReport(report string, passed, failed, skipped int, duration time.Duration) {
	reportEntries.WithLabelValues(report, string(types.TestStatusPass)).Set(float64(passed))
	reportEntries.WithLabelValues(report, string(types.TestStatusFail)).Set(float64(failed))
	reportEntries.WithLabelValues(report, string(types.TestStatusSkip)).Set(float64(skipped))
	reportFlushDuration.WithLabelValues(report).Set(duration.Seconds())
}

func isValidResult(result types.TestStatus) bool {
	return slices.Contains(validResults, result)
}
