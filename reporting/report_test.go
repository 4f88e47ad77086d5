package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-reporter/types"
)

func sampleEntries() []types.Entry {
	return []types.Entry{
		{ID: "1", Name: "loginTest", ClassName: "com.example.LoginTests", Category: "Smoke", Status: types.TestStatusPass},
		{ID: "2", Name: "logoutTest", ClassName: "com.example.LoginTests", Category: "Smoke", Status: types.TestStatusFail,
			Message: "\x1b[31mexpected <true> but was <false>\x1b[0m\nmore lines", Detail: "\x1b[31mjava.lang.AssertionError\x1b[0m"},
		{ID: "3", Name: "addToCart", ClassName: "com.example.CartTests", Category: "Cart", Status: types.TestStatusSkip,
			Message: "depends on loginTest"},
		{ID: "4", Name: "checkout", ClassName: "com.example.CartTests", Status: types.TestStatusFail,
			Message: "expected <true> but was <false>"},
	}
}

func TestReportBuilderBuild(t *testing.T) {
	generated := time.Date(2021, 7, 4, 15, 45, 0, 0, time.UTC)
	started := generated.Add(-5 * time.Minute)

	rb := NewReportBuilder()
	rb.now = func() time.Time { return generated }

	meta := SessionConfig{
		ReportName: "Regression",
		Theme:      types.ThemeDark,
		SystemInfo: []types.SystemInfo{{Name: "Browser", Value: "chrome"}},
	}
	data := rb.Build(meta, "session-1", started, sampleEntries())

	assert.Equal(t, "session-1", data.SessionID)
	assert.Equal(t, types.ThemeDark, data.Theme)
	assert.Equal(t, types.DefaultViewOrder, data.Views)
	assert.Equal(t, 5*time.Minute, data.Duration)

	assert.Equal(t, ReportStats{Total: 4, Passed: 1, Failed: 2, Skipped: 1, PassRate: 25}, data.Stats)
	assert.Equal(t, "25.0", data.PassRateText)
	assert.True(t, data.HasFailures)

	// entries keep recording order and lose ANSI sequences
	require.Len(t, data.Entries, 4)
	assert.Equal(t, "loginTest", data.Entries[0].Name)
	assert.Equal(t, "expected <true> but was <false>\nmore lines", data.Entries[1].Message)
	assert.Equal(t, "java.lang.AssertionError", data.Entries[1].Detail)

	// categories sorted by name, uncategorized entries grouped
	require.Len(t, data.Categories, 3)
	assert.Equal(t, "Cart", data.Categories[0].Name)
	assert.Equal(t, "Smoke", data.Categories[1].Name)
	assert.Equal(t, 2, data.Categories[1].Stats.Total)
	assert.Equal(t, float64(50), data.Categories[1].Stats.PassRate)
	assert.Equal(t, Uncategorized, data.Categories[2].Name)

	// exceptions grouped by first message line in order of appearance
	require.Len(t, data.Exceptions, 2)
	assert.Equal(t, "expected <true> but was <false>", data.Exceptions[0].Message)
	assert.Len(t, data.Exceptions[0].Entries, 2)
	assert.Equal(t, "depends on loginTest", data.Exceptions[1].Message)
}

func TestReportBuilderEmpty(t *testing.T) {
	data := NewReportBuilder().Build(SessionConfig{}, "empty", time.Time{}, nil)

	assert.Equal(t, types.ThemeStandard, data.Theme)
	assert.Equal(t, 0, data.Stats.Total)
	assert.Equal(t, "0.0", data.PassRateText)
	assert.False(t, data.HasFailures)
	assert.Empty(t, data.Entries)
	assert.Empty(t, data.Categories)
	assert.Empty(t, data.Exceptions)
	assert.Zero(t, data.Duration)
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "a", firstLine("  a  \n b"))
	assert.Equal(t, "single", firstLine("single"))
	assert.Equal(t, "", firstLine("   "))
}
