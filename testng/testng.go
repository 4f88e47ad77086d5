// Package testng reads TestNG result files so a report can be generated from
// the artifacts of a finished run.
package testng

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum-optimism/infra/op-reporter/category"
	"github.com/ethereum-optimism/infra/op-reporter/types"
)

// DefaultFileName is the file TestNG writes its results to
const DefaultFileName = "testng-results.xml"

// Results represents the structure of a testng-results.xml file
type Results struct {
	XMLName xml.Name `xml:"testng-results"`
	Total   int      `xml:"total,attr"`
	Passed  int      `xml:"passed,attr"`
	Failed  int      `xml:"failed,attr"`
	Skipped int      `xml:"skipped,attr"`
	Suites  []Suite  `xml:"suite"`
}

// Suite represents a TestNG suite
type Suite struct {
	Name       string  `xml:"name,attr"`
	DurationMS string  `xml:"duration-ms,attr"`
	StartedAt  string  `xml:"started-at,attr"`
	FinishedAt string  `xml:"finished-at,attr"`
	Groups     []Group `xml:"groups>group"`
	Tests      []Test  `xml:"test"`
}

// Group represents a TestNG group
type Group struct {
	Name    string        `xml:"name,attr"`
	Methods []GroupMethod `xml:"method"`
}

// GroupMethod is a method belonging to a group
type GroupMethod struct {
	Name      string `xml:"name,attr"`
	Signature string `xml:"signature,attr"`
	ClassName string `xml:"class,attr"`
}

// Test represents a <test> block of a suite
type Test struct {
	Name    string  `xml:"name,attr"`
	Classes []Class `xml:"class"`
}

// Class represents a TestNG class
type Class struct {
	Name    string   `xml:"name,attr"`
	Methods []Method `xml:"test-method"`
}

// Method represents a TestNG test or configuration method
type Method struct {
	Name        string     `xml:"name,attr"`
	Signature   string     `xml:"signature,attr"`
	Status      string     `xml:"status,attr"`
	DurationMS  string     `xml:"duration-ms,attr"`
	StartedAt   string     `xml:"started-at,attr"`
	FinishedAt  string     `xml:"finished-at,attr"`
	IsConfig    bool       `xml:"is-config,attr"`
	Description string     `xml:"description,attr"`
	Exception   *Exception `xml:"exception"`
}

// Exception holds the throwable reported for a method
type Exception struct {
	Class           string `xml:"class,attr"`
	Message         string `xml:"message"`
	FullStacktrace  string `xml:"full-stacktrace"`
	ShortStacktrace string `xml:"short-stacktrace"`
}

// Record is a single test method outcome taken from a result file
type Record struct {
	Outcome types.Outcome
	Status  types.TestStatus
	Suite   string
	Test    string
}

// timeLayouts are the started-at/finished-at formats written by TestNG versions
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05 MST",
	"2006-01-02T15:04:05.000 MST",
}

// Parse decodes a testng-results document
func Parse(r io.Reader) (*Results, error) {
	var results Results
	if err := xml.NewDecoder(r).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode TestNG results: %w", err)
	}
	return &results, nil
}

// ParseFile decodes the testng-results file at path
func ParseFile(path string) (*Results, error) {
	if path == "" {
		return nil, errors.New("TestNG results path is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open TestNG results: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Records returns the outcomes of every test method in document order.
// Configuration methods (@BeforeMethod and friends) are left out.
func (r *Results) Records() ([]Record, error) {
	var records []Record
	for _, suite := range r.Suites {
		for _, test := range suite.Tests {
			for _, class := range test.Classes {
				for _, method := range class.Methods {
					if method.IsConfig {
						continue
					}
					status, err := ParseStatus(method.Status)
					if err != nil {
						return nil, fmt.Errorf("%s.%s: %w", class.Name, method.Name, err)
					}
					records = append(records, Record{
						Outcome: method.outcome(class.Name),
						Status:  status,
						Suite:   suite.Name,
						Test:    test.Name,
					})
				}
			}
		}
	}
	return records, nil
}

// GroupLookup maps every grouped method to the first group it appears in
func (r *Results) GroupLookup() category.Lookup {
	static := category.Static{Categories: make(map[string]string)}
	for _, suite := range r.Suites {
		for _, group := range suite.Groups {
			for _, m := range group.Methods {
				key := category.Key(m.ClassName, m.Name)
				if _, ok := static.Categories[key]; !ok {
					static.Categories[key] = group.Name
				}
			}
		}
	}
	return static
}

// ParseStatus converts a TestNG status attribute to a TestStatus
func ParseStatus(s string) (types.TestStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PASS":
		return types.TestStatusPass, nil
	case "FAIL":
		return types.TestStatusFail, nil
	case "SKIP":
		return types.TestStatusSkip, nil
	default:
		return "", fmt.Errorf("unknown test status %q", s)
	}
}

func (m Method) outcome(className string) types.Outcome {
	o := types.Outcome{
		Name:        m.Name,
		ClassName:   className,
		Description: m.Description,
	}

	o.StartTime = parseTime(m.StartedAt)
	o.EndTime = parseTime(m.FinishedAt)
	if o.EndTime.IsZero() && !o.StartTime.IsZero() {
		if ms, err := strconv.ParseInt(m.DurationMS, 10, 64); err == nil {
			o.EndTime = o.StartTime.Add(time.Duration(ms) * time.Millisecond)
		}
	}

	if m.Exception != nil {
		msg := strings.TrimSpace(m.Exception.Message)
		if msg == "" {
			msg = m.Exception.Class
		}
		if msg != "" {
			o.Err = errors.New(msg)
		}
		o.Stack = strings.TrimSpace(m.Exception.FullStacktrace)
		if o.Stack == "" {
			o.Stack = strings.TrimSpace(m.Exception.ShortStacktrace)
		}
	}
	return o
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
