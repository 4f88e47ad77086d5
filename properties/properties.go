// Package properties reads the descriptive report settings (theme, titles,
// system information) from a property file.
package properties

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/magiconair/properties"
	"gopkg.in/yaml.v3"
)

// Well-known property keys
const (
	KeyTheme           = "extent_reporter_theme"
	KeyDocumentTitle   = "extent_document_title"
	KeyReportName      = "extent_reporter_name"
	KeyApplicationName = "application_name"
	KeyEnvironment     = "environment"
	KeyBrowser         = "browser"
	KeyOperatingSystem = "operating_system"
	KeyTestDeveloper   = "test_developer"
)

// aliases lists shorter spellings accepted for a key. The canonical key wins
// when both are set.
var aliases = map[string][]string{
	KeyTheme:         {"report_theme"},
	KeyDocumentTitle: {"report_document_title"},
	KeyReportName:    {"report_name"},
}

// Source provides property values by key
type Source interface {
	Property(key string) (string, error)
}

// MissingPropertyError is returned when a key is not present in a Source
type MissingPropertyError struct {
	Key string
}

func (e *MissingPropertyError) Error() string {
	return fmt.Sprintf("property %q is not set", e.Key)
}

// IsMissingProperty checks if the error is or wraps a MissingPropertyError
func IsMissingProperty(err error) bool {
	var missing *MissingPropertyError
	return err != nil && errors.As(err, &missing)
}

// Map is an in-memory Source
type Map map[string]string

// Property implements Source
func (m Map) Property(key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", &MissingPropertyError{Key: key}
	}
	return v, nil
}

// Resolve reads key from src, falling back to its aliases. When neither is set
// the MissingPropertyError names the canonical key.
func Resolve(src Source, key string) (string, error) {
	v, err := src.Property(key)
	if err == nil || !IsMissingProperty(err) {
		return v, err
	}
	for _, alias := range aliases[key] {
		v, aliasErr := src.Property(alias)
		if aliasErr == nil {
			return v, nil
		}
		if !IsMissingProperty(aliasErr) {
			return "", aliasErr
		}
	}
	return "", err
}

// Load reads a property file. The format is chosen by extension:
// .properties, .yaml/.yml or .toml.
func Load(path string) (Map, error) {
	if path == "" {
		return nil, errors.New("property file path is required")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to stat property file %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".properties":
		return loadJavaProperties(path)
	case ".yaml", ".yml":
		return loadYAML(path)
	case ".toml":
		return loadTOML(path)
	default:
		return nil, fmt.Errorf("unsupported property file extension %q", ext)
	}
}

func loadJavaProperties(path string) (Map, error) {
	p, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return nil, fmt.Errorf("failed to load properties %s: %w", path, err)
	}
	return Map(p.Map()), nil
}

func loadYAML(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	raw := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML properties %s: %w", path, err)
	}
	return flatten(raw)
}

func loadTOML(path string) (Map, error) {
	raw := make(map[string]interface{})
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse TOML properties %s: %w", path, err)
	}
	return flatten(raw)
}

// flatten keeps scalar top-level values; nested tables are rejected so that
// a typo in the file does not silently drop settings.
func flatten(raw map[string]interface{}) (Map, error) {
	m := make(Map, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			m[k] = ""
		case string:
			m[k] = val
		case bool, int, int64, float64:
			m[k] = fmt.Sprint(val)
		default:
			return nil, fmt.Errorf("property %q must be a scalar value, got %T", k, v)
		}
	}
	return m, nil
}
