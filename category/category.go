// Package category resolves the report category a test method belongs to.
package category

import (
	"fmt"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/yaml.v3"
)

// Lookup returns the category tag for a test method. An empty string means
// the method is not categorized.
type Lookup interface {
	Category(className, methodName string) string
}

// LookupFunc adapts a plain function to the Lookup interface
type LookupFunc func(className, methodName string) string

// Category implements Lookup
func (f LookupFunc) Category(className, methodName string) string {
	return f(className, methodName)
}

// None never categorizes anything
var None Lookup = LookupFunc(func(string, string) string { return "" })

// Static is an in-memory lookup keyed by "class#method"
type Static struct {
	Categories map[string]string
	Fallback   string
}

// Key builds the Static lookup key for a method
func Key(className, methodName string) string {
	return className + "#" + methodName
}

// Category implements Lookup
func (s Static) Category(className, methodName string) string {
	if c, ok := s.Categories[Key(className, methodName)]; ok {
		return c
	}
	return s.Fallback
}

// Chain asks each lookup in turn and returns the first non-empty category
type Chain []Lookup

// Category implements Lookup
func (c Chain) Category(className, methodName string) string {
	for _, l := range c {
		if l == nil {
			continue
		}
		if cat := l.Category(className, methodName); cat != "" {
			return cat
		}
	}
	return ""
}

// FileConfig is the on-disk layout of a category file
type FileConfig struct {
	Default string                 `yaml:"default"`
	Classes map[string]ClassConfig `yaml:"classes"`
}

// ClassConfig holds the categories of one test class
type ClassConfig struct {
	Default string            `yaml:"default"`
	Methods map[string]string `yaml:"methods"`
}

// Registry resolves categories from a FileConfig. A method category wins over
// the class default, which wins over the global default.
type Registry struct {
	cfg FileConfig
	log log.Logger
	mu  sync.RWMutex
}

// NewRegistry creates a registry from an already parsed config
func NewRegistry(cfg FileConfig, logger log.Logger) *Registry {
	if logger == nil {
		logger = log.New()
	}
	return &Registry{cfg: cfg, log: logger}
}

// LoadRegistry reads a YAML category file
func LoadRegistry(path string, logger log.Logger) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read category file %s: %w", path, err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse category file %s: %w", path, err)
	}

	r := NewRegistry(cfg, logger)
	r.log.Debug("Category registry loaded", "path", path, "classes", len(cfg.Classes))
	return r, nil
}

// Category implements Lookup
func (r *Registry) Category(className, methodName string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if class, ok := r.cfg.Classes[className]; ok {
		if c, ok := class.Methods[methodName]; ok && c != "" {
			return c
		}
		if class.Default != "" {
			return class.Default
		}
	}
	return r.cfg.Default
}

// Set assigns a category to a single method
func (r *Registry) Set(className, methodName, category string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cfg.Classes == nil {
		r.cfg.Classes = make(map[string]ClassConfig)
	}
	class := r.cfg.Classes[className]
	if class.Methods == nil {
		class.Methods = make(map[string]string)
	}
	class.Methods[methodName] = category
	r.cfg.Classes[className] = class
}
