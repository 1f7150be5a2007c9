package registry

import (
	"fmt"
	"strings"
)

// ConfigError reports malformed facility or traffic-pattern reference data.
// It is fatal: no generation may start with bad reference data.
type ConfigError struct {
	Source   string
	Problems []string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("invalid %s configuration: %s", e.Source, strings.Join(e.Problems, "; "))
}

func (e *ConfigError) addf(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// Add records a problem. It is exported for other reference-data loaders.
func (e *ConfigError) Add(format string, args ...any) {
	e.addf(format, args...)
}

// HasProblems reports whether any problem was recorded.
func (e *ConfigError) HasProblems() bool {
	return e != nil && len(e.Problems) > 0
}
