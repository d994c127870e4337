package logsink

import (
	"maps"
	"strings"

	"github.com/rs/zerolog"
)

// ModuleFilter is the static module allow/deny list. It is captured once at
// Initialize and re-applied to every Specification built afterwards.
type ModuleFilter struct {
	// Suppress lists modules whose records are never emitted.
	Suppress []string
	// Cap maps a module to the most verbose level it may emit at. A cap never
	// makes a module more verbose than the default level.
	Cap map[string]zerolog.Level
}

// DefaultModuleFilter silences chatty transport libraries.
var DefaultModuleFilter = ModuleFilter{
	Suppress: []string{"webview", "websocket"},
	Cap:      map[string]zerolog.Level{"transport": zerolog.WarnLevel},
}

func (f ModuleFilter) clone() ModuleFilter {
	return ModuleFilter{
		Suppress: append([]string(nil), f.Suppress...),
		Cap:      maps.Clone(f.Cap),
	}
}

// Specification is an immutable default level plus per-module overrides.
// A new one is built for every level change; it is never mutated.
type Specification struct {
	def       zerolog.Level
	overrides map[string]zerolog.Level
}

// NewSpecification builds the specification for def with f's rules applied.
func NewSpecification(def zerolog.Level, f ModuleFilter) *Specification {
	overrides := make(map[string]zerolog.Level, len(f.Cap)+len(f.Suppress))
	for module, capLevel := range f.Cap {
		overrides[module] = max(capLevel, def)
	}
	for _, module := range f.Suppress {
		overrides[module] = zerolog.Disabled
	}
	return &Specification{def: def, overrides: overrides}
}

// Default returns the level applied to modules without an override.
func (s *Specification) Default() zerolog.Level {
	return s.def
}

// LevelFor returns the threshold for module. The longest override matching
// the module or one of its parents ("a/b", "a.b", "a::b") wins.
func (s *Specification) LevelFor(module string) zerolog.Level {
	for name := module; name != emptyString; name = parentModule(name) {
		if l, ok := s.overrides[name]; ok {
			return l
		}
	}
	return s.def
}

// Enabled reports whether a record from module at level passes.
func (s *Specification) Enabled(module string, level zerolog.Level) bool {
	threshold := s.LevelFor(module)
	return threshold != zerolog.Disabled && level != zerolog.Disabled && level >= threshold
}

func parentModule(name string) string {
	i := strings.LastIndexAny(name, "/.:")
	if i < 0 {
		return emptyString
	}
	return strings.TrimRight(name[:i], "/.:")
}
