// Package featureflag toggles placement behaviors at startup.
package featureflag

import (
	"maps"
	"slices"
	"strings"
)

// FeatureFlag is a lookup map of the enabled features.
type FeatureFlag map[Flag]struct{}

// New returns feature flags initialized with a list of flags. Flags are
// trimmed and upper cased, and empty ones are ignored.
func New(flags []string) FeatureFlag {
	featureFlag := make(FeatureFlag)
	for _, f := range flags {
		f = strings.ToUpper(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		featureFlag[Flag(f)] = struct{}{}
	}
	return featureFlag
}

// Enabled reports whether a flag is set.
func (f FeatureFlag) Enabled(flag Flag) bool {
	_, ok := f[flag]
	return ok
}

// IfSet runs do if the flag is set.
func (f FeatureFlag) IfSet(flag Flag, do func()) {
	if f.Enabled(flag) {
		do()
	}
}

// IfNotSet runs do if the flag is not set.
func (f FeatureFlag) IfNotSet(flag Flag, do func()) {
	if !f.Enabled(flag) {
		do()
	}
}

// Flags returns the enabled flags in alphabetical order.
func (f FeatureFlag) Flags() []Flag {
	return slices.Sorted(maps.Keys(f))
}
