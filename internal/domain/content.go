package domain

import "fmt"

// SourceType identifies where a content item originated.
type SourceType string

// The closed set of content origins.
const (
	SourceRepository SourceType = "repository"
	SourceFeed       SourceType = "feed"
	SourceManual     SourceType = "manual"
	SourceImport     SourceType = "import"
	SourceWeb        SourceType = "web"
)

// SourceTypes lists all valid source types in declaration order.
func SourceTypes() []SourceType {
	return []SourceType{SourceRepository, SourceFeed, SourceManual, SourceImport, SourceWeb}
}

// IsValid reports whether t is a member of the closed source-type set.
func (t SourceType) IsValid() bool {
	switch t {
	case SourceRepository, SourceFeed, SourceManual, SourceImport, SourceWeb:
		return true
	}
	return false
}

// ParseSourceType validates a raw string against the closed source-type set.
func ParseSourceType(s string) (SourceType, error) {
	t := SourceType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("parse source type %q: %w", s, ErrInvalidParameters)
	}
	return t, nil
}
