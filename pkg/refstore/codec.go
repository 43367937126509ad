package refstore

import (
	"errors"
	"strings"
)

// Codec maps a tag type to and from the string encoding used by
// filesystem- and SQL-backed stores. Memory-backed stores need no codec
// since Go maps key directly on T.
type Codec[T comparable] interface {
	Encode(T) string
	Decode(string) (T, error)
}

// StringCodec is the identity codec for string tags (the common case:
// branch names), grounded on microprolly/pkg/branch's refs/heads/<name>
// layout.
type StringCodec struct{}

var ErrInvalidTagName = errors.New("refstore: invalid tag name")

// invalidTagChars mirrors microprolly/pkg/branch/validate.go's Git-like
// ref-name restrictions.
var invalidTagChars = []rune{' ', '~', '^', ':', '?', '*', '[', '\\'}

func (StringCodec) Encode(t string) string { return t }

func (StringCodec) Decode(s string) (string, error) {
	if err := ValidateTagName(s); err != nil {
		return "", err
	}
	return s, nil
}

// ValidateTagName rejects tag names that cannot round-trip through a
// path-segment or SQL-text encoding, or that collide with the reserved
// HEAD name (spec §4.6's distinguished names are case-sensitive strings
// and share this constraint across backends).
func ValidateTagName(name string) error {
	if name == "" {
		return ErrInvalidTagName
	}
	if name == "HEAD" {
		return ErrInvalidTagName
	}
	if strings.HasPrefix(name, "-") || strings.HasPrefix(name, ".") {
		return ErrInvalidTagName
	}
	if strings.HasSuffix(name, ".lock") {
		return ErrInvalidTagName
	}
	if strings.Contains(name, "..") || strings.Contains(name, "//") {
		return ErrInvalidTagName
	}
	for _, c := range invalidTagChars {
		if strings.ContainsRune(name, c) {
			return ErrInvalidTagName
		}
	}
	return nil
}
