package sequence

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// CamelotKey is a position on the Camelot wheel: 1-12 combined with
// mode A (minor) or B (major).
type CamelotKey struct {
	Position int
	Mode     byte // 'A' or 'B'
}

var camelotRe = regexp.MustCompile(`^([1-9]|1[0-2])([AB])$`)

// ParseCamelotKey parses a key string like "8A" or "12b".
func ParseCamelotKey(s string) (*CamelotKey, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	m := camelotRe.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("invalid camelot key %q", s)
	}

	pos, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, fmt.Errorf("invalid camelot position %q", m[1])
	}

	return &CamelotKey{Position: pos, Mode: m[2][0]}, nil
}

// String returns the canonical form, e.g. "8A".
func (k *CamelotKey) String() string {
	if k == nil {
		return "?"
	}
	return fmt.Sprintf("%d%c", k.Position, k.Mode)
}

// WheelDistance returns the circular distance between two wheel positions
// (0-6), wrapping at the 12/1 boundary.
func WheelDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if d > 6 {
		d = 12 - d
	}
	return d
}

// Compatible reports whether mixing from k into other is a documented
// harmonic move: same position (including a mode switch like 8A-8B), or an
// adjacent position in the same mode.
func (k *CamelotKey) Compatible(other *CamelotKey) bool {
	if k == nil || other == nil {
		return false
	}
	if k.Position == other.Position {
		return true
	}
	return k.Mode == other.Mode && WheelDistance(k.Position, other.Position) == 1
}
