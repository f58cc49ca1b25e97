package keying

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Target names a property to key. A nil Index keys every array element.
type Target struct {
	Path  string
	Index *int
}

// WholeArray targets every element of path.
func WholeArray(path string) Target {
	return Target{Path: path}
}

// Element targets one array element of path.
func Element(path string, index int) Target {
	return Target{Path: path, Index: &index}
}

// ParseTarget parses "path" or "path[index]". The path is NFC normalized.
func ParseTarget(s string) (Target, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Target{}, fmt.Errorf("empty target")
	}
	if !strings.HasSuffix(s, "]") {
		return WholeArray(norm.NFC.String(s)), nil
	}

	open := strings.LastIndexByte(s, '[')
	if open <= 0 {
		return Target{}, fmt.Errorf("malformed target %q", s)
	}
	idx, err := strconv.Atoi(s[open+1 : len(s)-1])
	if err != nil || idx < 0 {
		return Target{}, fmt.Errorf("malformed index in target %q", s)
	}
	return Element(norm.NFC.String(s[:open]), idx), nil
}

func (t Target) String() string {
	if t.Index == nil {
		return t.Path
	}
	return fmt.Sprintf("%s[%d]", t.Path, *t.Index)
}

// index returns the element index, -1 for a whole-array target.
func (t Target) index() int {
	if t.Index == nil {
		return -1
	}
	return *t.Index
}
