package store

import (
	"regexp"

	"github.com/emergent-company/omviews/internal/faults"
)

// CompileSearch compiles a search string as a case-insensitive regular expression.
func CompileSearch(searchString string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + searchString)
	if err != nil {
		return nil, faults.New(faults.InvalidParameter, "search string is not a valid regular expression", err)
	}
	return re, nil
}

// IsLiteralSearch reports whether the search string has no regex metacharacters.
func IsLiteralSearch(searchString string) bool {
	return regexp.QuoteMeta(searchString) == searchString
}

// MatchesSearch reports whether the element's qualified name or any string
// property (including strings inside slices) matches re.
func MatchesSearch(el *Element, re *regexp.Regexp) bool {
	if el == nil {
		return false
	}
	if re.MatchString(el.QualifiedName) {
		return true
	}
	for _, v := range el.Properties {
		if matchesValue(v, re) {
			return true
		}
	}
	return false
}

func matchesValue(v any, re *regexp.Regexp) bool {
	switch val := v.(type) {
	case string:
		return re.MatchString(val)
	case []any:
		for _, item := range val {
			if matchesValue(item, re) {
				return true
			}
		}
	case []string:
		for _, item := range val {
			if re.MatchString(item) {
				return true
			}
		}
	case map[string]any:
		for _, item := range val {
			if matchesValue(item, re) {
				return true
			}
		}
	}
	return false
}
