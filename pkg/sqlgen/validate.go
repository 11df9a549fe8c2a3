package sqlgen

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var identifierRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// ValidateIdentifier ensures an identifier contains only characters safe to
// interpolate into SQL. fieldName labels the identifier in error messages.
func ValidateIdentifier(name, fieldName string) error {
	if name == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrInvalidIdentifier, fieldName)
	}
	if !identifierRegex.MatchString(name) {
		return fmt.Errorf("%w: %s must start with a letter and contain only letters, numbers, and underscores (got: %s)", ErrInvalidIdentifier, fieldName, name)
	}
	return nil
}

// ValidateColumnCompatibility checks that a column list can be copied from a
// source table into a target table: every source column must exist in the
// target. In strict mode the reverse must hold as well. Returns the
// human-readable problems found, empty when compatible.
func ValidateColumnCompatibility(source, target []string, strict bool) []string {
	sourceSet := toSet(source)
	targetSet := toSet(target)

	var problems []string
	if missing := diff(sourceSet, targetSet); len(missing) > 0 {
		problems = append(problems, fmt.Sprintf("columns missing in target table: %s", strings.Join(missing, ", ")))
	}
	if strict {
		if missing := diff(targetSet, sourceSet); len(missing) > 0 {
			problems = append(problems, fmt.Sprintf("columns missing in source table: %s", strings.Join(missing, ", ")))
		}
	}
	return problems
}

func toSet(cols []string) map[string]bool {
	set := make(map[string]bool, len(cols))
	for _, c := range cols {
		set[c] = true
	}
	return set
}

func diff(a, b map[string]bool) []string {
	var out []string
	for k := range a {
		if !b[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
