package scenario

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lu-w/stars-logic-mtcq/internal/convert"
)

// ErrUnknownType is returned for a type name missing from Types.
var ErrUnknownType = errors.New("unknown scenario type")

// TypeSet resolves type names against Types.
func TypeSet(names []string) (convert.TypeSet, error) {
	set := convert.TypeSet{}
	for _, name := range names {
		t, ok := Types[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownType, name, strings.Join(TypeNames(), ", "))
		}
		set.Add(t)
	}
	return set, nil
}

// TypeNames lists the registered names, sorted.
func TypeNames() []string {
	names := make([]string, 0, len(Types))
	for name := range Types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
