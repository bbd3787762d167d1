package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// FilterOp is a comparison applied to a chunk metadata value.
type FilterOp string

// Supported filter operations.
const (
	FilterEq  FilterOp = "eq"
	FilterNe  FilterOp = "ne"
	FilterGt  FilterOp = "gt"
	FilterGte FilterOp = "gte"
	FilterLt  FilterOp = "lt"
	FilterLte FilterOp = "lte"
)

// IsValid returns true if the operation is recognised.
func (op FilterOp) IsValid() bool {
	switch op {
	case FilterEq, FilterNe, FilterGt, FilterGte, FilterLt, FilterLte:
		return true
	default:
		return false
	}
}

// Symbol returns the operator as written in a filter expression.
func (op FilterOp) Symbol() string {
	switch op {
	case FilterEq:
		return "="
	case FilterNe:
		return "!="
	case FilterGt:
		return ">"
	case FilterGte:
		return ">="
	case FilterLt:
		return "<"
	case FilterLte:
		return "<="
	default:
		return string(op)
	}
}

// Filter is a predicate on a single chunk metadata field.
// Values are compared numerically when both sides parse as numbers,
// lexically otherwise, so ISO dates order correctly.
type Filter struct {
	Field string
	Op    FilterOp
	Value string
}

// String renders the filter as an expression, e.g. "year>=2020".
func (f Filter) String() string {
	return f.Field + f.Op.Symbol() + f.Value
}

// Validate checks the filter is well formed.
func (f Filter) Validate() error {
	if f.Field == "" {
		return fmt.Errorf("%w: filter field is empty", ErrInvalidInput)
	}
	if !f.Op.IsValid() {
		return fmt.Errorf("%w: unknown filter op %q", ErrInvalidInput, f.Op)
	}
	return nil
}

// Match reports whether metadata satisfies the filter.
// A missing field only satisfies FilterNe.
func (f Filter) Match(metadata map[string]string) bool {
	actual, ok := metadata[f.Field]
	if !ok {
		return f.Op == FilterNe
	}

	cmp := compareValues(actual, f.Value)
	switch f.Op {
	case FilterEq:
		return cmp == 0
	case FilterNe:
		return cmp != 0
	case FilterGt:
		return cmp > 0
	case FilterGte:
		return cmp >= 0
	case FilterLt:
		return cmp < 0
	case FilterLte:
		return cmp <= 0
	default:
		return false
	}
}

// MatchAll reports whether metadata satisfies every filter.
func MatchAll(filters []Filter, metadata map[string]string) bool {
	for _, f := range filters {
		if !f.Match(metadata) {
			return false
		}
	}
	return true
}

func compareValues(a, b string) int {
	af, aErr := strconv.ParseFloat(a, 64)
	bf, bErr := strconv.ParseFloat(b, 64)
	if aErr == nil && bErr == nil {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}

// filterSymbols is ordered so two-character operators match first.
var filterSymbols = []struct {
	symbol string
	op     FilterOp
}{
	{">=", FilterGte},
	{"<=", FilterLte},
	{"!=", FilterNe},
	{">", FilterGt},
	{"<", FilterLt},
	{"=", FilterEq},
}

// ParseFilter parses an expression such as "lang=en" or "year>=2020".
func ParseFilter(expr string) (Filter, error) {
	for _, s := range filterSymbols {
		idx := strings.Index(expr, s.symbol)
		if idx <= 0 {
			continue
		}
		f := Filter{
			Field: strings.TrimSpace(expr[:idx]),
			Op:    s.op,
			Value: strings.TrimSpace(expr[idx+len(s.symbol):]),
		}
		return f, f.Validate()
	}
	return Filter{}, fmt.Errorf("%w: cannot parse filter %q", ErrInvalidInput, expr)
}
