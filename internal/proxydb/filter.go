package proxydb

import "encoding/json"

// StringFilter is a categorical attribute value with exact-or-wildcard
// match semantics. A wildcard value stored on a proxy record matches any
// concrete value asked for in a query; a concrete value matches only an
// identical concrete value. Comparison is exact, no case folding or
// trimming is applied.
type StringFilter struct {
	value    string
	wildcard bool
}

// NewStringFilter builds a concrete filter value. It never produces a
// wildcard, not even for "*"; use WildcardFilter for that.
func NewStringFilter(value string) StringFilter {
	return StringFilter{value: value}
}

// WildcardFilter builds the wildcard value that matches everything.
func WildcardFilter() StringFilter {
	return StringFilter{wildcard: true}
}

func (f StringFilter) IsWildcard() bool {
	return f.wildcard
}

// Value returns the concrete string, or "" for the wildcard.
func (f StringFilter) Value() string {
	if f.wildcard {
		return ""
	}
	return f.value
}

func (f StringFilter) String() string {
	if f.wildcard {
		return "*"
	}
	return f.value
}

// Matches reports whether this stored value accepts the given query value.
// Wildcards are a store-side concept: a stored wildcard accepts anything,
// while a stored concrete value never accepts a query-side wildcard.
func (f StringFilter) Matches(query StringFilter) bool {
	if f.wildcard {
		return true
	}
	if query.wildcard {
		return false
	}
	return f.value == query.value
}

func (f StringFilter) Equal(other StringFilter) bool {
	return f.wildcard == other.wildcard && f.value == other.value
}

func (f StringFilter) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// UnmarshalJSON always decodes into a concrete value. Query surfaces have
// no wildcard concept, so "*" arriving over the wire stays a literal.
func (f *StringFilter) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = NewStringFilter(s)
	return nil
}
