package combin

// RolePairs enumerates 2-combinations over the concatenation of an introducer
// list and an issue list. Combinations of two entries from the same list yield
// two empty strings.
type RolePairs struct {
	items      []string
	introducer int
	gen        *Generator
}

// NewRolePairs creates an enumerator over all 2-combinations of introducers
// followed by issues.
func NewRolePairs(introducers, issues []string) (*RolePairs, error) {
	items := make([]string, 0, len(introducers)+len(issues))
	items = append(items, introducers...)
	items = append(items, issues...)

	gen, err := New(len(items), 2)
	if err != nil {
		return nil, err
	}

	return &RolePairs{items: items, introducer: len(introducers), gen: gen}, nil
}

// HasNext reports whether another combination is available.
func (p *RolePairs) HasNext() bool {
	return p.gen.HasMore()
}

// Next returns the next combination oriented as (introducer, issue), or two
// empty strings when both entries share a role.
func (p *RolePairs) Next() (introducer, issue string) {
	indices := p.gen.Next()
	if indices == nil {
		return "", ""
	}

	first, second := indices[0], indices[1]

	switch {
	case first < p.introducer && second >= p.introducer:
		return p.items[first], p.items[second]
	case second < p.introducer && first >= p.introducer:
		return p.items[second], p.items[first]
	default:
		return "", ""
	}
}

// All returns every mixed-role pair in enumeration order.
func (p *RolePairs) All() [][2]string {
	var pairs [][2]string

	for p.HasNext() {
		introducer, issue := p.Next()
		if introducer == "" && issue == "" {
			continue
		}

		pairs = append(pairs, [2]string{introducer, issue})
	}

	return pairs
}
