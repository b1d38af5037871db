// Package heuristics turns annotation graphs into (fix, introducer) pairs.
package heuristics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Sumatoshi-tech/szz/pkg/annotation"
	"github.com/Sumatoshi-tech/szz/pkg/difflines"
	"github.com/Sumatoshi-tech/szz/pkg/history"
	"github.com/Sumatoshi-tech/szz/pkg/issues"
)

// DefaultPartialFixPattern marks a commit message as a partial fix.
const DefaultPartialFixPattern = "fix"

// Sentinel errors.
var (
	ErrUnknownKind    = errors.New("unknown bug finder")
	ErrInvalidPattern = errors.New("invalid partial fix pattern")
	ErrMissingDep     = errors.New("missing bug finder dependency")
)

// Kind selects a heuristic.
type Kind int

const (
	// Simple uses issue timestamps and partial-fix messages.
	Simple Kind = iota
	// Distance uses textual similarity of traced lines.
	Distance
)

// String returns the configuration name of the kind.
func (k Kind) String() string {
	switch k {
	case Simple:
		return "simple"
	case Distance:
		return "distance"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses "simple" or "distance", ignoring case.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "simple":
		return Simple, nil
	case "distance":
		return Distance, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
}

// Pair links a fix revision to a revision suspected of introducing the bug.
type Pair struct {
	Fix        string
	Introducer string
}

// MarshalJSON encodes the pair as [fix, introducer].
func (p Pair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{p.Fix, p.Introducer})
}

// UnmarshalJSON decodes a [fix, introducer] array.
func (p *Pair) UnmarshalJSON(data []byte) error {
	var raw [2]string

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}

	p.Fix, p.Introducer = raw[0], raw[1]

	return nil
}

// Finder finds bug-introducing revisions. Implementations never modify graphs.
type Finder interface {
	FindIntroducers(ctx context.Context, graphs annotation.Map) ([]Pair, error)
}

// Deps are the read-only collaborators a finder consults.
type Deps struct {
	Repo   history.Repository
	Differ *difflines.Differ
	Issues *issues.Store
	Logger *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}

	return d.Logger
}

// Options tune the heuristics.
type Options struct {
	// Depth is how many graph levels the simple heuristic unfolds.
	Depth int
	// PartialFixPattern is matched against candidate introducer messages.
	PartialFixPattern string
}

// New creates the finder selected by kind.
func New(kind Kind, deps Deps, opts Options) (Finder, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("%w: repository", ErrMissingDep)
	}

	switch kind {
	case Simple:
		if deps.Issues == nil {
			return nil, fmt.Errorf("%w: issue store", ErrMissingDep)
		}

		return NewSimpleFinder(deps, opts)
	case Distance:
		if deps.Differ == nil {
			return nil, fmt.Errorf("%w: differ", ErrMissingDep)
		}

		return NewDistanceFinder(deps), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}

// revisions memoizes resolved revisions for the duration of one search.
type revisions struct {
	repo  history.Repository
	cache map[string]*history.Revision
}

func newRevisions(repo history.Repository) *revisions {
	return &revisions{repo: repo, cache: make(map[string]*history.Revision)}
}

// resolve returns the revision for ref, or false when it cannot be resolved.
func (r *revisions) resolve(ctx context.Context, ref string) (history.Revision, bool) {
	if rev, ok := r.cache[ref]; ok {
		if rev == nil {
			return history.Revision{}, false
		}

		return *rev, true
	}

	rev, err := r.repo.Resolve(ctx, ref)
	if err != nil {
		r.cache[ref] = nil

		return history.Revision{}, false
	}

	r.cache[ref] = &rev

	return rev, true
}
