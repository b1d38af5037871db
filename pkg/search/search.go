// Package search finds bug-fixing revisions by matching commit messages
// against an issue key pattern, and turns them into an issue file skeleton.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"time"

	"github.com/Sumatoshi-tech/szz/pkg/history"
	"github.com/Sumatoshi-tech/szz/pkg/issues"
)

// DefaultPattern matches Jenkins issue keys.
const DefaultPattern = `JENKINS\-[0-9]`

// Sentinel errors.
var (
	ErrInvalidPattern    = errors.New("invalid search pattern")
	ErrInvalidTimeFormat = errors.New("cannot parse time")
)

// skipPattern marks revisions that mention an issue without fixing it.
var skipPattern = regexp.MustCompile(`[Mm]erge|[Cc]herry|[Nn]oting`)

// Options configures a Searcher.
type Options struct {
	// Pattern is matched against full commit messages. Empty means DefaultPattern.
	Pattern string
	// Since drops revisions committed before it. Zero keeps all.
	Since time.Time
	// Limit stops the walk after that many matching revisions. Zero is unlimited.
	Limit int
}

// Match is one revision mentioning an issue key.
type Match struct {
	Key      string
	Revision history.Revision
}

// Searcher walks a repository history looking for bug-fixing revisions.
type Searcher struct {
	walker  history.Walker
	pattern *regexp.Regexp
	since   time.Time
	limit   int
	logger  *slog.Logger
}

// New creates a searcher over walker.
func New(walker history.Walker, opts Options, logger *slog.Logger) (*Searcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pattern := opts.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}

	re, err := regexp.Compile("(?s)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}

	return &Searcher{walker: walker, pattern: re, since: opts.Since, limit: opts.Limit, logger: logger}, nil
}

// Find returns every (key, revision) match in walk order, newest first.
// A revision naming several issues yields one match per distinct key.
func (s *Searcher) Find(ctx context.Context) ([]Match, error) {
	var (
		found    []Match
		visited  int
		revCount int
	)

	err := s.walker.Walk(ctx, func(rev history.Revision) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		visited++

		if !s.since.IsZero() && rev.When.Before(s.since) {
			return nil
		}

		keys := s.keys(rev.Message)
		if len(keys) == 0 {
			return nil
		}

		for _, key := range keys {
			found = append(found, Match{Key: key, Revision: rev})
		}

		revCount++
		if s.limit > 0 && revCount >= s.limit {
			return history.ErrStopWalk
		}

		return nil
	})
	if err != nil {
		return found, fmt.Errorf("walk history: %w", err)
	}

	s.logger.DebugContext(ctx, "search done", "visited", visited, "revisions", revCount, "matches", len(found))

	return found, nil
}

// keys returns the distinct issue keys of message in order of appearance.
// A match is extended over trailing digits so "JENKINS\-[0-9]" yields whole keys.
func (s *Searcher) keys(message string) []string {
	var keys []string

	for _, loc := range s.pattern.FindAllStringIndex(message, -1) {
		end := loc[1]
		for end < len(message) && message[end] >= '0' && message[end] <= '9' {
			end++
		}

		key := message[loc[0]:end]
		if !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}

	return keys
}

// Select picks one fix revision per key. Matches are expected newest first;
// the newest revision that is not a merge, cherry-pick or note wins, falling
// back to the newest one.
func Select(matches []Match) map[string]history.Revision {
	byKey := make(map[string][]history.Revision)

	var order []string

	for _, m := range matches {
		if _, ok := byKey[m.Key]; !ok {
			order = append(order, m.Key)
		}

		byKey[m.Key] = append(byKey[m.Key], m.Revision)
	}

	selected := make(map[string]history.Revision, len(order))

	for _, key := range order {
		revs := byKey[key]
		selected[key] = revs[0]

		for _, rev := range revs {
			if !skipPattern.MatchString(rev.Message) {
				selected[key] = rev

				break
			}
		}
	}

	return selected
}

// IssueFile builds an issue file skeleton from the selected fixes. Only hash
// and commit date are known; creation dates must be filled in from the tracker.
func IssueFile(selected map[string]history.Revision) issues.File {
	file := make(issues.File, len(selected))

	for key, rev := range selected {
		file[key] = issues.Entry{
			Hash:       rev.ID,
			CommitDate: rev.When.Format(issues.DateLayout),
		}
	}

	return file
}

// ParseSince parses a lower time bound: a duration back from now ("720h"),
// an RFC 3339 timestamp or a plain date.
func ParseSince(value string, now time.Time) (time.Time, error) {
	if d, err := time.ParseDuration(value); err == nil {
		return now.Add(-d), nil
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}

	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidTimeFormat, value)
}
