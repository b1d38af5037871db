package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"

	"github.com/Sumatoshi-tech/szz/pkg/history"
)

// BlameFile attributes every line of path as of the newest commit. Hunks that
// libgit2 cannot report are skipped, leaving their lines absent from the result.
func (r *Repository) BlameFile(newest Hash, path string) (history.Blame, error) {
	opts, err := git2go.DefaultBlameOptions()
	if err != nil {
		return nil, fmt.Errorf("get blame options: %w", err)
	}

	opts.NewestCommit = newest.ToOid()

	blame, err := r.repo.BlameFile(path, &opts)
	if err != nil {
		return nil, fmt.Errorf("blame %s@%s: %w", path, newest, err)
	}

	defer func() { _ = blame.Free() }()

	result := make(history.Blame)

	for i := range blame.HunkCount() {
		hunk, hunkErr := blame.HunkByIndex(i)
		if hunkErr != nil {
			continue
		}

		origin := HashFromOid(hunk.FinalCommitId).String()
		finalStart := int(hunk.FinalStartLineNumber) - 1
		origStart := int(hunk.OrigStartLineNumber) - 1

		for k := range int(hunk.LinesInHunk) {
			result[finalStart+k] = history.LineOrigin{Revision: origin, Line: origStart + k}
		}
	}

	return result, nil
}
