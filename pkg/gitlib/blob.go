package gitlib

import (
	git2go "github.com/libgit2/git2go/v34"
	"github.com/src-d/enry/v2"

	"github.com/Sumatoshi-tech/szz/pkg/history"
)

// Blob wraps a libgit2 blob.
type Blob struct {
	blob *git2go.Blob
}

// Hash returns the blob hash.
func (b *Blob) Hash() Hash {
	return HashFromOid(b.blob.Id())
}

// Contents returns the blob contents.
func (b *Blob) Contents() []byte {
	return b.blob.Contents()
}

// IsBinary reports whether the blob holds binary data.
func (b *Blob) IsBinary() bool {
	return enry.IsBinary(b.blob.Contents())
}

// Lines splits the blob contents into text lines.
func (b *Blob) Lines() []string {
	return history.SplitLines(b.blob.Contents())
}

// Free releases the blob resources.
func (b *Blob) Free() {
	if b.blob != nil {
		b.blob.Free()
		b.blob = nil
	}
}
