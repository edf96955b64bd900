// internal/host/host.go
package host

import "github.com/qosmio/gitsigns/internal/hunk"

// DocID identifies one open document in the host.
type DocID string

// Source is what the pipeline consumes from the host's document model.
type Source interface {
	// SnapshotLines returns the document's current text. ok is false
	// when the document is no longer open.
	SnapshotLines(id DocID) (lines []string, ok bool)

	// IsOpen reports whether the document still exists. Every
	// post-suspension step re-validates through this.
	IsOpen(id DocID) bool

	// Rename migrates the document's file identity after a rename is
	// confirmed in the index.
	Rename(id DocID, newPath string) error
}

// Sink receives the pipeline's published events. Rendering is the
// host's concern; the pipeline only emits.
type Sink interface {
	HunksChanged(id DocID, hunks []hunk.Hunk)
	Summary(id DocID, summary hunk.Summary)
	FileIdentityChanged(id DocID, newPath string)
}
