package options

// OrganizeOptions configures one intake run
type OrganizeOptions struct {
	ArchiveRoot string // Archive root holding the dropbox, subtrees and index
	DryRun      bool   // Preview operations without executing
}

// ReconcileOptions configures one index rebuild
type ReconcileOptions struct {
	ArchiveRoot string // Archive root whose photo and video subtrees are rehashed
	DryRun      bool   // Write the rebuilt index to the side file instead
}

// MoveOptions configures file move operations
type MoveOptions struct {
	DryRun bool // Preview operations without executing
}

// DeleteOptions configures file deletion operations
type DeleteOptions struct {
	DryRun bool // Preview operations without executing
}

// ScanOptions configures directory enumeration
type ScanOptions struct {
	ExcludeMarkers []string // Path elements that exclude an entry and everything below it
	IgnoreFile     string   // Gitignore-style file read from the scanned root ("" disables)
}
