package output

import (
	"fmt"
	"io"
	"time"

	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/types"
)

// WriteOrganizeSummary prints the counters and failures of an intake run.
func WriteOrganizeSummary(w io.Writer, res *types.OrganizeResult) {
	prefix := ""
	if res.DryRun {
		prefix = "DRY RUN: "
	}
	fmt.Fprintf(w, "%smoved %d, removed %d, skipped %d, failed %d (%s)\n",
		prefix,
		res.Counters.Moved,
		res.Counters.Removed,
		len(res.Filter(types.StateSkipped)),
		len(res.Failures()),
		res.Duration.Round(time.Millisecond),
	)
	for _, o := range res.Failures() {
		fmt.Fprintf(w, "  failed: %s: %v\n", o.Path, o.Err)
	}
	for _, o := range res.Filter(types.StateDuplicate) {
		if o.Err != nil {
			fmt.Fprintf(w, "  duplicate not deleted: %s: %v\n", o.Path, o.Err)
		}
	}
}

// ArchiveTree builds the tree of archive targets of an intake run.
func ArchiveTree(res *types.OrganizeResult) *FileTree {
	t := NewFileTree(res.Layout.Root)
	for _, o := range res.Filter(types.StateArchived) {
		t.Insert(o.Target, "  <- "+o.Path)
	}
	return t
}

// WriteReconcileSummary prints the outcome of an index rebuild.
func WriteReconcileSummary(w io.Writer, res *types.ReconcileResult) {
	prefix := ""
	if res.DryRun {
		prefix = "DRY RUN: "
	}
	fmt.Fprintf(w, "%sindexed %d files into %s (%s)\n", prefix, res.Entries, res.WrittenTo, res.Duration.Round(time.Millisecond))
	if res.Drift.PreviousLoaded {
		fmt.Fprintf(w, "  added %d, dropped %d, moved %d, outside archive %d\n",
			len(res.Drift.Added), len(res.Drift.Dropped), len(res.Drift.Changed), len(res.Drift.Foreign))
	} else {
		fmt.Fprintln(w, "  previous index unavailable")
	}
	for _, d := range res.Duplicates {
		fmt.Fprintf(w, "  duplicate content: %s (same as %s)\n", d.Path, d.KeptPath)
	}
	for _, o := range res.Failures {
		fmt.Fprintf(w, "  failed: %s: %v\n", o.Path, o.Err)
	}
}
