package types

import (
	"os"
	"strings"
	"time"
)

// MediaKind is the closed set of media the archive accepts.
type MediaKind int

const (
	KindUnknown MediaKind = iota
	KindPhoto
	KindVideo
)

func (k MediaKind) String() string {
	switch k {
	case KindPhoto:
		return "photo"
	case KindVideo:
		return "video"
	default:
		return "unknown"
	}
}

// extensionKinds is the fixed allowlist, keyed by upper-case extension.
var extensionKinds = map[string]MediaKind{
	".JPG":  KindPhoto,
	".JPEG": KindPhoto,
	".AVI":  KindVideo,
	".MOV":  KindVideo,
	".MP4":  KindVideo,
	".MPG":  KindVideo,
	".MTS":  KindVideo,
	".M2TS": KindVideo,
}

// KindForExtension classifies an extension case-insensitively. The leading
// dot is optional.
func KindForExtension(ext string) (MediaKind, bool) {
	if ext == "" {
		return KindUnknown, false
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	kind, ok := extensionKinds[strings.ToUpper(ext)]
	return kind, ok
}

// Layout holds the resolved paths of one archive root.
type Layout struct {
	Root    string `json:"root"`
	Dropbox string `json:"dropbox"`
	Photos  string `json:"photos"`
	Videos  string `json:"videos"`
	Index   string `json:"index"`
}

// KindRoot returns the archive subtree that holds kind.
func (l Layout) KindRoot(kind MediaKind) (string, bool) {
	switch kind {
	case KindPhoto:
		return l.Photos, true
	case KindVideo:
		return l.Videos, true
	default:
		return "", false
	}
}

// FileState is the terminal state of one dropbox entry.
type FileState string

const (
	StateSkipped   FileState = "skipped"
	StateDuplicate FileState = "duplicate"
	StateArchived  FileState = "archived"
	StateFailed    FileState = "failed"
)

// SkipReason explains a StateSkipped outcome.
type SkipReason string

const (
	SkipNone                 SkipReason = ""
	SkipUnsupportedExtension SkipReason = "unsupported-extension"
	SkipNotRegularFile       SkipReason = "not-a-regular-file"
)

// TimestampSource records which resolver step produced a timestamp.
type TimestampSource string

const (
	SourceFFprobe    TimestampSource = "ffprobe"
	SourceFilename   TimestampSource = "filename"
	SourceFilesystem TimestampSource = "filesystem"
)

// ExifSource returns the source label for an EXIF field.
func ExifSource(field string) TimestampSource {
	return TimestampSource("exif:" + field)
}

// Resolution is a resolved capture timestamp.
type Resolution struct {
	Time   time.Time       `json:"time"`
	Source TimestampSource `json:"source"`
}

// FileOutcome is the per-file result of a run.
type FileOutcome struct {
	Path       string          `json:"path"`
	Kind       MediaKind       `json:"kind"`
	State      FileState       `json:"state"`
	SkipReason SkipReason      `json:"skip_reason,omitempty"`
	Checksum   string          `json:"checksum,omitempty"`
	Existing   string          `json:"existing,omitempty"`
	Target     string          `json:"target,omitempty"`
	Timestamp  time.Time       `json:"timestamp,omitempty"`
	Source     TimestampSource `json:"source,omitempty"`
	Err        error           `json:"-"`
}

// RunCounters are the end-of-run summary counts.
type RunCounters struct {
	Moved   int `json:"moved"`
	Removed int `json:"removed"`
}

// Mutated reports whether the run changed the archive or the dropbox.
func (c RunCounters) Mutated() bool {
	return c.Moved > 0 || c.Removed > 0
}

// OrganizeResult summarises one intake run.
type OrganizeResult struct {
	Layout       Layout        `json:"layout"`
	DryRun       bool          `json:"dry_run"`
	Counters     RunCounters   `json:"counters"`
	Outcomes     []FileOutcome `json:"outcomes"`
	IndexSaved   bool          `json:"index_saved"`
	IndexEntries int           `json:"index_entries"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	Duration     time.Duration `json:"duration"`
}

// Filter returns the outcomes in state.
func (r *OrganizeResult) Filter(state FileState) []FileOutcome {
	var out []FileOutcome
	for _, o := range r.Outcomes {
		if o.State == state {
			out = append(out, o)
		}
	}
	return out
}

// Failures returns the failed outcomes.
func (r *OrganizeResult) Failures() []FileOutcome {
	return r.Filter(StateFailed)
}

// ArchiveDuplicate is a second archive file carrying an already indexed checksum.
type ArchiveDuplicate struct {
	Path     string `json:"path"`
	Checksum string `json:"checksum"`
	KeptPath string `json:"kept_path"`
}

// IndexDrift compares a rebuilt index with the one it replaces.
type IndexDrift struct {
	PreviousLoaded bool     `json:"previous_loaded"`
	Added          []string `json:"added,omitempty"`
	Dropped        []string `json:"dropped,omitempty"`
	Changed        []string `json:"changed,omitempty"`
	Foreign        []string `json:"foreign,omitempty"`
}

// ReconcileResult summarises one index rebuild.
type ReconcileResult struct {
	Layout     Layout             `json:"layout"`
	DryRun     bool               `json:"dry_run"`
	Entries    int                `json:"entries"`
	WrittenTo  string             `json:"written_to"`
	Duplicates []ArchiveDuplicate `json:"duplicates,omitempty"`
	Failures   []FileOutcome      `json:"failures,omitempty"`
	Drift      IndexDrift         `json:"drift"`
	Duration   time.Duration      `json:"duration"`
}

// DiscoveredFile is one entry found while walking a directory tree.
type DiscoveredFile struct {
	Path string      `json:"path"`
	Mode os.FileMode `json:"mode"`
}

// Regular reports whether the entry is a regular file.
func (d DiscoveredFile) Regular() bool {
	return d.Mode.IsRegular()
}
