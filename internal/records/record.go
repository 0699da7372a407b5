// Package records holds the repository metadata model and its CSV ingestion.
package records

// Record is one repository's metadata snapshot as exported by gh-repo-stats.
// Records are created once at load time and never mutated afterwards.
type Record struct {
	OrgName    string
	RepoName   string
	LastPush   string
	LastUpdate string
	FullURL    string
	Created    string

	IsEmpty        bool
	IsFork         bool
	IsArchived     bool
	HasWiki        bool
	MigrationIssue bool

	RepoSizeMB           float64
	RecordCount          float64
	CollaboratorCount    float64
	ProtectedBranchCount float64
	PRReviewCount        float64
	MilestoneCount       float64
	IssueCount           float64
	PRCount              float64
	PRReviewCommentCount float64
	CommitCommentCount   float64
	IssueCommentCount    float64
	IssueEventCount      float64
	ReleaseCount         float64
	ProjectCount         float64
	BranchCount          float64
	TagCount             float64
	DiscussionCount      float64
}

// Label returns "org/repo" for display.
func (r *Record) Label() string {
	if r.OrgName == "" {
		return r.RepoName
	}
	return r.OrgName + "/" + r.RepoName
}

// Dataset is an immutable collection of records loaded from one source.
type Dataset struct {
	Name    string
	Records []Record
	// Rows counts data rows read, including skipped ones.
	Rows int
	// Skipped counts rows dropped for having the wrong number of fields.
	Skipped int
	// Truncated is set when reading stopped at the loader's MaxRows.
	Truncated bool
}

// Len returns the number of usable records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}
