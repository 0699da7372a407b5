package records

import (
	"errors"
	"fmt"
	"strings"

	"github.com/elliotchance/orderedmap/v2"
)

// ErrUnknownField is returned when a name does not resolve to a numeric field.
var ErrUnknownField = errors.New("unknown numeric field")

// Field identifies one numeric column of the schema.
type Field int

const (
	FieldSize Field = iota
	FieldRecordCount
	FieldCollaborators
	FieldProtectedBranches
	FieldPRReviews
	FieldMilestones
	FieldIssues
	FieldPullRequests
	FieldPRReviewComments
	FieldCommitComments
	FieldIssueComments
	FieldIssueEvents
	FieldReleases
	FieldProjects
	FieldBranches
	FieldTags
	FieldDiscussions
)

type fieldSpec struct {
	header  string
	aliases []string
	get     func(*Record) float64
}

// fields is the numeric schema in column order.
var fields = func() *orderedmap.OrderedMap[Field, fieldSpec] {
	m := orderedmap.NewOrderedMap[Field, fieldSpec]()
	m.Set(FieldSize, fieldSpec{"Repo_Size_mb", []string{"size", "repo_size"}, func(r *Record) float64 { return r.RepoSizeMB }})
	m.Set(FieldRecordCount, fieldSpec{"Record_Count", []string{"records"}, func(r *Record) float64 { return r.RecordCount }})
	m.Set(FieldCollaborators, fieldSpec{"Collaborator_Count", []string{"collaborators"}, func(r *Record) float64 { return r.CollaboratorCount }})
	m.Set(FieldProtectedBranches, fieldSpec{"Protected_Branch_Count", []string{"protected_branches"}, func(r *Record) float64 { return r.ProtectedBranchCount }})
	m.Set(FieldPRReviews, fieldSpec{"PR_Review_Count", []string{"pr_reviews", "reviews"}, func(r *Record) float64 { return r.PRReviewCount }})
	m.Set(FieldMilestones, fieldSpec{"Milestone_Count", []string{"milestones"}, func(r *Record) float64 { return r.MilestoneCount }})
	m.Set(FieldIssues, fieldSpec{"Issue_Count", []string{"issues"}, func(r *Record) float64 { return r.IssueCount }})
	m.Set(FieldPullRequests, fieldSpec{"PR_Count", []string{"prs", "pull_requests"}, func(r *Record) float64 { return r.PRCount }})
	m.Set(FieldPRReviewComments, fieldSpec{"PR_Review_Comment_Count", []string{"pr_review_comments"}, func(r *Record) float64 { return r.PRReviewCommentCount }})
	m.Set(FieldCommitComments, fieldSpec{"Commit_Comment_Count", []string{"commit_comments"}, func(r *Record) float64 { return r.CommitCommentCount }})
	m.Set(FieldIssueComments, fieldSpec{"Issue_Comment_Count", []string{"issue_comments"}, func(r *Record) float64 { return r.IssueCommentCount }})
	m.Set(FieldIssueEvents, fieldSpec{"Issue_Event_Count", []string{"issue_events"}, func(r *Record) float64 { return r.IssueEventCount }})
	m.Set(FieldReleases, fieldSpec{"Release_Count", []string{"releases"}, func(r *Record) float64 { return r.ReleaseCount }})
	m.Set(FieldProjects, fieldSpec{"Project_Count", []string{"projects"}, func(r *Record) float64 { return r.ProjectCount }})
	m.Set(FieldBranches, fieldSpec{"Branch_Count", []string{"branches"}, func(r *Record) float64 { return r.BranchCount }})
	m.Set(FieldTags, fieldSpec{"Tag_Count", []string{"tags"}, func(r *Record) float64 { return r.TagCount }})
	m.Set(FieldDiscussions, fieldSpec{"Discussion_Count", []string{"discussions"}, func(r *Record) float64 { return r.DiscussionCount }})
	return m
}()

// byName resolves lower-cased headers and aliases.
var byName = func() map[string]Field {
	out := make(map[string]Field)
	for el := fields.Front(); el != nil; el = el.Next() {
		out[strings.ToLower(el.Value.header)] = el.Key
		for _, a := range el.Value.aliases {
			out[a] = el.Key
		}
	}
	return out
}()

// ParseField resolves a CSV header or short alias (case-insensitive).
func ParseField(name string) (Field, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, "-", "_")
	if f, ok := byName[key]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// NumericFields lists every numeric field in schema order.
func NumericFields() []Field {
	return fields.Keys()
}

// Value extracts the field from r. It panics on an unregistered Field,
// which can only come from a conversion outside this package.
func (f Field) Value(r *Record) float64 {
	spec, ok := fields.Get(f)
	if !ok {
		panic(fmt.Sprintf("records: field %d not registered", int(f)))
	}
	return spec.get(r)
}

// Valid reports whether f is a registered field.
func (f Field) Valid() bool {
	_, ok := fields.Get(f)
	return ok
}

// Header returns the CSV column name.
func (f Field) Header() string {
	if spec, ok := fields.Get(f); ok {
		return spec.header
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

// Aliases returns the short names accepted by ParseField.
func (f Field) Aliases() []string {
	if spec, ok := fields.Get(f); ok {
		return append([]string(nil), spec.aliases...)
	}
	return nil
}

func (f Field) String() string { return f.Header() }

// Values extracts f across recs in order, without filtering.
func Values(recs []Record, f Field) []float64 {
	out := make([]float64, len(recs))
	for i := range recs {
		out[i] = f.Value(&recs[i])
	}
	return out
}
