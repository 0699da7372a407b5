package records

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ErrMissingColumns is returned when the header lacks required schema columns.
var ErrMissingColumns = errors.New("missing required columns")

// Loader turns a raw export into a Dataset.
type Loader interface {
	Load(ctx context.Context, r io.Reader, name string) (*Dataset, error)
}

// CSVLoader reads gh-repo-stats CSV/TSV exports.
type CSVLoader struct {
	// Delimiter for CSV. If 0, ',' is used.
	Delimiter rune
	// MaxRows stops reading after that many data rows; 0 means unlimited.
	MaxRows int
}

type setter func(r *Record, raw string)

func str(dst func(*Record) *string) setter {
	return func(r *Record, raw string) { *dst(r) = strings.TrimSpace(raw) }
}

func boolean(dst func(*Record) *bool) setter {
	return func(r *Record, raw string) { *dst(r) = strings.EqualFold(strings.TrimSpace(raw), "true") }
}

func number(dst func(*Record) *float64) setter {
	return func(r *Record, raw string) {
		if x, ok := parseNumeric(raw); ok {
			*dst(r) = x
			return
		}
		*dst(r) = 0
	}
}

// columns maps every required header (lower-cased) to its setter.
var columns = map[string]setter{
	"org_name":                str(func(r *Record) *string { return &r.OrgName }),
	"repo_name":               str(func(r *Record) *string { return &r.RepoName }),
	"is_empty":                boolean(func(r *Record) *bool { return &r.IsEmpty }),
	"last_push":               str(func(r *Record) *string { return &r.LastPush }),
	"last_update":             str(func(r *Record) *string { return &r.LastUpdate }),
	"isfork":                  boolean(func(r *Record) *bool { return &r.IsFork }),
	"isarchived":              boolean(func(r *Record) *bool { return &r.IsArchived }),
	"repo_size_mb":            number(func(r *Record) *float64 { return &r.RepoSizeMB }),
	"record_count":            number(func(r *Record) *float64 { return &r.RecordCount }),
	"collaborator_count":      number(func(r *Record) *float64 { return &r.CollaboratorCount }),
	"protected_branch_count":  number(func(r *Record) *float64 { return &r.ProtectedBranchCount }),
	"pr_review_count":         number(func(r *Record) *float64 { return &r.PRReviewCount }),
	"milestone_count":         number(func(r *Record) *float64 { return &r.MilestoneCount }),
	"issue_count":             number(func(r *Record) *float64 { return &r.IssueCount }),
	"pr_count":                number(func(r *Record) *float64 { return &r.PRCount }),
	"pr_review_comment_count": number(func(r *Record) *float64 { return &r.PRReviewCommentCount }),
	"commit_comment_count":    number(func(r *Record) *float64 { return &r.CommitCommentCount }),
	"issue_comment_count":     number(func(r *Record) *float64 { return &r.IssueCommentCount }),
	"issue_event_count":       number(func(r *Record) *float64 { return &r.IssueEventCount }),
	"release_count":           number(func(r *Record) *float64 { return &r.ReleaseCount }),
	"project_count":           number(func(r *Record) *float64 { return &r.ProjectCount }),
	"branch_count":            number(func(r *Record) *float64 { return &r.BranchCount }),
	"tag_count":               number(func(r *Record) *float64 { return &r.TagCount }),
	"discussion_count":        number(func(r *Record) *float64 { return &r.DiscussionCount }),
	"has_wiki":                boolean(func(r *Record) *bool { return &r.HasWiki }),
	"full_url":                str(func(r *Record) *string { return &r.FullURL }),
	"migration_issue":         boolean(func(r *Record) *bool { return &r.MigrationIssue }),
	"created":                 str(func(r *Record) *string { return &r.Created }),
}

// Headers returns the required schema columns in canonical spelling.
func Headers() []string {
	return []string{
		"Org_Name", "Repo_Name", "Is_Empty", "Last_Push", "Last_Update", "isFork", "isArchived",
		"Repo_Size_mb", "Record_Count", "Collaborator_Count", "Protected_Branch_Count",
		"PR_Review_Count", "Milestone_Count", "Issue_Count", "PR_Count", "PR_Review_Comment_Count",
		"Commit_Comment_Count", "Issue_Comment_Count", "Issue_Event_Count", "Release_Count",
		"Project_Count", "Branch_Count", "Tag_Count", "Discussion_Count", "Has_Wiki", "Full_URL",
		"Migration_Issue", "Created",
	}
}

// LoadFile opens path and loads it with l. A zero Delimiter is sniffed from
// the extension.
func LoadFile(ctx context.Context, path string, l CSVLoader) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	if l.Delimiter == 0 {
		l.Delimiter = sniffDelimiter(path)
	}
	return l.Load(ctx, f, filepath.Base(path))
}

// Load implements Loader.
func (l CSVLoader) Load(ctx context.Context, in io.Reader, name string) (*Dataset, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = l.Delimiter
	if r.Comma == 0 {
		r.Comma = ','
	}

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read header: empty input")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	ncol := len(header)
	bind := make([]setter, ncol)
	seen := make(map[string]bool, len(columns))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if s, ok := columns[key]; ok {
			bind[i] = s
			seen[key] = true
		}
	}
	if missing := missingColumns(seen); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	maxRows := l.MaxRows
	ds := &Dataset{Name: name}
	for {
		if maxRows > 0 && ds.Rows >= maxRows {
			if _, err := r.Read(); !errors.Is(err, io.EOF) {
				ds.Truncated = true
			}
			break
		}
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return nil, fmt.Errorf("read row %d: %w", ds.Rows+1, err)
			}
			// quoting damage only affects this row
			ds.Rows++
			ds.Skipped++
			continue
		}
		ds.Rows++
		if ds.Rows%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if len(rec) != ncol {
			ds.Skipped++
			continue
		}
		var row Record
		for j, s := range bind {
			if s != nil {
				s(&row, rec[j])
			}
		}
		ds.Records = append(ds.Records, row)
	}
	return ds, nil
}

func missingColumns(seen map[string]bool) []string {
	var missing []string
	for _, h := range Headers() {
		if !seen[strings.ToLower(h)] {
			missing = append(missing, h)
		}
	}
	sort.Strings(missing)
	return missing
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// parseNumeric accepts plain numbers, thousands separators and a trailing %.
func parseNumeric(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimSuffix(raw, "%")
	raw = strings.ReplaceAll(raw, "\u00a0", "")
	raw = strings.ReplaceAll(raw, " ", "")
	if raw == "" {
		return 0, false
	}
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	switch {
	case cpos >= 0 && dpos >= 0 && cpos > dpos:
		// 1.234,5
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.Replace(raw, ",", ".", 1)
	case cpos >= 0:
		// 1,234 or 1,234.5
		raw = strings.ReplaceAll(raw, ",", "")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
