// Package requirements lists REQ-*.md documents across registered projects.
package requirements

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jrhoades1/claude-tracking/pkg/models"
)

// Dir is the requirements directory relative to a project's location.
const Dir = "requirements"

// StatusOrder is the display order of known statuses. Unknown statuses
// are listed after these.
var StatusOrder = []string{
	"proposed",
	"approved",
	"scheduled",
	"in_progress",
	"implemented",
	"verified",
	"rejected",
	"deferred",
}

// ErrNoFrontMatter is returned for documents without a leading --- block.
var ErrNoFrontMatter = errors.New("no front matter")

// Requirement is the front matter of one REQ document.
type Requirement struct {
	ID       string   `yaml:"id"`
	Title    string   `yaml:"title"`
	Status   string   `yaml:"status"`
	Priority string   `yaml:"priority"`
	Tags     []string `yaml:"tags"`
	File     string   `yaml:"-"`
}

// frontMatter is the accepted schema. Keys outside it are rejected.
type frontMatter struct {
	Requirement `yaml:",inline"`
	Created     string   `yaml:"created"`
	Updated     string   `yaml:"updated"`
	Author      string   `yaml:"author"`
	DependsOn   []string `yaml:"depends_on"`
}

// ParseFrontMatter strictly decodes the YAML block between the first two
// --- lines.
func ParseFrontMatter(data []byte) (Requirement, error) {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(data, []byte("---\n")) {
		return Requirement{}, ErrNoFrontMatter
	}
	rest := data[len("---\n"):]
	var block []byte
	if bytes.HasPrefix(rest, []byte("---")) {
		block = nil
	} else {
		end := bytes.Index(rest, []byte("\n---"))
		if end < 0 {
			return Requirement{}, ErrNoFrontMatter
		}
		block = rest[:end]
	}

	var fm frontMatter
	dec := yaml.NewDecoder(bytes.NewReader(block))
	dec.KnownFields(true)
	if err := dec.Decode(&fm); err != nil && !errors.Is(err, io.EOF) {
		return Requirement{}, fmt.Errorf("front matter: %w", err)
	}
	return fm.Requirement, nil
}

// Scan reads every REQ-*.md under <location>/requirements. Documents that
// fail to parse or carry no id are skipped and reported in the error slice.
func Scan(location string) ([]Requirement, []error) {
	dir := filepath.Join(location, Dir)
	matches, err := filepath.Glob(filepath.Join(dir, "REQ-*.md"))
	if err != nil {
		return nil, []error{err}
	}
	sort.Strings(matches)

	var reqs []Requirement
	var errs []error
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		req, err := ParseFrontMatter(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		if req.ID == "" {
			continue
		}
		req.File = filepath.Base(path)
		reqs = append(reqs, req)
	}
	return reqs, errs
}

// Collect scans every registered project, keeping those with requirements.
func Collect(reg models.Registry) (map[string][]Requirement, []error) {
	out := make(map[string][]Requirement)
	var errs []error
	for code, e := range reg {
		if e.Location == "" {
			continue
		}
		reqs, scanErrs := Scan(e.Location)
		errs = append(errs, scanErrs...)
		if len(reqs) > 0 {
			out[code] = reqs
		}
	}
	return out, errs
}

// Group is the requirements of one status.
type Group struct {
	Status string
	Items  []Requirement
}

// GroupByStatus orders requirements by StatusOrder, then unknown statuses
// alphabetically. A missing status groups as "unknown".
func GroupByStatus(reqs []Requirement) []Group {
	by := make(map[string][]Requirement)
	for _, r := range reqs {
		s := r.Status
		if s == "" {
			s = "unknown"
		}
		by[s] = append(by[s], r)
	}

	var groups []Group
	known := make(map[string]bool, len(StatusOrder))
	for _, s := range StatusOrder {
		known[s] = true
		if items, ok := by[s]; ok {
			groups = append(groups, Group{Status: s, Items: items})
		}
	}
	var other []string
	for s := range by {
		if !known[s] {
			other = append(other, s)
		}
	}
	sort.Strings(other)
	for _, s := range other {
		groups = append(groups, Group{Status: s, Items: by[s]})
	}
	return groups
}

// Filter keeps requirements with the given status. An empty status keeps all.
func Filter(reqs []Requirement, status string) []Requirement {
	if status == "" {
		return reqs
	}
	var out []Requirement
	for _, r := range reqs {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

var sep = strings.Repeat("-", 70)

// Text renders the cross-project status report.
func Text(all map[string][]Requirement, status string, detail bool) string {
	var b strings.Builder
	b.WriteString("\n")
	title := "Requirements Report"
	if status != "" {
		title += "  |  Status: " + status
	} else {
		title += "  |  All Projects"
	}
	b.WriteString(title + "\n")
	b.WriteString(sep + "\n")

	if len(all) == 0 {
		b.WriteString("  No projects with requirements found.\n")
		b.WriteString(sep + "\n")
		return b.String()
	}

	codes := make([]string, 0, len(all))
	for c := range all {
		codes = append(codes, c)
	}
	sort.Strings(codes)

	total, projects := 0, 0
	for _, code := range codes {
		reqs := Filter(all[code], status)
		if len(reqs) == 0 {
			continue
		}
		fmt.Fprintf(&b, "  %s\n", code)
		for _, g := range GroupByStatus(reqs) {
			ids := make([]string, len(g.Items))
			for i, r := range g.Items {
				ids[i] = r.ID
			}
			fmt.Fprintf(&b, "    %-14s %3d   (%s)\n", g.Status, len(g.Items), strings.Join(ids, ", "))
			if !detail {
				continue
			}
			for _, r := range g.Items {
				title := r.Title
				if title == "" {
					title = "untitled"
				}
				pri := ""
				if r.Priority != "" {
					pri = " [" + r.Priority + "]"
				}
				fmt.Fprintf(&b, "%20s %s: %s%s\n", "", r.ID, title, pri)
			}
		}
		total += len(reqs)
		projects++
		b.WriteString("\n")
	}

	b.WriteString(sep + "\n")
	noun := "projects"
	if projects == 1 {
		noun = "project"
	}
	fmt.Fprintf(&b, "  TOTAL  %d requirements across %d %s\n", total, projects, noun)
	b.WriteString(sep + "\n")
	return b.String()
}
