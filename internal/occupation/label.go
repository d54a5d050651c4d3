// Package occupation derives the human-readable occupation label from an
// export's file name.
//
// Exports for the same occupation arrive as separate company and industry
// files whose names differ only in boilerplate tokens; every rule set must map
// such siblings to the same label.
package occupation

import (
	"path"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

type step struct {
	name  string
	apply func(string) string
}

// RuleSet is one versioned sequence of filename rewrite steps.
type RuleSet struct {
	Version string
	steps   []step
}

// Label applies the rule set to an archive entry name.
func (rs RuleSet) Label(entryName string) string {
	s := entryName
	for _, st := range rs.steps {
		s = st.apply(s)
	}
	return s
}

// Steps names the steps in application order.
func (rs RuleSet) Steps() []string {
	names := make([]string, len(rs.steps))
	for i, st := range rs.steps {
		names[i] = st.name
	}
	return names
}

var (
	exportPrefixRe = regexp.MustCompile(`(?i)^job_postings_table_?`)
	countyRe       = regexp.MustCompile(`_?in_Los_Angeles_County_CA`)
	countyTailRe   = regexp.MustCompile(`_in_Los_Angeles_County_CA.*`)
	categoryRe     = regexp.MustCompile(`(?i)_?(company|industry)`)
	hashRe         = regexp.MustCompile(`_?[0-9A-Fa-f]{16,}`)
)

func remove(re *regexp.Regexp) func(string) string {
	return func(s string) string { return re.ReplaceAllString(s, "") }
}

func baseName(s string) string {
	s = path.Base(strings.ReplaceAll(s, `\`, "/"))
	return strings.TrimSuffix(s, path.Ext(s))
}

func underscores(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func dropTrailingLA(s string) string {
	fields := strings.Fields(s)
	if n := len(fields); n > 0 && fields[n-1] == "LA" {
		fields = fields[:n-1]
	}
	return strings.Join(fields, " ")
}

// V1 is the first published rule: drop the export prefix, cut everything from
// the county suffix on, and turn underscores into spaces. Company and industry
// siblings keep their category token and so do not share a label.
var V1 = RuleSet{
	Version: "v1",
	steps: []step{
		{"base", baseName},
		{"export_prefix", func(s string) string { return strings.ReplaceAll(s, "Job_Postings_Table_", "") }},
		{"county_tail", remove(countyTailRe)},
		{"underscores", underscores},
	},
}

// V2 strips every known boilerplate token so company and industry siblings,
// hash-suffixed re-exports and "LA" shorthand variants collapse to one label.
var V2 = RuleSet{
	Version: "v2",
	steps: []step{
		{"base", baseName},
		{"export_prefix", remove(exportPrefixRe)},
		{"county", remove(countyRe)},
		{"category", remove(categoryRe)},
		{"hash", remove(hashRe)},
		{"underscores", underscores},
		{"whitespace", collapse},
		{"trailing_la", dropTrailingLA},
	},
}

// Current is the rule set used unless configured otherwise.
var Current = V2

var versions = map[string]RuleSet{
	V1.Version: V1,
	V2.Version: V2,
}

// Lookup returns the rule set for a version name. An empty name selects Current.
func Lookup(version string) (RuleSet, error) {
	if version == "" {
		return Current, nil
	}
	rs, ok := versions[strings.ToLower(strings.TrimSpace(version))]
	if !ok {
		return RuleSet{}, eris.Errorf("occupation: unknown label rules %q", version)
	}
	return rs, nil
}

// Label derives the occupation label with the Current rule set.
func Label(entryName string) string {
	return Current.Label(entryName)
}
