package classify

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/goldmine/exercise-archive/internal/archive"
	"github.com/goldmine/exercise-archive/internal/domain/upload"
)

// Tokens are the configurable name fragments the classifier matches against.
type Tokens struct {
	SeriesPrefixes     []string
	SolutionIndicators []string
}

func DefaultTokens() Tokens {
	return Tokens{
		SeriesPrefixes:     []string{"serie", "series", "sheet", "uebung", "übung", "blatt", "ex"},
		SolutionIndicators: []string{"solution", "sol", "loesung", "lösung", "loes"},
	}
}

// Classifier turns a staged archive listing into an upload report. It is
// stateless: the same listing always yields the same report.
type Classifier struct {
	tokens     Tokens
	prefixNum  *regexp.Regexp
	digitRun   *regexp.Regexp
	sheetToken *regexp.Regexp
}

func New(tokens Tokens) *Classifier {
	if len(tokens.SeriesPrefixes) == 0 {
		tokens.SeriesPrefixes = DefaultTokens().SeriesPrefixes
	}
	if len(tokens.SolutionIndicators) == 0 {
		tokens.SolutionIndicators = DefaultTokens().SolutionIndicators
	}

	quoted := make([]string, 0, len(tokens.SeriesPrefixes))
	for _, p := range tokens.SeriesPrefixes {
		quoted = append(quoted, regexp.QuoteMeta(p))
	}
	// Longer prefixes first so "series" wins over "serie".
	sort.Slice(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	alternation := strings.Join(quoted, "|")

	return &Classifier{
		tokens:     tokens,
		prefixNum:  regexp.MustCompile(`(?i)(?:` + alternation + `)\D*?(\d+)`),
		digitRun:   regexp.MustCompile(`\d+`),
		sheetToken: regexp.MustCompile(`(?i)(?:` + alternation + `)`),
	}
}

// Classify builds the report for one staged archive. Every heuristic is
// deterministic: candidate order, role tie-breaks and warning order only
// depend on the listing.
func (c *Classifier) Classify(listing archive.Listing) upload.Report {
	report := upload.Report{
		Root:       listing.Root,
		Series:     []upload.SeriesDraft{},
		Unassigned: []string{},
		Warnings:   []string{},
	}

	byDir := map[string][]archive.FileInfo{}
	var dirs []string
	for _, f := range listing.Files {
		top := topSegment(f.Path)
		if top == "" {
			continue
		}
		if _, seen := byDir[top]; !seen {
			dirs = append(dirs, top)
		}
		byDir[top] = append(byDir[top], f)
	}
	sort.Slice(dirs, func(i, j int) bool {
		return strings.ToLower(dirs[i]) < strings.ToLower(dirs[j])
	})

	var candidates []string
	for _, dir := range dirs {
		if !hasSheetMaterial(byDir[dir]) {
			continue
		}
		if _, matched := c.seriesNumber(dir); !matched {
			continue
		}
		candidates = append(candidates, dir)
	}

	if len(candidates) == 0 {
		return c.classifyFlat(listing, report)
	}

	assigned := map[string]bool{}
	for _, dir := range candidates {
		draft := c.draftForDir(dir, byDir[dir], &report)
		for _, p := range []string{draft.TexFile, draft.PDFFile, draft.SolutionFile} {
			if p != "" {
				assigned[p] = true
			}
		}
		report.Series = append(report.Series, draft)
	}

	for _, f := range listing.Files {
		if assigned[f.Path] || !isSheetFile(f.Path) {
			continue
		}
		report.Unassigned = append(report.Unassigned, f.Path)
	}
	if len(report.Unassigned) > 0 {
		report.Warnings = append(report.Warnings, upload.WarningUnassignedFiles)
	}

	sort.SliceStable(report.Series, func(i, j int) bool {
		if report.Series[i].Number != report.Series[j].Number {
			return report.Series[i].Number < report.Series[j].Number
		}
		return report.Series[i].Dir < report.Series[j].Dir
	})

	var exercisePDFs []archive.FileInfo
	for _, dir := range candidates {
		exercisePDFs = append(exercisePDFs, c.exercisePDFCandidates(byDir[dir])...)
	}
	sort.Slice(exercisePDFs, func(i, j int) bool { return exercisePDFs[i].Path < exercisePDFs[j].Path })
	c.detectDuplicateContent(exercisePDFs, &report)

	return report
}

func (c *Classifier) draftForDir(dir string, files []archive.FileInfo, report *upload.Report) upload.SeriesDraft {
	number, _ := c.seriesNumber(dir)

	pdfs := c.exercisePDFCandidates(files)
	var sols, texs []archive.FileInfo
	for _, f := range files {
		switch {
		case hasExt(f.Path, ".pdf") && c.isSolutionName(path.Base(f.Path)):
			sols = append(sols, f)
		case hasExt(f.Path, ".tex") && !c.isSolutionName(path.Base(f.Path)):
			texs = append(texs, f)
		}
	}

	draft := upload.SeriesDraft{
		Number: number,
		Dir:    dir,
		Issues: []string{},
	}

	if number <= 0 {
		draft.Issues = append(draft.Issues, upload.IssueMissingNumber)
	}
	if len(pdfs) == 0 {
		draft.Issues = append(draft.Issues, upload.IssueMissingPDF)
	}
	if len(pdfs) > 1 {
		draft.Issues = append(draft.Issues, upload.IssueMultiplePDFs)
		report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %s", dir, upload.IssueMultiplePDFs))
	}
	if len(sols) > 1 {
		draft.Issues = append(draft.Issues, upload.IssueMultipleSolutions)
		report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %s", dir, upload.IssueMultipleSolutions))
	}
	if len(texs) > 1 {
		draft.Issues = append(draft.Issues, upload.IssueMultipleTexSources)
		report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %s", dir, upload.IssueMultipleTexSources))
	}

	draft.PDFFile = c.pickBest(pdfs, number, roleExercise, dir)
	draft.SolutionFile = c.pickBest(sols, number, roleSolution, dir)
	draft.TexFile = c.pickBest(texs, number, roleTex, dir)

	return draft
}

// classifyFlat handles archives without numbered series directories: the
// root files form a single series, or nothing is detected at all.
func (c *Classifier) classifyFlat(listing archive.Listing, report upload.Report) upload.Report {
	var pdfs, texs []archive.FileInfo
	for _, f := range listing.Files {
		switch {
		case hasExt(f.Path, ".pdf"):
			pdfs = append(pdfs, f)
		case hasExt(f.Path, ".tex") && !c.isSolutionName(path.Base(f.Path)):
			texs = append(texs, f)
		}
	}

	if len(pdfs) == 0 && len(texs) == 0 {
		report.Warnings = append(report.Warnings, upload.WarningNoSeriesDetected)
		return report
	}

	var sols []archive.FileInfo
	for _, f := range pdfs {
		if c.isSolutionName(path.Base(f.Path)) {
			sols = append(sols, f)
		}
	}

	draft := upload.SeriesDraft{
		Number: 1,
		Dir:    ".",
		Issues: []string{},
	}
	draft.PDFFile = c.pickBest(pdfs, 0, roleExercise, listing.Root)
	draft.SolutionFile = c.pickBest(sols, 0, roleSolution, listing.Root)
	draft.TexFile = c.pickBest(texs, 0, roleTex, listing.Root)
	if draft.PDFFile == "" {
		draft.Issues = append(draft.Issues, upload.IssueMissingPDF)
	}

	report.Series = append(report.Series, draft)
	return report
}

type role int

const (
	roleExercise role = iota
	roleSolution
	roleTex
)

// pickBest selects one file for a role, scoring candidates the same way on
// every run: solution naming weighs for or against depending on the role, a
// sheet token and the series number in the filename weigh for it. Ties fall
// back to the longest shared prefix with the directory name, then to
// lexicographic order.
func (c *Classifier) pickBest(files []archive.FileInfo, number int, r role, dir string) string {
	if len(files) == 0 {
		return ""
	}
	if len(files) == 1 {
		return files[0].Path
	}

	score := func(f archive.FileInfo) int {
		name := strings.ToLower(path.Base(f.Path))
		s := 0
		if c.isSolutionName(name) {
			if r == roleSolution {
				s += 4
			} else {
				s -= 4
			}
		}
		if c.sheetToken.MatchString(name) {
			s += 2
		}
		if number > 0 && strings.Contains(name, strconv.Itoa(number)) {
			s += 2
		}
		return s
	}

	best := files[0]
	bestScore := score(best)
	bestPrefix := commonPrefixLen(path.Base(best.Path), dir)
	for _, f := range files[1:] {
		s := score(f)
		p := commonPrefixLen(path.Base(f.Path), dir)
		switch {
		case s > bestScore,
			s == bestScore && p > bestPrefix,
			s == bestScore && p == bestPrefix && f.Path < best.Path:
			best, bestScore, bestPrefix = f, s, p
		}
	}
	return best.Path
}

// exercisePDFCandidates are the non-solution PDFs of one series directory.
func (c *Classifier) exercisePDFCandidates(files []archive.FileInfo) []archive.FileInfo {
	var pdfs []archive.FileInfo
	for _, f := range files {
		if hasExt(f.Path, ".pdf") && !c.isSolutionName(path.Base(f.Path)) {
			pdfs = append(pdfs, f)
		}
	}
	return pdfs
}

// detectDuplicateContent warns on byte-identical files among all exercise-PDF
// candidates, not just the picked ones: the same sheet landing in two
// directories should surface even when a tie-break hid one copy.
func (c *Classifier) detectDuplicateContent(candidates []archive.FileInfo, report *upload.Report) {
	type key struct {
		size int64
		sum  string
	}
	seen := map[key]string{}
	for _, f := range candidates {
		if f.SHA256 == "" {
			continue
		}
		k := key{size: f.Size, sum: f.SHA256}
		if first, dup := seen[k]; dup {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("duplicate_pdf_content: %s == %s", first, f.Path))
			continue
		}
		seen[k] = f.Path
	}
}

func (c *Classifier) isSolutionName(name string) bool {
	lower := strings.ToLower(name)
	for _, tok := range c.tokens.SolutionIndicators {
		if strings.Contains(lower, strings.ToLower(tok)) {
			return true
		}
	}
	return false
}

// seriesNumber extracts the series ordinal from a directory name. A known
// prefix token followed by digits wins; otherwise the longest digit run is
// used. The second return reports whether the name looks like a series
// directory at all (a prefix token without digits still counts, the draft
// then carries a missing_number issue).
func (c *Classifier) seriesNumber(name string) (int, bool) {
	if m := c.prefixNum.FindStringSubmatch(name); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n, true
		}
	}

	runs := c.digitRun.FindAllString(name, -1)
	longest := ""
	for _, run := range runs {
		if len(run) > len(longest) {
			longest = run
		}
	}
	if longest != "" {
		if n, err := strconv.Atoi(longest); err == nil {
			return n, true
		}
	}

	if c.sheetToken.MatchString(name) {
		return 0, true
	}
	return 0, false
}

func hasSheetMaterial(files []archive.FileInfo) bool {
	for _, f := range files {
		if isSheetFile(f.Path) {
			return true
		}
	}
	return false
}

func isSheetFile(p string) bool {
	return hasExt(p, ".pdf") || hasExt(p, ".tex")
}

func hasExt(p string, ext string) bool {
	return strings.EqualFold(path.Ext(p), ext)
}

func topSegment(p string) string {
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return ""
}

func commonPrefixLen(a, b string) int {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
