package upload

// Draft issues detected by the classifier.
const (
	IssueMissingPDF         = "missing_pdf"
	IssueMissingNumber      = "missing_number"
	IssueMultiplePDFs       = "multiple_pdf_exercise_candidates"
	IssueMultipleSolutions  = "multiple_pdf_solution_candidates"
	IssueMultipleTexSources = "multiple_tex_source_candidates"
)

// Report-level warnings.
const (
	WarningNoSeriesDetected = "no_series_detected"
	WarningUnassignedFiles  = "unassigned_files"
)

// Report is the classifier output: the series drafts found in an archive,
// the files it could not attribute, and heuristic warnings. It is a value
// object with no identity of its own.
type Report struct {
	Root       string        `json:"root"`
	Series     []SeriesDraft `json:"series"`
	Unassigned []string      `json:"unassigned"`
	Warnings   []string      `json:"warnings"`
}

// SeriesDraft is one candidate exercise sheet. A reviewer may freely edit
// Number, Title and the three file slots before commit; Dir and Issues are
// provenance from classification. File paths are relative to the archive
// root and resolve against the job's staging area.
type SeriesDraft struct {
	Number       int      `json:"number"`
	Title        string   `json:"title"`
	Dir          string   `json:"dir"`
	TexFile      string   `json:"tex_file"`
	PDFFile      string   `json:"pdf_file"`
	SolutionFile string   `json:"solution_file"`
	Issues       []string `json:"issues"`
}

// Blocking reports whether the draft must be fixed before commit is allowed:
// a draft without an exercise PDF or without a positive series number cannot
// be imported. The predicate is pure so UI and server derive the same answer.
func (d SeriesDraft) Blocking() bool {
	return d.PDFFile == "" || d.Number <= 0
}
