package catalog

// Lecture is a recurring lecture (e.g. Quantum Mechanics 1). Name is the
// short handle used to derive filesystem paths.
type Lecture struct {
	ID       int64
	Name     string
	LongName string
}

// SemesterGroup is one offering of a lecture in a given year and semester.
// The (LectureID, Year, Semester) tuple is unique among live rows.
type SemesterGroup struct {
	ID         int64
	LectureID  int64
	Year       int
	Semester   string
	Professors string
	Assistants string
	FSPath     string
}

// FileRefs are the stored asset paths of a series, relative to the owning
// semester group's FSPath.
type FileRefs struct {
	TexFile      string
	PDFFile      string
	SolutionFile string
}

// Series is one numbered exercise sheet. Version history is a singly linked
// chain: a superseding row points back via ReplacesID, the superseded row
// forward via SupersededByID and is soft-deleted. At most one live row exists
// per (SemesterGroupID, Number).
type Series struct {
	ID              int64
	SemesterGroupID int64
	Number          int
	Title           string
	Files           FileRefs
	ReplacesID      *int64
	SupersededByID  *int64
	IsDeleted       bool
}

const (
	SemesterAutumn = "HS"
	SemesterSpring = "FS"
)

func ValidSemester(s string) bool {
	return s == SemesterAutumn || s == SemesterSpring
}
