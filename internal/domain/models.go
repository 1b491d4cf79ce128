package domain

// QuizDocument is the stored quiz record. Title is the unique key in the
// repository; the JSON tags mirror the document wire format, so a document
// round-trips exactly through load/edit/save. Optional hierarchy tags are
// omitted from the serialized form when empty.
type QuizDocument struct {
	Title        string     `json:"quiz_title"`
	Department   string     `json:"department,omitempty"`
	Category     string     `json:"category,omitempty"` // legacy alias for Department, read-only
	Subcategory  string     `json:"subcategory,omitempty"`
	Level        string     `json:"level,omitempty"`
	Semester     string     `json:"semester,omitempty"`
	Course       string     `json:"course,omitempty"`
	Week         string     `json:"week,omitempty"`
	QuizCategory string     `json:"quiz_category,omitempty"`
	Questions    []Question `json:"questions"`
}

// DepartmentOrLegacy resolves the department facet, falling back to the
// legacy "category" field for documents written by older revisions.
func (d QuizDocument) DepartmentOrLegacy() string {
	if d.Department != "" {
		return d.Department
	}
	return d.Category
}

// Question is a single multiple-choice question. Correct holds the answer
// text and must match one of Options.
type Question struct {
	Prompt      string   `json:"question"`
	Options     []string `json:"options"`
	Correct     string   `json:"correct"`
	Explanation string   `json:"explanation,omitempty"`
}

// Valid reports whether the question is answerable: at least one option,
// and the answer key present among the options. Invalid questions still
// render but are excluded from input and scoring.
func (q Question) Valid() bool {
	if len(q.Options) == 0 {
		return false
	}
	for _, opt := range q.Options {
		if opt == q.Correct {
			return true
		}
	}
	return false
}
