// Package hierarchy derives the filterable facets (department, level,
// semester, course, week, category) from the current document set. All
// functions are pure computations over the documents they are given; an
// empty filter set acts as a wildcard.
package hierarchy

import (
	"sort"
	"strings"

	"nextgen-quiz-service/internal/domain"
)

// Fallback facet values shown when no document carries the field yet.
// These are fixed UX defaults and must stay byte-identical.
var (
	defaultLevels    = []string{"100 Level", "200 Level", "300 Level", "400 Level"}
	defaultSemesters = []string{"First Semester", "Second Semester"}
)

// Selection holds the user's chosen facet values, one set per tier.
type Selection struct {
	Departments []string
	Levels      []string
	Semesters   []string
	Courses     []string
	Weeks       []string
	Categories  []string
}

// Departments returns the sorted set of department values, resolving the
// legacy category alias.
func Departments(docs []domain.QuizDocument) []string {
	set := map[string]struct{}{}
	for _, doc := range docs {
		if dept := doc.DepartmentOrLegacy(); dept != "" {
			set[dept] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// Levels returns the sorted set of level values, or the fixed fallback
// sequence when no document defines one.
func Levels(docs []domain.QuizDocument) []string {
	set := map[string]struct{}{}
	for _, doc := range docs {
		if doc.Level != "" {
			set[doc.Level] = struct{}{}
		}
	}
	if len(set) == 0 {
		return append([]string(nil), defaultLevels...)
	}
	return sortedKeys(set)
}

// Semesters returns the sorted set of semester values, or the fixed
// fallback sequence when no document defines one.
func Semesters(docs []domain.QuizDocument) []string {
	set := map[string]struct{}{}
	for _, doc := range docs {
		if doc.Semester != "" {
			set[doc.Semester] = struct{}{}
		}
	}
	if len(set) == 0 {
		return append([]string(nil), defaultSemesters...)
	}
	return sortedKeys(set)
}

// Courses projects the course field of documents matching all supplied
// department, level and semester selections.
func Courses(docs []domain.QuizDocument, departments, levels, semesters []string) []string {
	set := map[string]struct{}{}
	for _, doc := range docs {
		if matches(departments, doc.DepartmentOrLegacy()) &&
			matches(levels, doc.Level) &&
			matches(semesters, doc.Semester) &&
			doc.Course != "" {
			set[doc.Course] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// Weeks projects the week field of documents matching all supplied level,
// semester and course selections.
func Weeks(docs []domain.QuizDocument, levels, semesters, courses []string) []string {
	set := map[string]struct{}{}
	for _, doc := range docs {
		if matches(levels, doc.Level) &&
			matches(semesters, doc.Semester) &&
			matches(courses, doc.Course) &&
			doc.Week != "" {
			set[doc.Week] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// Categories projects the quiz category field of documents matching all
// supplied level, semester, course and week selections.
func Categories(docs []domain.QuizDocument, levels, semesters, courses, weeks []string) []string {
	set := map[string]struct{}{}
	for _, doc := range docs {
		if matches(levels, doc.Level) &&
			matches(semesters, doc.Semester) &&
			matches(courses, doc.Course) &&
			matches(weeks, doc.Week) &&
			doc.QuizCategory != "" {
			set[doc.QuizCategory] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// Filter returns the documents matching every non-empty facet set of the
// selection, sorted by title.
func Filter(docs []domain.QuizDocument, sel Selection) []domain.QuizDocument {
	out := make([]domain.QuizDocument, 0, len(docs))
	for _, doc := range docs {
		if matches(sel.Departments, doc.DepartmentOrLegacy()) &&
			matches(sel.Levels, doc.Level) &&
			matches(sel.Semesters, doc.Semester) &&
			matches(sel.Courses, doc.Course) &&
			matches(sel.Weeks, doc.Week) &&
			matches(sel.Categories, doc.QuizCategory) {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

// Label renders the list label for a document: its title plus the present
// hierarchy tags joined into a chain.
func Label(doc domain.QuizDocument) string {
	parts := make([]string, 0, 5)
	for _, part := range []string{doc.Level, doc.Semester, doc.Course, doc.Week, doc.QuizCategory} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return doc.Title
	}
	return doc.Title + " • " + strings.Join(parts, " → ")
}

func matches(selected []string, value string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, s := range selected {
		if s == value {
			return true
		}
	}
	return false
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
