package attempt

import (
	"math"
	"time"

	"nextgen-quiz-service/internal/domain"
)

// Phase tracks where an attempt sits in its lifecycle.
type Phase int

const (
	PhaseConfiguring Phase = iota
	PhaseInProgress
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseConfiguring:
		return "configuring"
	case PhaseInProgress:
		return "in_progress"
	case PhaseEnded:
		return "ended"
	}
	return "unknown"
}

// Score is the result of one attempt. Total counts only valid questions.
type Score struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Percent is the display percentage, rounded to the nearest integer.
// Defined as 0 for an empty quiz.
func (s Score) Percent() int {
	if s.Total == 0 {
		return 0
	}
	return int(math.Round(float64(s.Correct) / float64(s.Total) * 100))
}

// Attempt is one user's single pass through a quiz, from selection to
// restart. The question and option permutations are generated exactly once,
// when the attempt starts, and never regenerated afterwards; scoring always
// maps responses back through them to the canonical answer key.
type Attempt struct {
	doc domain.QuizDocument

	// questionOrder[presentation position] = canonical question index.
	questionOrder []int
	// optionOrder[canonical question index][presentation option index] =
	// canonical option index. Questions with zero options have no entry.
	optionOrder map[int][]int
	// responses[presentation position] = presentation option index.
	responses map[int]int

	startTime    time.Time
	timeLimit    time.Duration // zero means unlimited
	phase        Phase
	timerExpired bool
	reveal       bool
	score        *Score
}

// Document returns the immutable quiz document backing the attempt.
func (a *Attempt) Document() domain.QuizDocument { return a.doc }

func (a *Attempt) Phase() Phase        { return a.phase }
func (a *Attempt) TimerExpired() bool  { return a.timerExpired }
func (a *Attempt) RevealAnswers() bool { return a.reveal }

// Score returns the computed score; ok is false until the attempt ends.
func (a *Attempt) Score() (Score, bool) {
	if a.score == nil {
		return Score{}, false
	}
	return *a.score, true
}

// Response returns the recorded presentation option index for a
// presentation position, if any.
func (a *Attempt) Response(position int) (int, bool) {
	idx, ok := a.responses[position]
	return idx, ok
}

// Responses returns a copy of the recorded responses keyed by
// presentation position.
func (a *Attempt) Responses() map[int]int {
	out := make(map[int]int, len(a.responses))
	for pos, idx := range a.responses {
		out[pos] = idx
	}
	return out
}

// TimerState classifies the wall-clock timer of an attempt.
type TimerState string

const (
	TimerUnlimited TimerState = "unlimited"
	TimerRunning   TimerState = "running"
	TimerExpired   TimerState = "expired"
)

// TimerStatus is the advisory timer reading the boundary polls for.
type TimerStatus struct {
	State     TimerState `json:"state"`
	Remaining int        `json:"remaining"` // whole seconds, meaningful only while running
}

// TimerStatusAt is a pure function of the attempt's start time, its time
// limit, and now. Expiry is reported here; the transition to PhaseEnded is
// the caller's job (via Engine.Expire).
func (a *Attempt) TimerStatusAt(now time.Time) TimerStatus {
	if a.phase == PhaseConfiguring || a.timeLimit <= 0 {
		return TimerStatus{State: TimerUnlimited}
	}
	remaining := a.timeLimit - now.Sub(a.startTime)
	if remaining <= 0 {
		return TimerStatus{State: TimerExpired}
	}
	// Ceiling, so the display counts down from the full limit and only
	// reaches zero together with the expiry transition.
	secs := int((remaining + time.Second - 1) / time.Second)
	return TimerStatus{State: TimerRunning, Remaining: secs}
}

// PresentedQuestion is one question in presentation order, with its options
// in presentation order. Invalid questions carry no answerable options and
// are flagged for an inline error marker.
type PresentedQuestion struct {
	Position int      `json:"position"`
	Prompt   string   `json:"prompt"`
	Options  []string `json:"options"`
	Invalid  bool     `json:"invalid"`
}

// Questions returns the attempt's questions in presentation order. Before
// the attempt starts the canonical order is used, since the permutations do
// not exist yet.
func (a *Attempt) Questions() []PresentedQuestion {
	out := make([]PresentedQuestion, 0, len(a.doc.Questions))
	for pos := range a.doc.Questions {
		canonical := pos
		if a.questionOrder != nil {
			canonical = a.questionOrder[pos]
		}
		q := a.doc.Questions[canonical]
		pq := PresentedQuestion{Position: pos, Prompt: q.Prompt, Invalid: !q.Valid()}
		if !pq.Invalid {
			order := a.optionOrderFor(canonical)
			pq.Options = make([]string, len(order))
			for i, optIdx := range order {
				pq.Options[i] = q.Options[optIdx]
			}
		}
		out = append(out, pq)
	}
	return out
}

// Outcome is the per-question verdict shown during reveal.
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeInvalid   Outcome = "invalid"
)

// ReviewItem is the post-submission disclosure for one presentation
// position. CorrectAnswer is populated for skipped and incorrect outcomes.
type ReviewItem struct {
	Position      int     `json:"position"`
	Prompt        string  `json:"prompt"`
	Outcome       Outcome `json:"outcome"`
	Chosen        int     `json:"chosen"` // presentation option index, -1 when skipped
	CorrectAnswer string  `json:"correctAnswer,omitempty"`
	Explanation   string  `json:"explanation,omitempty"`
}

// Review discloses per-question outcomes. Only available once the attempt
// has ended and answers are revealed.
func (a *Attempt) Review() ([]ReviewItem, error) {
	if a.phase != PhaseEnded || !a.reveal {
		return nil, domain.ErrInvalidTransition
	}
	out := make([]ReviewItem, 0, len(a.questionOrder))
	for pos, canonical := range a.questionOrder {
		q := a.doc.Questions[canonical]
		item := ReviewItem{Position: pos, Prompt: q.Prompt, Chosen: -1, Explanation: q.Explanation}
		if !q.Valid() {
			item.Outcome = OutcomeInvalid
			out = append(out, item)
			continue
		}
		chosen, answered := a.responses[pos]
		switch {
		case !answered:
			item.Outcome = OutcomeSkipped
			item.CorrectAnswer = q.Correct
		case a.canonicalOption(canonical, chosen) == q.Correct:
			item.Outcome = OutcomeCorrect
			item.Chosen = chosen
		default:
			item.Outcome = OutcomeIncorrect
			item.Chosen = chosen
			item.CorrectAnswer = q.Correct
		}
		out = append(out, item)
	}
	return out, nil
}

// ToggleReveal flips answer disclosure. Valid only once the attempt ended.
func (a *Attempt) ToggleReveal() error {
	if a.phase != PhaseEnded {
		return domain.ErrInvalidTransition
	}
	a.reveal = !a.reveal
	return nil
}

func (a *Attempt) optionOrderFor(canonical int) []int {
	if order, ok := a.optionOrder[canonical]; ok {
		return order
	}
	// Identity order for the pre-start preview.
	order := make([]int, len(a.doc.Questions[canonical].Options))
	for i := range order {
		order[i] = i
	}
	return order
}

func (a *Attempt) canonicalOption(canonical, presented int) string {
	q := a.doc.Questions[canonical]
	return q.Options[a.optionOrder[canonical][presented]]
}

// computeScore maps every recorded response back to canonical option space
// and compares against the answer key. Invalid questions contribute to
// neither numerator nor denominator; unanswered valid questions count as
// incorrect.
func (a *Attempt) computeScore() Score {
	var s Score
	for pos, canonical := range a.questionOrder {
		q := a.doc.Questions[canonical]
		if !q.Valid() {
			continue
		}
		s.Total++
		chosen, answered := a.responses[pos]
		if answered && a.canonicalOption(canonical, chosen) == q.Correct {
			s.Correct++
		}
	}
	return s
}

func (a *Attempt) finish(expired bool) {
	s := a.computeScore()
	a.score = &s
	a.phase = PhaseEnded
	a.timerExpired = expired
}
