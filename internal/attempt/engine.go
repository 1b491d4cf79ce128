package attempt

import (
	"math/rand"
	"sync"
	"time"

	"nextgen-quiz-service/internal/domain"
)

// Engine owns attempt lifecycle transitions. It carries the randomness and
// the clock so that attempts stay plain data; the engine is safe to share
// across sessions, individual attempts are not.
type Engine struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

func NewEngine() *Engine {
	return NewEngineWithRand(rand.New(rand.NewSource(time.Now().UnixNano())), time.Now)
}

// NewEngineWithRand allows deterministic permutations and timestamps in tests.
func NewEngineWithRand(rnd *rand.Rand, now func() time.Time) *Engine {
	return &Engine{rnd: rnd, now: now}
}

// New creates a fresh attempt in the configuring phase. No permutations
// exist yet; they are generated on Start.
func (e *Engine) New(doc domain.QuizDocument) *Attempt {
	return &Attempt{
		doc:       doc,
		responses: make(map[int]int),
		phase:     PhaseConfiguring,
	}
}

// Start generates the question and option permutations, stamps the start
// time, and moves the attempt in progress. timeLimitMinutes of zero means
// no time limit. Permutations are generated exactly once per attempt.
func (e *Engine) Start(a *Attempt, timeLimitMinutes int) error {
	if a.phase != PhaseConfiguring {
		return domain.ErrInvalidTransition
	}

	e.mu.Lock()
	a.questionOrder = e.rnd.Perm(len(a.doc.Questions))
	a.optionOrder = make(map[int][]int, len(a.doc.Questions))
	for i, q := range a.doc.Questions {
		if len(q.Options) == 0 {
			continue
		}
		a.optionOrder[i] = e.rnd.Perm(len(q.Options))
	}
	e.mu.Unlock()

	if timeLimitMinutes > 0 {
		a.timeLimit = time.Duration(timeLimitMinutes) * time.Minute
	}
	a.startTime = e.now()
	a.phase = PhaseInProgress
	return nil
}

// RecordResponse stores the chosen presentation option index at a
// presentation position, overwriting any prior choice. Rejected once the
// attempt ended or the timer ran out.
func (e *Engine) RecordResponse(a *Attempt, position, option int) error {
	if a.phase != PhaseInProgress {
		return domain.ErrInvalidTransition
	}
	if a.TimerStatusAt(e.now()).State == TimerExpired {
		return domain.ErrInvalidTransition
	}
	if position < 0 || position >= len(a.questionOrder) {
		return domain.ErrInvalidResponse
	}
	canonical := a.questionOrder[position]
	if !a.doc.Questions[canonical].Valid() {
		return domain.ErrInvalidResponse
	}
	order := a.optionOrder[canonical]
	if option < 0 || option >= len(order) {
		return domain.ErrInvalidResponse
	}
	a.responses[position] = option
	return nil
}

// Tick polls the attempt's timer against the engine clock. The caller must
// react to TimerExpired by calling Expire.
func (e *Engine) Tick(a *Attempt) TimerStatus {
	return a.TimerStatusAt(e.now())
}

// Submit ends the attempt and computes the score. A second submit, or a
// submit before start, is an invalid transition and leaves state untouched.
func (e *Engine) Submit(a *Attempt) error {
	if a.phase != PhaseInProgress {
		return domain.ErrInvalidTransition
	}
	a.finish(false)
	return nil
}

// Expire ends the attempt on timer expiry. Scoring runs through the same
// path as a manual submit; the timerExpired flag is what tells the two
// endings apart.
func (e *Engine) Expire(a *Attempt) error {
	if a.phase != PhaseInProgress {
		return domain.ErrInvalidTransition
	}
	a.finish(true)
	return nil
}

// Restart discards all attempt state and hands back a brand-new attempt on
// the same document, back in the configuring phase.
func (e *Engine) Restart(a *Attempt) *Attempt {
	return e.New(a.doc)
}
