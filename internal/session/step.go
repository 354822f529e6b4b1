// Package session holds the two guided-session state machines: graded review
// sessions that feed the spaced-repetition scheduler, and ungraded practice
// interviews. Both share the same step vocabulary and transition checking;
// only the review machine has durable side effects.
package session

import (
	"errors"
	"fmt"
	"slices"
)

type Step string

const (
	// Review session steps.
	StepQuestion   Step = "question"
	StepAnswer     Step = "answer"
	StepEvaluation Step = "evaluation"
	StepRating     Step = "rating"
	StepDone       Step = "done"

	// Practice session steps.
	StepIdle        Step = "idle"
	StepQuestioning Step = "questioning"
	StepAnswering   Step = "answering"
)

var (
	ErrInvalidTransition = errors.New("session: invalid step transition")
	ErrSessionDone       = errors.New("session: session is finished")
	ErrCommitInFlight    = errors.New("session: rating commit in flight")
	ErrNoQuestion        = errors.New("session: no question generated yet")
)

// transitions is the allowed-move table for one machine.
type transitions map[Step][]Step

func (t transitions) check(from, to Step) error {
	if slices.Contains(t[from], to) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
