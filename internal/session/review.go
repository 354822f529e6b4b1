package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/crgeee/reps/internal/model"
	"github.com/crgeee/reps/internal/schedule"
)

// reviewTransitions: question and answer both allow skipping straight to
// rating; rating advances via SubmitRating, which is the only durable
// transition.
var reviewTransitions = transitions{
	StepQuestion:   {StepAnswer, StepRating},
	StepAnswer:     {StepEvaluation, StepRating},
	StepEvaluation: {StepRating},
	StepRating:     {StepQuestion, StepDone},
}

// scratch is the per-task transient state, cleared when the session moves to
// the next task.
type scratch struct {
	Question   string
	Answer     string
	Evaluation *Evaluation
}

// pendingRating holds a computed schedule update whose persistence has not
// succeeded yet. Retained across persistence failures so a retry does not
// recompute (and a computed update is never silently lost).
type pendingRating struct {
	quality schedule.Quality
	update  schedule.Update
	at      time.Time
}

// Review walks a frozen queue of due tasks through question, answer,
// evaluation and rating steps. The queue is an immutable snapshot taken at
// creation: tasks becoming due or completed elsewhere never join or leave
// it. Position only increases.
type Review struct {
	mu sync.Mutex

	id        string
	queue     []model.Task
	pos       int
	step      Step
	scratch   scratch
	reviewed  int
	pending   *pendingRating
	commiting bool
	abandoned bool

	gen   QuestionGenerator
	eval  AnswerEvaluator
	store ScheduleStore
	now   func() time.Time
}

// ReviewDeps are the external collaborators a review session talks to.
// Generator and Evaluator are optional (sessions can run on skip paths
// alone); Store is required.
type ReviewDeps struct {
	Generator QuestionGenerator
	Evaluator AnswerEvaluator
	Store     ScheduleStore
	Now       func() time.Time
}

// NewReview snapshots queue and starts at the first task's question step.
// An empty queue yields a session that is already done with zero reviews.
func NewReview(queue []model.Task, deps ReviewDeps) *Review {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	snapshot := make([]model.Task, len(queue))
	copy(snapshot, queue)

	s := &Review{
		id:    uuid.NewString(),
		queue: snapshot,
		step:  StepQuestion,
		gen:   deps.Generator,
		eval:  deps.Evaluator,
		store: deps.Store,
		now:   deps.Now,
	}
	if len(snapshot) == 0 {
		s.step = StepDone
	}
	return s
}

func (s *Review) ID() string { return s.id }

func (s *Review) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Review) Position() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

// Reviewed is the number of ratings committed so far.
func (s *Review) Reviewed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reviewed
}

func (s *Review) QueueLen() int { return len(s.queue) }

func (s *Review) Done() bool { return s.Step() == StepDone }

// Current returns the task under review, or false when the session is done.
func (s *Review) Current() (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step == StepDone || s.pos >= len(s.queue) {
		return model.Task{}, false
	}
	return s.queue[s.pos], true
}

// Scratch returns the transient question, answer and evaluation for the
// current task.
func (s *Review) Scratch() (question, answer string, eval *Evaluation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scratch.Question, s.scratch.Answer, s.scratch.Evaluation
}

// LoadQuestion asks the external generator for a question at the question
// step. A generator failure is recoverable: the step does not move and the
// caller may retry or skip to rating.
func (s *Review) LoadQuestion(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.step != StepQuestion {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: load question at %s", ErrInvalidTransition, s.step)
	}
	if s.gen == nil {
		s.mu.Unlock()
		return "", fmt.Errorf("generate question: no generator configured")
	}
	task := s.queue[s.pos]
	s.mu.Unlock()

	q, err := s.gen.GenerateQuestion(ctx, task)
	if err != nil {
		return "", fmt.Errorf("generate question: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step == StepQuestion && !s.abandoned {
		s.scratch.Question = q
	}
	return q, nil
}

// BeginAnswer moves question -> answer. Requires a generated question; the
// question-free path is SkipToRating.
func (s *Review) BeginAnswer() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := reviewTransitions.check(s.step, StepAnswer); err != nil {
		return err
	}
	if s.scratch.Question == "" {
		return ErrNoQuestion
	}
	s.step = StepAnswer
	return nil
}

// SkipToRating bypasses answering (from question) or evaluation (from
// answer). Always available regardless of external-service health.
func (s *Review) SkipToRating() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := reviewTransitions.check(s.step, StepRating); err != nil {
		return err
	}
	s.step = StepRating
	return nil
}

// SubmitAnswer sends the drafted answer to the evaluator and, on success,
// attaches the result and moves answer -> evaluation. On failure the session
// stays at answer with the draft retained.
func (s *Review) SubmitAnswer(ctx context.Context, answer string) (Evaluation, error) {
	s.mu.Lock()
	if err := reviewTransitions.check(s.step, StepEvaluation); err != nil {
		s.mu.Unlock()
		return Evaluation{}, err
	}
	if s.eval == nil {
		s.mu.Unlock()
		return Evaluation{}, fmt.Errorf("evaluate answer: no evaluator configured")
	}
	task := s.queue[s.pos]
	s.scratch.Answer = answer
	s.mu.Unlock()

	ev, err := s.eval.EvaluateAnswer(ctx, task, answer)
	if err != nil {
		return Evaluation{}, fmt.Errorf("evaluate answer: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepAnswer || s.abandoned {
		return ev, nil
	}
	s.scratch.Evaluation = &ev
	s.step = StepEvaluation
	return ev, nil
}

// ProceedToRating moves evaluation -> rating after the user has read the
// feedback.
func (s *Review) ProceedToRating() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepEvaluation {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.step, StepRating)
	}
	s.step = StepRating
	return nil
}

// SubmitRating commits a recall score for the current task: exactly one
// schedule advance and one persistence call per submission. On success the
// session moves to the next task's question step (scratch cleared) or to
// done. On persistence failure the session stays at rating and keeps the
// computed update for retry.
func (s *Review) SubmitRating(ctx context.Context, quality schedule.Quality) error {
	s.mu.Lock()
	if s.abandoned {
		s.mu.Unlock()
		return ErrSessionDone
	}
	if s.step != StepRating {
		s.mu.Unlock()
		return fmt.Errorf("%w: submit rating at %s", ErrInvalidTransition, s.step)
	}
	if s.commiting {
		s.mu.Unlock()
		return ErrCommitInFlight
	}

	task := s.queue[s.pos]

	// Reuse the retained update when retrying the same score after a
	// persistence failure; a different score is a new submission.
	pending := s.pending
	if pending == nil || pending.quality != quality {
		now := s.now()
		u, err := schedule.Advance(schedule.StateOf(task), quality, now)
		if err != nil {
			s.mu.Unlock()
			return err
		}
		pending = &pendingRating{quality: quality, update: u, at: now}
		s.pending = pending
	}
	s.commiting = true
	s.mu.Unlock()

	err := s.store.PersistScheduleUpdate(ctx, task.ID, pending.update, pending.at)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.commiting = false
	if err != nil {
		return fmt.Errorf("persist schedule update: %w", err)
	}

	s.pending = nil
	s.reviewed++
	if s.pos+1 < len(s.queue) {
		s.pos++
		s.scratch = scratch{}
		s.step = StepQuestion
	} else {
		s.step = StepDone
	}
	return nil
}

// Abandon ends the session without touching the remaining queue. Refused
// while a rating commit is outstanding; that write finishes or fails on its
// own so a computed update is not lost.
func (s *Review) Abandon() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.commiting {
		return ErrCommitInFlight
	}
	s.abandoned = true
	s.step = StepDone
	s.scratch = scratch{}
	return nil
}
