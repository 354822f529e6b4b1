package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/crgeee/reps/internal/model"
)

// practiceTransitions: answering loops back to questioning on a follow-up
// and terminates at evaluation on a final score. Reset to idle is handled
// separately because it is always permitted.
var practiceTransitions = transitions{
	StepIdle:        {StepQuestioning},
	StepQuestioning: {StepAnswering},
	StepAnswering:   {StepQuestioning, StepEvaluation},
}

// Practice is the ungraded mock-interview machine. Unlike Review it has no
// queue and no durable side effects; the whole session is one conversation
// with the external interview service, tracked by an opaque handle.
type Practice struct {
	mu sync.Mutex

	id         string
	topic      model.Topic
	difficulty string
	step       Step
	handle     string
	question   string
	score      int

	svc Interviewer
}

func NewPractice(topic model.Topic, difficulty string, svc Interviewer) *Practice {
	return &Practice{
		id:         uuid.NewString(),
		topic:      topic,
		difficulty: difficulty,
		step:       StepIdle,
		svc:        svc,
	}
}

func (p *Practice) ID() string { return p.id }

func (p *Practice) Step() Step {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.step
}

// Question returns the question currently on the table.
func (p *Practice) Question() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.question
}

// Score returns the final score; meaningful only at the evaluation step.
func (p *Practice) Score() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.score, p.step == StepEvaluation
}

// Start moves idle -> questioning by opening an interview on the external
// service. On failure the session stays idle; the caller retries by calling
// Start again.
func (p *Practice) Start(ctx context.Context) (string, error) {
	p.mu.Lock()
	if err := practiceTransitions.check(p.step, StepQuestioning); err != nil {
		p.mu.Unlock()
		return "", err
	}
	topic, difficulty := p.topic, p.difficulty
	p.mu.Unlock()

	handle, question, err := p.svc.StartInterview(ctx, topic, difficulty)
	if err != nil {
		return "", fmt.Errorf("start interview: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.step != StepIdle {
		return p.question, nil
	}
	p.handle = handle
	p.question = question
	p.step = StepQuestioning
	return question, nil
}

// BeginAnswer moves questioning -> answering.
func (p *Practice) BeginAnswer() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := practiceTransitions.check(p.step, StepAnswering); err != nil {
		return err
	}
	p.step = StepAnswering
	return nil
}

// SubmitAnswer sends the response to the service. A follow-up question loops
// back to questioning; a final score terminates at evaluation. On failure
// the session stays at answering.
func (p *Practice) SubmitAnswer(ctx context.Context, answer string) (Turn, error) {
	p.mu.Lock()
	if p.step != StepAnswering {
		p.mu.Unlock()
		return Turn{}, fmt.Errorf("%w: submit answer at %s", ErrInvalidTransition, p.step)
	}
	handle := p.handle
	p.mu.Unlock()

	turn, err := p.svc.ContinueInterview(ctx, handle, answer)
	if err != nil {
		return Turn{}, fmt.Errorf("continue interview: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.step != StepAnswering {
		return turn, nil
	}
	if turn.Done {
		p.score = turn.Score
		p.step = StepEvaluation
	} else {
		p.question = turn.FollowUp
		p.step = StepQuestioning
	}
	return turn, nil
}

// Reset returns to idle and drops the open interview on the service so the
// transcript does not outlive the session. Always permitted; there is never
// a durable commit to protect.
func (p *Practice) Reset() {
	p.mu.Lock()
	handle := p.handle
	p.step = StepIdle
	p.handle = ""
	p.question = ""
	p.score = 0
	p.mu.Unlock()

	if handle != "" {
		p.svc.DropInterview(handle)
	}
}
