package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crgeee/reps/internal/model"
)

type fakeInterviewer struct {
	handle   string
	question string
	startErr error

	turns    []Turn
	turnErr  error
	answered []string
	dropped  []string
}

func (f *fakeInterviewer) StartInterview(_ context.Context, _ model.Topic, _ string) (string, string, error) {
	if f.startErr != nil {
		return "", "", f.startErr
	}
	return f.handle, f.question, nil
}

func (f *fakeInterviewer) ContinueInterview(_ context.Context, _ string, answer string) (Turn, error) {
	if f.turnErr != nil {
		return Turn{}, f.turnErr
	}
	f.answered = append(f.answered, answer)
	turn := f.turns[0]
	f.turns = f.turns[1:]
	return turn, nil
}

func (f *fakeInterviewer) DropInterview(handle string) {
	f.dropped = append(f.dropped, handle)
}

func TestPractice_FollowUpLoopThenFinalScore(t *testing.T) {
	ctx := context.Background()
	svc := &fakeInterviewer{
		handle:   "h-1",
		question: "Describe a hard bug you fixed.",
		turns: []Turn{
			{FollowUp: "What would you do differently?"},
			{Score: 82, Done: true},
		},
	}
	p := NewPractice(model.TopicBehavioral, "medium", svc)
	require.Equal(t, StepIdle, p.Step())

	q, err := p.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Describe a hard bug you fixed.", q)
	require.Equal(t, StepQuestioning, p.Step())

	require.NoError(t, p.BeginAnswer())
	turn, err := p.SubmitAnswer(ctx, "first answer")
	require.NoError(t, err)
	assert.False(t, turn.Done)

	// Follow-up loops back to questioning with the new question.
	require.Equal(t, StepQuestioning, p.Step())
	assert.Equal(t, "What would you do differently?", p.Question())

	require.NoError(t, p.BeginAnswer())
	turn, err = p.SubmitAnswer(ctx, "second answer")
	require.NoError(t, err)
	require.True(t, turn.Done)

	assert.Equal(t, StepEvaluation, p.Step())
	score, ok := p.Score()
	assert.True(t, ok)
	assert.Equal(t, 82, score)
	assert.Equal(t, []string{"first answer", "second answer"}, svc.answered)
}

func TestPractice_StartFailureStaysIdle(t *testing.T) {
	ctx := context.Background()
	svc := &fakeInterviewer{startErr: errors.New("unavailable")}
	p := NewPractice(model.TopicAlgorithms, "hard", svc)

	_, err := p.Start(ctx)
	require.Error(t, err)
	assert.Equal(t, StepIdle, p.Step())

	// Manual retry is just calling Start again.
	svc.startErr = nil
	svc.question = "Q"
	_, err = p.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepQuestioning, p.Step())
}

func TestPractice_SubmitFailureStaysAnswering(t *testing.T) {
	ctx := context.Background()
	svc := &fakeInterviewer{handle: "h", question: "Q", turnErr: errors.New("timeout")}
	p := NewPractice(model.TopicCoding, "easy", svc)

	_, err := p.Start(ctx)
	require.NoError(t, err)
	require.NoError(t, p.BeginAnswer())

	_, err = p.SubmitAnswer(ctx, "a")
	require.Error(t, err)
	assert.Equal(t, StepAnswering, p.Step())
}

func TestPractice_ResetAlwaysPermitted(t *testing.T) {
	ctx := context.Background()
	svc := &fakeInterviewer{handle: "h", question: "Q", turns: []Turn{{FollowUp: "F"}}}
	p := NewPractice(model.TopicSystemDesign, "medium", svc)

	// From questioning.
	_, err := p.Start(ctx)
	require.NoError(t, err)
	p.Reset()
	assert.Equal(t, StepIdle, p.Step())
	assert.Empty(t, p.Question())

	// From answering.
	_, err = p.Start(ctx)
	require.NoError(t, err)
	require.NoError(t, p.BeginAnswer())
	p.Reset()
	assert.Equal(t, StepIdle, p.Step())

	_, ok := p.Score()
	assert.False(t, ok)
}

func TestPractice_ResetDropsInterview(t *testing.T) {
	ctx := context.Background()
	svc := &fakeInterviewer{handle: "h-drop", question: "Q"}
	p := NewPractice(model.TopicBehavioral, "easy", svc)

	_, err := p.Start(ctx)
	require.NoError(t, err)

	p.Reset()
	assert.Equal(t, []string{"h-drop"}, svc.dropped)

	// A second reset has no handle left to release.
	p.Reset()
	assert.Equal(t, []string{"h-drop"}, svc.dropped)
}

func TestPractice_InvalidTransitions(t *testing.T) {
	p := NewPractice(model.TopicDatabases, "easy", &fakeInterviewer{})

	assert.True(t, errors.Is(p.BeginAnswer(), ErrInvalidTransition))

	_, err := p.SubmitAnswer(context.Background(), "a")
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}
