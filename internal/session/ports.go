package session

import (
	"context"
	"time"

	"github.com/crgeee/reps/internal/model"
	"github.com/crgeee/reps/internal/schedule"
)

// Evaluation is the structured score an external evaluator returns for a
// written answer.
type Evaluation struct {
	Clarity              int    `json:"clarity"`
	Specificity          int    `json:"specificity"`
	MissionAlignment     int    `json:"missionAlignment"`
	Feedback             string `json:"feedback"`
	SuggestedImprovement string `json:"suggestedImprovement"`
}

// QuestionGenerator produces an interview question for a task. May fail;
// failures are recoverable and never block the skip paths.
type QuestionGenerator interface {
	GenerateQuestion(ctx context.Context, task model.Task) (string, error)
}

// AnswerEvaluator scores a drafted answer.
type AnswerEvaluator interface {
	EvaluateAnswer(ctx context.Context, task model.Task, answer string) (Evaluation, error)
}

// ScheduleStore persists the schedule advance computed by a rating
// submission. reviewedAt is the date anchor the update was computed against.
type ScheduleStore interface {
	PersistScheduleUpdate(ctx context.Context, id model.TaskID, u schedule.Update, reviewedAt time.Time) error
}

// Turn is one exchange in a practice interview: either a follow-up question
// or a final score.
type Turn struct {
	FollowUp string `json:"followUp,omitempty"`
	Score    int    `json:"score,omitempty"`
	Done     bool   `json:"done"`
}

// Interviewer runs a practice interview on the external simulation service.
// The returned handle is opaque to this package. DropInterview releases the
// service-side transcript for an interview that will not finish; it must be
// safe to call with a handle the service no longer knows.
type Interviewer interface {
	StartInterview(ctx context.Context, topic model.Topic, difficulty string) (handle, question string, err error)
	ContinueInterview(ctx context.Context, handle, answer string) (Turn, error)
	DropInterview(handle string)
}
