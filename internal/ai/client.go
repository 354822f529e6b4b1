// Package ai is the gateway to the external interview-intelligence service:
// question generation, answer evaluation, and the mock-interview loop. The
// rest of the system treats it as opaque and recoverable-on-failure.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/crgeee/reps/internal/model"
	"github.com/crgeee/reps/internal/session"
)

var ErrUnknownInterview = errors.New("ai: unknown interview handle")

// Config for the backing chat-completion endpoint.
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	TimeoutMS int
}

// Client implements the session package's collaborator interfaces on top of
// a chat-completion API. Practice interviews keep their transcript here,
// keyed by an opaque handle.
type Client struct {
	client *openai.Client
	model  string

	mu         sync.Mutex
	interviews map[string][]openai.ChatCompletionMessage
}

// Compile-time interface checks.
var (
	_ session.QuestionGenerator = (*Client)(nil)
	_ session.AnswerEvaluator   = (*Client)(nil)
	_ session.Interviewer       = (*Client)(nil)
)

func NewClient(cfg Config) *Client {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	httpClient := &http.Client{}
	if cfg.TimeoutMS > 0 {
		httpClient.Timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}
	config.HTTPClient = httpClient

	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}

	return &Client{
		client:     openai.NewClientWithConfig(config),
		model:      cfg.Model,
		interviews: map[string][]openai.ChatCompletionMessage{},
	}
}

func (c *Client) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// GenerateQuestion produces one interview question for a task.
func (c *Client) GenerateQuestion(ctx context.Context, task model.Task) (string, error) {
	prompt := fmt.Sprintf(
		"Write one focused interview question about %q (topic: %s).", task.Title, task.Topic)
	if notes := strings.TrimSpace(task.Notes); notes != "" {
		prompt += "\nCandidate's notes on the subject:\n" + notes
	}

	return c.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: "You are an experienced technical interviewer. Reply with the question only."},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	})
}

// EvaluateAnswer scores a written answer on the structured rubric.
func (c *Client) EvaluateAnswer(ctx context.Context, task model.Task, answer string) (session.Evaluation, error) {
	prompt := fmt.Sprintf(
		`Grade this interview answer about %q (topic: %s).
Answer:
%s

Reply with JSON only:
{"clarity": 1-5, "specificity": 1-5, "missionAlignment": 1-5, "feedback": "...", "suggestedImprovement": "..."}`,
		task.Title, task.Topic, answer)

	out, err := c.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: "You are a strict but constructive interview coach."},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	})
	if err != nil {
		return session.Evaluation{}, err
	}

	var ev session.Evaluation
	if err := json.Unmarshal([]byte(stripFences(out)), &ev); err != nil {
		return session.Evaluation{}, fmt.Errorf("decode evaluation: %w", err)
	}
	return ev, nil
}

const interviewSystemPrompt = `You are running a mock interview. Ask one question at a time.
After each candidate answer, reply with JSON only:
either {"followUp": "<next question>"} to continue,
or {"score": 0-100, "done": true} to end the interview.
End the interview after at most three follow-ups.`

// StartInterview opens a practice interview and returns its opaque handle
// plus the opening question.
func (c *Client) StartInterview(ctx context.Context, topic model.Topic, difficulty string) (string, string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: interviewSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(
			"Begin a %s-difficulty interview on %s. Ask the opening question (plain text, not JSON).", difficulty, topic)},
	}

	question, err := c.complete(ctx, messages)
	if err != nil {
		return "", "", err
	}

	handle := uuid.NewString()
	messages = append(messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleAssistant, Content: question,
	})

	c.mu.Lock()
	c.interviews[handle] = messages
	c.mu.Unlock()

	return handle, question, nil
}

// ContinueInterview feeds the candidate's answer to an open interview and
// returns either a follow-up or the final score. The transcript for a
// finished interview is dropped.
func (c *Client) ContinueInterview(ctx context.Context, handle, answer string) (session.Turn, error) {
	c.mu.Lock()
	messages, ok := c.interviews[handle]
	c.mu.Unlock()
	if !ok {
		return session.Turn{}, ErrUnknownInterview
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser, Content: answer,
	})

	out, err := c.complete(ctx, messages)
	if err != nil {
		return session.Turn{}, err
	}

	var turn session.Turn
	if err := json.Unmarshal([]byte(stripFences(out)), &turn); err != nil {
		return session.Turn{}, fmt.Errorf("decode interview turn: %w", err)
	}

	c.mu.Lock()
	if turn.Done {
		delete(c.interviews, handle)
	} else {
		messages = append(messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleAssistant, Content: out,
		})
		c.interviews[handle] = messages
	}
	c.mu.Unlock()

	return turn, nil
}

// DropInterview discards a transcript when a practice session resets.
func (c *Client) DropInterview(handle string) {
	c.mu.Lock()
	delete(c.interviews, handle)
	c.mu.Unlock()
}

// stripFences removes a markdown code fence if the model wrapped its JSON.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
