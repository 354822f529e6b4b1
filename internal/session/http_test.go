package session

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crgeee/reps/internal/model"
)

func newTestManager(store *fakeStore) *Manager {
	gen := &fakeGenerator{question: "Explain two-phase commit."}
	eval := &fakeEvaluator{eval: Evaluation{Clarity: 4, Feedback: "solid"}}
	deps := ReviewDeps{Generator: gen, Evaluator: eval, Store: store, Now: fixedNow}
	interviewer := &fakeInterviewer{
		handle:   "h-http",
		question: "Tell me about a hard bug.",
		turns:    []Turn{{Score: 80, Done: true}},
	}
	return NewManager(deps, interviewer, func() ([]model.Task, error) {
		return twoTaskQueue(), nil
	})
}

func post(t *testing.T, h http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(http.MethodPost, path, rd)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body=%s", rec.Body.String())
	return out
}

func TestReviewHTTPFlow(t *testing.T) {
	store := &fakeStore{}
	m := newTestManager(store)
	h := NewHandler(m)

	var events []string
	m.OnEvent = func(name string, _ map[string]any) { events = append(events, name) }

	created := post(t, h.ReviewRoot, "/api/review/sessions", nil)
	require.Equal(t, http.StatusCreated, created.Code)
	view := decodeView(t, created)
	id := view["id"].(string)
	assert.Equal(t, "question", view["step"])
	assert.Equal(t, float64(2), view["queueLength"])

	base := "/api/review/sessions/" + id

	q := post(t, h.ReviewSub, base+"/question", nil)
	require.Equal(t, http.StatusOK, q.Code)
	assert.Equal(t, "Explain two-phase commit.", decodeView(t, q)["question"])

	require.Equal(t, http.StatusOK, post(t, h.ReviewSub, base+"/answer", nil).Code)

	ev := post(t, h.ReviewSub, base+"/evaluate", map[string]any{"answer": "write-ahead, then commit"})
	require.Equal(t, http.StatusOK, ev.Code)
	assert.Equal(t, "evaluation", decodeView(t, ev)["step"])

	require.Equal(t, http.StatusOK, post(t, h.ReviewSub, base+"/proceed", nil).Code)

	rated := post(t, h.ReviewSub, base+"/rate", map[string]any{"quality": 4})
	require.Equal(t, http.StatusOK, rated.Code)
	v := decodeView(t, rated)
	assert.Equal(t, "question", v["step"])
	assert.Equal(t, float64(1), v["position"])
	assert.Equal(t, 1, store.calls)

	assert.Equal(t, []string{"session_started"}, events)
}

func TestReviewHTTPRejectsBadTransitionAndUnknownSession(t *testing.T) {
	store := &fakeStore{}
	m := newTestManager(store)
	h := NewHandler(m)

	created := post(t, h.ReviewRoot, "/api/review/sessions", nil)
	id := decodeView(t, created)["id"].(string)

	// Rating straight from the question step is not a legal move.
	bad := post(t, h.ReviewSub, "/api/review/sessions/"+id+"/rate", map[string]any{"quality": 4})
	assert.Equal(t, http.StatusConflict, bad.Code)

	missing := post(t, h.ReviewSub, "/api/review/sessions/nope/skip", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestReviewHTTPAbandonRemovesSession(t *testing.T) {
	store := &fakeStore{}
	m := newTestManager(store)
	h := NewHandler(m)

	var events []string
	m.OnEvent = func(name string, _ map[string]any) { events = append(events, name) }

	created := post(t, h.ReviewRoot, "/api/review/sessions", nil)
	id := decodeView(t, created)["id"].(string)

	req := httptest.NewRequest(http.MethodDelete, "/api/review/sessions/"+id, nil)
	rec := httptest.NewRecorder()
	h.ReviewSub(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	gone := post(t, h.ReviewSub, "/api/review/sessions/"+id+"/skip", nil)
	assert.Equal(t, http.StatusNotFound, gone.Code)
	assert.Contains(t, events, "session_abandoned")
}

func TestPracticeHTTPFlow(t *testing.T) {
	m := newTestManager(&fakeStore{})
	h := NewHandler(m)

	created := post(t, h.PracticeRoot, "/api/practice/sessions", map[string]any{
		"topic":      "behavioral",
		"difficulty": "medium",
	})
	require.Equal(t, http.StatusCreated, created.Code)
	view := decodeView(t, created)
	id := view["id"].(string)
	assert.Equal(t, "questioning", view["step"])
	assert.Equal(t, "Tell me about a hard bug.", view["question"])

	base := "/api/practice/sessions/" + id
	require.Equal(t, http.StatusOK, post(t, h.PracticeSub, base+"/answer", nil).Code)

	done := post(t, h.PracticeSub, base+"/respond", map[string]any{"answer": "bisected the regression"})
	require.Equal(t, http.StatusOK, done.Code)

	reset := post(t, h.PracticeSub, base+"/reset", nil)
	require.Equal(t, http.StatusOK, reset.Code)
	assert.Equal(t, "idle", decodeView(t, reset)["step"])
}

func TestPracticeHTTPDeleteRemovesSession(t *testing.T) {
	interviewer := &fakeInterviewer{handle: "h-del", question: "Q"}
	m := NewManager(ReviewDeps{Store: &fakeStore{}}, interviewer, func() ([]model.Task, error) { return nil, nil })
	h := NewHandler(m)

	var events []string
	m.OnEvent = func(name string, _ map[string]any) { events = append(events, name) }

	created := post(t, h.PracticeRoot, "/api/practice/sessions", map[string]any{"topic": "coding"})
	require.Equal(t, http.StatusCreated, created.Code)
	id := decodeView(t, created)["id"].(string)

	req := httptest.NewRequest(http.MethodDelete, "/api/practice/sessions/"+id, nil)
	rec := httptest.NewRecorder()
	h.PracticeSub(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// The session is gone and the service-side transcript was released.
	gone := httptest.NewRequest(http.MethodGet, "/api/practice/sessions/"+id, nil)
	goneRec := httptest.NewRecorder()
	h.PracticeSub(goneRec, gone)
	assert.Equal(t, http.StatusNotFound, goneRec.Code)
	assert.Equal(t, []string{"h-del"}, interviewer.dropped)
	assert.Contains(t, events, "practice_abandoned")
}

func TestPracticeHTTPWithoutInterviewer(t *testing.T) {
	m := NewManager(ReviewDeps{Store: &fakeStore{}}, nil, func() ([]model.Task, error) { return nil, nil })
	h := NewHandler(m)

	res := post(t, h.PracticeRoot, "/api/practice/sessions", map[string]any{"topic": "coding"})
	assert.Equal(t, http.StatusServiceUnavailable, res.Code)
}
