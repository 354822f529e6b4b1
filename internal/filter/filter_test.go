package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crgeee/reps/internal/model"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func strptr(s string) *string { return &s }

func ids(ts []model.Task) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, string(t.ID))
	}
	return out
}

// Tuesday 2026-09-01; the week (Sunday through Saturday) ends 2026-09-05.
var now = date("2026-09-01")

func sampleTasks() []model.Task {
	return []model.Task{
		{ID: "t1", Title: "Reverse a linked list", Topic: model.TopicAlgorithms, Status: model.StatusTodo,
			NextReviewDate: "2026-08-28", CreatedAt: "2026-08-01", EaseFactor: 2.5},
		{ID: "t2", Title: "Design a URL shortener", Topic: model.TopicSystemDesign, Status: model.StatusInProgress,
			NextReviewDate: "2026-09-01", CreatedAt: "2026-08-02", EaseFactor: 1.8, Deadline: strptr("2026-09-10")},
		{ID: "t3", Title: "Tell me about yourself", Topic: model.TopicBehavioral, Status: model.StatusDone, Completed: true,
			NextReviewDate: "2026-09-03", CreatedAt: "2026-08-03", EaseFactor: 2.2},
		{ID: "t4", Title: "B-tree vs LSM tree", Topic: model.TopicDatabases, Status: model.StatusTodo,
			NextReviewDate: "2026-09-05", CreatedAt: "2026-08-04", EaseFactor: 1.3, Deadline: strptr("2026-09-03")},
		{ID: "t5", Title: "Linked list cycle detection", Topic: model.TopicAlgorithms, Status: model.StatusReview,
			NextReviewDate: "2026-09-20", CreatedAt: "2026-08-05", EaseFactor: 2.5},
	}
}

func TestApply_DefaultSpecKeepsEverything(t *testing.T) {
	got := Apply(sampleTasks(), DefaultSpec(), now)
	assert.Len(t, got.Filtered, 5)
	assert.Empty(t, got.Groups)
}

func TestApply_HideCompleted(t *testing.T) {
	spec := DefaultSpec()
	spec.HideCompleted = true
	got := Apply(sampleTasks(), spec, now)
	assert.Equal(t, []string{"t1", "t2", "t4", "t5"}, ids(got.Filtered))
}

func TestApply_TopicAndStatus(t *testing.T) {
	spec := DefaultSpec()
	spec.Topic = string(model.TopicAlgorithms)
	got := Apply(sampleTasks(), spec, now)
	assert.Equal(t, []string{"t1", "t5"}, ids(got.Filtered))

	spec.Status = model.StatusReview
	got = Apply(sampleTasks(), spec, now)
	assert.Equal(t, []string{"t5"}, ids(got.Filtered))
}

func TestApply_DueBuckets(t *testing.T) {
	tests := []struct {
		bucket DueBucket
		want   []string
	}{
		{DueOverdue, []string{"t1"}},
		{DueToday, []string{"t2"}},
		{DueThisWeek, []string{"t2", "t3", "t4"}},
		{DueNoDeadline, []string{"t1", "t3", "t5"}},
		{DueAll, []string{"t1", "t2", "t3", "t4", "t5"}},
	}
	for _, tc := range tests {
		t.Run(string(tc.bucket), func(t *testing.T) {
			spec := DefaultSpec()
			spec.Due = tc.bucket
			got := Apply(sampleTasks(), spec, now)
			assert.Equal(t, tc.want, ids(got.Filtered))
		})
	}
}

func TestApply_ThisWeekEndsSaturday(t *testing.T) {
	// Saturday itself: the window is that single day.
	saturday := date("2026-09-05")
	spec := DefaultSpec()
	spec.Due = DueThisWeek
	got := Apply(sampleTasks(), spec, saturday)
	assert.Equal(t, []string{"t4"}, ids(got.Filtered))
}

func TestApply_SearchIsCaseInsensitive(t *testing.T) {
	spec := DefaultSpec()
	spec.Search = "LINKED LIST"
	got := Apply(sampleTasks(), spec, now)
	assert.Equal(t, []string{"t1", "t5"}, ids(got.Filtered))

	spec.Search = ""
	got = Apply(sampleTasks(), spec, now)
	assert.Len(t, got.Filtered, 5)
}

func TestApply_FilteringIsMonotonic(t *testing.T) {
	spec := DefaultSpec()
	base := len(Apply(sampleTasks(), spec, now).Filtered)

	spec.HideCompleted = true
	n1 := len(Apply(sampleTasks(), spec, now).Filtered)
	spec.Topic = string(model.TopicAlgorithms)
	n2 := len(Apply(sampleTasks(), spec, now).Filtered)
	spec.Search = "cycle"
	n3 := len(Apply(sampleTasks(), spec, now).Filtered)

	assert.GreaterOrEqual(t, base, n1)
	assert.GreaterOrEqual(t, n1, n2)
	assert.GreaterOrEqual(t, n2, n3)
}

func TestApply_SortFields(t *testing.T) {
	tests := []struct {
		name  string
		field SortField
		dir   SortDir
		want  []string
	}{
		{"created asc", SortCreated, Asc, []string{"t1", "t2", "t3", "t4", "t5"}},
		{"created desc", SortCreated, Desc, []string{"t5", "t4", "t3", "t2", "t1"}},
		{"next review asc", SortNextReview, Asc, []string{"t1", "t2", "t3", "t4", "t5"}},
		// absent deadlines sort after all real dates
		{"deadline asc", SortDeadline, Asc, []string{"t4", "t2", "t1", "t3", "t5"}},
		{"ease asc", SortEaseFactor, Asc, []string{"t4", "t2", "t3", "t1", "t5"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			spec := DefaultSpec()
			spec.SortField = tc.field
			spec.SortDir = tc.dir
			got := Apply(sampleTasks(), spec, now)
			assert.Equal(t, tc.want, ids(got.Filtered))
		})
	}
}

func TestApply_SortIsStable(t *testing.T) {
	// Equal ease factors: t1 and t5 keep their input order, both directions.
	spec := DefaultSpec()
	spec.SortField = SortEaseFactor

	tasks := sampleTasks()
	got := Apply(tasks, spec, now)
	require.Equal(t, []string{"t4", "t2", "t3", "t1", "t5"}, ids(got.Filtered))

	spec.SortDir = Desc
	got = Apply(tasks, spec, now)
	require.Equal(t, []string{"t1", "t5", "t3", "t2", "t4"}, ids(got.Filtered))
}

func TestApply_Deterministic(t *testing.T) {
	spec := DefaultSpec()
	spec.SortField = SortEaseFactor
	a := Apply(sampleTasks(), spec, now)
	b := Apply(sampleTasks(), spec, now)
	assert.Equal(t, ids(a.Filtered), ids(b.Filtered))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	tasks := sampleTasks()
	spec := DefaultSpec()
	spec.SortField = SortCreated
	spec.SortDir = Desc
	_ = Apply(tasks, spec, now)
	assert.Equal(t, []string{"t1", "t2", "t3", "t4", "t5"}, ids(tasks))
}

func TestApply_GroupByStatus(t *testing.T) {
	spec := DefaultSpec()
	spec.GroupBy = GroupStatus
	got := Apply(sampleTasks(), spec, now)

	require.Len(t, got.Groups, 4)
	assert.Equal(t, model.StatusTodo, got.Groups[0].Key)
	assert.Equal(t, []string{"t1", "t4"}, ids(got.Groups[0].Tasks))
	assert.Equal(t, model.StatusInProgress, got.Groups[1].Key)
	assert.Equal(t, model.StatusDone, got.Groups[2].Key)
	assert.Equal(t, model.StatusReview, got.Groups[3].Key)
}

func TestApply_GroupByTopicAfterSort(t *testing.T) {
	// Grouping buckets the sorted list, so group order follows sort order.
	spec := DefaultSpec()
	spec.GroupBy = GroupTopic
	spec.SortField = SortCreated
	spec.SortDir = Desc
	got := Apply(sampleTasks(), spec, now)

	require.NotEmpty(t, got.Groups)
	assert.Equal(t, string(model.TopicAlgorithms), got.Groups[0].Key)
	assert.Equal(t, []string{"t5", "t1"}, ids(got.Groups[0].Tasks))
}

func TestApply_GroupNoneYieldsNoGroups(t *testing.T) {
	got := Apply(sampleTasks(), DefaultSpec(), now)
	assert.Empty(t, got.Groups)
}
