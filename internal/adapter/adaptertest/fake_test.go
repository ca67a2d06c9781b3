package adaptertest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droverhq/drover/internal/adapter"
	"github.com/droverhq/drover/internal/types"
)

func TestFakeLifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	fake := NewFake()
	fake.Now = func() time.Time { return now }

	ref := types.Ref{Platform: "fake", ID: "1"}
	fake.Seed(types.Issue{Ref: ref, Title: "seeded", Status: types.StatusTodo, Labels: []string{"a"}})

	got, err := fake.GetIssue(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "seeded", got.Title)

	// Mutating the returned copy must not leak into the store.
	got.Labels[0] = "tampered"
	again, err := fake.GetIssue(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, again.Labels)

	p1 := types.P1
	require.NoError(t, fake.ApplyChange(ctx, ref, adapter.IssueDiff{
		SetPriority: &p1,
		AddLabels:   []string{"b", "a"}, // "a" already present, must not duplicate
	}))
	updated := fake.Issue(ref)
	assert.Equal(t, types.P1, updated.Priority)
	assert.Equal(t, []string{"a", "b"}, updated.Labels)
	assert.Equal(t, now, updated.UpdatedAt)
	assert.Equal(t, 1, fake.ApplyCount())

	require.NoError(t, fake.AddComment(ctx, ref, "note"))
	assert.Len(t, fake.Issue(ref).Comments, 1)
}

func TestFakeNotFoundIsPermanent(t *testing.T) {
	ctx := context.Background()
	fake := NewFake()
	missing := types.Ref{Platform: "fake", ID: "nope"}

	_, err := fake.GetIssue(ctx, missing)
	require.Error(t, err)
	assert.True(t, adapter.IsPermanent(err))
	assert.True(t, errors.Is(err, adapter.ErrNotFound))

	err = fake.ApplyChange(ctx, missing, adapter.IssueDiff{AddLabels: []string{"x"}})
	assert.True(t, adapter.IsPermanent(err))
}

func TestFakeCreateIssueAssignsRefs(t *testing.T) {
	ctx := context.Background()
	fake := NewFake()

	first, err := fake.CreateIssue(ctx, adapter.IssueSpec{Title: "one"})
	require.NoError(t, err)
	second, err := fake.CreateIssue(ctx, adapter.IssueSpec{Title: "two"})
	require.NoError(t, err)

	assert.Equal(t, "F-1", first.Ref.ID)
	assert.Equal(t, "F-2", second.Ref.ID)
	assert.Equal(t, types.StatusTodo, first.Status)
}

func TestFakeScriptedFailures(t *testing.T) {
	ctx := context.Background()
	fake := NewFake()
	ref := types.Ref{Platform: "fake", ID: "1"}
	fake.Seed(types.Issue{Ref: ref, Title: "x", Status: types.StatusTodo})

	fake.ApplyErrOnce[ref.String()] = adapter.Transientf("blip")
	err := fake.ApplyChange(ctx, ref, adapter.IssueDiff{AddLabels: []string{"l"}})
	require.Error(t, err)
	assert.True(t, adapter.IsTransient(err))

	// The scripted error fires once; the retry goes through.
	require.NoError(t, fake.ApplyChange(ctx, ref, adapter.IssueDiff{AddLabels: []string{"l"}}))
	assert.Equal(t, 1, fake.ApplyCount())
}
