package phase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medley/internal/media"
	"medley/internal/rules"
)

func testJob() *Job {
	return &Job{Context: &rules.Context{Container: media.Container{
		Path:   "/library/show.mkv",
		Format: "matroska",
		Size:   2 << 30,
		Tracks: []media.Track{
			{Index: 0, Type: media.TrackVideo, Codec: "hevc"},
			{Index: 1, Type: media.TrackAudio, Codec: "eac3", Language: "eng", Channels: 6},
		},
	}}}
}

func completing(modified bool) Body {
	return BodyFunc(func(context.Context, *Job) (BodyResult, error) {
		return BodyResult{FileModified: modified}, nil
	})
}

func failing(msg string) Body {
	return BodyFunc(func(context.Context, *Job) (BodyResult, error) {
		return BodyResult{}, errors.New(msg)
	})
}

func TestRunAllPhasesComplete(t *testing.T) {
	s := NewScheduler(nil)
	result := s.Run(context.Background(), testJob(), []Phase{
		{Name: "analyze", Body: completing(false)},
		{Name: "apply", DependsOn: []string{"analyze"}, Body: completing(true)},
	})

	require.True(t, result.Success)
	require.Len(t, result.Phases, 2)
	assert.Equal(t, OutcomeCompleted, result.Phases[0].Outcome)
	assert.Equal(t, OutcomeCompleted, result.Phases[1].Outcome)
	assert.True(t, result.Phases[1].FileModified)
	assert.Equal(t, "/library/show.mkv", result.Path)
}

func TestRunSkipConditionBeforeDependency(t *testing.T) {
	// The phase has both an unmet dependency and a true skip condition; the
	// condition must win.
	s := NewScheduler(nil)
	result := s.Run(context.Background(), testJob(), []Phase{
		{Name: "analyze", Body: failing("boom"), OnError: ErrorModeContinue},
		{
			Name:      "apply",
			DependsOn: []string{"analyze"},
			SkipWhen:  &SkipWhen{Checks: []Check{ContainerIs{Format: "mkv"}}},
			Body:      completing(false),
		},
	})

	pr, ok := result.PhaseResult("apply")
	require.True(t, ok)
	require.Equal(t, OutcomeSkipped, pr.Outcome)
	require.NotNil(t, pr.Skip)
	assert.Equal(t, SkipCondition, pr.Skip.Type)
}

func TestRunDependencySkip(t *testing.T) {
	s := NewScheduler(nil)
	result := s.Run(context.Background(), testJob(), []Phase{
		{Name: "analyze", Body: failing("boom"), OnError: ErrorModeContinue},
		{Name: "apply", DependsOn: []string{"analyze"}, Body: completing(false)},
	})

	pr, ok := result.PhaseResult("apply")
	require.True(t, ok)
	require.Equal(t, OutcomeSkipped, pr.Outcome)
	assert.Equal(t, SkipDependency, pr.Skip.Type)
	assert.Contains(t, pr.Skip.Detail, "analyze")
	assert.False(t, result.Success)
}

func TestRunRunIfSkip(t *testing.T) {
	s := NewScheduler(nil)
	result := s.Run(context.Background(), testJob(), []Phase{
		{Name: "apply", Body: completing(false)}, // completes without modifying
		{Name: "verify", RunIf: []string{"apply"}, Body: completing(false)},
	})

	pr, ok := result.PhaseResult("verify")
	require.True(t, ok)
	require.Equal(t, OutcomeSkipped, pr.Outcome)
	assert.Equal(t, SkipRunIf, pr.Skip.Type)
	assert.True(t, result.Success, "skips do not fail the file")
}

func TestRunRunIfMetAfterModification(t *testing.T) {
	s := NewScheduler(nil)
	result := s.Run(context.Background(), testJob(), []Phase{
		{Name: "apply", Body: completing(true)},
		{Name: "verify", RunIf: []string{"apply"}, Body: completing(false)},
	})

	pr, ok := result.PhaseResult("verify")
	require.True(t, ok)
	assert.Equal(t, OutcomeCompleted, pr.Outcome)
}

func TestRunErrorModeFailStopsFile(t *testing.T) {
	s := NewScheduler(nil)
	result := s.Run(context.Background(), testJob(), []Phase{
		{Name: "analyze", Body: failing("boom")},
		{Name: "apply", Body: completing(false)},
	})

	require.False(t, result.Success)
	pr, _ := result.PhaseResult("analyze")
	assert.Equal(t, OutcomeFailed, pr.Outcome)
	assert.Equal(t, "boom", pr.Error)
	pr, _ = result.PhaseResult("apply")
	assert.Equal(t, OutcomePending, pr.Outcome)
}

func TestRunErrorModeSkipForcesRemainder(t *testing.T) {
	s := NewScheduler(nil)
	result := s.Run(context.Background(), testJob(), []Phase{
		{Name: "analyze", Body: failing("boom"), OnError: ErrorModeSkip},
		{Name: "apply", Body: completing(false)},
		{Name: "verify", Body: completing(false)},
	})

	for _, name := range []string{"apply", "verify"} {
		pr, ok := result.PhaseResult(name)
		require.True(t, ok)
		require.Equal(t, OutcomeSkipped, pr.Outcome, name)
		assert.Equal(t, SkipErrorMode, pr.Skip.Type, name)
	}
}

func TestRunErrorModeContinue(t *testing.T) {
	s := NewScheduler(nil)
	result := s.Run(context.Background(), testJob(), []Phase{
		{Name: "analyze", Body: failing("boom"), OnError: ErrorModeContinue},
		{Name: "apply", Body: completing(false)},
	})

	require.False(t, result.Success)
	pr, _ := result.PhaseResult("apply")
	assert.Equal(t, OutcomeCompleted, pr.Outcome)
}

func TestRunRefreshAfterModification(t *testing.T) {
	job := testJob()
	refreshed := &rules.Context{Container: media.Container{Path: "/library/show.mkv", Format: "mp4"}}
	job.Refresh = func(context.Context) (*rules.Context, error) {
		return refreshed, nil
	}

	s := NewScheduler(nil)
	result := s.Run(context.Background(), job, []Phase{
		{Name: "convert", Body: completing(true)},
	})

	require.True(t, result.Success)
	assert.Same(t, refreshed, job.Context)
}

func TestRunRefreshFailureFailsPhase(t *testing.T) {
	job := testJob()
	job.Refresh = func(context.Context) (*rules.Context, error) {
		return nil, errors.New("probe failed")
	}

	s := NewScheduler(nil)
	result := s.Run(context.Background(), job, []Phase{
		{Name: "convert", Body: completing(true)},
	})

	require.False(t, result.Success)
	pr, _ := result.PhaseResult("convert")
	assert.Equal(t, OutcomeFailed, pr.Outcome)
	assert.Contains(t, pr.Error, "probe failed")
}

func TestSkipWhenChecks(t *testing.T) {
	ctx := testJob().Context

	t.Run("file smaller than", func(t *testing.T) {
		hold, _ := (&SkipWhen{Checks: []Check{FileSmallerThan{Bytes: 4 << 30}}}).Evaluate(ctx)
		assert.True(t, hold)
		hold, _ = (&SkipWhen{Checks: []Check{FileSmallerThan{Bytes: 1 << 30}}}).Evaluate(ctx)
		assert.False(t, hold)
	})

	t.Run("has track", func(t *testing.T) {
		hold, _ := (&SkipWhen{Checks: []Check{HasTrack{Type: media.TrackAudio, Language: "eng"}}}).Evaluate(ctx)
		assert.True(t, hold)
		hold, _ = (&SkipWhen{Checks: []Check{HasTrack{Type: media.TrackAudio, Codec: "dts"}}}).Evaluate(ctx)
		assert.False(t, hold)
	})

	t.Run("all mode", func(t *testing.T) {
		sw := &SkipWhen{Mode: ModeAll, Checks: []Check{
			ContainerIs{Format: "mkv"},
			FileSmallerThan{Bytes: 1 << 30}, // false
		}}
		hold, _ := sw.Evaluate(ctx)
		assert.False(t, hold)

		sw.Checks[1] = FileSmallerThan{Bytes: 4 << 30}
		hold, _ = sw.Evaluate(ctx)
		assert.True(t, hold)
	})

	t.Run("any mode short circuit", func(t *testing.T) {
		sw := &SkipWhen{Checks: []Check{
			FileSmallerThan{Bytes: 1}, // false
			ContainerIs{Format: "mkv"},
		}}
		hold, trace := sw.Evaluate(ctx)
		assert.True(t, hold)
		assert.Contains(t, trace, "container is mkv")
	})
}
