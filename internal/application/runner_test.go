package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairscore/rankcore/internal/domain"
	"github.com/fairscore/rankcore/internal/testutils"
)

type fakeSource struct {
	mu        sync.Mutex
	snapshots map[string]*domain.RoundSnapshot
	fetches   []string
	err       error
}

func (s *fakeSource) Snapshot(_ context.Context, roundID string) (*domain.RoundSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches = append(s.fetches, roundID)
	if s.err != nil {
		return nil, s.err
	}
	snapshot, ok := s.snapshots[roundID]
	if !ok {
		return nil, fmt.Errorf("round %s not found", roundID)
	}
	return snapshot, nil
}

type fakeSink struct {
	mu       sync.Mutex
	replaced []*domain.ResultSet
	err      error
}

func (s *fakeSink) Replace(_ context.Context, results *domain.ResultSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.replaced = append(s.replaced, results)
	return nil
}

func newTestRunner(t *testing.T, source *fakeSource, sink *fakeSink, opts ...RunnerOption) *Runner {
	t.Helper()
	pipeline, err := NewPipeline(DefaultComputeConfig())
	require.NoError(t, err)
	runner, err := NewRunner(source, sink, pipeline, opts...)
	require.NoError(t, err)
	return runner
}

func snapshotForRound(roundID string, seed uint64) *domain.RoundSnapshot {
	snapshot := testutils.GenerateRound(seed, testutils.DefaultRoundSpec())
	snapshot.RoundID = roundID
	for i := range snapshot.Evaluations {
		snapshot.Evaluations[i].RoundID = roundID
	}
	return snapshot
}

func TestNewRunner_NilCollaborators(t *testing.T) {
	pipeline, err := NewPipeline(DefaultComputeConfig())
	require.NoError(t, err)

	_, err = NewRunner(nil, &fakeSink{}, pipeline)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	_, err = NewRunner(&fakeSource{}, nil, pipeline)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	_, err = NewRunner(&fakeSource{}, &fakeSink{}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestRunner_ComputeRound(t *testing.T) {
	source := &fakeSource{snapshots: map[string]*domain.RoundSnapshot{
		"semis": snapshotForRound("semis", 11),
	}}
	sink := &fakeSink{}
	runner := newTestRunner(t, source, sink)

	results, err := runner.ComputeRound(context.Background(), "semis")
	require.NoError(t, err)

	assert.Equal(t, "semis", results.RoundID)
	assert.NotEmpty(t, results.Ranked)
	require.Len(t, sink.replaced, 1)
	assert.Same(t, results, sink.replaced[0])
}

func TestRunner_ComputeRound_FetchFailure(t *testing.T) {
	fetchErr := errors.New("store unavailable")
	source := &fakeSource{err: fetchErr}
	sink := &fakeSink{}
	runner := newTestRunner(t, source, sink)

	_, err := runner.ComputeRound(context.Background(), "semis")
	assert.ErrorIs(t, err, fetchErr)
	assert.Empty(t, sink.replaced, "nothing persisted on fetch failure")
}

func TestRunner_ComputeRound_SinkFailure(t *testing.T) {
	source := &fakeSource{snapshots: map[string]*domain.RoundSnapshot{
		"semis": snapshotForRound("semis", 11),
	}}
	sinkErr := errors.New("write conflict")
	runner := newTestRunner(t, source, &fakeSink{err: sinkErr})

	_, err := runner.ComputeRound(context.Background(), "semis")
	assert.ErrorIs(t, err, sinkErr)
}

func TestRunner_ComputeRounds(t *testing.T) {
	source := &fakeSource{snapshots: map[string]*domain.RoundSnapshot{
		"quarters": snapshotForRound("quarters", 1),
		"semis":    snapshotForRound("semis", 2),
		"finals":   snapshotForRound("finals", 3),
	}}
	sink := &fakeSink{}
	runner := newTestRunner(t, source, sink, WithRoundConcurrency(2))

	err := runner.ComputeRounds(context.Background(), []string{"quarters", "semis", "finals"})
	require.NoError(t, err)

	require.Len(t, sink.replaced, 3)
	persisted := make(map[string]bool, len(sink.replaced))
	for _, results := range sink.replaced {
		persisted[results.RoundID] = true
	}
	assert.Equal(t, map[string]bool{"quarters": true, "semis": true, "finals": true}, persisted)
}

func TestRunner_ComputeRounds_RejectsDuplicateRound(t *testing.T) {
	source := &fakeSource{snapshots: map[string]*domain.RoundSnapshot{
		"semis": snapshotForRound("semis", 11),
	}}
	sink := &fakeSink{}
	runner := newTestRunner(t, source, sink)

	err := runner.ComputeRounds(context.Background(), []string{"semis", "semis"})
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
	assert.Empty(t, source.fetches, "batch rejected before any fetch")
	assert.Empty(t, sink.replaced)
}
