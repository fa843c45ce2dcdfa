package services

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dullmace/faux-must-see/internal/core/domain"
	"github.com/dullmace/faux-must-see/internal/core/ports"
	"github.com/dullmace/faux-must-see/internal/worker"
)

func fixedSeed() (uint64, uint64) { return 42, 7 }

func stateFromURL(t *testing.T, raw string) string {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u.Query().Get("state")
}

// authenticated starts a session and walks it to awaiting_time_range.
func authenticated(t *testing.T, flow *SessionFlow) string {
	t.Helper()
	id := flow.Start().ID
	authURL, err := flow.BeginAuth(id)
	require.NoError(t, err)
	require.NoError(t, flow.CompleteAuth(context.Background(), id, "code-1", stateFromURL(t, authURL)))
	return id
}

func sampleResult() domain.RankedResult {
	return domain.RankedResult{Matches: []domain.ScoredCandidate{
		{CandidateAct: domain.CandidateAct{Name: "Echo Valley"}, Score: 1050},
		{CandidateAct: domain.CandidateAct{Name: "Other Band"}, Score: 0},
	}}
}

func TestSessionFlow_HappyPath(t *testing.T) {
	ranker := &stubRanker{result: sampleResult()}
	exch := &mockExchanger{token: domain.AccessToken{AccessToken: "tok", TokenType: "Bearer", ExpiresIn: 3600}}
	flow := NewSessionFlow(ranker, exch, syncRunner{}, WithSeed(fixedSeed), WithShare("Faux", "https://dullmace.lol"))

	snap := flow.Start()
	assert.Equal(t, domain.StateUnauthenticated, snap.State)
	assert.NotEmpty(t, snap.ID)

	authURL, err := flow.BeginAuth(snap.ID)
	require.NoError(t, err)
	state := stateFromURL(t, authURL)
	require.NotEmpty(t, state)

	require.NoError(t, flow.CompleteAuth(context.Background(), snap.ID, "the-code", state))
	assert.Equal(t, "the-code", exch.lastCode)

	snap, err = flow.Snapshot(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateAwaitingTimeRange, snap.State)

	require.NoError(t, flow.SelectTimeRange(snap.ID, domain.ShortTerm))

	snap, err = flow.Snapshot(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateShowingResults, snap.State)
	require.NotNil(t, snap.Result)
	assert.Equal(t, domain.ShortTerm, snap.Result.TimeRange)
	assert.False(t, snap.NoMatch)
	assert.Empty(t, snap.Error)

	token, err := flow.Token(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	text, err := flow.ShareText(snap.ID, "")
	require.NoError(t, err)
	assert.Contains(t, text, "Echo Valley")
	assert.Contains(t, text, "https://dullmace.lol")

	require.NoError(t, flow.Restart(snap.ID))
	snap, err = flow.Snapshot(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateUnauthenticated, snap.State)
	assert.Nil(t, snap.Result)

	_, err = flow.Token(snap.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSessionFlow_StateMismatch(t *testing.T) {
	exch := &mockExchanger{token: domain.AccessToken{AccessToken: "tok"}}
	flow := NewSessionFlow(&stubRanker{}, exch, syncRunner{})

	id := flow.Start().ID
	_, err := flow.BeginAuth(id)
	require.NoError(t, err)

	err = flow.CompleteAuth(context.Background(), id, "code", "forged")
	assert.ErrorIs(t, err, ErrStateMismatch)
	assert.Empty(t, exch.lastCode, "exchange must not run after a state mismatch")

	snap, err := flow.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, domain.StateUnauthenticated, snap.State)
	assert.Equal(t, "state_mismatch", snap.Error)

	// the issued state is single-use
	err = flow.CompleteAuth(context.Background(), id, "code", "")
	assert.ErrorIs(t, err, ErrStateMismatch)
}

func TestSessionFlow_ExchangeFailure(t *testing.T) {
	exch := &mockExchanger{err: errors.New("invalid_grant")}
	flow := NewSessionFlow(&stubRanker{}, exch, syncRunner{})

	id := flow.Start().ID
	authURL, err := flow.BeginAuth(id)
	require.NoError(t, err)

	err = flow.CompleteAuth(context.Background(), id, "code", stateFromURL(t, authURL))
	assert.ErrorIs(t, err, ErrAuthFailed)

	snap, err := flow.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, domain.StateUnauthenticated, snap.State)
	assert.Equal(t, "auth_failed", snap.Error)
}

func TestSessionFlow_SingleRankingInFlight(t *testing.T) {
	ranker := &stubRanker{result: sampleResult()}
	runner := &heldRunner{}
	flow := NewSessionFlow(ranker, &mockExchanger{token: domain.AccessToken{AccessToken: "tok"}}, runner)
	id := authenticated(t, flow)

	require.NoError(t, flow.SelectTimeRange(id, domain.LongTerm))
	snap, _ := flow.Snapshot(id)
	assert.Equal(t, domain.StateRankingInProgress, snap.State)

	assert.ErrorIs(t, flow.SelectTimeRange(id, domain.ShortTerm), ErrRankingInProgress)

	runner.release()
	assert.Equal(t, 1, ranker.calls)

	snap, _ = flow.Snapshot(id)
	assert.Equal(t, domain.StateShowingResults, snap.State)
	assert.Equal(t, domain.LongTerm, snap.TimeRange)
}

func TestSessionFlow_RankingFailures(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantState domain.SessionState
		wantCode  string
	}{
		{
			name:      "upstream outage keeps the token for a retry",
			err:       &ports.UpstreamError{Op: "top tracks", StatusCode: 502},
			wantState: domain.StateAwaitingTimeRange,
			wantCode:  "ranking_failed",
		},
		{
			name:      "rejected token returns to login",
			err:       &ports.UpstreamError{Op: "top artists", StatusCode: 401},
			wantState: domain.StateUnauthenticated,
			wantCode:  "auth_failed",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			flow := NewSessionFlow(&stubRanker{err: tc.err}, &mockExchanger{token: domain.AccessToken{AccessToken: "tok"}}, syncRunner{})
			id := authenticated(t, flow)

			require.NoError(t, flow.SelectTimeRange(id, domain.ShortTerm))
			snap, err := flow.Snapshot(id)
			require.NoError(t, err)
			assert.Equal(t, tc.wantState, snap.State)
			assert.Equal(t, tc.wantCode, snap.Error)
			assert.Nil(t, snap.Result)
		})
	}
}

func TestSessionFlow_RankingTimeout(t *testing.T) {
	flow := NewSessionFlow(blockingRanker{}, &mockExchanger{token: domain.AccessToken{AccessToken: "tok"}}, syncRunner{},
		WithRankingTimeout(20*time.Millisecond))
	id := authenticated(t, flow)

	start := time.Now()
	require.NoError(t, flow.SelectTimeRange(id, domain.MediumTerm))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	snap, err := flow.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, domain.StateAwaitingTimeRange, snap.State)
	assert.Equal(t, "ranking_failed", snap.Error)
	assert.Nil(t, snap.Result)

	// the token survives, so the listener can retry straight away
	require.NoError(t, flow.SelectTimeRange(id, domain.ShortTerm))
}

func TestSessionFlow_StaleCompletionDiscarded(t *testing.T) {
	runner := &heldRunner{}
	flow := NewSessionFlow(&stubRanker{result: sampleResult()}, &mockExchanger{token: domain.AccessToken{AccessToken: "tok"}}, runner)
	id := authenticated(t, flow)

	require.NoError(t, flow.SelectTimeRange(id, domain.ShortTerm))
	require.NoError(t, flow.FailAuth(id, "access_denied"))

	runner.release()

	snap, err := flow.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, domain.StateUnauthenticated, snap.State)
	assert.Nil(t, snap.Result)
}

func TestSessionFlow_SubmitFailure(t *testing.T) {
	flow := NewSessionFlow(&stubRanker{}, &mockExchanger{token: domain.AccessToken{AccessToken: "tok"}}, syncRunner{err: worker.ErrQueueFull})
	id := authenticated(t, flow)

	err := flow.SelectTimeRange(id, domain.ShortTerm)
	assert.ErrorIs(t, err, worker.ErrQueueFull)

	snap, _ := flow.Snapshot(id)
	assert.Equal(t, domain.StateAwaitingTimeRange, snap.State)
	assert.Equal(t, "ranking_failed", snap.Error)
}

func TestSessionFlow_InvalidTransitions(t *testing.T) {
	flow := NewSessionFlow(&stubRanker{result: sampleResult()}, &mockExchanger{token: domain.AccessToken{AccessToken: "tok"}}, syncRunner{})

	id := flow.Start().ID
	assert.ErrorIs(t, flow.SelectTimeRange(id, domain.ShortTerm), ErrInvalidTransition)
	assert.ErrorIs(t, flow.Restart(id), ErrInvalidTransition)
	assert.ErrorIs(t, flow.ChangeTimeRange(id), ErrInvalidTransition)
	assert.ErrorIs(t, flow.SelectTimeRange(id, "weekly"), domain.ErrInvalidTimeRange)

	_, err := flow.ShareText(id, "")
	assert.ErrorIs(t, err, ErrNoResults)

	_, err = flow.Snapshot("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	authed := authenticated(t, flow)
	_, err = flow.BeginAuth(authed)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSessionFlow_ChangeTimeRange(t *testing.T) {
	ranker := &stubRanker{result: domain.RankedResult{Matches: []domain.ScoredCandidate{{CandidateAct: domain.CandidateAct{Name: "A"}}}}}
	flow := NewSessionFlow(ranker, &mockExchanger{token: domain.AccessToken{AccessToken: "tok"}}, syncRunner{})
	id := authenticated(t, flow)

	require.NoError(t, flow.SelectTimeRange(id, domain.ShortTerm))
	snap, _ := flow.Snapshot(id)
	require.Equal(t, domain.StateShowingResults, snap.State)
	assert.True(t, snap.NoMatch)

	require.NoError(t, flow.ChangeTimeRange(id))
	snap, _ = flow.Snapshot(id)
	assert.Equal(t, domain.StateAwaitingTimeRange, snap.State)

	require.NoError(t, flow.SelectTimeRange(id, domain.LongTerm))
	assert.Equal(t, 2, ranker.calls)
}

func TestSessionFlow_FailAuthFromAnyState(t *testing.T) {
	flow := NewSessionFlow(&stubRanker{result: sampleResult()}, &mockExchanger{token: domain.AccessToken{AccessToken: "tok"}}, syncRunner{})
	id := authenticated(t, flow)
	require.NoError(t, flow.SelectTimeRange(id, domain.ShortTerm))

	require.NoError(t, flow.FailAuth(id, "expired"))
	snap, _ := flow.Snapshot(id)
	assert.Equal(t, domain.StateUnauthenticated, snap.State)
	assert.Equal(t, "auth_failed", snap.Error)
	assert.Nil(t, snap.Result)
}

func TestSessionFlow_EndAndSweep(t *testing.T) {
	flow := NewSessionFlow(&stubRanker{}, &mockExchanger{}, syncRunner{})
	a := flow.Start().ID
	b := flow.Start().ID

	require.NoError(t, flow.End(a))
	assert.ErrorIs(t, flow.End(a), ErrSessionNotFound)

	assert.Equal(t, 0, flow.Sweep(time.Hour))
	assert.Equal(t, 1, flow.Sweep(-time.Second))
	_, err := flow.Snapshot(b)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionFlow_SeededShareText(t *testing.T) {
	run := func() string {
		flow := NewSessionFlow(&stubRanker{result: sampleResult()}, &mockExchanger{token: domain.AccessToken{AccessToken: "tok"}}, syncRunner{},
			WithSeed(fixedSeed), WithShare("Faux", "https://dullmace.lol"))
		id := authenticated(t, flow)
		require.NoError(t, flow.SelectTimeRange(id, domain.ShortTerm))
		text, err := flow.ShareText(id, "other band")
		require.NoError(t, err)
		return text
	}

	first := run()
	assert.Contains(t, first, "Other Band")
	assert.Equal(t, first, run(), "same seed must give the same share text")
}
