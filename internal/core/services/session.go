package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dullmace/faux-must-see/internal/core/domain"
	"github.com/dullmace/faux-must-see/internal/core/ports"
	"github.com/dullmace/faux-must-see/internal/logging"
	"github.com/dullmace/faux-must-see/internal/metrics"
	"github.com/dullmace/faux-must-see/internal/worker"
)

var (
	ErrSessionNotFound   = errors.New("service: session not found")
	ErrInvalidTransition = errors.New("service: invalid session transition")
	ErrRankingInProgress = errors.New("service: ranking already in progress")
	ErrStateMismatch     = errors.New("service: oauth state mismatch")
	ErrAuthFailed        = errors.New("service: authentication failed")
	ErrRankingFailed     = errors.New("service: ranking failed")
	ErrNoResults         = errors.New("service: no results to share")
)

// CandidateRanker produces a ranking for a token and time range.
type CandidateRanker interface {
	Rank(ctx context.Context, token string, tr domain.TimeRange) (domain.RankedResult, error)
}

// JobRunner executes ranking jobs off the request path.
type JobRunner interface {
	Submit(job worker.Job) error
}

// Session is the explicit per-user context of the flow. Every field is
// guarded by SessionFlow.mu.
type Session struct {
	id         string
	state      domain.SessionState
	oauthState string
	token      domain.AccessToken
	timeRange  domain.TimeRange
	result     *domain.RankedResult
	lastErr    error
	rng        *rand.Rand
	// run increments whenever a ranking starts or the session resets, so a
	// completion from an older run can be recognized and dropped.
	run       uint64
	updatedAt time.Time
}

// Snapshot is a read-only copy of a session for presentation.
type Snapshot struct {
	ID        string               `json:"id"`
	State     domain.SessionState  `json:"state"`
	TimeRange domain.TimeRange     `json:"timeRange,omitempty"`
	Result    *domain.RankedResult `json:"result,omitempty"`
	NoMatch   bool                 `json:"noMatch"`
	Error     string               `json:"error,omitempty"`
}

// SessionFlow drives every session through
// unauthenticated → awaiting_time_range → ranking_in_progress → showing_results.
type SessionFlow struct {
	ranker    CandidateRanker
	exchanger ports.TokenExchanger
	runner    JobRunner
	festival  string
	shareURL  string
	seed      func() (uint64, uint64)
	timeout   time.Duration
	now       func() time.Time
	logger    zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// FlowOption configures a SessionFlow.
type FlowOption func(*SessionFlow)

// WithSeed fixes the seed source of new session RNGs.
func WithSeed(seed func() (uint64, uint64)) FlowOption {
	return func(f *SessionFlow) { f.seed = seed }
}

// WithShare sets the festival name and URL used in share text.
func WithShare(festival, url string) FlowOption {
	return func(f *SessionFlow) {
		f.festival = festival
		f.shareURL = url
	}
}

// WithRankingTimeout bounds a single ranking run.
func WithRankingTimeout(d time.Duration) FlowOption {
	return func(f *SessionFlow) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// NewSessionFlow constructs a SessionFlow.
func NewSessionFlow(ranker CandidateRanker, exchanger ports.TokenExchanger, runner JobRunner, opts ...FlowOption) *SessionFlow {
	f := &SessionFlow{
		ranker:    ranker,
		exchanger: exchanger,
		runner:    runner,
		seed:      func() (uint64, uint64) { return rand.Uint64(), rand.Uint64() },
		timeout:   time.Minute,
		now:       time.Now,
		logger:    logging.Component("session"),
		sessions:  make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Start creates a new unauthenticated session.
func (f *SessionFlow) Start() Snapshot {
	s1, s2 := f.seed()
	s := &Session{
		id:        uuid.NewString(),
		state:     domain.StateUnauthenticated,
		rng:       rand.New(rand.NewPCG(s1, s2)),
		updatedAt: f.now(),
	}

	f.mu.Lock()
	f.sessions[s.id] = s
	snap := s.snapshot()
	f.mu.Unlock()

	metrics.SessionsActive.Inc()
	f.logger.Debug().Str("session_id", s.id).Msg("session started")
	return snap
}

// End disposes of a session.
func (f *SessionFlow) End(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(f.sessions, id)
	metrics.SessionsActive.Dec()
	return nil
}

// Snapshot returns the current view of a session.
func (f *SessionFlow) Snapshot(id string) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return Snapshot{}, ErrSessionNotFound
	}
	return s.snapshot(), nil
}

// BeginAuth issues a fresh anti-forgery state and returns the provider's
// authorization URL. Only valid while unauthenticated.
func (f *SessionFlow) BeginAuth(id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return "", ErrSessionNotFound
	}
	if s.state != domain.StateUnauthenticated {
		return "", fmt.Errorf("%w: login from %s", ErrInvalidTransition, s.state)
	}
	s.oauthState = uuid.NewString()
	s.updatedAt = f.now()
	return f.exchanger.AuthCodeURL(s.oauthState), nil
}

// CompleteAuth checks the callback state and exchanges the code. Any failure
// returns the session to unauthenticated.
func (f *SessionFlow) CompleteAuth(ctx context.Context, id, code, state string) error {
	f.mu.Lock()
	s, ok := f.sessions[id]
	if !ok {
		f.mu.Unlock()
		return ErrSessionNotFound
	}
	// oauthState is only ever set while unauthenticated, so a callback in any
	// other state fails the check below.
	expected := s.oauthState
	s.oauthState = ""
	if expected == "" || state != expected {
		f.resetLocked(s, ErrStateMismatch)
		f.mu.Unlock()
		f.logger.Warn().Str("session_id", id).Msg("oauth state mismatch")
		return ErrStateMismatch
	}
	f.mu.Unlock()

	token, err := f.exchanger.Exchange(ctx, code)

	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok = f.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if err != nil {
		f.resetLocked(s, ErrAuthFailed)
		f.logger.Warn().Err(err).Str("session_id", id).Msg("token exchange failed")
		return fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}
	if s.state != domain.StateUnauthenticated {
		return fmt.Errorf("%w: callback in %s", ErrInvalidTransition, s.state)
	}
	s.token = token
	s.lastErr = nil
	f.transitionLocked(s, domain.StateAwaitingTimeRange)
	return nil
}

// FailAuth handles a provider-reported authorization error.
func (f *SessionFlow) FailAuth(id, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	f.resetLocked(s, fmt.Errorf("%w: %s", ErrAuthFailed, reason))
	return nil
}

// SelectTimeRange starts an asynchronous ranking. Only one ranking may be in
// flight per session.
func (f *SessionFlow) SelectTimeRange(id string, tr domain.TimeRange) error {
	if !tr.Valid() {
		return fmt.Errorf("service: %w: %q", domain.ErrInvalidTimeRange, tr)
	}

	f.mu.Lock()
	s, ok := f.sessions[id]
	if !ok {
		f.mu.Unlock()
		return ErrSessionNotFound
	}
	switch s.state {
	case domain.StateAwaitingTimeRange:
	case domain.StateRankingInProgress:
		f.mu.Unlock()
		return ErrRankingInProgress
	default:
		f.mu.Unlock()
		return fmt.Errorf("%w: rank from %s", ErrInvalidTransition, s.state)
	}

	s.run++
	run := s.run
	token := s.token.AccessToken
	s.timeRange = tr
	s.result = nil
	s.lastErr = nil
	f.transitionLocked(s, domain.StateRankingInProgress)
	f.mu.Unlock()

	job := worker.Job{
		ID: id,
		Run: func(ctx context.Context) {
			ctx, cancel := context.WithTimeout(ctx, f.timeout)
			defer cancel()
			result, err := f.ranker.Rank(ctx, token, tr)
			f.completeRanking(id, run, result, err)
		},
	}
	if err := f.runner.Submit(job); err != nil {
		f.mu.Lock()
		if s.run == run && s.state == domain.StateRankingInProgress {
			s.lastErr = ErrRankingFailed
			f.transitionLocked(s, domain.StateAwaitingTimeRange)
		}
		f.mu.Unlock()
		return fmt.Errorf("service: failed to schedule ranking: %w", err)
	}
	return nil
}

func (f *SessionFlow) completeRanking(id string, run uint64, result domain.RankedResult, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.sessions[id]
	if !ok || s.run != run || s.state != domain.StateRankingInProgress {
		f.logger.Debug().Str("session_id", id).Msg("discarding stale ranking result")
		return
	}

	switch {
	case err == nil:
		s.result = &result
		f.transitionLocked(s, domain.StateShowingResults)
	case ports.IsUnauthorized(err):
		f.logger.Warn().Err(err).Str("session_id", id).Msg("token rejected during ranking")
		f.resetLocked(s, ErrAuthFailed)
	default:
		f.logger.Warn().Err(err).Str("session_id", id).Msg("ranking failed")
		s.lastErr = ErrRankingFailed
		f.transitionLocked(s, domain.StateAwaitingTimeRange)
	}
}

// Restart drops the results and the token.
func (f *SessionFlow) Restart(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if s.state != domain.StateShowingResults {
		return fmt.Errorf("%w: restart from %s", ErrInvalidTransition, s.state)
	}
	f.resetLocked(s, nil)
	return nil
}

// ChangeTimeRange returns from results to time-range selection, keeping the
// token.
func (f *SessionFlow) ChangeTimeRange(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if s.state != domain.StateShowingResults {
		return fmt.Errorf("%w: change time range from %s", ErrInvalidTransition, s.state)
	}
	s.result = nil
	f.transitionLocked(s, domain.StateAwaitingTimeRange)
	return nil
}

// Token returns the session's access token while results are shown, for
// follow-up calls such as playlist creation.
func (f *SessionFlow) Token(id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return "", ErrSessionNotFound
	}
	if s.state != domain.StateShowingResults {
		return "", fmt.Errorf("%w: token requested in %s", ErrInvalidTransition, s.state)
	}
	return s.token.AccessToken, nil
}

// ShareText picks a share message for an act of the current results using
// the session's own RNG. An empty act selects the top match.
func (f *SessionFlow) ShareText(id, act string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return "", ErrSessionNotFound
	}
	if s.state != domain.StateShowingResults || s.result == nil {
		return "", ErrNoResults
	}

	var (
		pick  domain.ScoredCandidate
		found bool
	)
	if act == "" {
		pick, found = s.result.Top()
	} else {
		pick, found = s.result.Find(act)
	}
	if !found {
		return "", fmt.Errorf("%w: act %q", ErrNoResults, act)
	}
	return domain.ShareText(s.rng, pick.Name, f.festival, f.shareURL), nil
}

// Result returns the current ranked result.
func (f *SessionFlow) Result(id string) (domain.RankedResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return domain.RankedResult{}, ErrSessionNotFound
	}
	if s.state != domain.StateShowingResults || s.result == nil {
		return domain.RankedResult{}, ErrNoResults
	}
	return *s.result, nil
}

// Sweep ends sessions idle for longer than maxIdle and returns how many were
// removed.
func (f *SessionFlow) Sweep(maxIdle time.Duration) int {
	cutoff := f.now().Add(-maxIdle)
	f.mu.Lock()
	defer f.mu.Unlock()
	removed := 0
	for id, s := range f.sessions {
		if s.state == domain.StateRankingInProgress {
			continue
		}
		if s.updatedAt.Before(cutoff) {
			delete(f.sessions, id)
			removed++
		}
	}
	metrics.SessionsActive.Sub(float64(removed))
	return removed
}

// resetLocked returns the session to unauthenticated and forgets the token.
func (f *SessionFlow) resetLocked(s *Session, cause error) {
	s.run++
	s.token = domain.AccessToken{}
	s.oauthState = ""
	s.result = nil
	s.lastErr = cause
	f.transitionLocked(s, domain.StateUnauthenticated)
}

func (f *SessionFlow) transitionLocked(s *Session, to domain.SessionState) {
	from := s.state
	s.state = to
	s.updatedAt = f.now()
	metrics.SessionTransitions.WithLabelValues(string(from), string(to)).Inc()
	f.logger.Debug().
		Str("session_id", s.id).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("session transition")
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		ID:        s.id,
		State:     s.state,
		TimeRange: s.timeRange,
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
		snap.NoMatch = r.NoMatch()
	}
	if s.lastErr != nil {
		snap.Error = errorCode(s.lastErr)
	}
	return snap
}

// errorCode maps a session failure to the code shown to the user. Every
// failure offers the same "try again" affordance.
func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrStateMismatch):
		return "state_mismatch"
	case errors.Is(err, ErrAuthFailed):
		return "auth_failed"
	case errors.Is(err, ErrRankingFailed):
		return "ranking_failed"
	}
	return "unknown"
}
