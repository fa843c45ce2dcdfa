package rest

import (
	"net/http"

	"github.com/dullmace/faux-must-see/internal/core/domain"
)

type rankRequest struct {
	TimeRange string `json:"timeRange" validate:"required,timerange"`
}

// Rank handles POST /rank: a synchronous ranking for a caller-held token.
func (h *Handler) Rank(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "bearer token required", Code: "auth_failed"})
		return
	}

	var req rankRequest
	if err := h.decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	result, err := h.deps.Ranker.Rank(r.Context(), token, domain.TimeRange(req.TimeRange))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRankingView(result))
}

// Catalog handles GET /catalog.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	acts := h.deps.Catalog
	if acts == nil {
		acts = []domain.CandidateAct{}
	}
	writeJSON(w, http.StatusOK, map[string][]domain.CandidateAct{"bands": acts})
}

// rankingView adds the presentation extras to a RankedResult.
type rankingView struct {
	domain.RankedResult
	NoMatch       bool        `json:"noMatch"`
	TopMatch      *matchView  `json:"topMatch,omitempty"`
	DiscoveryPick *matchView  `json:"discoveryPick,omitempty"`
	RunnersUp     []matchView `json:"runnersUp"`
}

type matchView struct {
	domain.ScoredCandidate
	MatchPercent int `json:"matchPercent"`
}

const runnersUpShown = 4

func newMatchView(sc domain.ScoredCandidate) matchView {
	return matchView{ScoredCandidate: sc, MatchPercent: sc.MatchPercent()}
}

func newRankingView(result domain.RankedResult) rankingView {
	v := rankingView{RankedResult: result, NoMatch: result.NoMatch(), RunnersUp: []matchView{}}
	if top, ok := result.Top(); ok {
		tv := newMatchView(top)
		v.TopMatch = &tv
	}
	if pick, ok := result.DiscoveryPick(); ok {
		pv := newMatchView(pick)
		v.DiscoveryPick = &pv
	}
	for _, sc := range result.RunnersUp(runnersUpShown) {
		v.RunnersUp = append(v.RunnersUp, newMatchView(sc))
	}
	return v
}
