package assign

import (
	"context"

	"apptrack-engine/internal/domain"
	"apptrack-engine/internal/store"
)

type MatchKind int

const (
	// MatchNone: no candidate exists; the coordinator creates an application.
	MatchNone MatchKind = iota
	// MatchUnique: exactly one candidate for (companyKey, roleKey).
	MatchUnique
	// MatchThread: thread affinity picked one candidate among several.
	MatchThread
	// MatchAmbiguous: several candidates remained after thread
	// disambiguation; the most recently active one was chosen best-effort.
	MatchAmbiguous
)

type MatchResult struct {
	Kind        MatchKind
	Application *domain.Application
	// Considered is the candidate count on the ambiguous path.
	Considered int
}

// Match selects the target application for a normalized event, or signals
// "create new". Candidates come back most-recently-active first; a thread id
// match beats recency; otherwise the head of the list wins, flagged ambiguous
// when siblings were in play.
func Match(ctx context.Context, q store.Q, userID, companyKey, roleKey, threadID string) (MatchResult, error) {
	candidates, err := store.ListApplicationsByKeys(ctx, q, userID, companyKey, roleKey)
	if err != nil {
		return MatchResult{}, err
	}
	if len(candidates) == 0 {
		return MatchResult{Kind: MatchNone}, nil
	}

	if threadID != "" {
		var byThread []domain.Application
		for _, a := range candidates {
			if a.Source.ThreadID == threadID {
				byThread = append(byThread, a)
			}
		}
		if len(byThread) == 1 {
			return MatchResult{Kind: MatchThread, Application: &byThread[0]}, nil
		}
		// several siblings share the thread id: restrict to them and fall
		// through to recency
		if len(byThread) > 1 {
			candidates = byThread
		}
	}

	if len(candidates) == 1 {
		return MatchResult{Kind: MatchUnique, Application: &candidates[0]}, nil
	}
	return MatchResult{
		Kind:        MatchAmbiguous,
		Application: &candidates[0],
		Considered:  len(candidates),
	}, nil
}
