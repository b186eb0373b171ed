package assign

import "apptrack-engine/internal/domain"

// StatusFor maps an event category to the pipeline status it drives.
// RESCHEDULE is the one category that never drives status (ok=false): it only
// retimes an existing scheduled item. OTHER_UPDATE falls back to the
// caller-supplied status, or APPLIED when none was given. Total and
// side-effect-free.
func StatusFor(category domain.Category, fallback domain.Status) (domain.Status, bool) {
	switch category {
	case domain.CategoryAcknowledgement:
		return domain.StatusApplied, true
	case domain.CategoryOA:
		return domain.StatusOA, true
	case domain.CategoryInterview:
		return domain.StatusInterview, true
	case domain.CategoryOffer:
		return domain.StatusOffer, true
	case domain.CategoryRejection:
		return domain.StatusRejected, true
	case domain.CategoryReschedule:
		return "", false
	default: // OTHER_UPDATE and anything unknown
		if fallback.Valid() {
			return fallback, true
		}
		return domain.StatusApplied, true
	}
}

// RankFor encodes pipeline depth. Rejection is out-of-band negative; the rank
// tracks the latest event, not a maximum, so a later acknowledgement can
// legitimately revert it.
func RankFor(status domain.Status) int {
	switch status {
	case domain.StatusApplied:
		return 0
	case domain.StatusOA:
		return 1
	case domain.StatusInterview:
		return 2
	case domain.StatusOffer:
		return 3
	case domain.StatusRejected:
		return -1
	}
	return 0
}
