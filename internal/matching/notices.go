package matching

import (
	"context"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/models"
	"github.com/google/uuid"
)

// notice is a notification queued inside a transaction and sent only after
// it commits.
type notice struct {
	userID  uuid.UUID
	kind    string
	title   string
	body    string
	payload map[string]string
}

func sendAll(ctx context.Context, n Notifier, notices []notice) {
	if n == nil {
		return
	}
	for _, nt := range notices {
		n.Notify(ctx, nt.userID, nt.kind, nt.title, nt.body, nt.payload)
	}
}

func matchPayload(m *models.Match, own, other *models.Report) map[string]string {
	return map[string]string{
		"match_id":          m.ID.String(),
		"item_id":           own.ID.String(),
		"matched_item_id":   other.ID.String(),
		"match_status":      string(m.Status),
		"match_score":       fmt.Sprintf("%.0f", m.Score),
		"matched_item_kind": string(other.Kind),
	}
}

func matchFoundNotice(m *models.Match, own, other *models.Report) notice {
	return notice{
		userID:  own.OwnerID,
		kind:    models.NotificationMatchFound,
		title:   "Possible match for your report",
		body:    fmt.Sprintf("A %s report may be your %q (%.0f%% match).", other.Kind, own.Title, m.Score),
		payload: matchPayload(m, own, other),
	}
}

func claimReceivedNotice(m *models.Match, found, lost *models.Report) notice {
	return notice{
		userID:  found.OwnerID,
		kind:    models.NotificationClaimReceived,
		title:   "Someone claimed an item you found",
		body:    fmt.Sprintf("The owner of a lost %q believes your %q is theirs. Review the claim and confirm if it matches.", lost.Title, found.Title),
		payload: matchPayload(m, found, lost),
	}
}

func confirmationPendingNotice(m *models.Match, own, other *models.Report) notice {
	return notice{
		userID:  own.OwnerID,
		kind:    models.NotificationConfirmationPending,
		title:   "Confirm your match",
		body:    fmt.Sprintf("The other party confirmed the match for %q. Confirm to complete the return.", own.Title),
		payload: matchPayload(m, own, other),
	}
}

func confirmedNotice(m *models.Match, own, other *models.Report) notice {
	return notice{
		userID:  own.OwnerID,
		kind:    models.NotificationMatchConfirmed,
		title:   "Match confirmed",
		body:    fmt.Sprintf("Both parties confirmed the match for %q. Arrange the return.", own.Title),
		payload: matchPayload(m, own, other),
	}
}

func rejectedNotice(m *models.Match, own, other *models.Report) notice {
	return notice{
		userID:  own.OwnerID,
		kind:    models.NotificationMatchRejected,
		title:   "Match rejected",
		body:    fmt.Sprintf("The match for %q was rejected. Your report stays open for other matches.", own.Title),
		payload: matchPayload(m, own, other),
	}
}
