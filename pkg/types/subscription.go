package types

// SubscriptionStatus mirrors the gateway's subscription lifecycle.
type SubscriptionStatus string

const (
	SubscriptionStatusCreated       SubscriptionStatus = "created"
	SubscriptionStatusAuthenticated SubscriptionStatus = "authenticated"
	SubscriptionStatusActive        SubscriptionStatus = "active"
	SubscriptionStatusPending       SubscriptionStatus = "pending"
	SubscriptionStatusHalted        SubscriptionStatus = "halted"
	SubscriptionStatusCancelled     SubscriptionStatus = "cancelled"
	SubscriptionStatusCompleted     SubscriptionStatus = "completed"
	SubscriptionStatusPaused        SubscriptionStatus = "paused"
	SubscriptionStatusExpired       SubscriptionStatus = "expired"
)

// Terminal reports whether the gateway will no longer change the subscription.
func (s SubscriptionStatus) Terminal() bool {
	switch s {
	case SubscriptionStatusCancelled, SubscriptionStatusCompleted, SubscriptionStatusExpired:
		return true
	}
	return false
}

// OpenSubscriptionStatuses are the non-terminal statuses.
var OpenSubscriptionStatuses = []SubscriptionStatus{
	SubscriptionStatusCreated,
	SubscriptionStatusAuthenticated,
	SubscriptionStatusActive,
	SubscriptionStatusPending,
	SubscriptionStatusHalted,
	SubscriptionStatusPaused,
}

type SubscriptionType string

const (
	SubscriptionTypeSolo SubscriptionType = "solo"
	SubscriptionTypeTeam SubscriptionType = "team"
)

// SubscriptionChangeSource records what caused a subscription row to change.
type SubscriptionChangeSource string

const (
	SubscriptionChangeSourceWebhook   SubscriptionChangeSource = "webhook"
	SubscriptionChangeSourceCheckout  SubscriptionChangeSource = "checkout"
	SubscriptionChangeSourceSync      SubscriptionChangeSource = "sync"
	SubscriptionChangeSourceReconcile SubscriptionChangeSource = "reconcile"
)

const EventSubscriptionCharged = "subscription.charged"
