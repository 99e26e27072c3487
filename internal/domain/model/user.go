package model

// User is the authenticated account as reported by /auth/me. The balance
// is refreshed after terminal poll outcomes so server-side refunds show up.
type User struct {
	ID               int64  `json:"id"`
	Email            string `json:"email"`
	Username         string `json:"username"`
	SubscriptionTier string `json:"subscription_tier,omitempty"`
	PointsBalance    int64  `json:"points_balance"`
	StorageUsed      int64  `json:"storage_used,omitempty"`
}
