// Package events stores entitlement events in a transactional outbox table.
// Downstream jobs (upgrade nudges, transactional email) poll the table.
package events

// Entitlement event types.
const (
	EventUsageConsumed   = "usage.consumed"
	EventQuotaExceeded   = "quota.exceeded"
	EventResourceCreated = "resource.created"
)

// UsagePayload captures the data downstream consumers need to react to a
// quota decision.
type UsagePayload struct {
	Principal string `json:"principal"`
	Action    string `json:"action"`
	Tier      string `json:"tier"`
	NewCount  int64  `json:"new_count,omitempty"`
	Limit     int64  `json:"limit"`
	PeriodKey string `json:"period_key"`
}

// ToMap converts the payload into an outbox-friendly map.
func (p UsagePayload) ToMap() map[string]any {
	payload := map[string]any{
		"principal":  p.Principal,
		"action":     p.Action,
		"tier":       p.Tier,
		"limit":      p.Limit,
		"period_key": p.PeriodKey,
	}
	if p.NewCount > 0 {
		payload["new_count"] = p.NewCount
	}
	return payload
}
