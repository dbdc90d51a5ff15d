package messages

import "time"

// TopicParcelStatusChanged carries one message per persisted status change,
// keyed by tracking number.
const TopicParcelStatusChanged = "parcel.status_changed"

type ParcelStatusChanged struct {
	RunID          string    `json:"run_id"`
	ParcelID       uint64    `json:"parcel_id"`
	TrackingNumber string    `json:"tracking_number"`
	OwnerHandle    string    `json:"owner_handle,omitempty"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Status         string    `json:"status"`
	Class          string    `json:"class"`
	Notified       bool      `json:"notified"`
	ChangedAt      time.Time `json:"changed_at"`
}
