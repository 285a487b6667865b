package notification

import "time"

// NotificationType represents the type of notification
type NotificationType string

const (
	TypePayslipVerified NotificationType = "payslip_verified"
	TypeCycleDisbursed  NotificationType = "cycle_disbursed"
)

// Notification is one delivered event. The settlement core emits these
// fire-and-forget: it never blocks on delivery and never retries on the
// dispatcher's behalf.
type Notification struct {
	ID          string
	RecipientID string
	Type        NotificationType
	Title       string
	Message     string
	Data        map[string]interface{}
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}

// Event is what producers hand to the dispatcher.
type Event struct {
	RecipientID string
	Type        NotificationType
	Title       string
	Message     string
	Data        map[string]interface{}
}
