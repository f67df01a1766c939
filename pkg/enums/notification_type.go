package enums

// NotificationType labels in-app notifications by origin.
type NotificationType string

const (
	NotificationTypeEarnings NotificationType = "earnings"
	NotificationTypePayout   NotificationType = "payout"
	NotificationTypeSystem   NotificationType = "system"
)

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	switch n {
	case NotificationTypeEarnings, NotificationTypePayout, NotificationTypeSystem:
		return true
	default:
		return false
	}
}
