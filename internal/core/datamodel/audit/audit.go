package audit

import "time"

// AuditLog rows are append-only. The application never updates or deletes
// them; retention is handled outside this service.
type AuditLog struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    *int64    `gorm:"column:user_id"`
	Action    string    `gorm:"column:action;not null"`
	TableName string    `gorm:"column:table_name;not null"`
	RecordID  *int64    `gorm:"column:record_id"`
	OldValue  *string   `gorm:"column:old_value"`
	NewValue  *string   `gorm:"column:new_value"`
	IPAddress string    `gorm:"column:ip_address"`
	UserAgent string    `gorm:"column:user_agent"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
}
