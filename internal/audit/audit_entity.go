package audit

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog rows are append-only: nothing in the codebase updates or deletes
// them, and actor references are never cascade-deleted.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	ActorID    uuid.UUID  `gorm:"column:actor_id;type:uuid;not null;index"`
	Action     string     `gorm:"column:action;type:varchar(100);not null;index"`
	EntityType string     `gorm:"column:entity_type;type:varchar(50);not null"`
	EntityID   *uuid.UUID `gorm:"column:entity_id;type:uuid"`
	OldValues  []byte     `gorm:"column:old_values;type:jsonb"`
	NewValues  []byte     `gorm:"column:new_values;type:jsonb"`
	IPAddress  string     `gorm:"column:ip_address;type:varchar(45)"`
	UserAgent  string     `gorm:"column:user_agent;type:varchar(255)"`
	Timestamp  time.Time  `gorm:"column:timestamp;autoCreateTime;index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// Symbolic action names. These are stored in audit history and must stay
// stable across releases.
const (
	ActionLeaveCreated   = "leave_request_created"
	ActionLeaveUpdated   = "leave_request_updated"
	ActionLeaveCancelled = "leave_request_cancelled"
	ActionLeaveApproved  = "leave_request_approved"
	ActionLeaveRejected  = "leave_request_rejected"

	ActionUserCreated     = "user_created"
	ActionUserUpdated     = "user_updated"
	ActionUserDeactivated = "user_deactivated"
	ActionPasswordReset   = "password_reset"

	ActionLogin       = "login"
	ActionLoginFailed = "login_failed"
)

const (
	EntityLeaveRequest = "leave_request"
	EntityUser         = "user"
)
