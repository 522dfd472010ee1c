package leave

import (
	"time"

	"github.com/google/uuid"
)

// Status codes are stored as-is and referenced by audit history; they are
// never renamed.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

type LeaveType string

const (
	TypeSick      LeaveType = "sick"
	TypeVacation  LeaveType = "vacation"
	TypePersonal  LeaveType = "personal"
	TypeMaternity LeaveType = "maternity"
	TypePaternity LeaveType = "paternity"
	TypeEmergency LeaveType = "emergency"
)

func (t LeaveType) Valid() bool {
	switch t {
	case TypeSick, TypeVacation, TypePersonal, TypeMaternity, TypePaternity, TypeEmergency:
		return true
	}
	return false
}

// LeaveRequest is never hard-deleted; cancellation is a terminal status.
type LeaveRequest struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID      uuid.UUID  `gorm:"column:employee_id;type:uuid;not null;index:idx_leave_requests_employee_dates"`
	LeaveType       LeaveType  `gorm:"column:leave_type;type:varchar(20);not null"`
	StartDate       time.Time  `gorm:"column:start_date;type:date;not null;index:idx_leave_requests_employee_dates"`
	EndDate         time.Time  `gorm:"column:end_date;type:date;not null;index:idx_leave_requests_employee_dates"`
	Reason          string     `gorm:"column:reason;type:text"`
	Status          Status     `gorm:"column:status;type:varchar(20);not null;default:'pending';index"`
	ApprovedBy      *uuid.UUID `gorm:"column:approved_by;type:uuid"`
	ApprovedAt      *time.Time `gorm:"column:approved_at"`
	ManagerComments *string    `gorm:"column:manager_comments;type:text"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

// Duration is the inclusive day count of the requested range, always >= 1
// for a valid request.
func (l *LeaveRequest) Duration() int {
	return int(l.EndDate.Sub(l.StartDate).Hours()/24) + 1
}
