package user

import (
	"time"

	"github.com/google/uuid"
)

// Role is a closed set. Values are stored as stable strings and never
// renumbered; audit history references them.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// User rows are never hard-deleted once they own leave requests or audit
// entries; IsActive is the only off switch.
type User struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string     `gorm:"column:username;type:varchar(80);not null;uniqueIndex:uq_user_username"`
	Email        string     `gorm:"column:email;type:varchar(120);not null;uniqueIndex:uq_user_email"`
	PasswordHash string     `gorm:"column:password_hash;type:varchar(255);not null"`
	FirstName    string     `gorm:"column:first_name;type:varchar(50);not null"`
	LastName     string     `gorm:"column:last_name;type:varchar(50);not null"`
	Role         Role       `gorm:"column:role;type:varchar(20);not null;default:'employee'"`
	ManagerID    *uuid.UUID `gorm:"column:manager_id;type:uuid;index"`
	IsActive     bool       `gorm:"column:is_active;default:true"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// CanAdjudicate is the single authorization predicate gating approve and
// reject. It must be evaluated against freshly loaded rows so a manager
// reassignment takes effect immediately.
func CanAdjudicate(actor *User, employee *User) bool {
	if actor == nil || employee == nil {
		return false
	}
	if actor.Role == RoleAdmin {
		return true
	}
	return actor.Role == RoleManager &&
		employee.ManagerID != nil &&
		*employee.ManagerID == actor.ID
}
