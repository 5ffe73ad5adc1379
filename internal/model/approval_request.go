package model

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalRequestType enum constants
const (
	ApprovalReqTypeInheritApply = "inherit.apply"
)

// ApprovalRequest statuses
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// ApprovalRequest wraps a serialized request payload behind a
// pending -> approved/rejected gate. Execution requires an approved record
// whose stored payload is byte-identical to the resubmitted payload; the
// executed stamp makes the approved -> executed transition terminal.
type ApprovalRequest struct {
	ID                uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestType       string     `gorm:"type:varchar(50);not null;index" json:"request_type"`
	Target            string     `gorm:"type:varchar(255)" json:"target"` // e.g. the parent name
	Payload           string     `gorm:"type:jsonb;not null" json:"payload"`
	Status            string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	RequestedBy       *uuid.UUID `gorm:"type:uuid;index" json:"requested_by"`
	Requester         *User      `gorm:"foreignKey:RequestedBy" json:"requester,omitempty"`
	RequestedUsername string     `gorm:"type:varchar(255)" json:"requested_username"`
	ReviewedBy        *uuid.UUID `gorm:"type:uuid" json:"reviewed_by"`
	Reviewer          *User      `gorm:"foreignKey:ReviewedBy" json:"reviewer,omitempty"`
	ReviewedUsername  string     `gorm:"type:varchar(255)" json:"reviewed_username"`
	ReviewNote        string     `gorm:"type:text" json:"review_note"`
	ReviewedAt        *time.Time `json:"reviewed_at"`
	ExecutedAt        *time.Time `json:"executed_at"`
	ExecutionResult   string     `gorm:"type:jsonb" json:"execution_result"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
