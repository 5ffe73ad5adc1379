package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateMaterial = "materials.create"
	ActionUpdateMaterial = "materials.update"
	ActionDeleteMaterial = "materials.delete"
	ActionCreateCostDef  = "costs.create"
	ActionUpdateCostDef  = "costs.update"
	ActionDeleteCostDef  = "costs.delete"
	ActionAssignCost     = "costs.assign"
	ActionInheritApply   = "inherit.apply"
	ActionDeactivateCUS  = "products.deactivate_cus"
	ActionImportProducts = "products.import"
	ActionExportTemplate = "export.template"

	// Approval workflow actions
	ActionApprovalRequested = "approval.requested"
	ActionApprovalApproved  = "approval.approved"
	ActionApprovalRejected  = "approval.rejected"

	// Auth actions
	ActionLogin          = "auth.login"
	ActionChangePassword = "auth.change_password"
	ActionCreateUser     = "auth.user_create"
	ActionUpdateUser     = "auth.user_update"
	ActionDeleteUser     = "auth.user_delete"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated bootstrap
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(255);index" json:"entity_id"`       // Reference string (sku/name/uuid)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	Status     string     `gorm:"type:varchar(20);not null;default:'ok'" json:"status"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
