package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusArchived  ProjectStatus = "archived"
)

// Project is a unit of work delivered to a customer.
type Project struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID  `gorm:"not null;index" json:"org_id"`
	CustomerID  snowflake.ID  `gorm:"not null;index" json:"customer_id"`
	Name        string        `gorm:"type:text;not null" json:"name"`
	Status      ProjectStatus `gorm:"type:text;not null;default:'active'" json:"status"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	CreatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Project) TableName() string { return "projects" }
