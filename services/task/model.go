package task

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"earnplay-core/services/entitlement"
)

type Category string

const (
	CategorySurvey Category = "survey"
	CategoryVideo  Category = "video"
	CategoryApp    Category = "app_install"
	CategorySocial Category = "social"
	CategoryBonus  Category = "bonus"
)

// Task is a one-time offer from the catalog. Reward lands in the
// pending balance until external verification clears it.
type Task struct {
	ID          string           `gorm:"column:id;primaryKey" json:"id"`
	Title       string           `gorm:"column:title;not null" json:"title"`
	Description string           `gorm:"column:description;type:text" json:"description"`
	Category    Category         `gorm:"column:category;type:varchar(20);not null" json:"category"`
	Reward      decimal.Decimal  `gorm:"column:reward;type:decimal(10,2);not null" json:"reward"`
	MinRole     entitlement.Role `gorm:"column:min_role;type:varchar(10);default:'free'" json:"minRole"`
	Active      bool             `gorm:"column:active;default:true" json:"active"`
	Metadata    datatypes.JSON   `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time        `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt   time.Time        `gorm:"column:updated_at" json:"updatedAt"`
}

// Completion marks a task done by an account, once ever.
type Completion struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	TaskID    string    `gorm:"column:task_id;uniqueIndex:idx_task_completion;not null" json:"taskId"`
	AccountID string    `gorm:"column:account_id;uniqueIndex:idx_task_completion;not null" json:"accountId"`
	CreatedAt time.Time `gorm:"column:created_at" json:"completedAt"`
}

// TaskView is a catalog row annotated with the caller's progress.
type TaskView struct {
	*Task
	Completed bool `json:"completed"`
}
