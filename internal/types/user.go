package types

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Username string    `gorm:"type:varchar(50);not null;uniqueIndex" json:"username"`
	Email    string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"email"`
	Password string    `gorm:"column:hashed_password;type:varchar(255);not null" json:"-"`
	FullName string    `gorm:"type:varchar(100)" json:"full_name,omitempty"`

	IsActive bool   `gorm:"not null;default:true" json:"is_active"`
	PlanType string `gorm:"type:varchar(20);not null;default:'free'" json:"plan_type"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string { return "users" }
