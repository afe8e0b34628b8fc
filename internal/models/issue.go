package models

import (
	"time"

	"gorm.io/gorm"
)

type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusClosed     Status = "CLOSED"
)

var Statuses = []Status{StatusOpen, StatusInProgress, StatusClosed}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Label is the human readable form shown on status badges.
func (s Status) Label() string {
	switch s {
	case StatusOpen:
		return "Open"
	case StatusInProgress:
		return "In Progress"
	case StatusClosed:
		return "Closed"
	default:
		return string(s)
	}
}

type Issue struct {
	ID               int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Title            string    `json:"title" gorm:"size:225;not null"`
	Description      string    `json:"description" gorm:"type:text;not null"`
	Status           Status    `json:"status" gorm:"size:20;not null;default:OPEN;index"`
	CreatedAt        time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt        time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
	AssignedToUserID *string   `json:"assignedToUserId" gorm:"size:255;index"`

	AssignedToUser *User `json:"-" gorm:"foreignKey:AssignedToUserID;constraint:OnDelete:SET NULL"`
}

func (i *Issue) BeforeCreate(tx *gorm.DB) error {
	if i.Status == "" {
		i.Status = StatusOpen
	}
	return nil
}
