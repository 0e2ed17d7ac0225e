package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EventCreated = "CREATED"
	EventBought  = "BOUGHT"
	EventRated   = "RATED"
	EventDeleted = "DELETED"
)

// PropertyEvent records one confirmed action against a property application.
type PropertyEvent struct {
	EventID        uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	AppID          uint64         `gorm:"column:app_id;not null;index" json:"app_id"`
	EventType      string         `gorm:"column:event_type;type:varchar(20);not null" json:"event_type"`
	TxID           string         `gorm:"column:tx_id;type:varchar(64);not null" json:"tx_id"`
	Sender         string         `gorm:"column:sender;type:varchar(64);not null" json:"sender"`
	ConfirmedRound uint64         `gorm:"column:confirmed_round" json:"confirmed_round"`
	EventData      datatypes.JSON `gorm:"column:event_data" json:"event_data"`
	CreatedAt      time.Time      `gorm:"column:createdAt" json:"createdAt"`
}

func (PropertyEvent) TableName() string {
	return "PropertyEvents"
}

func (e *PropertyEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}
