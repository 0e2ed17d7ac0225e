package domain

import "time"

// KeyValue backs the SQL flavour of the local index cache.
type KeyValue struct {
	Key       string    `gorm:"column:key;type:varchar(128);primaryKey" json:"key"`
	Value     string    `gorm:"column:value;type:text;not null" json:"value"`
	UpdatedAt time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (KeyValue) TableName() string {
	return "KeyValues"
}
