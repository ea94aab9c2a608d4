package models

import (
	"time"
)

// MessageModel 数据库消息模型
type MessageModel struct {
	ID             string    `gorm:"primaryKey;size:64"`
	ConversationID string    `gorm:"index;size:64;not null"`
	Author         string    `gorm:"size:8;not null"` // me, them
	Text           string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"index"`
	UpdatedAt      time.Time
}

// TableName 指定表名
func (MessageModel) TableName() string {
	return "messages"
}
