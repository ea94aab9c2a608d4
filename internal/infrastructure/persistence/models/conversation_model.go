package models

import (
	"time"
)

// ConversationModel 数据库会话模型
type ConversationModel struct {
	ID                 string `gorm:"primaryKey;size:64"`
	Name               string `gorm:"size:128;not null;index"`
	Phone              string `gorm:"size:32"`
	Position           int    `gorm:"index;not null"`
	Progress           int    `gorm:"not null;default:50"`
	Unlocked           bool   `gorm:"not null;default:false"`
	Lives              int    `gorm:"not null;default:3"`
	QuizPassed         bool   `gorm:"not null;default:false"`
	PersonaDescription string `gorm:"type:text"`
	PersonaSystem      string `gorm:"type:text"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName 指定表名
func (ConversationModel) TableName() string {
	return "conversations"
}
