package entity

import (
	"time"

	"github.com/heartline/heartline/internal/domain/valueobject"
)

// Message 消息实体：一条聊天记录
type Message struct {
	id             string
	conversationID string
	author         valueobject.Author
	text           string
	createdAt      time.Time
}

// NewMessage 创建新消息（工厂方法）
func NewMessage(id, conversationID string, author valueobject.Author, text string) (*Message, error) {
	if id == "" {
		return nil, ErrInvalidMessageID
	}
	if conversationID == "" {
		return nil, ErrInvalidConversationID
	}
	if !author.Valid() {
		return nil, ErrInvalidAuthor
	}
	if text == "" {
		return nil, ErrInvalidMessageText
	}

	return &Message{
		id:             id,
		conversationID: conversationID,
		author:         author,
		text:           text,
		createdAt:      time.Now(),
	}, nil
}

// ReconstructMessage 重建消息（用于从持久化层恢复）
func ReconstructMessage(id, conversationID string, author valueobject.Author, text string, createdAt time.Time) *Message {
	return &Message{
		id:             id,
		conversationID: conversationID,
		author:         author,
		text:           text,
		createdAt:      createdAt,
	}
}

// ID 返回消息ID
func (m *Message) ID() string { return m.id }

// ConversationID 返回会话ID
func (m *Message) ConversationID() string { return m.conversationID }

// Author 返回作者
func (m *Message) Author() valueobject.Author { return m.author }

// Text 返回消息文本
func (m *Message) Text() string { return m.text }

// CreatedAt 返回创建时间（用于排序与展示时间分隔）
func (m *Message) CreatedAt() time.Time { return m.createdAt }

// IsFromMe 判断是否来自用户本人（业务规则）
func (m *Message) IsFromMe() bool {
	return m.author.IsMe()
}
