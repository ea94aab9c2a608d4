package repository

import (
	"context"

	"github.com/heartline/heartline/internal/domain/entity"
)

// MessageRepository 消息仓储接口
type MessageRepository interface {
	// Save 保存消息
	Save(ctx context.Context, message *entity.Message) error

	// FindByConversationID 返回会话全部消息，按创建时间升序
	FindByConversationID(ctx context.Context, conversationID string) ([]*entity.Message, error)

	// DeleteByConversationID 批量删除会话的全部消息（失去生命/重置时调用）
	DeleteByConversationID(ctx context.Context, conversationID string) error

	// Count 统计会话中的消息数量
	Count(ctx context.Context, conversationID string) (int64, error)
}
