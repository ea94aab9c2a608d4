package repository

import (
	"context"

	"github.com/heartline/heartline/internal/domain/entity"
)

// ConversationRepository 会话仓储接口
type ConversationRepository interface {
	// Save 保存会话（创建或更新），每次状态变更后都会被调用
	Save(ctx context.Context, conversation *entity.Conversation) error

	// FindByID 根据ID查找会话
	FindByID(ctx context.Context, id string) (*entity.Conversation, error)

	// FindByName 根据名称查找会话（不区分大小写）
	FindByName(ctx context.Context, name string) (*entity.Conversation, error)

	// FindAll 返回按 position 升序排列的全部会话
	FindAll(ctx context.Context) ([]*entity.Conversation, error)

	// Count 统计会话数量
	Count(ctx context.Context) (int64, error)
}
