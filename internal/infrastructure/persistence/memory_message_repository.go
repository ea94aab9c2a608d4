package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/heartline/heartline/internal/domain/entity"
	"github.com/heartline/heartline/internal/domain/repository"
)

// MemoryMessageRepository 内存实现的消息仓储（用于开发/测试）
type MemoryMessageRepository struct {
	mu sync.RWMutex
	// 会话ID到消息列表的映射
	convMessages map[string][]*entity.Message
}

// NewMemoryMessageRepository 创建内存消息仓储
func NewMemoryMessageRepository() repository.MessageRepository {
	return &MemoryMessageRepository{
		convMessages: make(map[string][]*entity.Message),
	}
}

// Save 保存消息
func (r *MemoryMessageRepository) Save(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	convID := message.ConversationID()
	r.convMessages[convID] = append(r.convMessages[convID], message)
	return nil
}

// FindByConversationID 返回会话全部消息，按创建时间升序
func (r *MemoryMessageRepository) FindByConversationID(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.convMessages[conversationID]
	messages := make([]*entity.Message, len(stored))
	copy(messages, stored)
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt().Before(messages[j].CreatedAt())
	})
	return messages, nil
}

// DeleteByConversationID 批量删除会话的全部消息
func (r *MemoryMessageRepository) DeleteByConversationID(ctx context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.convMessages, conversationID)
	return nil
}

// Count 统计会话中的消息数量
func (r *MemoryMessageRepository) Count(ctx context.Context, conversationID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.convMessages[conversationID])), nil
}
