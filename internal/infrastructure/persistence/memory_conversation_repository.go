package persistence

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/heartline/heartline/internal/domain/entity"
	"github.com/heartline/heartline/internal/domain/repository"
	domainErrors "github.com/heartline/heartline/pkg/errors"
)

// MemoryConversationRepository 内存实现的会话仓储（用于开发/测试）
type MemoryConversationRepository struct {
	mu            sync.RWMutex
	conversations map[string]*entity.Conversation
}

// NewMemoryConversationRepository 创建内存会话仓储
func NewMemoryConversationRepository() repository.ConversationRepository {
	return &MemoryConversationRepository{
		conversations: make(map[string]*entity.Conversation),
	}
}

// Save 保存会话
func (r *MemoryConversationRepository) Save(ctx context.Context, conversation *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversations[conversation.ID()] = conversation
	return nil
}

// FindByID 根据ID查找会话
func (r *MemoryConversationRepository) FindByID(ctx context.Context, id string) (*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conversation, ok := r.conversations[id]
	if !ok {
		return nil, domainErrors.NewNotFoundError("conversation not found")
	}
	return conversation, nil
}

// FindByName 根据名称查找会话（不区分大小写）
func (r *MemoryConversationRepository) FindByName(ctx context.Context, name string) (*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, conversation := range r.conversations {
		if strings.EqualFold(conversation.Name(), name) {
			return conversation, nil
		}
	}
	return nil, domainErrors.NewNotFoundError("conversation not found")
}

// FindAll 返回按 position 升序排列的全部会话
func (r *MemoryConversationRepository) FindAll(ctx context.Context) ([]*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conversations := make([]*entity.Conversation, 0, len(r.conversations))
	for _, conversation := range r.conversations {
		conversations = append(conversations, conversation)
	}
	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].Position() < conversations[j].Position()
	})
	return conversations, nil
}

// Count 统计会话数量
func (r *MemoryConversationRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.conversations)), nil
}
