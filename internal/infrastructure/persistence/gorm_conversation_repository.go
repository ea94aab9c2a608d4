package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/heartline/heartline/internal/domain/entity"
	"github.com/heartline/heartline/internal/domain/repository"
	"github.com/heartline/heartline/internal/infrastructure/persistence/models"
	domainErrors "github.com/heartline/heartline/pkg/errors"
)

// GormConversationRepository GORM 实现的会话仓储
type GormConversationRepository struct {
	db *gorm.DB
}

// NewGormConversationRepository 创建 GORM 会话仓储
func NewGormConversationRepository(db *gorm.DB) repository.ConversationRepository {
	return &GormConversationRepository{db: db}
}

// Save 保存会话（创建或更新）
func (r *GormConversationRepository) Save(ctx context.Context, conversation *entity.Conversation) error {
	model := r.toModel(conversation)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return domainErrors.NewInternalError("failed to save conversation: " + err.Error())
	}
	return nil
}

// FindByID 根据ID查找会话
func (r *GormConversationRepository) FindByID(ctx context.Context, id string) (*entity.Conversation, error) {
	var model models.ConversationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.NewNotFoundError("conversation not found")
		}
		return nil, domainErrors.NewInternalError("failed to find conversation: " + err.Error())
	}
	return r.toEntity(&model), nil
}

// FindByName 根据名称查找会话（不区分大小写）
func (r *GormConversationRepository) FindByName(ctx context.Context, name string) (*entity.Conversation, error) {
	var model models.ConversationModel
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", name).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.NewNotFoundError("conversation not found")
		}
		return nil, domainErrors.NewInternalError("failed to find conversation: " + err.Error())
	}
	return r.toEntity(&model), nil
}

// FindAll 返回按 position 升序排列的全部会话
func (r *GormConversationRepository) FindAll(ctx context.Context) ([]*entity.Conversation, error) {
	var convModels []models.ConversationModel
	err := r.db.WithContext(ctx).
		Order("position asc").
		Find(&convModels).Error
	if err != nil {
		return nil, domainErrors.NewInternalError("failed to list conversations: " + err.Error())
	}

	conversations := make([]*entity.Conversation, 0, len(convModels))
	for i := range convModels {
		conversations = append(conversations, r.toEntity(&convModels[i]))
	}
	return conversations, nil
}

// Count 统计会话数量
func (r *GormConversationRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ConversationModel{}).Count(&count).Error
	if err != nil {
		return 0, domainErrors.NewInternalError("failed to count conversations: " + err.Error())
	}
	return count, nil
}

// 转换方法

func (r *GormConversationRepository) toModel(conversation *entity.Conversation) *models.ConversationModel {
	return &models.ConversationModel{
		ID:                 conversation.ID(),
		Name:               conversation.Name(),
		Phone:              conversation.Phone(),
		Position:           conversation.Position(),
		Progress:           conversation.Progress(),
		Unlocked:           conversation.Unlocked(),
		Lives:              conversation.Lives(),
		QuizPassed:         conversation.QuizPassed(),
		PersonaDescription: conversation.PersonaDescription(),
		PersonaSystem:      conversation.PersonaSystem(),
		CreatedAt:          conversation.CreatedAt(),
	}
}

func (r *GormConversationRepository) toEntity(model *models.ConversationModel) *entity.Conversation {
	return entity.ReconstructConversation(
		model.ID,
		model.Name,
		model.Phone,
		model.Position,
		model.Progress,
		model.Unlocked,
		model.Lives,
		model.QuizPassed,
		model.PersonaDescription,
		model.PersonaSystem,
		model.CreatedAt,
	)
}
