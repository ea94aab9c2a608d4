package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/heartline/heartline/internal/domain/entity"
	"github.com/heartline/heartline/internal/domain/repository"
	"github.com/heartline/heartline/internal/domain/valueobject"
	"github.com/heartline/heartline/internal/infrastructure/persistence/models"
	domainErrors "github.com/heartline/heartline/pkg/errors"
)

// GormMessageRepository GORM 实现的消息仓储
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository 创建 GORM 消息仓储
func NewGormMessageRepository(db *gorm.DB) repository.MessageRepository {
	return &GormMessageRepository{db: db}
}

// Save 保存消息
func (r *GormMessageRepository) Save(ctx context.Context, message *entity.Message) error {
	model := r.toModel(message)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return domainErrors.NewInternalError("failed to save message: " + err.Error())
	}
	return nil
}

// FindByConversationID 返回会话全部消息，按创建时间升序
func (r *GormMessageRepository) FindByConversationID(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	var msgModels []models.MessageModel
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at asc").
		Find(&msgModels).Error
	if err != nil {
		return nil, domainErrors.NewInternalError("failed to find messages: " + err.Error())
	}

	messages := make([]*entity.Message, 0, len(msgModels))
	for i := range msgModels {
		messages = append(messages, r.toEntity(&msgModels[i]))
	}
	return messages, nil
}

// DeleteByConversationID 批量删除会话的全部消息
func (r *GormMessageRepository) DeleteByConversationID(ctx context.Context, conversationID string) error {
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Delete(&models.MessageModel{}).Error
	if err != nil {
		return domainErrors.NewInternalError("failed to delete messages: " + err.Error())
	}
	return nil
}

// Count 统计会话中的消息数量
func (r *GormMessageRepository) Count(ctx context.Context, conversationID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.MessageModel{}).
		Where("conversation_id = ?", conversationID).
		Count(&count).Error
	if err != nil {
		return 0, domainErrors.NewInternalError("failed to count messages: " + err.Error())
	}
	return count, nil
}

// 转换方法

func (r *GormMessageRepository) toModel(message *entity.Message) *models.MessageModel {
	return &models.MessageModel{
		ID:             message.ID(),
		ConversationID: message.ConversationID(),
		Author:         message.Author().String(),
		Text:           message.Text(),
		CreatedAt:      message.CreatedAt(),
	}
}

func (r *GormMessageRepository) toEntity(model *models.MessageModel) *entity.Message {
	return entity.ReconstructMessage(
		model.ID,
		model.ConversationID,
		valueobject.Author(model.Author),
		model.Text,
		model.CreatedAt,
	)
}
