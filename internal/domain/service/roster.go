package service

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/heartline/heartline/internal/domain/entity"
	"github.com/heartline/heartline/internal/domain/repository"
	"go.uber.org/zap"
)

// Roster owns the ordered conversation sequence. The order is explicit
// (position field), not an incidental array index: the cascade unlock and the
// "next conversation" advance both index into this order.
type Roster struct {
	conversations repository.ConversationRepository
	logger        *zap.Logger
}

// NewRoster creates the roster service.
func NewRoster(conversations repository.ConversationRepository, logger *zap.Logger) *Roster {
	return &Roster{
		conversations: conversations,
		logger:        logger.With(zap.String("component", "roster")),
	}
}

// Load returns all conversations in sequence order, normalized: the first
// conversation is always unlocked, and any conversation whose predecessor has
// already reached 100 progress is unlocked too. Changed rows are persisted.
func (r *Roster) Load(ctx context.Context) ([]*entity.Conversation, error) {
	convs, err := r.conversations.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].Position() < convs[j].Position()
	})

	for i, conv := range convs {
		unlocked := conv.Unlocked()
		if i == 0 && !unlocked {
			conv.Unlock()
		}
		if i > 0 && !unlocked && convs[i-1].Progress() >= entity.MaxProgress {
			conv.Unlock()
		}
		if conv.Unlocked() != unlocked {
			if err := r.conversations.Save(ctx, conv); err != nil {
				return nil, err
			}
			r.logger.Info("Conversation unlocked during normalization",
				zap.String("conversation_id", conv.ID()),
			)
		}
	}

	return convs, nil
}

// Search returns the normalized roster filtered by a case-insensitive name or
// phone substring. An empty query returns everything.
func (r *Roster) Search(ctx context.Context, query string) ([]*entity.Conversation, error) {
	convs, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return convs, nil
	}

	filtered := make([]*entity.Conversation, 0, len(convs))
	for _, conv := range convs {
		if strings.Contains(strings.ToLower(conv.Name()), q) || strings.Contains(conv.Phone(), q) {
			filtered = append(filtered, conv)
		}
	}
	return filtered, nil
}

// Next returns the conversation immediately after the given one in sequence
// order, or nil when it is the last.
func (r *Roster) Next(ctx context.Context, conversationID string) (*entity.Conversation, error) {
	convs, err := r.conversations.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].Position() < convs[j].Position()
	})

	for i, conv := range convs {
		if conv.ID() == conversationID {
			if i+1 < len(convs) {
				return convs[i+1], nil
			}
			return nil, nil
		}
	}
	return nil, nil
}

// Create adds a new conversation at the end of the sequence. A name matching
// an existing conversation (case-insensitive) returns that conversation with
// created=false instead of duplicating. New conversations start locked unless
// they are the first.
func (r *Roster) Create(ctx context.Context, name, personaDescription, personaSystem string) (*entity.Conversation, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, entity.ErrInvalidConversationName
	}

	if existing, err := r.conversations.FindByName(ctx, name); err == nil && existing != nil {
		return existing, false, nil
	}

	count, err := r.conversations.Count(ctx)
	if err != nil {
		return nil, false, err
	}

	conv, err := entity.NewConversation("c_"+uuid.NewString(), name, int(count), count == 0)
	if err != nil {
		return nil, false, err
	}
	if personaDescription != "" || personaSystem != "" {
		conv.SetPersonaOverride(personaDescription, personaSystem)
	}

	if err := r.conversations.Save(ctx, conv); err != nil {
		return nil, false, err
	}

	r.logger.Info("Conversation created",
		zap.String("conversation_id", conv.ID()),
		zap.String("name", name),
		zap.Bool("unlocked", conv.Unlocked()),
	)
	return conv, true, nil
}
