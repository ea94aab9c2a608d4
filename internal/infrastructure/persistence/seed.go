package persistence

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/heartline/heartline/internal/domain/entity"
	"github.com/heartline/heartline/internal/domain/repository"
	"github.com/heartline/heartline/internal/domain/valueobject"
)

// Seed 在空库时写入演示数据：三个会话，第一个解锁，
// 每个会话带三条开场消息。非空库不做任何事。
func Seed(ctx context.Context, conversations repository.ConversationRepository, messages repository.MessageRepository, logger *zap.Logger) error {
	count, err := conversations.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now()

	seedConversations := []struct {
		id       string
		name     string
		position int
		unlocked bool
	}{
		{"c1", "Taylor", 0, true},
		{"c2", "Alex", 1, false},
		{"c3", "Casey", 2, false},
	}

	for _, sc := range seedConversations {
		conv := entity.ReconstructConversation(
			sc.id, sc.name, "",
			sc.position, entity.DefaultProgress,
			sc.unlocked, entity.MaxLives, false,
			"", "",
			now,
		)
		if err := conversations.Save(ctx, conv); err != nil {
			return err
		}
	}

	seedMessages := []struct {
		id     string
		convID string
		author valueobject.Author
		text   string
		agoMin int
	}{
		// Taylor：略显冷淡
		{"m1", "c1", valueobject.AuthorThem, "Hey.", 70},
		{"m2", "c1", valueobject.AuthorMe, "Was thinking coffee later, if you're free.", 66},
		{"m3", "c1", valueobject.AuthorThem, "Maybe. Not sure yet.", 62},

		// Alex：技术宅，带点嘲讽
		{"m4", "c2", valueobject.AuthorThem, "Got stuck debugging again lol 🧠", 140},
		{"m5", "c2", valueobject.AuthorMe, "Want to decompress after? Walk or coffee?", 136},
		{"m6", "c2", valueobject.AuthorThem, "A walk would be nice. My brain needs fresh air 😂", 132},

		// Casey：友善但情感疏离
		{"m7", "c3", valueobject.AuthorThem, "Been kind of in my head today.", 220},
		{"m8", "c3", valueobject.AuthorMe, "I'm here. Want to talk or just chill?", 216},
		{"m9", "c3", valueobject.AuthorThem, "Thanks. Maybe later, appreciate it.", 212},
	}

	for _, sm := range seedMessages {
		msg := entity.ReconstructMessage(
			sm.id, sm.convID, sm.author, sm.text,
			now.Add(-time.Duration(sm.agoMin)*time.Minute),
		)
		if err := messages.Save(ctx, msg); err != nil {
			return err
		}
	}

	logger.Info("Seeded demo conversations",
		zap.Int("conversations", len(seedConversations)),
		zap.Int("messages", len(seedMessages)),
	)
	return nil
}
