package entity

import "errors"

var (
	// Conversation errors
	ErrInvalidConversationID   = errors.New("invalid conversation id")
	ErrInvalidConversationName = errors.New("invalid conversation name")
	ErrConversationLocked      = errors.New("conversation is locked")
	ErrConversationComplete    = errors.New("conversation is complete")
	ErrNoLivesLeft             = errors.New("no lives left")

	// Message errors
	ErrInvalidMessageID   = errors.New("invalid message id")
	ErrInvalidMessageText = errors.New("invalid message text")
	ErrInvalidAuthor      = errors.New("invalid message author")

	// Quiz errors
	ErrQuizPending = errors.New("a quiz is already pending")
	ErrNoOpenQuiz  = errors.New("no open quiz for conversation")
)
