package entity

import (
	"testing"

	"github.com/heartline/heartline/internal/domain/valueobject"
)

func TestNewMessage_Validation(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		convID  string
		author  valueobject.Author
		text    string
		wantErr error
	}{
		{"valid", "m1", "c1", valueobject.AuthorMe, "hey", nil},
		{"empty id", "", "c1", valueobject.AuthorMe, "hey", ErrInvalidMessageID},
		{"empty conversation", "m1", "", valueobject.AuthorMe, "hey", ErrInvalidConversationID},
		{"invalid author", "m1", "c1", valueobject.Author("bot"), "hey", ErrInvalidAuthor},
		{"empty text", "m1", "c1", valueobject.AuthorThem, "", ErrInvalidMessageText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMessage(tt.id, tt.convID, tt.author, tt.text)
			if err != tt.wantErr {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMessageIsFromMe(t *testing.T) {
	mine, _ := NewMessage("m1", "c1", valueobject.AuthorMe, "hi")
	if !mine.IsFromMe() {
		t.Error("author me should be from me")
	}
	theirs, _ := NewMessage("m2", "c1", valueobject.AuthorThem, "hi")
	if theirs.IsFromMe() {
		t.Error("author them should not be from me")
	}
}
