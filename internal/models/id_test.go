package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDUnmarshalMixedRepresentations(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ID
	}{
		{name: "string", in: `"507f1f77bcf86cd799439011"`, want: "507f1f77bcf86cd799439011"},
		{name: "number", in: `42`, want: "42"},
		{name: "null", in: `null`, want: ""},
		{name: "populated mongo object", in: `{"_id":"U2","username":"bob"}`, want: "U2"},
		{name: "populated id object", in: `{"id":7}`, want: "7"},
		{name: "object without id", in: `{"username":"bob"}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ID
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("id mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSameID(t *testing.T) {
	var fromNumber ID
	require.NoError(t, json.Unmarshal([]byte(`12`), &fromNumber))

	assert.True(t, SameID(fromNumber, ID("12")))
	assert.False(t, SameID("", ""))
	assert.False(t, SameID("U1", ""))
	assert.False(t, SameID("", "U1"))
	assert.False(t, SameID("U1", "U2"))
}

func TestIsObjectID(t *testing.T) {
	assert.True(t, ID("507f1f77bcf86cd799439011").IsObjectID())
	assert.True(t, ID("507F1F77BCF86CD799439011").IsObjectID())
	assert.False(t, ID("abc").IsObjectID())
	assert.False(t, ID("507f1f77bcf86cd79943901z").IsObjectID())
	assert.False(t, ID("507f1f77bcf86cd7994390111").IsObjectID())
}

func TestPendingChatValid(t *testing.T) {
	assert.True(t, PendingChat{ChatID: "507f1f77bcf86cd799439011"}.Valid())
	assert.False(t, PendingChat{ChatID: "abc"}.Valid())
	assert.False(t, PendingChat{}.Valid())
}

func TestMessageUnmarshalPopulatedSender(t *testing.T) {
	body := `{"_id":"m1","chat":"c1","sender":{"_id":"U2","username":"bob","profilePicture":"uploads/b.png"},"content":"hi","imageUrl":null}`

	var msg Message
	require.NoError(t, json.Unmarshal([]byte(body), &msg))

	want := Message{ID: "m1", ChatID: "c1", SenderID: "U2", SenderName: "bob", SenderPicture: "uploads/b.png", Content: "hi"}
	if diff := cmp.Diff(want, msg); diff != "" {
		t.Fatalf("message mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, msg.Valid())
}

func TestMessageUnmarshalBareSender(t *testing.T) {
	var msg Message
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"m2","sender":"U1","imageUrl":"/uploads/x.png"}`), &msg))

	assert.Equal(t, ID("U1"), msg.SenderID)
	assert.Equal(t, "/uploads/x.png", msg.ImageURL)
	assert.True(t, msg.Valid())
	assert.False(t, Message{SenderID: "U1"}.Valid())
}

func TestChatCounterpart(t *testing.T) {
	chat := Chat{ID: "c", Members: []User{{ID: "U1", Username: "me"}, {ID: "U2", Username: "bob"}}}

	other, ok := chat.Counterpart("U1")
	require.True(t, ok)
	assert.Equal(t, "bob", other.Username)

	_, ok = Chat{Members: []User{{ID: "U1"}}}.Counterpart("U1")
	assert.False(t, ok)
}

func TestPushMessageToMessage(t *testing.T) {
	msg := PushMessage{ChatID: "c", SenderID: "U2", Username: "bob", Content: "yo"}.ToMessage()
	assert.Equal(t, "bob", msg.SenderName)
	assert.Equal(t, ID("U2"), msg.SenderID)
	assert.True(t, msg.ID.IsZero())
	assert.True(t, msg.CreatedAt.IsZero())

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	msg = PushMessage{ChatID: "c", SenderID: "U2", Content: "yo", MessageID: "m7", CreatedAt: at}.ToMessage()
	assert.Equal(t, ID("m7"), msg.ID)
	assert.Equal(t, at, msg.CreatedAt)
}

func TestAttachmentValidate(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")

	assert.NoError(t, (*Attachment)(nil).Validate())
	assert.NoError(t, (&Attachment{Filename: "a.png", Data: png}).Validate())
	assert.Equal(t, "image/png", (&Attachment{Data: png}).MediaType())
	assert.ErrorIs(t, (&Attachment{Filename: "a.txt", Data: []byte("hello")}).Validate(), ErrNotImage)
	assert.ErrorIs(t, (&Attachment{ContentType: "image/jpeg", Data: make([]byte, MaxImageBytes+1)}).Validate(), ErrImageTooLarge)
}
