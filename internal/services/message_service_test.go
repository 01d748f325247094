package services

import (
	"context"
	"errors"
	"testing"
)

func TestPostMessageAddsParticipant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	room := env.createRoom(t, "teacher-1", "Chat Room", "Mathematics", 10)
	env.grantAccess(t, room.ID, "student-1")

	msg, err := env.messages.Post(ctx, room.ID, &CreateMessageRequest{Body: "hello"}, "student-1")
	if err != nil {
		t.Fatalf("post message: %v", err)
	}
	if !msg.CanDelete {
		t.Error("author should be able to delete their own message")
	}

	stats, err := env.repo.Room().GetStats(ctx, nil, room.ID)
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if stats.ParticipantCount != 1 {
		t.Errorf("posting should join the participant set, got %d participants", stats.ParticipantCount)
	}
	if stats.MessageCount != 1 {
		t.Errorf("expected 1 message, got %d", stats.MessageCount)
	}
}

func TestPostMessageRequiresAccess(t *testing.T) {
	env := newTestEnv(t)

	room := env.createRoom(t, "teacher-1", "Locked Room", "Mathematics", 10)

	_, err := env.messages.Post(context.Background(), room.ID, &CreateMessageRequest{Body: "let me in"}, "student-1")
	if !errors.Is(err, ErrRoomAccessDenied) {
		t.Fatalf("expected ErrRoomAccessDenied, got %v", err)
	}
}

func TestDeleteMessageAuthorOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	room := env.createRoom(t, "teacher-1", "Chat Room", "Mathematics", 10)
	env.grantAccess(t, room.ID, "student-1")
	env.grantAccess(t, room.ID, "student-2")

	msg, err := env.messages.Post(ctx, room.ID, &CreateMessageRequest{Body: "mine"}, "student-1")
	if err != nil {
		t.Fatalf("post message: %v", err)
	}

	err = env.messages.Delete(ctx, msg.ID, "student-2")
	var permErr *PermissionError
	if !errors.As(err, &permErr) {
		t.Fatalf("expected PermissionError for non-author, got %v", err)
	}

	if err := env.messages.Delete(ctx, msg.ID, "student-1"); err != nil {
		t.Fatalf("author delete: %v", err)
	}

	if err := env.messages.Delete(ctx, msg.ID, "student-1"); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound after delete, got %v", err)
	}
}

func TestListRoomMessagesNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	room := env.createRoom(t, "teacher-1", "Chat Room", "Mathematics", 10)
	env.grantAccess(t, room.ID, "student-1")

	for _, body := range []string{"first", "second", "third"} {
		if _, err := env.messages.Post(ctx, room.ID, &CreateMessageRequest{Body: body}, "student-1"); err != nil {
			t.Fatalf("post %q: %v", body, err)
		}
	}

	list, err := env.messages.ListByRoom(ctx, room.ID, "student-1", 10, 0)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if list.Total != 3 {
		t.Fatalf("expected 3 messages, got %d", list.Total)
	}
	if list.Messages[0].Body != "third" {
		t.Errorf("expected newest message first, got %q", list.Messages[0].Body)
	}
}

func TestRecentActivityFiltersByTopic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mathRoom := env.createRoom(t, "teacher-1", "Math Room", "Mathematics", 0)
	historyRoom := env.createRoom(t, "teacher-1", "History Room", "History", 0)

	if _, err := env.messages.Post(ctx, mathRoom.ID, &CreateMessageRequest{Body: "about math"}, "teacher-1"); err != nil {
		t.Fatalf("post: %v", err)
	}
	if _, err := env.messages.Post(ctx, historyRoom.ID, &CreateMessageRequest{Body: "about history"}, "teacher-1"); err != nil {
		t.Fatalf("post: %v", err)
	}

	recent, err := env.messages.RecentActivity(ctx, "math", 10)
	if err != nil {
		t.Fatalf("recent activity: %v", err)
	}
	if len(recent) != 1 || recent[0].Body != "about math" {
		t.Errorf("expected only the math message, got %d messages", len(recent))
	}
}
