package services

import (
	"context"
	"errors"
	"testing"
)

func TestExportRoomActivityHostOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	room := env.createRoom(t, "teacher-1", "Busy Room", "Mathematics", 10)
	env.grantAccess(t, room.ID, "student-1")

	if _, err := env.messages.Post(ctx, room.ID, &CreateMessageRequest{Body: "hello"}, "student-1"); err != nil {
		t.Fatalf("post: %v", err)
	}
	if _, err := env.ratings.RecordRating(ctx, room.ID, "student-1", &RateRoomRequest{Score: 4}); err != nil {
		t.Fatalf("rate: %v", err)
	}

	_, err := env.exports.ExportRoomActivity(ctx, room.ID, "student-1")
	var permErr *PermissionError
	if !errors.As(err, &permErr) {
		t.Fatalf("expected PermissionError for non-host, got %v", err)
	}

	file, err := env.exports.ExportRoomActivity(ctx, room.ID, "teacher-1")
	if err != nil {
		t.Fatalf("host export: %v", err)
	}

	sheets := file.GetSheetList()
	if len(sheets) != 2 {
		t.Fatalf("expected 2 sheets, got %v", sheets)
	}

	cell, err := file.GetCellValue("Messages", "C2")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if cell != "hello" {
		t.Errorf("expected message body in export, got %q", cell)
	}
}

func TestExportRoomActivityMissingRoom(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.exports.ExportRoomActivity(context.Background(), 999, "teacher-1")
	if !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}
