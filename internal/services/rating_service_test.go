package services

import (
	"context"
	"errors"
	"testing"

	"github.com/studybud-app/room-service/internal/events"
)

func TestRecordRatingComputesMean(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	room := env.createRoom(t, "teacher-1", "Rated Room", "Mathematics", 10)
	env.grantAccess(t, room.ID, "student-1")
	env.grantAccess(t, room.ID, "student-2")

	first, err := env.ratings.RecordRating(ctx, room.ID, "student-1", &RateRoomRequest{Score: 5})
	if err != nil {
		t.Fatalf("first rating: %v", err)
	}
	if first.RoomRatingMean != 5 {
		t.Errorf("expected mean 5 after one rating, got %v", first.RoomRatingMean)
	}

	second, err := env.ratings.RecordRating(ctx, room.ID, "student-2", &RateRoomRequest{Score: 4})
	if err != nil {
		t.Fatalf("second rating: %v", err)
	}
	if second.RoomRatingMean != 4.5 {
		t.Errorf("expected mean 4.5, got %v", second.RoomRatingMean)
	}
	if second.RatingCount != 2 {
		t.Errorf("expected 2 ratings, got %d", second.RatingCount)
	}

	// The cached mean on the room must match
	refreshed, err := env.rooms.GetByID(ctx, room.ID, "teacher-1")
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if refreshed.Rating != 4.5 {
		t.Errorf("expected cached room rating 4.5, got %v", refreshed.Rating)
	}

	if got := env.eventsOfType(events.EventRoomRated); len(got) != 2 {
		t.Errorf("expected 2 room.rated events, got %d", len(got))
	}
}

func TestRecordRatingOverwritesPreviousScore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	room := env.createRoom(t, "teacher-1", "Rated Room", "Mathematics", 10)
	env.grantAccess(t, room.ID, "student-1")

	if _, err := env.ratings.RecordRating(ctx, room.ID, "student-1", &RateRoomRequest{Score: 2}); err != nil {
		t.Fatalf("first rating: %v", err)
	}

	resp, err := env.ratings.RecordRating(ctx, room.ID, "student-1", &RateRoomRequest{Score: 5})
	if err != nil {
		t.Fatalf("second rating: %v", err)
	}

	if resp.RatingCount != 1 {
		t.Errorf("re-rating must not add a row, got count %d", resp.RatingCount)
	}
	if resp.RoomRatingMean != 5 {
		t.Errorf("expected mean 5 after overwrite, got %v", resp.RoomRatingMean)
	}
}

func TestRecordRatingRequiresAccess(t *testing.T) {
	env := newTestEnv(t)

	room := env.createRoom(t, "teacher-1", "Locked Room", "Mathematics", 10)

	_, err := env.ratings.RecordRating(context.Background(), room.ID, "student-1", &RateRoomRequest{Score: 4})
	if !errors.Is(err, ErrRoomAccessDenied) {
		t.Fatalf("expected ErrRoomAccessDenied for non-payee, got %v", err)
	}
}

func TestRecordRatingRejectsOutOfRangeScore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	room := env.createRoom(t, "teacher-1", "Rated Room", "Mathematics", 10)
	env.grantAccess(t, room.ID, "student-1")

	for _, score := range []int{0, 6, -1} {
		if _, err := env.ratings.RecordRating(ctx, room.ID, "student-1", &RateRoomRequest{Score: score}); err == nil {
			t.Errorf("expected validation error for score %d", score)
		}
	}

	// Rejected submissions must not touch the stored mean
	refreshed, err := env.rooms.GetByID(ctx, room.ID, "teacher-1")
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if refreshed.Rating != 0 {
		t.Errorf("expected rating to stay 0, got %v", refreshed.Rating)
	}
}

func TestGetRoomRatingsRequiresAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	room := env.createRoom(t, "teacher-1", "Rated Room", "Mathematics", 10)
	env.grantAccess(t, room.ID, "student-1")

	if _, err := env.ratings.RecordRating(ctx, room.ID, "student-1", &RateRoomRequest{Score: 3}); err != nil {
		t.Fatalf("rating: %v", err)
	}

	if _, err := env.ratings.GetRoomRatings(ctx, room.ID, "student-2"); !errors.Is(err, ErrRoomAccessDenied) {
		t.Fatalf("expected ErrRoomAccessDenied, got %v", err)
	}

	ratings, err := env.ratings.GetRoomRatings(ctx, room.ID, "student-1")
	if err != nil {
		t.Fatalf("list ratings: %v", err)
	}
	if len(ratings) != 1 || ratings[0].Score != 3 {
		t.Errorf("expected one rating with score 3, got %+v", ratings)
	}
}
