package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/studybud-app/room-service/internal/config"
	"github.com/studybud-app/room-service/internal/events"
	"github.com/studybud-app/room-service/internal/models"
	"github.com/studybud-app/room-service/internal/validator"
)

type testEnv struct {
	repo      *mockRepository
	gateway   *mockGateway
	publisher *events.MockEventPublisher

	rooms    RoomService
	ratings  RatingService
	messages MessageService
	payments PaymentService
	exports  ExportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := newMockRepository()
	repo.addUser("teacher-1", "Ada Instructor", models.RoleTeacher)
	repo.addUser("student-1", "Bob Learner", models.RoleStudent)
	repo.addUser("student-2", "Carol Learner", models.RoleStudent)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	v := validator.New()
	gw := newMockGateway()
	publisher := events.NewMockEventPublisher(logger)

	paypalCfg := config.PayPalConfig{
		Currency:  "EUR",
		ReturnURL: "http://localhost:8080/api/v1/payments/execute",
		CancelURL: "http://localhost:8080/",
	}

	rooms := NewRoomService(repo, nil, logger, v, publisher)

	return &testEnv{
		repo:      repo,
		gateway:   gw,
		publisher: publisher,
		rooms:     rooms,
		ratings:   NewRatingService(repo, nil, logger, v, rooms, publisher),
		messages:  NewMessageService(repo, nil, logger, v, rooms, publisher),
		payments:  NewPaymentService(repo, nil, logger, gw, paypalCfg, publisher),
		exports:   NewExportService(repo, nil, logger),
	}
}

func (env *testEnv) createRoom(t *testing.T, hostID, name, topic string, price float64) *RoomResponse {
	t.Helper()

	room, err := env.rooms.Create(context.Background(), &CreateRoomRequest{
		Name:  name,
		Topic: topic,
		Price: price,
	}, hostID)
	if err != nil {
		t.Fatalf("create room %q: %v", name, err)
	}
	return room
}

// grantAccess puts a user in the room's payee set directly, simulating a
// completed payment.
func (env *testEnv) grantAccess(t *testing.T, roomID uint, userID string) {
	t.Helper()

	if err := env.repo.Room().AddPayee(context.Background(), nil, roomID, userID); err != nil {
		t.Fatalf("add payee: %v", err)
	}
}

func (env *testEnv) eventsOfType(eventType string) []*events.Event {
	var out []*events.Event
	for _, e := range env.publisher.GetPublishedEvents() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
