package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/studybud-app/room-service/internal/gateway"
	"github.com/studybud-app/room-service/internal/models"
	"github.com/studybud-app/room-service/internal/repositories"
)

// mockRepository is an in-memory Repository for service tests.
type mockRepository struct {
	mu sync.Mutex

	rooms        map[uint]*models.Room
	topics       map[uint]*models.Topic
	ratings      map[uint]*models.RoomRating
	messages     map[uint]*models.Message
	payments     map[uint]*models.Payment
	users        map[string]*models.User
	payees       map[uint]map[string]bool
	participants map[uint]map[string]bool

	nextRoomID    uint
	nextTopicID   uint
	nextRatingID  uint
	nextMessageID uint
	nextPaymentID uint

	// Injected failures for the degraded-lookup paths.
	payeeErr error
	statsErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		rooms:        make(map[uint]*models.Room),
		topics:       make(map[uint]*models.Topic),
		ratings:      make(map[uint]*models.RoomRating),
		messages:     make(map[uint]*models.Message),
		payments:     make(map[uint]*models.Payment),
		users:        make(map[string]*models.User),
		payees:       make(map[uint]map[string]bool),
		participants: make(map[uint]map[string]bool),
	}
}

func (m *mockRepository) addUser(id, name string, role models.UserRole) {
	m.users[id] = &models.User{
		ID:    id,
		Name:  name,
		Email: id + "@example.com",
		Role:  role,
	}
}

func (m *mockRepository) Room() repositories.RoomRepository       { return &mockRoomRepo{m} }
func (m *mockRepository) Topic() repositories.TopicRepository     { return &mockTopicRepo{m} }
func (m *mockRepository) Rating() repositories.RatingRepository   { return &mockRatingRepo{m} }
func (m *mockRepository) Message() repositories.MessageRepository { return &mockMessageRepo{m} }
func (m *mockRepository) Payment() repositories.PaymentRepository { return &mockPaymentRepo{m} }
func (m *mockRepository) User() repositories.UserRepository       { return &mockUserRepo{m} }

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

// ===== ROOM =====

type mockRoomRepo struct{ m *mockRepository }

func (r *mockRoomRepo) Create(ctx context.Context, tx *gorm.DB, room *models.Room) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.nextRoomID++
	room.ID = r.m.nextRoomID
	room.CreatedAt = time.Now()
	room.UpdatedAt = room.CreatedAt

	stored := *room
	r.m.rooms[room.ID] = &stored
	return nil
}

func (r *mockRoomRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Room, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	room, ok := r.m.rooms[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	out := *room
	if room.TopicID != nil {
		if topic, ok := r.m.topics[*room.TopicID]; ok {
			t := *topic
			out.Topic = &t
		}
	}
	return &out, nil
}

func (r *mockRoomRepo) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Room, error) {
	room, err := r.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, msg := range r.m.messages {
		if msg.RoomID == id {
			room.Messages = append(room.Messages, *msg)
		}
	}
	for _, rating := range r.m.ratings {
		if rating.RoomID == id {
			room.Ratings = append(room.Ratings, *rating)
		}
	}
	for userID := range r.m.payees[id] {
		if user, ok := r.m.users[userID]; ok {
			room.Payees = append(room.Payees, *user)
		}
	}
	for userID := range r.m.participants[id] {
		if user, ok := r.m.users[userID]; ok {
			room.Participants = append(room.Participants, *user)
		}
	}
	return room, nil
}

func (r *mockRoomRepo) Update(ctx context.Context, tx *gorm.DB, room *models.Room) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.rooms[room.ID]; !ok {
		return gorm.ErrRecordNotFound
	}

	room.UpdatedAt = time.Now()
	stored := *room
	r.m.rooms[room.ID] = &stored
	return nil
}

func (r *mockRoomRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.rooms[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.m.rooms, id)
	for mid, msg := range r.m.messages {
		if msg.RoomID == id {
			delete(r.m.messages, mid)
		}
	}
	for rid, rating := range r.m.ratings {
		if rating.RoomID == id {
			delete(r.m.ratings, rid)
		}
	}
	return nil
}

func (r *mockRoomRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.RoomFilters) ([]*models.Room, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var matched []*models.Room
	for _, room := range r.m.rooms {
		if !r.matches(room, filters) {
			continue
		}
		out := *room
		if room.TopicID != nil {
			if topic, ok := r.m.topics[*room.TopicID]; ok {
				t := *topic
				out.Topic = &t
			}
		}
		matched = append(matched, &out)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := int64(len(matched))
	matched = page(matched, filters.Limit, filters.Offset)
	return matched, total, nil
}

func (r *mockRoomRepo) matches(room *models.Room, filters repositories.RoomFilters) bool {
	if filters.Query != nil && *filters.Query != "" {
		q := strings.ToLower(*filters.Query)
		hit := strings.Contains(strings.ToLower(room.Name), q)
		if !hit && room.Description != nil {
			hit = strings.Contains(strings.ToLower(*room.Description), q)
		}
		if !hit && room.TopicID != nil {
			if topic, ok := r.m.topics[*room.TopicID]; ok {
				hit = strings.Contains(strings.ToLower(topic.Name), q)
			}
		}
		if !hit {
			return false
		}
	}
	if filters.TopicID != nil && (room.TopicID == nil || *room.TopicID != *filters.TopicID) {
		return false
	}
	if filters.HostID != nil && (room.HostID == nil || *room.HostID != *filters.HostID) {
		return false
	}
	if filters.PayeeID != nil && !r.m.payees[room.ID][*filters.PayeeID] {
		return false
	}
	if filters.ExcludePayeeID != nil && r.m.payees[room.ID][*filters.ExcludePayeeID] {
		return false
	}
	return true
}

func (r *mockRoomRepo) Search(ctx context.Context, tx *gorm.DB, query string, filters repositories.RoomFilters) ([]*models.Room, int64, error) {
	filters.Query = &query
	return r.List(ctx, tx, filters)
}

func (r *mockRoomRepo) AddPayee(ctx context.Context, tx *gorm.DB, roomID uint, userID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if r.m.payees[roomID] == nil {
		r.m.payees[roomID] = make(map[string]bool)
	}
	r.m.payees[roomID][userID] = true
	return nil
}

func (r *mockRoomRepo) IsPayee(ctx context.Context, tx *gorm.DB, roomID uint, userID string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.payeeErr != nil {
		return false, r.m.payeeErr
	}
	return r.m.payees[roomID][userID], nil
}

func (r *mockRoomRepo) AddParticipant(ctx context.Context, tx *gorm.DB, roomID uint, userID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if r.m.participants[roomID] == nil {
		r.m.participants[roomID] = make(map[string]bool)
	}
	r.m.participants[roomID][userID] = true
	return nil
}

func (r *mockRoomRepo) GetStats(ctx context.Context, tx *gorm.DB, roomID uint) (*repositories.RoomStats, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if r.m.statsErr != nil {
		return nil, r.m.statsErr
	}

	stats := &repositories.RoomStats{}
	var sum int
	for _, rating := range r.m.ratings {
		if rating.RoomID == roomID {
			stats.RatingCount++
			sum += rating.Score
		}
	}
	if stats.RatingCount > 0 {
		stats.AverageRating = float64(sum) / float64(stats.RatingCount)
	}
	for _, msg := range r.m.messages {
		if msg.RoomID == roomID {
			stats.MessageCount++
		}
	}
	stats.ParticipantCount = len(r.m.participants[roomID])
	stats.PayeeCount = len(r.m.payees[roomID])
	return stats, nil
}

// ===== TOPIC =====

type mockTopicRepo struct{ m *mockRepository }

func (r *mockTopicRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Topic, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	topic, ok := r.m.topics[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *topic
	return &out, nil
}

func (r *mockTopicRepo) GetOrCreateByName(ctx context.Context, tx *gorm.DB, name string) (*models.Topic, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, topic := range r.m.topics {
		if strings.EqualFold(topic.Name, name) {
			out := *topic
			return &out, nil
		}
	}

	r.m.nextTopicID++
	topic := &models.Topic{ID: r.m.nextTopicID, Name: name}
	r.m.topics[topic.ID] = topic
	out := *topic
	return &out, nil
}

func (r *mockTopicRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.TopicFilters) ([]*models.Topic, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var matched []*models.Topic
	for _, topic := range r.m.topics {
		if filters.Query != nil && !strings.Contains(strings.ToLower(topic.Name), strings.ToLower(*filters.Query)) {
			continue
		}
		out := *topic
		matched = append(matched, &out)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := int64(len(matched))
	matched = page(matched, filters.Limit, filters.Offset)
	return matched, total, nil
}

// ===== RATING =====

type mockRatingRepo struct{ m *mockRepository }

func (r *mockRatingRepo) Upsert(ctx context.Context, tx *gorm.DB, rating *models.RoomRating) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, existing := range r.m.ratings {
		if existing.RoomID == rating.RoomID && existing.UserID == rating.UserID {
			existing.Score = rating.Score
			existing.UpdatedAt = time.Now()
			rating.ID = existing.ID
			return nil
		}
	}

	r.m.nextRatingID++
	rating.ID = r.m.nextRatingID
	rating.CreatedAt = time.Now()
	rating.UpdatedAt = rating.CreatedAt
	stored := *rating
	r.m.ratings[rating.ID] = &stored
	return nil
}

func (r *mockRatingRepo) GetByRoomAndUser(ctx context.Context, tx *gorm.DB, roomID uint, userID string) (*models.RoomRating, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, rating := range r.m.ratings {
		if rating.RoomID == roomID && rating.UserID == userID {
			out := *rating
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockRatingRepo) ListByRoom(ctx context.Context, tx *gorm.DB, roomID uint) ([]*models.RoomRating, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var out []*models.RoomRating
	for _, rating := range r.m.ratings {
		if rating.RoomID == roomID {
			cp := *rating
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *mockRatingRepo) AverageForRoom(ctx context.Context, tx *gorm.DB, roomID uint) (float64, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var sum int
	var count int64
	for _, rating := range r.m.ratings {
		if rating.RoomID == roomID {
			sum += rating.Score
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

// ===== MESSAGE =====

type mockMessageRepo struct{ m *mockRepository }

func (r *mockMessageRepo) Create(ctx context.Context, tx *gorm.DB, message *models.Message) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.nextMessageID++
	message.ID = r.m.nextMessageID
	message.CreatedAt = time.Now()
	message.UpdatedAt = message.CreatedAt
	stored := *message
	r.m.messages[message.ID] = &stored
	return nil
}

func (r *mockMessageRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Message, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	message, ok := r.m.messages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *message
	return &out, nil
}

func (r *mockMessageRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.messages[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.m.messages, id)
	return nil
}

func (r *mockMessageRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.MessageFilters) ([]*models.Message, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var matched []*models.Message
	for _, message := range r.m.messages {
		if filters.RoomID != nil && message.RoomID != *filters.RoomID {
			continue
		}
		if filters.UserID != nil && message.UserID != *filters.UserID {
			continue
		}
		if filters.TopicQuery != nil && *filters.TopicQuery != "" {
			room, ok := r.m.rooms[message.RoomID]
			if !ok || room.TopicID == nil {
				continue
			}
			topic, ok := r.m.topics[*room.TopicID]
			if !ok || !strings.Contains(strings.ToLower(topic.Name), strings.ToLower(*filters.TopicQuery)) {
				continue
			}
		}
		out := *message
		matched = append(matched, &out)
	}

	// Newest first
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := int64(len(matched))
	matched = page(matched, filters.Limit, filters.Offset)
	return matched, total, nil
}

// ===== PAYMENT =====

type mockPaymentRepo struct{ m *mockRepository }

func (r *mockPaymentRepo) Create(ctx context.Context, tx *gorm.DB, payment *models.Payment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.nextPaymentID++
	payment.ID = r.m.nextPaymentID
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = payment.CreatedAt
	stored := *payment
	r.m.payments[payment.ID] = &stored
	return nil
}

func (r *mockPaymentRepo) GetByGatewayOrderID(ctx context.Context, tx *gorm.DB, gatewayOrderID string) (*models.Payment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, payment := range r.m.payments {
		if payment.GatewayOrderID == gatewayOrderID {
			out := *payment
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockPaymentRepo) Update(ctx context.Context, tx *gorm.DB, payment *models.Payment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.payments[payment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	payment.UpdatedAt = time.Now()
	stored := *payment
	r.m.payments[payment.ID] = &stored
	return nil
}

func (r *mockPaymentRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.PaymentFilters) ([]*models.Payment, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var matched []*models.Payment
	for _, payment := range r.m.payments {
		if filters.RoomID != nil && payment.RoomID != *filters.RoomID {
			continue
		}
		if filters.UserID != nil && payment.UserID != *filters.UserID {
			continue
		}
		if filters.Status != nil && payment.Status != *filters.Status {
			continue
		}
		out := *payment
		matched = append(matched, &out)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := int64(len(matched))
	matched = page(matched, filters.Limit, filters.Offset)
	return matched, total, nil
}

// ===== USER =====

type mockUserRepo struct{ m *mockRepository }

func (r *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	user, ok := r.m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *user
	return &out, nil
}

func (r *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, user := range r.m.users {
		if user.Email == email {
			out := *user
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockUserRepo) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	var out []*models.User
	for _, id := range ids {
		if user, err := r.GetByID(ctx, id); err == nil {
			out = append(out, user)
		}
	}
	return out, nil
}

func (r *mockUserRepo) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var out []*models.User
	for _, user := range r.m.users {
		cp := *user
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (r *mockUserRepo) Search(ctx context.Context, query string, filters repositories.UserFilters) ([]*models.User, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var out []*models.User
	for _, user := range r.m.users {
		if strings.Contains(strings.ToLower(user.Name), strings.ToLower(query)) ||
			strings.Contains(strings.ToLower(user.Email), strings.ToLower(query)) {
			cp := *user
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func (r *mockUserRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	_, ok := r.m.users[id]
	return ok, nil
}

func (r *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *mockUserRepo) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	user, ok := r.m.users[id]
	if !ok {
		return false, nil
	}
	return user.Role == role, nil
}

// ===== GATEWAY =====

// mockGateway simulates the external payment processor.
type mockGateway struct {
	mu sync.Mutex

	failCreate  bool
	failExecute bool

	// skuOverride replaces the item reference on captures, simulating an
	// order created against a different room.
	skuOverride string

	orders    map[string]gateway.CreatePaymentRequest
	nextOrder int
}

func newMockGateway() *mockGateway {
	return &mockGateway{orders: make(map[string]gateway.CreatePaymentRequest)}
}

func (g *mockGateway) CreatePayment(ctx context.Context, req gateway.CreatePaymentRequest) (*gateway.CreatedPayment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failCreate {
		return nil, &gateway.Error{Op: "create", Err: fmt.Errorf("gateway unavailable")}
	}

	g.nextOrder++
	orderID := fmt.Sprintf("ORDER-%d", g.nextOrder)
	g.orders[orderID] = req

	return &gateway.CreatedPayment{
		OrderID:     orderID,
		ApprovalURL: "https://pay.example.com/approve/" + orderID,
		Raw:         []byte(`{"status":"CREATED"}`),
	}, nil
}

func (g *mockGateway) ExecutePayment(ctx context.Context, orderID, payerID string) (*gateway.CapturedPayment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failExecute {
		return nil, &gateway.Error{Op: "capture", Err: fmt.Errorf("capture declined")}
	}

	order, ok := g.orders[orderID]
	if !ok {
		return nil, &gateway.Error{Op: "capture", Err: fmt.Errorf("unknown order %s", orderID)}
	}

	sku := order.SKU
	if g.skuOverride != "" {
		sku = g.skuOverride
	}

	return &gateway.CapturedPayment{
		OrderID: orderID,
		SKU:     sku,
		PayerID: payerID,
		Raw:     []byte(`{"status":"COMPLETED"}`),
	}, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
