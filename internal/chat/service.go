package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/seechee6/Order-Me/internal/docstore"
	"github.com/seechee6/Order-Me/internal/domain"
)

const Collection = "rooms"

// RoomID derives the room shared by two participants. Argument order does
// not matter.
func RoomID(a, b string) string {
	pair := []string{a, b}
	slices.Sort(pair)
	return strings.Join(pair, "-")
}

func messagesCollection(roomID string) string {
	return Collection + "/" + roomID + "/messages"
}

type Sender struct {
	Email string
	Name  string
}

type Service struct {
	store  docstore.Store
	logger *slog.Logger
}

func NewService(store docstore.Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// EnsureRoom creates the room document on first contact and is safe to call
// every time a conversation is opened.
func (s *Service) EnsureRoom(ctx context.Context, a, b string) (domain.Room, error) {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return domain.Room{}, domain.Validation("both participants are required")
	}
	if a == b {
		return domain.Room{}, domain.Validation("cannot open a room with yourself")
	}

	pair := [2]string{a, b}
	slices.Sort(pair[:])
	room := domain.Room{
		ID:           RoomID(a, b),
		Participants: pair,
		ParticipantA: pair[0],
		ParticipantB: pair[1],
	}

	created, err := s.store.Create(ctx, Collection, room.ID, room)
	if err != nil {
		return domain.Room{}, domain.Persistence("create room", err)
	}
	if created {
		s.logger.Info("chat room created", "room_id", room.ID)
	}
	return room, nil
}

func (s *Service) Room(ctx context.Context, roomID string) (domain.Room, error) {
	doc, err := s.store.Get(ctx, Collection, roomID)
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.Room{}, fmt.Errorf("room %s: %w", roomID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Room{}, domain.Persistence("load room", err)
	}

	var room domain.Room
	if err := doc.Decode(&room); err != nil {
		return domain.Room{}, fmt.Errorf("decode room: %w", err)
	}
	room.ID = doc.ID
	return room, nil
}

// Member returns the room when email is one of its participants.
func (s *Service) Member(ctx context.Context, roomID, email string) (domain.Room, error) {
	room, err := s.Room(ctx, roomID)
	if err != nil {
		return domain.Room{}, err
	}
	if room.ParticipantA != email && room.ParticipantB != email {
		return domain.Room{}, fmt.Errorf("room %s: %w", roomID, domain.ErrNotFound)
	}
	return room, nil
}

func (s *Service) SendMessage(ctx context.Context, roomID string, from Sender, text string) (domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Message{}, domain.Validation("message is empty")
	}

	msg := domain.Message{
		SenderEmail: from.Email,
		SenderName:  from.Name,
		Text:        text,
	}
	doc, err := s.store.Add(ctx, messagesCollection(roomID), msg)
	if err != nil {
		return domain.Message{}, domain.Persistence("send message", err)
	}
	msg.ID = doc.ID
	msg.CreatedAt = doc.CreateTime
	return msg, nil
}

func setMessageFields(m *domain.Message, d docstore.Document) {
	m.ID = d.ID
	m.CreatedAt = d.CreateTime
}

func decodeMessages(docs []docstore.Document) ([]domain.Message, error) {
	msgs, err := docstore.DecodeAll(docs, setMessageFields)
	if err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs, nil
}

func (s *Service) Messages(ctx context.Context, roomID string) ([]domain.Message, error) {
	docs, err := s.store.Query(ctx, docstore.Collection(messagesCollection(roomID)))
	if err != nil {
		return nil, domain.Persistence("list messages", err)
	}
	return decodeMessages(docs)
}

// Subscribe delivers the whole room, oldest message first, on every change.
func (s *Service) Subscribe(ctx context.Context, roomID string, fn func([]domain.Message)) (docstore.Unsubscribe, error) {
	unsubscribe, err := s.store.Subscribe(ctx, docstore.Collection(messagesCollection(roomID)), func(docs []docstore.Document) {
		msgs, err := decodeMessages(docs)
		if err != nil {
			s.logger.Error("failed to decode message snapshot", "error", err, "room_id", roomID)
			return
		}
		fn(msgs)
	})
	if err != nil {
		return nil, domain.Persistence("subscribe messages", err)
	}
	return unsubscribe, nil
}

// Rooms lists every conversation email takes part in.
func (s *Service) Rooms(ctx context.Context, email string) ([]domain.Room, error) {
	var rooms []domain.Room
	for _, field := range []string{"participant_a", "participant_b"} {
		docs, err := s.store.Query(ctx, docstore.Collection(Collection).Where(docstore.Eq(field, email)))
		if err != nil {
			return nil, domain.Persistence("list rooms", err)
		}
		found, err := docstore.DecodeAll(docs, func(r *domain.Room, d docstore.Document) { r.ID = d.ID })
		if err != nil {
			return nil, fmt.Errorf("decode rooms: %w", err)
		}
		rooms = append(rooms, found...)
	}

	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms, nil
}
