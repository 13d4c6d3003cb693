package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"

	"github.com/seechee6/Order-Me/internal/docstore"
	"github.com/seechee6/Order-Me/internal/domain"
)

const Collection = "feedback"

const qrSize = 256

type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type Submission struct {
	RestaurantName string
	OrderID        string
	Rating         int
	Comment        string
}

type Service struct {
	store     docstore.Store
	publisher Publisher
	baseURL   string
	logger    *slog.Logger
}

// NewService accepts a nil publisher, in which case feedback is only stored.
func NewService(store docstore.Store, publisher Publisher, baseURL string, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
	}
}

func setFeedbackFields(f *domain.Feedback, d docstore.Document) {
	f.ID = d.ID
	f.CreatedAt = d.CreateTime
}

func (s *Service) Submit(ctx context.Context, email string, sub Submission) (domain.Feedback, error) {
	if sub.Rating < 1 || sub.Rating > 5 {
		return domain.Feedback{}, domain.Validation("rating must be between 1 and 5")
	}
	comment := strings.TrimSpace(sub.Comment)
	if comment == "" {
		return domain.Feedback{}, domain.Validation("comment is required")
	}
	if strings.TrimSpace(sub.RestaurantName) == "" {
		return domain.Feedback{}, domain.Validation("restaurant is required")
	}

	fb := domain.Feedback{
		RestaurantName: sub.RestaurantName,
		OrderID:        sub.OrderID,
		Rating:         sub.Rating,
		Comment:        comment,
		Email:          email,
	}
	doc, err := s.store.Add(ctx, Collection, fb)
	if err != nil {
		return domain.Feedback{}, domain.Persistence("submit feedback", err)
	}
	setFeedbackFields(&fb, doc)

	s.logger.Info("feedback submitted", "feedback_id", fb.ID, "restaurant", fb.RestaurantName, "rating", fb.Rating)

	if s.publisher != nil {
		event := domain.FeedbackSubmittedEvent{
			FeedbackID:     fb.ID,
			RestaurantName: fb.RestaurantName,
			Rating:         fb.Rating,
			Timestamp:      fb.CreatedAt,
		}
		if err := s.publisher.Publish(ctx, fb.RestaurantName, event); err != nil {
			s.logger.Error("failed to publish feedback submitted event", "error", err, "feedback_id", fb.ID)
		}
	}

	return fb, nil
}

// ForRestaurant returns the restaurant's reviews, newest first.
func (s *Service) ForRestaurant(ctx context.Context, restaurantName string) ([]domain.Feedback, error) {
	docs, err := s.store.Query(ctx, docstore.Collection(Collection).Where(docstore.Eq("restaurant_name", restaurantName)))
	if err != nil {
		return nil, domain.Persistence("list feedback", err)
	}
	list, err := docstore.DecodeAll(docs, setFeedbackFields)
	if err != nil {
		return nil, fmt.Errorf("decode feedback: %w", err)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

// Average is the mean rating rounded to one decimal, or 0 with no reviews.
func Average(list []domain.Feedback) float64 {
	if len(list) == 0 {
		return 0
	}
	var sum int64
	for _, f := range list {
		sum += int64(f.Rating)
	}
	return decimal.NewFromInt(sum).
		Div(decimal.NewFromInt(int64(len(list)))).
		Round(1).
		InexactFloat64()
}

func (s *Service) ReviewURL(orderID string) string {
	return s.baseURL + "/orders/" + url.PathEscape(orderID) + "/feedback"
}

// ReviewQR renders a PNG linking to the review page of an order.
func (s *Service) ReviewQR(orderID string) ([]byte, error) {
	if orderID == "" {
		return nil, domain.Validation("order id is required")
	}
	png, err := qrcode.Encode(s.ReviewURL(orderID), qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode review qr: %w", err)
	}
	return png, nil
}
