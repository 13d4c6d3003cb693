package feedback

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/seechee6/Order-Me/internal/docstore"
	"github.com/seechee6/Order-Me/internal/domain"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []any
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func newTestService(pub Publisher) *Service {
	return NewService(docstore.NewMemory(), pub, "https://order.me/", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("stores and publishes", func(t *testing.T) {
		pub := &recordingPublisher{}
		svc := newTestService(pub)

		fb, err := svc.Submit(ctx, "c@x.com", Submission{RestaurantName: "Warung A", Rating: 4, Comment: "  Sedap  "})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fb.ID == "" || fb.Comment != "Sedap" {
			t.Errorf("unexpected feedback %+v", fb)
		}

		if len(pub.events) != 1 {
			t.Fatalf("expected one event, got %d", len(pub.events))
		}
		event, ok := pub.events[0].(domain.FeedbackSubmittedEvent)
		if !ok || event.FeedbackID != fb.ID || event.Rating != 4 {
			t.Errorf("unexpected event %+v", pub.events[0])
		}
	})

	t.Run("publish failure keeps feedback", func(t *testing.T) {
		svc := newTestService(&recordingPublisher{err: errors.New("broker down")})
		if _, err := svc.Submit(ctx, "c@x.com", Submission{RestaurantName: "Warung A", Rating: 5, Comment: "ok"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		list, _ := svc.ForRestaurant(ctx, "Warung A")
		if len(list) != 1 {
			t.Errorf("expected stored feedback, got %d", len(list))
		}
	})

	tests := []struct {
		name string
		sub  Submission
	}{
		{name: "rating too low", sub: Submission{RestaurantName: "Warung A", Rating: 0, Comment: "x"}},
		{name: "rating too high", sub: Submission{RestaurantName: "Warung A", Rating: 6, Comment: "x"}},
		{name: "blank comment", sub: Submission{RestaurantName: "Warung A", Rating: 3, Comment: "  "}},
		{name: "no restaurant", sub: Submission{Rating: 3, Comment: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(nil)
			_, err := svc.Submit(ctx, "c@x.com", tt.sub)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestAverage(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    float64
	}{
		{name: "empty", want: 0},
		{name: "single", ratings: []int{4}, want: 4},
		{name: "rounds down", ratings: []int{5, 4, 4}, want: 4.3},
		{name: "rounds up", ratings: []int{5, 5, 4}, want: 4.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var list []domain.Feedback
			for _, r := range tt.ratings {
				list = append(list, domain.Feedback{Rating: r})
			}
			if got := Average(list); got != tt.want {
				t.Errorf("Average() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestService_ReviewQR(t *testing.T) {
	svc := newTestService(nil)

	if got := svc.ReviewURL("o1"); got != "https://order.me/orders/o1/feedback" {
		t.Errorf("unexpected review url %q", got)
	}

	png, err := svc.ReviewQR("o1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("expected PNG output")
	}

	if _, err := svc.ReviewQR(""); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}
