package profile

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/seechee6/Order-Me/internal/docstore"
	"github.com/seechee6/Order-Me/internal/domain"
	"github.com/seechee6/Order-Me/internal/identity"
)

func TestHandler(t *testing.T) {
	ctx := context.Background()
	svc := NewService(docstore.NewMemory())
	if err := svc.Create(ctx, domain.Profile{UID: "u1", Email: "a@x.com", Username: "ali", Role: domain.RoleUser}); err != nil {
		t.Fatalf("create: %v", err)
	}

	h := NewHandler(svc, svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	mux := http.NewServeMux()
	mux.HandleFunc("GET /profile", h.HandleGet)
	mux.HandleFunc("PATCH /profile", h.HandleUpdate)
	mux.HandleFunc("POST /profile/addresses", h.HandleAddAddress)
	mux.HandleFunc("POST /profile/addresses/{index}/primary", h.HandleSetPrimary)
	mux.HandleFunc("DELETE /profile/addresses/{index}", h.HandleRemoveAddress)

	serve := func(method, path, body string) *httptest.ResponseRecorder {
		var r io.Reader
		if body != "" {
			r = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, path, r)
		req = req.WithContext(identity.WithIdentity(req.Context(), identity.Identity{UID: "u1", Email: "a@x.com"}))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}
	decode := func(t *testing.T, rec *httptest.ResponseRecorder) domain.Profile {
		t.Helper()
		var p domain.Profile
		if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		return p
	}

	t.Run("get", func(t *testing.T) {
		rec := serve(http.MethodGet, "/profile", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if p := decode(t, rec); p.Username != "ali" {
			t.Errorf("unexpected profile %+v", p)
		}
	})

	t.Run("update details", func(t *testing.T) {
		rec := serve(http.MethodPatch, "/profile", `{"username":" Ali B ","phone_number":"012"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if p := decode(t, rec); p.Username != "Ali B" || p.PhoneNumber != "012" {
			t.Errorf("unexpected profile %+v", p)
		}
	})

	t.Run("address book", func(t *testing.T) {
		if rec := serve(http.MethodPost, "/profile/addresses", `{"address":"1 Home Rd"}`); rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d", rec.Code)
		}
		rec := serve(http.MethodPost, "/profile/addresses", `{"address":"2 Office Ave"}`)
		if p := decode(t, rec); len(p.Addresses) != 2 || !p.Addresses[0].Primary {
			t.Fatalf("unexpected addresses %+v", p.Addresses)
		}

		rec = serve(http.MethodPost, "/profile/addresses/1/primary", "")
		if p := decode(t, rec); p.Addresses[0].Primary || !p.Addresses[1].Primary {
			t.Errorf("expected second address primary, got %+v", p.Addresses)
		}

		rec = serve(http.MethodDelete, "/profile/addresses/1", "")
		if p := decode(t, rec); len(p.Addresses) != 1 || !p.Addresses[0].Primary {
			t.Errorf("expected remaining address promoted, got %+v", p.Addresses)
		}
	})

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"blank address", http.MethodPost, "/profile/addresses", `{"address":"  "}`, http.StatusBadRequest},
		{"non numeric index", http.MethodPost, "/profile/addresses/first/primary", "", http.StatusBadRequest},
		{"index out of range", http.MethodDelete, "/profile/addresses/7", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(tt.method, tt.path, tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}
