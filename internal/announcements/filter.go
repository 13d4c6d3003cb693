package announcements

import (
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/seechee6/Order-Me/internal/domain"
)

// VisibleTo keeps the announcements of wishlisted restaurants, newest first.
func VisibleTo(wishlist []domain.Listing, all []domain.Announcement) []domain.Announcement {
	saved := make(map[string]struct{}, len(wishlist))
	for _, l := range wishlist {
		saved[l.Name] = struct{}{}
	}

	out := make([]domain.Announcement, 0, len(all))
	for _, a := range all {
		if _, ok := saved[a.RestaurantName]; ok {
			out = append(out, a)
		}
	}
	newestFirst(out)
	return out
}

// UnreadSince reports whether anything was posted strictly after lastViewed.
func UnreadSince(lastViewed time.Time, anns []domain.Announcement) bool {
	return slices.ContainsFunc(anns, func(a domain.Announcement) bool {
		return a.Timestamp.After(lastViewed)
	})
}

// Search matches title, content or restaurant name, ignoring case. An empty
// query returns the input unchanged.
func Search(query string, anns []domain.Announcement) []domain.Announcement {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return anns
	}

	out := make([]domain.Announcement, 0, len(anns))
	for _, a := range anns {
		if strings.Contains(strings.ToLower(a.Title), query) ||
			strings.Contains(strings.ToLower(a.Content), query) ||
			strings.Contains(strings.ToLower(a.RestaurantName), query) {
			out = append(out, a)
		}
	}
	return out
}

func newestFirst(anns []domain.Announcement) {
	sort.SliceStable(anns, func(i, j int) bool {
		return anns[i].Timestamp.After(anns[j].Timestamp)
	})
}
