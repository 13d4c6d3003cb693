package restaurants

import (
	"context"
	"errors"

	"github.com/seechee6/Order-Me/internal/docstore"
	"github.com/seechee6/Order-Me/internal/domain"
)

const (
	restaurantsCollection = "restaurants"
	itemsCollection       = "items"
)

// Repository reads and writes restaurants and menu items. Lookups return
// (nil, nil) when nothing matches.
type Repository struct {
	store docstore.Store
}

func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store}
}

func setRestaurantID(r *domain.Restaurant, d docstore.Document) { r.ID = d.ID }
func setItemID(m *domain.MenuItem, d docstore.Document)         { m.ID = d.ID }

func (r *Repository) Add(ctx context.Context, restaurant domain.Restaurant) (*domain.Restaurant, error) {
	doc, err := r.store.Add(ctx, restaurantsCollection, restaurant)
	if err != nil {
		return nil, err
	}
	restaurant.ID = doc.ID
	return &restaurant, nil
}

func (r *Repository) List(ctx context.Context, filters ...docstore.Filter) ([]domain.Restaurant, error) {
	docs, err := r.store.Query(ctx, docstore.Collection(restaurantsCollection).Where(filters...))
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll(docs, setRestaurantID)
}

func (r *Repository) findOne(ctx context.Context, filter docstore.Filter) (*domain.Restaurant, error) {
	list, err := r.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

func (r *Repository) ByName(ctx context.Context, name string) (*domain.Restaurant, error) {
	return r.findOne(ctx, docstore.Eq("restaurant_name", name))
}

func (r *Repository) ByOwner(ctx context.Context, owner string) (*domain.Restaurant, error) {
	return r.findOne(ctx, docstore.Eq("owner", owner))
}

func (r *Repository) SetOpen(ctx context.Context, id string, open bool) error {
	return r.store.Update(ctx, restaurantsCollection, id, map[string]any{"is_open": open})
}

func (r *Repository) AddItem(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error) {
	doc, err := r.store.Add(ctx, itemsCollection, item)
	if err != nil {
		return nil, err
	}
	item.ID = doc.ID
	return &item, nil
}

func (r *Repository) GetItem(ctx context.Context, id string) (*domain.MenuItem, error) {
	doc, err := r.store.Get(ctx, itemsCollection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var item domain.MenuItem
	if err := doc.Decode(&item); err != nil {
		return nil, err
	}
	item.ID = doc.ID
	return &item, nil
}

func (r *Repository) PutItem(ctx context.Context, item domain.MenuItem) error {
	_, err := r.store.Set(ctx, itemsCollection, item.ID, item)
	return err
}

func (r *Repository) DeleteItem(ctx context.Context, id string) error {
	return r.store.Delete(ctx, itemsCollection, id)
}

func (r *Repository) Items(ctx context.Context, email, restaurantName string) ([]domain.MenuItem, error) {
	q := docstore.Collection(itemsCollection).Where(docstore.Eq("restaurant_name", restaurantName))
	if email != "" {
		q = q.Where(docstore.Eq("email", email))
	}
	docs, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll(docs, setItemID)
}
