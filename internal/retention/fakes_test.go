package retention

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/JustinTDCT/CineSweep/internal/models"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(d float64) time.Time {
	return testNow.Add(-time.Duration(d * 24 * float64(time.Hour)))
}

func newItem(kind models.ItemKind, name string, age float64) *models.MediaItem {
	t := daysAgo(age)
	return &models.MediaItem{
		ID:            uuid.New(),
		Name:          name,
		Kind:          kind,
		Path:          "/media/" + name,
		AddedAt:       t,
		ModifiedAt:    t,
		LastWatchedAt: t,
		LastSavedAt:   t,
	}
}

// ──────────────────── Catalog ────────────────────

type fakeCatalog struct {
	libraries map[uuid.UUID]*models.Library
	items     []*models.MediaItem
	deleted   []uuid.UUID
	listErr   map[uuid.UUID]error
	getErr    map[uuid.UUID]error
	deleteErr map[uuid.UUID]error
	onDelete  func(id uuid.UUID)
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		libraries: make(map[uuid.UUID]*models.Library),
		listErr:   make(map[uuid.UUID]error),
		getErr:    make(map[uuid.UUID]error),
		deleteErr: make(map[uuid.UUID]error),
	}
}

func (c *fakeCatalog) addLibrary(name string) *models.Library {
	lib := &models.Library{ID: uuid.New(), Name: name, IsEnabled: true}
	c.libraries[lib.ID] = lib
	return lib
}

func (c *fakeCatalog) add(lib *models.Library, items ...*models.MediaItem) {
	for _, it := range items {
		it.LibraryID = lib.ID
		c.items = append(c.items, it)
	}
}

func (c *fakeCatalog) GetLibrary(_ context.Context, id uuid.UUID) (*models.Library, error) {
	lib, ok := c.libraries[id]
	if !ok {
		return nil, ErrLibraryNotFound
	}
	return lib, nil
}

func (c *fakeCatalog) GetItem(_ context.Context, id uuid.UUID) (*models.MediaItem, error) {
	if err := c.getErr[id]; err != nil {
		return nil, err
	}
	for _, it := range c.items {
		if it.ID == id {
			return it, nil
		}
	}
	return nil, ErrItemNotFound
}

func (c *fakeCatalog) ListItems(_ context.Context, libraryID uuid.UUID, q ItemQuery) ([]*models.MediaItem, error) {
	if err := c.listErr[libraryID]; err != nil {
		return nil, err
	}
	var out []*models.MediaItem
	for _, it := range c.items {
		if it.LibraryID != libraryID {
			continue
		}
		if q.ExcludeVirtual && it.IsVirtual {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (c *fakeCatalog) DeleteItem(_ context.Context, id uuid.UUID, _ bool) error {
	if err := c.deleteErr[id]; err != nil {
		return err
	}
	for i, it := range c.items {
		if it.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			c.deleted = append(c.deleted, id)
			if c.onDelete != nil {
				c.onDelete(id)
			}
			return nil
		}
	}
	return ErrItemNotFound
}

// ──────────────────── Users ────────────────────

type fakeUsers struct {
	users     []*models.User
	favorites map[uuid.UUID][]uuid.UUID
	calls     int
}

func (u *fakeUsers) favorite(ids ...uuid.UUID) *fakeUsers {
	user := &models.User{ID: uuid.New(), Username: fmt.Sprintf("user%d", len(u.users)), IsActive: true}
	u.users = append(u.users, user)
	if u.favorites == nil {
		u.favorites = make(map[uuid.UUID][]uuid.UUID)
	}
	u.favorites[user.ID] = ids
	return u
}

func (u *fakeUsers) ListUsers(context.Context) ([]*models.User, error) {
	return u.users, nil
}

func (u *fakeUsers) ListFavoriteIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	u.calls++
	return u.favorites[userID], nil
}

// ──────────────────── Collections ────────────────────

type fakeCollections struct {
	cols      []*models.Collection
	members   map[uuid.UUID][]uuid.UUID
	catalog   *fakeCatalog
	ops       []string
	createErr error
	listErr   error
}

func newFakeCollections(catalog *fakeCatalog) *fakeCollections {
	return &fakeCollections{members: make(map[uuid.UUID][]uuid.UUID), catalog: catalog}
}

func (f *fakeCollections) ListCollections(_ context.Context, kind models.CollectionKind) ([]*models.Collection, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.Collection
	for _, c := range f.cols {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCollections) CreateCollection(_ context.Context, c *models.Collection) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.ops = append(f.ops, "create:"+c.Name)
	f.cols = append(f.cols, c)
	return nil
}

func (f *fakeCollections) AddItems(_ context.Context, id uuid.UUID, itemIDs []uuid.UUID) error {
	f.ops = append(f.ops, fmt.Sprintf("add:%d", len(itemIDs)))
	f.members[id] = append(f.members[id], itemIDs...)
	return nil
}

func (f *fakeCollections) DeleteCollection(_ context.Context, id uuid.UUID, _ bool) error {
	for i, c := range f.cols {
		if c.ID == id {
			f.ops = append(f.ops, "delete:"+c.Name)
			f.cols = append(f.cols[:i], f.cols[i+1:]...)
			delete(f.members, id)
			return nil
		}
	}
	return fmt.Errorf("collection %s not found", id)
}

func (f *fakeCollections) ListCollectionItems(_ context.Context, id uuid.UUID) ([]*models.MediaItem, error) {
	var out []*models.MediaItem
	for _, mid := range f.members[id] {
		if it, err := f.catalog.GetItem(context.Background(), mid); err == nil {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeCollections) byName(name string) *models.Collection {
	for _, c := range f.cols {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// memberIDs returns the sorted member ids of the named collection.
func (f *fakeCollections) memberIDs(name string) []string {
	c := f.byName(name)
	if c == nil {
		return nil
	}
	var out []string
	for _, id := range f.members[c.ID] {
		out = append(out, id.String())
	}
	sort.Strings(out)
	return out
}

func sortedIDs(ids ...uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	sort.Strings(out)
	return out
}
