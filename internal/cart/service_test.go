package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minimall/minimall/internal/product"
)

type stubRepo struct {
	products map[string]*ProductSnapshot
	items    map[string]*Item
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		products: map[string]*ProductSnapshot{},
		items:    map[string]*Item{},
	}
}

func (s *stubRepo) ListByUser(_ context.Context, userID string) ([]ItemView, error) {
	var out []ItemView
	for _, it := range s.items {
		if it.UserID != userID {
			continue
		}
		out = append(out, ItemView{
			ID:       it.ID,
			Product:  *s.products[it.ProductID],
			Quantity: it.Quantity,
			Selected: it.Selected,
		})
	}
	return out, nil
}

func (s *stubRepo) GetProduct(_ context.Context, productID string) (*ProductSnapshot, error) {
	p, ok := s.products[productID]
	if !ok {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (s *stubRepo) FindByUserAndProduct(_ context.Context, userID, productID string) (*Item, error) {
	for _, it := range s.items {
		if it.UserID == userID && it.ProductID == productID {
			cp := *it
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) FindByID(_ context.Context, userID, itemID string) (*Item, error) {
	it, ok := s.items[itemID]
	if !ok || it.UserID != userID {
		return nil, ErrItemNotFound
	}
	cp := *it
	return &cp, nil
}

func (s *stubRepo) Create(_ context.Context, it *Item) error {
	it.ID = uuid.NewString()
	cp := *it
	s.items[it.ID] = &cp
	return nil
}

func (s *stubRepo) UpdateQuantity(_ context.Context, itemID string, quantity int) error {
	it, ok := s.items[itemID]
	if !ok {
		return ErrItemNotFound
	}
	it.Quantity = quantity
	return nil
}

func (s *stubRepo) Delete(_ context.Context, userID, itemID string) (bool, error) {
	it, ok := s.items[itemID]
	if !ok || it.UserID != userID {
		return false, nil
	}
	delete(s.items, itemID)
	return true, nil
}

func (s *stubRepo) SelectAll(_ context.Context, userID string, selected bool) error {
	for _, it := range s.items {
		if it.UserID == userID {
			it.Selected = selected
		}
	}
	return nil
}

func (s *stubRepo) Clear(_ context.Context, userID string) error {
	for id, it := range s.items {
		if it.UserID == userID {
			delete(s.items, id)
		}
	}
	return nil
}

func fixture() (*stubRepo, *Service) {
	repo := newStubRepo()
	repo.products["p1"] = &ProductSnapshot{
		ID: "p1", Title: "蓝牙耳机", Price: "100.00", Stock: 5, Status: product.StatusActive,
	}
	repo.products["p2"] = &ProductSnapshot{
		ID: "p2", Title: "旧款手机壳", Price: "19.90", Stock: 10, Status: product.StatusInactive,
	}
	return repo, NewService(repo)
}

func TestAddNewItem(t *testing.T) {
	_, svc := fixture()

	it, err := svc.Add(context.Background(), "u1", "p1", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, it.Quantity)
	assert.True(t, it.Selected)
}

func TestAddMergesExistingRow(t *testing.T) {
	repo, svc := fixture()

	first, err := svc.Add(context.Background(), "u1", "p1", 2)
	require.NoError(t, err)
	second, err := svc.Add(context.Background(), "u1", "p1", 1)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 3, second.Quantity)
	assert.Len(t, repo.items, 1)
}

func TestAddMergeRespectsStock(t *testing.T) {
	_, svc := fixture()

	_, err := svc.Add(context.Background(), "u1", "p1", 3)
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), "u1", "p1", 3)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestAddInactiveProduct(t *testing.T) {
	_, svc := fixture()
	_, err := svc.Add(context.Background(), "u1", "p2", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestAddBeyondStock(t *testing.T) {
	_, svc := fixture()
	_, err := svc.Add(context.Background(), "u1", "p1", 6)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestGetTotalsSelectedActiveOnly(t *testing.T) {
	repo, svc := fixture()

	_, err := svc.Add(context.Background(), "u1", "p1", 2)
	require.NoError(t, err)
	// An inactive product in the cart must not count toward the total.
	repo.items["stale"] = &Item{
		ID: "stale", UserID: "u1", ProductID: "p2", Quantity: 4, Selected: true,
	}

	view, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "200.00", view.TotalAmount)
	assert.Equal(t, 1, view.SelectedCount)
	assert.Len(t, view.Items, 2)

	// Deselect the active row: total drops to zero.
	require.NoError(t, svc.SelectAll(context.Background(), "u1", false))
	view, err = svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "0.00", view.TotalAmount)
}

func TestUpdateQuantityChecksStock(t *testing.T) {
	_, svc := fixture()
	it, err := svc.Add(context.Background(), "u1", "p1", 1)
	require.NoError(t, err)

	_, err = svc.UpdateQuantity(context.Background(), "u1", it.ID, 9)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	updated, err := svc.UpdateQuantity(context.Background(), "u1", it.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)
}

func TestDeleteForeignItem(t *testing.T) {
	_, svc := fixture()
	it, err := svc.Add(context.Background(), "u1", "p1", 1)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), "u2", it.ID)
	assert.ErrorIs(t, err, ErrItemNotFound)
	require.NoError(t, svc.Delete(context.Background(), "u1", it.ID))
}

func TestClearEmptiesCart(t *testing.T) {
	repo, svc := fixture()
	_, err := svc.Add(context.Background(), "u1", "p1", 1)
	require.NoError(t, err)

	require.NoError(t, svc.Clear(context.Background(), "u1"))
	assert.Empty(t, repo.items)
}
