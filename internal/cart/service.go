package cart

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/minimall/minimall/internal/product"
)

var ErrInsufficientStock = errors.New("库存不足")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

// Get returns the cart with the selected-items total. Inactive products
// stay visible but do not count toward the total.
func (s *Service) Get(ctx context.Context, userID string) (*View, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	selected := 0
	for _, it := range items {
		if !it.Selected || it.Product.Status != product.StatusActive {
			continue
		}
		price, err := decimal.NewFromString(it.Product.Price)
		if err != nil {
			return nil, err
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		selected++
	}
	if items == nil {
		items = []ItemView{}
	}
	return &View{Items: items, TotalAmount: total.StringFixed(2), SelectedCount: selected}, nil
}

// Add puts quantity units of a product in the cart, merging with an
// existing row for the same product.
func (s *Service) Add(ctx context.Context, userID, productID string, quantity int) (*Item, error) {
	p, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.Status != product.StatusActive {
		return nil, ErrProductNotFound
	}
	if p.Stock < quantity {
		return nil, ErrInsufficientStock
	}

	existing, err := s.repo.FindByUserAndProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		newQuantity := existing.Quantity + quantity
		if p.Stock < newQuantity {
			return nil, ErrInsufficientStock
		}
		if err := s.repo.UpdateQuantity(ctx, existing.ID, newQuantity); err != nil {
			return nil, err
		}
		existing.Quantity = newQuantity
		return existing, nil
	}

	it := &Item{UserID: userID, ProductID: productID, Quantity: quantity, Selected: true}
	if err := s.repo.Create(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *Service) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) (*Item, error) {
	it, err := s.repo.FindByID(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.GetProduct(ctx, it.ProductID)
	if err != nil {
		return nil, err
	}
	if p.Stock < quantity {
		return nil, ErrInsufficientStock
	}
	if err := s.repo.UpdateQuantity(ctx, it.ID, quantity); err != nil {
		return nil, err
	}
	it.Quantity = quantity
	return it, nil
}

func (s *Service) Delete(ctx context.Context, userID, itemID string) error {
	ok, err := s.repo.Delete(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrItemNotFound
	}
	return nil
}

func (s *Service) SelectAll(ctx context.Context, userID string, selected bool) error {
	return s.repo.SelectAll(ctx, userID, selected)
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.repo.Clear(ctx, userID)
}
