package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrItemNotFound    = errors.New("购物车项不存在")
	ErrProductNotFound = errors.New("商品不存在或已下架")
)

type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]ItemView, error)
	GetProduct(ctx context.Context, productID string) (*ProductSnapshot, error)
	FindByUserAndProduct(ctx context.Context, userID, productID string) (*Item, error)
	FindByID(ctx context.Context, userID, itemID string) (*Item, error)
	Create(ctx context.Context, it *Item) error
	UpdateQuantity(ctx context.Context, itemID string, quantity int) error
	Delete(ctx context.Context, userID, itemID string) (bool, error)
	SelectAll(ctx context.Context, userID string, selected bool) error
	Clear(ctx context.Context, userID string) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]ItemView, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT ci.id, ci.quantity, ci.selected,
		       p.id, p.title, p.main_image, p.price::text, p.original_price::text, p.stock, p.status
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ItemView
	for rows.Next() {
		var v ItemView
		if err := rows.Scan(&v.ID, &v.Quantity, &v.Selected,
			&v.Product.ID, &v.Product.Title, &v.Product.MainImage,
			&v.Product.Price, &v.Product.OriginalPrice, &v.Product.Stock, &v.Product.Status); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *PGRepo) GetProduct(ctx context.Context, productID string) (*ProductSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p ProductSnapshot
	err := r.db.QueryRow(ctx, `
		SELECT id, title, main_image, price::text, original_price::text, stock, status
		FROM products WHERE id=$1
	`, productID).Scan(&p.ID, &p.Title, &p.MainImage, &p.Price, &p.OriginalPrice, &p.Stock, &p.Status)
	if err != nil {
		return nil, ErrProductNotFound
	}
	return &p, nil
}

func (r *PGRepo) FindByUserAndProduct(ctx context.Context, userID, productID string) (*Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var it Item
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, product_id, quantity, selected, created_at
		FROM cart_items WHERE user_id=$1 AND product_id=$2
	`, userID, productID).Scan(&it.ID, &it.UserID, &it.ProductID, &it.Quantity, &it.Selected, &it.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *PGRepo) FindByID(ctx context.Context, userID, itemID string) (*Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var it Item
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, product_id, quantity, selected, created_at
		FROM cart_items WHERE id=$1 AND user_id=$2
	`, itemID, userID).Scan(&it.ID, &it.UserID, &it.ProductID, &it.Quantity, &it.Selected, &it.CreatedAt)
	if err != nil {
		return nil, ErrItemNotFound
	}
	return &it, nil
}

func (r *PGRepo) Create(ctx context.Context, it *Item) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO cart_items (id, user_id, product_id, quantity, selected, created_at)
		VALUES ($1,$2,$3,$4,TRUE,NOW())
	`, it.ID, it.UserID, it.ProductID, it.Quantity)
	return err
}

func (r *PGRepo) UpdateQuantity(ctx context.Context, itemID string, quantity int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `UPDATE cart_items SET quantity=$2 WHERE id=$1`, itemID, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, userID, itemID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE id=$1 AND user_id=$2`, itemID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PGRepo) SelectAll(ctx context.Context, userID string, selected bool) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `UPDATE cart_items SET selected=$2 WHERE user_id=$1`, userID, selected)
	return err
}

func (r *PGRepo) Clear(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, userID)
	return err
}
