package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("商品不存在或已下架")

type Query struct {
	CategoryID string
	Keyword    string
	MinPrice   string
	MaxPrice   string
	SortBy     string // sales | price | createdAt
	SortOrder  string // asc | desc
	Page       int
	PageSize   int
}

type Repository interface {
	List(ctx context.Context, q Query) ([]Product, int, error)
	GetByID(ctx context.Context, id string) (*Detail, error)
	IncrementViews(ctx context.Context, id string) error
	RecordBrowse(ctx context.Context, userID, productID string) error
	Categories(ctx context.Context) ([]Category, error)
	SearchSuggestions(ctx context.Context, keyword string) ([]Product, error)
	Recommended(ctx context.Context, limit int) ([]Product, error)
	FlashSale(ctx context.Context, page, pageSize int) ([]Product, int, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

// sortColumns whitelists ORDER BY targets; anything else falls back to
// created_at.
var sortColumns = map[string]string{
	"sales":     "sales",
	"price":     "price",
	"createdAt": "created_at",
}

const productCols = `id, category_id, title, COALESCE(description,''), main_image,
		price::text, original_price::text, stock, sales, views, COALESCE(tags,''), status, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }, p *Product) error {
	return row.Scan(&p.ID, &p.CategoryID, &p.Title, &p.Description, &p.MainImage,
		&p.Price, &p.OriginalPrice, &p.Stock, &p.Sales, &p.Views, &p.Tags, &p.Status, &p.CreatedAt, &p.UpdatedAt)
}

func (r *PGRepo) List(ctx context.Context, q Query) ([]Product, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	col, ok := sortColumns[q.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(q.SortOrder, "asc") {
		dir = "ASC"
	}

	where := `status = 'ACTIVE'
		AND ($1 = '' OR category_id = $1)
		AND ($2 = '' OR title ILIKE '%'||$2||'%' OR description ILIKE '%'||$2||'%')
		AND ($3 = '' OR price >= $3::numeric)
		AND ($4 = '' OR price <= $4::numeric)`
	args := []any{q.CategoryID, strings.TrimSpace(q.Keyword), q.MinPrice, q.MaxPrice}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM products WHERE %s
		ORDER BY %s %s LIMIT $5 OFFSET $6
	`, productCols, where, col, dir), append(args, pageSize, (page-1)*pageSize)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Detail, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var d Detail
	row := r.db.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id)
	if err := scanProduct(row, &d.Product); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if d.Status != StatusActive {
		return nil, ErrNotFound
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, specs, price::text, stock, COALESCE(image,'')
		FROM skus WHERE product_id=$1
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s SKU
		if err := rows.Scan(&s.ID, &s.ProductID, &s.Specs, &s.Price, &s.Stock, &s.Image); err != nil {
			return nil, err
		}
		d.SKUs = append(d.SKUs, s)
	}
	return &d, rows.Err()
}

func (r *PGRepo) IncrementViews(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `UPDATE products SET views = views + 1 WHERE id=$1`, id)
	return err
}

func (r *PGRepo) RecordBrowse(ctx context.Context, userID, productID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO browse_history (id, user_id, product_id, created_at)
		VALUES ($1,$2,$3,NOW())
	`, uuid.NewString(), userID, productID)
	return err
}

func (r *PGRepo) Categories(ctx context.Context) ([]Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, name, COALESCE(icon,''), parent_id, sort, status
		FROM categories WHERE status='ACTIVE'
		ORDER BY sort ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.ParentID, &c.Sort, &c.Status); err != nil {
			return nil, err
		}
		all = append(all, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Single-level tree: roots with their children.
	byParent := map[string][]Category{}
	var roots []Category
	for _, c := range all {
		if c.ParentID == nil {
			roots = append(roots, c)
		} else {
			byParent[*c.ParentID] = append(byParent[*c.ParentID], c)
		}
	}
	for i := range roots {
		roots[i].Children = byParent[roots[i].ID]
	}
	return roots, nil
}

func (r *PGRepo) SearchSuggestions(ctx context.Context, keyword string) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+productCols+` FROM products
		WHERE status='ACTIVE' AND title ILIKE '%'||$1||'%'
		LIMIT 5
	`, strings.TrimSpace(keyword))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PGRepo) Recommended(ctx context.Context, limit int) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if limit <= 0 || limit > 50 {
		limit = 10
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+productCols+` FROM products
		WHERE status='ACTIVE'
		ORDER BY sales DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PGRepo) FlashSale(ctx context.Context, page, pageSize int) ([]Product, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	const where = `status='ACTIVE' AND stock > 0 AND original_price > 0`
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE `+where).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+productCols+` FROM products WHERE `+where+`
		ORDER BY sales DESC, created_at DESC
		LIMIT $1 OFFSET $2
	`, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}
