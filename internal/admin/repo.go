package admin

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minimall/minimall/internal/coupon"
	"github.com/minimall/minimall/internal/product"
)

var (
	ErrAdminNotFound    = errors.New("用户名或密码错误")
	ErrProductNotFound  = errors.New("商品不存在")
	ErrCouponNotFound   = errors.New("优惠券不存在")
	ErrCategoryNotFound = errors.New("分类不存在")
	ErrUserNotFound     = errors.New("用户不存在")
)

type Repository interface {
	GetAdminByUsername(ctx context.Context, username string) (*Admin, error)
	TouchLastLogin(ctx context.Context, adminID string) error
	Dashboard(ctx context.Context) (*DashboardStats, error)

	ListProducts(ctx context.Context, keyword, status string, page, pageSize int) ([]product.Product, int, error)
	CreateProduct(ctx context.Context, p *product.Product, skus []product.SKU) error
	UpdateProduct(ctx context.Context, p *product.Product) error
	UpdateProductStatus(ctx context.Context, productID, status string) error
	DeleteProduct(ctx context.Context, productID string) error

	ListUsers(ctx context.Context, keyword, status string, page, pageSize int) ([]UserRow, int, error)
	SetUserStatus(ctx context.Context, userID, status string) error

	ListCoupons(ctx context.Context, keyword, status string, page, pageSize int) ([]coupon.Coupon, int, error)
	CreateCoupon(ctx context.Context, c *coupon.Coupon) error
	UpdateCoupon(ctx context.Context, c *coupon.Coupon) error
	DeleteCoupon(ctx context.Context, couponID string) error

	CreateCategory(ctx context.Context, cat *product.Category) error
	UpdateCategory(ctx context.Context, cat *product.Category) error
	DeleteCategory(ctx context.Context, categoryID string) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) GetAdminByUsername(ctx context.Context, username string) (*Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var a Admin
	err := r.db.QueryRow(ctx, `
		SELECT id, username, password, COALESCE(nickname,''), role, status, last_login_at, created_at
		FROM admins WHERE username=$1
	`, username).Scan(&a.ID, &a.Username, &a.Password, &a.Nickname, &a.Role,
		&a.Status, &a.LastLoginAt, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PGRepo) TouchLastLogin(ctx context.Context, adminID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `UPDATE admins SET last_login_at=NOW() WHERE id=$1`, adminID)
	return err
}

func (r *PGRepo) Dashboard(ctx context.Context) (*DashboardStats, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var s DashboardStats
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM orders),
			(SELECT COUNT(*) FROM orders WHERE status='PENDING_SHIP'),
			(SELECT COUNT(*) FROM refunds WHERE status='PENDING'),
			(SELECT COUNT(*) FROM posts WHERE status='PENDING'),
			(SELECT COUNT(*) FROM orders WHERE created_at >= CURRENT_DATE),
			(SELECT COALESCE(SUM(actual_amount),0)::text FROM orders
			 WHERE payment_time >= CURRENT_DATE AND status <> 'CLOSED')
	`).Scan(&s.UserCount, &s.ProductCount, &s.OrderCount, &s.PendingShip,
		&s.PendingRefunds, &s.PendingPosts, &s.TodayOrderCount, &s.TodaySales)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

const productCols = `id, category_id, title, COALESCE(description,''), main_image,
		price::text, original_price::text, stock, sales, views, COALESCE(tags,''), status, created_at, updated_at`

func (r *PGRepo) ListProducts(ctx context.Context, keyword, status string, page, pageSize int) ([]product.Product, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	const where = `($1 = '' OR title ILIKE '%' || $1 || '%') AND ($2 = '' OR status = $2)`

	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM products WHERE `+where, keyword, status).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+productCols+` FROM products WHERE `+where+`
		ORDER BY created_at DESC LIMIT $3 OFFSET $4
	`, keyword, status, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []product.Product
	for rows.Next() {
		var p product.Product
		if err := rows.Scan(&p.ID, &p.CategoryID, &p.Title, &p.Description, &p.MainImage,
			&p.Price, &p.OriginalPrice, &p.Stock, &p.Sales, &p.Views, &p.Tags,
			&p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *PGRepo) CreateProduct(ctx context.Context, p *product.Product, skus []product.SKU) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO products (id, category_id, title, description, main_image,
			price, original_price, stock, sales, views, rating, tags, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,0,0,5.0,$9,$10,NOW(),NOW())
	`, p.ID, p.CategoryID, p.Title, p.Description, p.MainImage,
		p.Price, p.OriginalPrice, p.Stock, p.Tags, p.Status); err != nil {
		return err
	}
	for _, sku := range skus {
		if _, err := tx.Exec(ctx, `
			INSERT INTO skus (id, product_id, specs, price, stock, image)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, sku.ID, p.ID, sku.Specs, sku.Price, sku.Stock, sku.Image); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) UpdateProduct(ctx context.Context, p *product.Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE products SET category_id=$2, title=$3, description=$4, main_image=$5,
			price=$6, original_price=$7, stock=$8, tags=$9, status=$10, updated_at=NOW()
		WHERE id=$1
	`, p.ID, p.CategoryID, p.Title, p.Description, p.MainImage,
		p.Price, p.OriginalPrice, p.Stock, p.Tags, p.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *PGRepo) UpdateProductStatus(ctx context.Context, productID, status string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE products SET status=$2, updated_at=NOW() WHERE id=$1
	`, productID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// DeleteProduct soft-deletes by deactivating; order items keep their
// snapshots either way.
func (r *PGRepo) DeleteProduct(ctx context.Context, productID string) error {
	return r.UpdateProductStatus(ctx, productID, product.StatusInactive)
}

func (r *PGRepo) ListUsers(ctx context.Context, keyword, status string, page, pageSize int) ([]UserRow, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	const where = `($1 = '' OR u.phone LIKE '%' || $1 || '%' OR u.nickname ILIKE '%' || $1 || '%')
		AND ($2 = '' OR u.status = $2)`

	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM users u WHERE `+where, keyword, status).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT u.id, u.phone, u.nickname, u.status,
		       (SELECT COUNT(*) FROM orders o WHERE o.user_id = u.id),
		       u.created_at
		FROM users u WHERE `+where+`
		ORDER BY u.created_at DESC LIMIT $3 OFFSET $4
	`, keyword, status, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []UserRow
	for rows.Next() {
		var u UserRow
		if err := rows.Scan(&u.ID, &u.Phone, &u.Nickname, &u.Status, &u.OrderCount, &u.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func (r *PGRepo) SetUserStatus(ctx context.Context, userID, status string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE users SET status=$2, updated_at=NOW() WHERE id=$1
	`, userID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

const couponCols = `id, name, type, discount_amount::text, min_amount::text,
		total_count, received_count, start_time, end_time, status, created_at`

func (r *PGRepo) ListCoupons(ctx context.Context, keyword, status string, page, pageSize int) ([]coupon.Coupon, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	const where = `($1 = '' OR name ILIKE '%' || $1 || '%') AND ($2 = '' OR status = $2)`

	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM coupons WHERE `+where, keyword, status).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+couponCols+` FROM coupons WHERE `+where+`
		ORDER BY created_at DESC LIMIT $3 OFFSET $4
	`, keyword, status, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []coupon.Coupon
	for rows.Next() {
		var c coupon.Coupon
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.DiscountAmount, &c.MinAmount,
			&c.TotalCount, &c.ReceivedCount, &c.StartTime, &c.EndTime, &c.Status, &c.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *PGRepo) CreateCoupon(ctx context.Context, c *coupon.Coupon) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO coupons (id, name, type, discount_amount, min_amount,
			total_count, received_count, start_time, end_time, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,0,$7,$8,$9,NOW())
	`, c.ID, c.Name, c.Type, c.DiscountAmount, c.MinAmount,
		c.TotalCount, c.StartTime, c.EndTime, c.Status)
	return err
}

func (r *PGRepo) UpdateCoupon(ctx context.Context, c *coupon.Coupon) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE coupons SET name=$2, type=$3, discount_amount=$4, min_amount=$5,
			total_count=$6, start_time=$7, end_time=$8, status=$9
		WHERE id=$1
	`, c.ID, c.Name, c.Type, c.DiscountAmount, c.MinAmount,
		c.TotalCount, c.StartTime, c.EndTime, c.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCouponNotFound
	}
	return nil
}

func (r *PGRepo) DeleteCoupon(ctx context.Context, couponID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM coupons WHERE id=$1`, couponID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCouponNotFound
	}
	return nil
}

func (r *PGRepo) CreateCategory(ctx context.Context, cat *product.Category) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO categories (id, parent_id, name, icon, sort, status)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, cat.ID, cat.ParentID, cat.Name, cat.Icon, cat.Sort, cat.Status)
	return err
}

func (r *PGRepo) UpdateCategory(ctx context.Context, cat *product.Category) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE categories SET name=$2, icon=$3, sort=$4, status=$5 WHERE id=$1
	`, cat.ID, cat.Name, cat.Icon, cat.Sort, cat.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// DeleteCategory removes the node and its children in one transaction.
// The tree is one level deep, so a single child sweep is enough.
func (r *PGRepo) DeleteCategory(ctx context.Context, categoryID string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		DELETE FROM categories WHERE parent_id=$1
	`, categoryID); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM categories WHERE id=$1`, categoryID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return tx.Commit(ctx)
}
