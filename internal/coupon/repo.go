package coupon

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("优惠券不存在")
	ErrSoldOut  = errors.New("优惠券已被领完")
)

type Repository interface {
	ListActive(ctx context.Context, now time.Time, page, pageSize int) ([]Coupon, int, error)
	GetByID(ctx context.Context, id string) (*Coupon, error)
	HasUnusedClaim(ctx context.Context, userID, couponID string) (bool, error)
	Claim(ctx context.Context, userID, couponID string) (*UserCoupon, error)
	MyClaims(ctx context.Context, userID, status string, page, pageSize int) ([]ClaimView, int, error)
	UnusedClaims(ctx context.Context, userID string) ([]ClaimView, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const couponCols = `id, name, type, discount_amount::text, min_amount::text,
		total_count, received_count, start_time, end_time, status, created_at`

func scanCoupon(row interface{ Scan(...any) error }, cp *Coupon) error {
	return row.Scan(&cp.ID, &cp.Name, &cp.Type, &cp.DiscountAmount, &cp.MinAmount,
		&cp.TotalCount, &cp.ReceivedCount, &cp.StartTime, &cp.EndTime, &cp.Status, &cp.CreatedAt)
}

func (r *PGRepo) ListActive(ctx context.Context, now time.Time, page, pageSize int) ([]Coupon, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	const where = `status='ACTIVE' AND start_time <= $1 AND end_time >= $1`
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM coupons WHERE `+where, now).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+couponCols+` FROM coupons WHERE `+where+`
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, now, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Coupon
	for rows.Next() {
		var cp Coupon
		if err := scanCoupon(rows, &cp); err != nil {
			return nil, 0, err
		}
		out = append(out, cp)
	}
	return out, total, rows.Err()
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Coupon, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var cp Coupon
	row := r.db.QueryRow(ctx, `SELECT `+couponCols+` FROM coupons WHERE id=$1`, id)
	if err := scanCoupon(row, &cp); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cp, nil
}

func (r *PGRepo) HasUnusedClaim(ctx context.Context, userID, couponID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM user_coupons
		WHERE user_id=$1 AND coupon_id=$2 AND status='UNUSED'
	`, userID, couponID).Scan(&n)
	return n > 0, err
}

// Claim inserts the claim ticket and bumps received_count in one
// transaction. The counter moves through a conditional UPDATE, so the
// received_count <= total_count invariant holds even under concurrent
// claims.
func (r *PGRepo) Claim(ctx context.Context, userID, couponID string) (*UserCoupon, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE coupons SET received_count = received_count + 1
		WHERE id=$1 AND received_count < total_count
	`, couponID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrSoldOut
	}

	uc := &UserCoupon{
		ID:        uuid.NewString(),
		UserID:    userID,
		CouponID:  couponID,
		Status:    ClaimUnused,
		CreatedAt: time.Now(),
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO user_coupons (id, user_id, coupon_id, status, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, uc.ID, uc.UserID, uc.CouponID, uc.Status, uc.CreatedAt); err != nil {
		return nil, err
	}
	return uc, tx.Commit(ctx)
}

func (r *PGRepo) MyClaims(ctx context.Context, userID, status string, page, pageSize int) ([]ClaimView, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	const where = `uc.user_id = $1 AND ($2 = '' OR uc.status = $2)`
	var total int
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM user_coupons uc WHERE `+where, userID, status).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT uc.id, uc.status, uc.used_at, uc.created_at,
		       c.id, c.name, c.type, c.discount_amount::text, c.min_amount::text,
		       c.total_count, c.received_count, c.start_time, c.end_time, c.status, c.created_at
		FROM user_coupons uc
		JOIN coupons c ON c.id = uc.coupon_id
		WHERE `+where+`
		ORDER BY uc.created_at DESC LIMIT $3 OFFSET $4
	`, userID, status, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out, err := scanClaimViews(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *PGRepo) UnusedClaims(ctx context.Context, userID string) ([]ClaimView, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT uc.id, uc.status, uc.used_at, uc.created_at,
		       c.id, c.name, c.type, c.discount_amount::text, c.min_amount::text,
		       c.total_count, c.received_count, c.start_time, c.end_time, c.status, c.created_at
		FROM user_coupons uc
		JOIN coupons c ON c.id = uc.coupon_id
		WHERE uc.user_id = $1 AND uc.status = 'UNUSED'
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanClaimViews(rows)
}

func scanClaimViews(rows pgx.Rows) ([]ClaimView, error) {
	var out []ClaimView
	for rows.Next() {
		var v ClaimView
		if err := rows.Scan(&v.ID, &v.Status, &v.UsedAt, &v.CreatedAt,
			&v.Coupon.ID, &v.Coupon.Name, &v.Coupon.Type, &v.Coupon.DiscountAmount, &v.Coupon.MinAmount,
			&v.Coupon.TotalCount, &v.Coupon.ReceivedCount, &v.Coupon.StartTime, &v.Coupon.EndTime,
			&v.Coupon.Status, &v.Coupon.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
