package order

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("订单不存在")
	ErrStateConflict     = errors.New("订单状态不正确")
	ErrInsufficientStock = errors.New("库存不足")
	ErrCouponUnavailable = errors.New("优惠券不可用")
	ErrRefundNotFound    = errors.New("退款申请不存在")
	ErrRefundProcessed   = errors.New("该退款申请已处理")
	ErrRefundExists      = errors.New("该订单已申请退款")
)

// CartLine is a cart item joined with its product, the input to order
// creation.
type CartLine struct {
	CartItemID    string
	ProductID     string
	Title         string
	Image         string
	Price         string
	Quantity      int
	Stock         int
	ProductStatus string
}

// CouponClaim is a user's unused claim joined with its coupon.
type CouponClaim struct {
	UserCouponID   string
	CouponStatus   string
	StartTime      time.Time
	EndTime        time.Time
	MinAmount      string
	DiscountAmount string
}

type ListQuery struct {
	UserID    string // empty for admin listings
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}

type Repository interface {
	AddressBelongsToUser(ctx context.Context, addressID, userID string) (bool, error)
	CartLines(ctx context.Context, userID string, cartItemIDs []string) ([]CartLine, error)
	UnusedCoupon(ctx context.Context, userID, userCouponID string) (*CouponClaim, error)
	Create(ctx context.Context, o *Order, userCouponID string, cartItemIDs []string) error
	GetByID(ctx context.Context, userID, orderID string) (*Order, error)
	List(ctx context.Context, q ListQuery) ([]Order, int, error)
	Pay(ctx context.Context, orderID, paymentMethod string) error
	Cancel(ctx context.Context, orderID, reason string) error
	Confirm(ctx context.Context, orderID string) error
	Ship(ctx context.Context, orderID, shippingNo, shippingMethod string) error
	RefundByOrder(ctx context.Context, orderID string) (*Refund, error)
	CreateRefund(ctx context.Context, r *Refund) error
	ListRefunds(ctx context.Context, status string, page, pageSize int) ([]Refund, int, error)
	GetRefund(ctx context.Context, refundID string) (*Refund, error)
	ApproveRefund(ctx context.Context, refundID string) error
	RejectRefund(ctx context.Context, refundID, rejectReason string) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) AddressBelongsToUser(ctx context.Context, addressID, userID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM addresses WHERE id=$1 AND user_id=$2
	`, addressID, userID).Scan(&n)
	return n > 0, err
}

func (r *PGRepo) CartLines(ctx context.Context, userID string, cartItemIDs []string) ([]CartLine, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT ci.id, p.id, p.title, p.main_image, p.price::text, ci.quantity, p.stock, p.status
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.id = ANY($1) AND ci.user_id = $2
	`, cartItemIDs, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CartLine
	for rows.Next() {
		var l CartLine
		if err := rows.Scan(&l.CartItemID, &l.ProductID, &l.Title, &l.Image,
			&l.Price, &l.Quantity, &l.Stock, &l.ProductStatus); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PGRepo) UnusedCoupon(ctx context.Context, userID, userCouponID string) (*CouponClaim, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var cc CouponClaim
	err := r.db.QueryRow(ctx, `
		SELECT uc.id, c.status, c.start_time, c.end_time, c.min_amount::text, c.discount_amount::text
		FROM user_coupons uc
		JOIN coupons c ON c.id = uc.coupon_id
		WHERE uc.id=$1 AND uc.user_id=$2 AND uc.status='UNUSED'
	`, userCouponID, userID).Scan(&cc.UserCouponID, &cc.CouponStatus,
		&cc.StartTime, &cc.EndTime, &cc.MinAmount, &cc.DiscountAmount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCouponUnavailable
	}
	if err != nil {
		return nil, err
	}
	return &cc, nil
}

// Create persists the order and its items, decrements stock, marks the
// coupon used and clears the consumed cart rows in a single transaction.
// Stock moves through a conditional UPDATE so a concurrent order cannot
// take the same last unit.
func (r *PGRepo) Create(ctx context.Context, o *Order, userCouponID string, cartItemIDs []string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO orders (id, order_no, user_id, address_id,
			total_amount, discount_amount, shipping_fee, actual_amount,
			status, buyer_message, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW(),NOW())
	`, o.ID, o.OrderNo, o.UserID, o.AddressID,
		o.TotalAmount, o.DiscountAmount, o.ShippingFee, o.ActualAmount,
		o.Status, o.BuyerMessage); err != nil {
		return err
	}

	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, product_title, product_image,
				price, quantity, total_amount)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, it.ID, o.ID, it.ProductID, it.ProductTitle, it.ProductImage,
			it.Price, it.Quantity, it.TotalAmount); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `
			UPDATE products SET stock = stock - $2, updated_at = NOW()
			WHERE id = $1 AND stock >= $2
		`, it.ProductID, it.Quantity)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrInsufficientStock
		}
	}

	if userCouponID != "" {
		tag, err := tx.Exec(ctx, `
			UPDATE user_coupons SET status='USED', used_at=NOW()
			WHERE id=$1 AND user_id=$2 AND status='UNUSED'
		`, userCouponID, o.UserID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrCouponUnavailable
		}
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM cart_items WHERE id = ANY($1) AND user_id = $2
	`, cartItemIDs, o.UserID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

const orderCols = `id, order_no, user_id, address_id,
		total_amount::text, discount_amount::text, shipping_fee::text, actual_amount::text,
		status, COALESCE(payment_method,''), payment_time,
		COALESCE(shipping_no,''), COALESCE(shipping_method,''), shipping_time,
		confirm_time, close_time, COALESCE(close_reason,''), COALESCE(buyer_message,''),
		created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }, o *Order) error {
	return row.Scan(&o.ID, &o.OrderNo, &o.UserID, &o.AddressID,
		&o.TotalAmount, &o.DiscountAmount, &o.ShippingFee, &o.ActualAmount,
		&o.Status, &o.PaymentMethod, &o.PaymentTime,
		&o.ShippingNo, &o.ShippingMethod, &o.ShippingTime,
		&o.ConfirmTime, &o.CloseTime, &o.CloseReason, &o.BuyerMessage,
		&o.CreatedAt, &o.UpdatedAt)
}

// GetByID loads an order with items and any refund. userID empty skips
// the ownership filter (admin path).
func (r *PGRepo) GetByID(ctx context.Context, userID, orderID string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var o Order
	row := r.db.QueryRow(ctx, `
		SELECT `+orderCols+` FROM orders
		WHERE id=$1 AND ($2 = '' OR user_id = $2)
	`, orderID, userID)
	if err := scanOrder(row, &o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	items, err := r.itemsFor(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]

	refund, err := r.RefundByOrder(ctx, o.ID)
	if err != nil && !errors.Is(err, ErrRefundNotFound) {
		return nil, err
	}
	o.Refund = refund
	return &o, nil
}

func (r *PGRepo) itemsFor(ctx context.Context, orderIDs []string) (map[string][]Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, product_id, product_title, product_image,
		       price::text, quantity, total_amount::text
		FROM order_items WHERE order_id = ANY($1)
	`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductTitle, &it.ProductImage,
			&it.Price, &it.Quantity, &it.TotalAmount); err != nil {
			return nil, err
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}

func (r *PGRepo) List(ctx context.Context, q ListQuery) ([]Order, int, error) {
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

	const where = `($1 = '' OR user_id = $1)
		AND ($2 = '' OR status = $2)
		AND ($3::timestamptz IS NULL OR created_at >= $3)
		AND ($4::timestamptz IS NULL OR created_at <= $4)`
	args := []any{q.UserID, q.Status, q.StartDate, q.EndDate}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+orderCols+` FROM orders WHERE `+where+`
		ORDER BY created_at DESC LIMIT $5 OFFSET $6
	`, append(args, pageSize, (page-1)*pageSize)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Order
	var ids []string
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, 0, err
		}
		out = append(out, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(ids) > 0 {
		items, err := r.itemsFor(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for i := range out {
			out[i].Items = items[out[i].ID]
		}
	}
	return out, total, nil
}

// Pay flips PENDING_PAYMENT→PENDING_SHIP and bumps product sales, in one
// transaction. The status check rides on the UPDATE itself, so a
// concurrent second pay sees zero rows and fails.
func (r *PGRepo) Pay(ctx context.Context, orderID, paymentMethod string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE orders SET status=$2, payment_method=$3, payment_time=NOW(), updated_at=NOW()
		WHERE id=$1 AND status=$4
	`, orderID, StatusPendingShip, paymentMethod, StatusPendingPayment)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStateConflict
	}

	if _, err := tx.Exec(ctx, `
		UPDATE products p SET sales = p.sales + oi.quantity
		FROM order_items oi
		WHERE oi.order_id = $1 AND p.id = oi.product_id
	`, orderID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Cancel closes a pending-payment order and restores the stock it held.
func (r *PGRepo) Cancel(ctx context.Context, orderID, reason string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE orders SET status=$2, close_time=NOW(), close_reason=$3, updated_at=NOW()
		WHERE id=$1 AND status=$4
	`, orderID, StatusClosed, reason, StatusPendingPayment)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStateConflict
	}

	if _, err := tx.Exec(ctx, `
		UPDATE products p SET stock = p.stock + oi.quantity, updated_at=NOW()
		FROM order_items oi
		WHERE oi.order_id = $1 AND p.id = oi.product_id
	`, orderID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) Confirm(ctx context.Context, orderID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET status=$2, confirm_time=NOW(), updated_at=NOW()
		WHERE id=$1 AND status=$3
	`, orderID, StatusCompleted, StatusShipped)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStateConflict
	}
	return nil
}

func (r *PGRepo) Ship(ctx context.Context, orderID, shippingNo, shippingMethod string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET status=$2, shipping_no=$3, shipping_method=$4,
			shipping_time=NOW(), updated_at=NOW()
		WHERE id=$1 AND status=$5
	`, orderID, StatusShipped, shippingNo, shippingMethod, StatusPendingShip)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStateConflict
	}
	return nil
}

const refundCols = `id, refund_no, order_id, user_id, refund_amount::text,
		refund_reason, refund_type, status, COALESCE(reject_reason,''), process_time, created_at`

func scanRefund(row interface{ Scan(...any) error }, rf *Refund) error {
	return row.Scan(&rf.ID, &rf.RefundNo, &rf.OrderID, &rf.UserID, &rf.RefundAmount,
		&rf.RefundReason, &rf.RefundType, &rf.Status, &rf.RejectReason, &rf.ProcessTime, &rf.CreatedAt)
}

func (r *PGRepo) RefundByOrder(ctx context.Context, orderID string) (*Refund, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var rf Refund
	row := r.db.QueryRow(ctx, `SELECT `+refundCols+` FROM refunds WHERE order_id=$1`, orderID)
	if err := scanRefund(row, &rf); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRefundNotFound
		}
		return nil, err
	}
	return &rf, nil
}

// CreateRefund inserts the refund and parks the order in REFUNDING. The
// refunds.order_id UNIQUE constraint backs the one-refund-per-order
// rule against races.
func (r *PGRepo) CreateRefund(ctx context.Context, rf *Refund) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO refunds (id, refund_no, order_id, user_id, refund_amount,
			refund_reason, refund_type, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW())
	`, rf.ID, rf.RefundNo, rf.OrderID, rf.UserID, rf.RefundAmount,
		rf.RefundReason, rf.RefundType, rf.Status); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrRefundExists
		}
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE orders SET status=$2, updated_at=NOW()
		WHERE id=$1 AND status IN ($3,$4,$5)
	`, rf.OrderID, StatusRefunding, StatusPendingShip, StatusShipped, StatusCompleted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStateConflict
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) ListRefunds(ctx context.Context, status string, page, pageSize int) ([]Refund, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	var total int
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM refunds WHERE ($1 = '' OR status = $1)
	`, status).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+refundCols+` FROM refunds WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, status, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Refund
	for rows.Next() {
		var rf Refund
		if err := scanRefund(rows, &rf); err != nil {
			return nil, 0, err
		}
		out = append(out, rf)
	}
	return out, total, rows.Err()
}

func (r *PGRepo) GetRefund(ctx context.Context, refundID string) (*Refund, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var rf Refund
	row := r.db.QueryRow(ctx, `SELECT `+refundCols+` FROM refunds WHERE id=$1`, refundID)
	if err := scanRefund(row, &rf); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRefundNotFound
		}
		return nil, err
	}
	return &rf, nil
}

// ApproveRefund resolves a pending refund: restore stock, take back the
// sales counted at pay time, close the order.
func (r *PGRepo) ApproveRefund(ctx context.Context, refundID string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var orderID string
	err = tx.QueryRow(ctx, `
		UPDATE refunds SET status=$2, process_time=NOW()
		WHERE id=$1 AND status=$3
		RETURNING order_id
	`, refundID, RefundApproved, RefundPending).Scan(&orderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRefundProcessed
	}
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE products p SET stock = p.stock + oi.quantity, sales = p.sales - oi.quantity, updated_at=NOW()
		FROM order_items oi
		WHERE oi.order_id = $1 AND p.id = oi.product_id
	`, orderID); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE orders SET status=$2, close_time=NOW(), close_reason='退款成功', updated_at=NOW()
		WHERE id=$1 AND status=$3
	`, orderID, StatusClosed, StatusRefunding)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStateConflict
	}
	return tx.Commit(ctx)
}

// RejectRefund sends the order back to SHIPPED.
func (r *PGRepo) RejectRefund(ctx context.Context, refundID, rejectReason string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var orderID string
	err = tx.QueryRow(ctx, `
		UPDATE refunds SET status=$2, reject_reason=$3, process_time=NOW()
		WHERE id=$1 AND status=$4
		RETURNING order_id
	`, refundID, RefundRejected, rejectReason, RefundPending).Scan(&orderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRefundProcessed
	}
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE orders SET status=$2, updated_at=NOW() WHERE id=$1
	`, orderID, StatusShipped); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
