package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrAddressNotFound  = errors.New("收货地址不存在")
	ErrEmptyCart        = errors.New("购物车商品不存在")
	ErrProductOff       = errors.New("已下架")
	ErrStockShort       = errors.New("库存不足")
	ErrCancelOnlyPend   = errors.New("只能取消待付款订单")
	ErrNotShipped       = errors.New("订单未发货")
	ErrRefundNotAllowed = errors.New("当前订单状态不支持退款")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// newOrderNo builds a human-readable, collision-resistant number:
// "ORD" + unix millis + 6 hex chars. The order_no UNIQUE constraint is
// the real guarantee.
func newOrderNo(prefix string, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("%s%d%s", prefix, now.UnixMilli(), suffix)
}

// Create checks out the given cart lines into a PENDING_PAYMENT order.
// Totals are fixed here and never recomputed; the discount can at most
// zero out the total.
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (*Order, error) {
	ok, err := s.repo.AddressBelongsToUser(ctx, req.AddressID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAddressNotFound
	}

	lines, err := s.repo.CartLines(ctx, userID, req.CartItemIDs)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	total := decimal.Zero
	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		if l.ProductStatus != "ACTIVE" {
			return nil, fmt.Errorf("商品 %s %w", l.Title, ErrProductOff)
		}
		if l.Stock < l.Quantity {
			return nil, fmt.Errorf("商品 %s %w", l.Title, ErrStockShort)
		}
		price, err := decimal.NewFromString(l.Price)
		if err != nil {
			return nil, fmt.Errorf("parse price for %s: %w", l.ProductID, err)
		}
		lineTotal := price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		total = total.Add(lineTotal)
		items = append(items, Item{
			ID:           uuid.NewString(),
			ProductID:    l.ProductID,
			ProductTitle: l.Title,
			ProductImage: l.Image,
			Price:        price.StringFixed(2),
			Quantity:     l.Quantity,
			TotalAmount:  lineTotal.StringFixed(2),
		})
	}

	discount := decimal.Zero
	if req.CouponID != "" {
		claim, err := s.repo.UnusedCoupon(ctx, userID, req.CouponID)
		if err != nil {
			return nil, err
		}
		now := s.now()
		if claim.CouponStatus != "ACTIVE" || now.Before(claim.StartTime) || now.After(claim.EndTime) {
			return nil, ErrCouponUnavailable
		}
		minAmount, err := decimal.NewFromString(claim.MinAmount)
		if err != nil {
			return nil, err
		}
		if total.LessThan(minAmount) {
			return nil, ErrCouponUnavailable
		}
		discount, err = decimal.NewFromString(claim.DiscountAmount)
		if err != nil {
			return nil, err
		}
	}

	actual := total.Sub(discount)
	if actual.IsNegative() {
		actual = decimal.Zero
	}

	o := &Order{
		ID:             uuid.NewString(),
		OrderNo:        newOrderNo("ORD", s.now()),
		UserID:         userID,
		AddressID:      req.AddressID,
		TotalAmount:    total.StringFixed(2),
		DiscountAmount: discount.StringFixed(2),
		ShippingFee:    decimal.Zero.StringFixed(2),
		ActualAmount:   actual.StringFixed(2),
		Status:         StatusPendingPayment,
		BuyerMessage:   req.BuyerMessage,
		Items:          items,
	}
	if err := s.repo.Create(ctx, o, req.CouponID, req.CartItemIDs); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) Get(ctx context.Context, userID, orderID string) (*Order, error) {
	return s.repo.GetByID(ctx, userID, orderID)
}

func (s *Service) ListByUser(ctx context.Context, userID, status string, page, pageSize int) ([]Order, int, error) {
	return s.repo.List(ctx, ListQuery{UserID: userID, Status: status, Page: page, PageSize: pageSize})
}

func (s *Service) ListAll(ctx context.Context, q ListQuery) ([]Order, int, error) {
	q.UserID = ""
	return s.repo.List(ctx, q)
}

// Pay simulates a successful payment.
func (s *Service) Pay(ctx context.Context, userID, orderID, paymentMethod string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusPendingPayment {
		return nil, ErrStateConflict
	}
	if err := s.repo.Pay(ctx, orderID, paymentMethod); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, userID, orderID)
}

func (s *Service) Cancel(ctx context.Context, userID, orderID string) error {
	o, err := s.repo.GetByID(ctx, userID, orderID)
	if err != nil {
		return err
	}
	if o.Status != StatusPendingPayment {
		return ErrCancelOnlyPend
	}
	return s.repo.Cancel(ctx, orderID, "用户取消")
}

func (s *Service) Confirm(ctx context.Context, userID, orderID string) error {
	o, err := s.repo.GetByID(ctx, userID, orderID)
	if err != nil {
		return err
	}
	if o.Status != StatusShipped {
		return ErrNotShipped
	}
	return s.repo.Confirm(ctx, orderID)
}

// RequestRefund opens a refund case for the full actual amount.
func (s *Service) RequestRefund(ctx context.Context, userID, orderID string, req RefundRequest) (*Refund, error) {
	o, err := s.repo.GetByID(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if !o.CanTransitionTo(StatusRefunding) {
		return nil, ErrRefundNotAllowed
	}
	if o.Refund != nil {
		return nil, ErrRefundExists
	}

	rf := &Refund{
		ID:           uuid.NewString(),
		RefundNo:     newOrderNo("REF", s.now()),
		OrderID:      o.ID,
		UserID:       userID,
		RefundAmount: o.ActualAmount,
		RefundReason: req.RefundReason,
		RefundType:   req.RefundType,
		Status:       RefundPending,
	}
	if err := s.repo.CreateRefund(ctx, rf); err != nil {
		return nil, err
	}
	return rf, nil
}

// Ship is the admin side of PENDING_SHIP→SHIPPED.
func (s *Service) Ship(ctx context.Context, orderID string, req ShipRequest) error {
	return s.repo.Ship(ctx, orderID, req.ShippingNo, req.ShippingMethod)
}

func (s *Service) ListRefunds(ctx context.Context, status string, page, pageSize int) ([]Refund, int, error) {
	return s.repo.ListRefunds(ctx, status, page, pageSize)
}

// ProcessRefund settles a pending refund one way or the other.
func (s *Service) ProcessRefund(ctx context.Context, refundID string, req ProcessRefundRequest) (*Refund, error) {
	rf, err := s.repo.GetRefund(ctx, refundID)
	if err != nil {
		return nil, err
	}
	if rf.Status != RefundPending {
		return nil, ErrRefundProcessed
	}

	switch req.Status {
	case RefundApproved:
		err = s.repo.ApproveRefund(ctx, refundID)
	case RefundRejected:
		err = s.repo.RejectRefund(ctx, refundID, req.RejectReason)
	default:
		err = fmt.Errorf("unknown refund resolution %q", req.Status)
	}
	if err != nil {
		return nil, err
	}
	return s.repo.GetRefund(ctx, refundID)
}
