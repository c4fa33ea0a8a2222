package coupon

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInactive       = errors.New("优惠券已失效")
	ErrOutsideWindow  = errors.New("不在领取时间范围内")
	ErrAlreadyClaimed = errors.New("您已领取过该优惠券")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) ListActive(ctx context.Context, page, pageSize int) ([]Coupon, int, error) {
	return s.repo.ListActive(ctx, s.now(), page, pageSize)
}

// Claim reserves one instance of a coupon for the user. The quota is
// ultimately enforced by the repo's conditional counter update; the
// checks here exist to return precise messages.
func (s *Service) Claim(ctx context.Context, userID, couponID string) (*UserCoupon, error) {
	cp, err := s.repo.GetByID(ctx, couponID)
	if err != nil {
		return nil, err
	}
	if cp.Status != StatusActive {
		return nil, ErrInactive
	}
	if !cp.InWindow(s.now()) {
		return nil, ErrOutsideWindow
	}
	if cp.ReceivedCount >= cp.TotalCount {
		return nil, ErrSoldOut
	}
	claimed, err := s.repo.HasUnusedClaim(ctx, userID, couponID)
	if err != nil {
		return nil, err
	}
	if claimed {
		return nil, ErrAlreadyClaimed
	}
	return s.repo.Claim(ctx, userID, couponID)
}

func (s *Service) My(ctx context.Context, userID, status string, page, pageSize int) ([]ClaimView, int, error) {
	return s.repo.MyClaims(ctx, userID, status, page, pageSize)
}

// Available returns the user's unused claims redeemable against an order
// of the given amount.
func (s *Service) Available(ctx context.Context, userID string, totalAmount decimal.Decimal) ([]ClaimView, error) {
	claims, err := s.repo.UnusedClaims(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := []ClaimView{}
	for _, cl := range claims {
		if cl.Coupon.Status != StatusActive || !cl.Coupon.InWindow(now) {
			continue
		}
		min, err := decimal.NewFromString(cl.Coupon.MinAmount)
		if err != nil {
			return nil, err
		}
		if totalAmount.GreaterThanOrEqual(min) {
			out = append(out, cl)
		}
	}
	return out, nil
}
