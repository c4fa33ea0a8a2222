package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	coupons map[string]*Coupon
	claims  []UserCoupon
}

func newStubRepo() *stubRepo {
	return &stubRepo{coupons: map[string]*Coupon{}}
}

func (s *stubRepo) ListActive(_ context.Context, now time.Time, _, _ int) ([]Coupon, int, error) {
	var out []Coupon
	for _, cp := range s.coupons {
		if cp.Status == StatusActive && cp.InWindow(now) {
			out = append(out, *cp)
		}
	}
	return out, len(out), nil
}

func (s *stubRepo) GetByID(_ context.Context, id string) (*Coupon, error) {
	cp, ok := s.coupons[id]
	if !ok {
		return nil, ErrNotFound
	}
	cpCopy := *cp
	return &cpCopy, nil
}

func (s *stubRepo) HasUnusedClaim(_ context.Context, userID, couponID string) (bool, error) {
	for _, uc := range s.claims {
		if uc.UserID == userID && uc.CouponID == couponID && uc.Status == ClaimUnused {
			return true, nil
		}
	}
	return false, nil
}

// Claim mirrors the conditional counter update: fail when the quota is
// exhausted, otherwise increment and insert atomically.
func (s *stubRepo) Claim(_ context.Context, userID, couponID string) (*UserCoupon, error) {
	cp := s.coupons[couponID]
	if cp.ReceivedCount >= cp.TotalCount {
		return nil, ErrSoldOut
	}
	cp.ReceivedCount++
	uc := UserCoupon{
		ID: uuid.NewString(), UserID: userID, CouponID: couponID,
		Status: ClaimUnused, CreatedAt: time.Now(),
	}
	s.claims = append(s.claims, uc)
	return &uc, nil
}

func (s *stubRepo) MyClaims(_ context.Context, userID, status string, _, _ int) ([]ClaimView, int, error) {
	var out []ClaimView
	for _, uc := range s.claims {
		if uc.UserID != userID || (status != "" && uc.Status != status) {
			continue
		}
		out = append(out, ClaimView{ID: uc.ID, Status: uc.Status, Coupon: *s.coupons[uc.CouponID]})
	}
	return out, len(out), nil
}

func (s *stubRepo) UnusedClaims(_ context.Context, userID string) ([]ClaimView, error) {
	views, _, err := s.MyClaims(context.Background(), userID, ClaimUnused, 1, 100)
	return views, err
}

func activeCoupon(total int) *Coupon {
	now := time.Now()
	return &Coupon{
		ID: "c1", Name: "满100减20", Type: "FIXED",
		DiscountAmount: "20.00", MinAmount: "100.00",
		TotalCount: total, ReceivedCount: 0,
		StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour),
		Status: StatusActive,
	}
}

func TestClaimSucceedsOnce(t *testing.T) {
	repo := newStubRepo()
	repo.coupons["c1"] = activeCoupon(100)
	svc := NewService(repo)

	uc, err := svc.Claim(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, ClaimUnused, uc.Status)
	assert.Equal(t, 1, repo.coupons["c1"].ReceivedCount)
}

func TestClaimDuplicateRejected(t *testing.T) {
	repo := newStubRepo()
	repo.coupons["c1"] = activeCoupon(100)
	svc := NewService(repo)

	_, err := svc.Claim(context.Background(), "u1", "c1")
	require.NoError(t, err)

	_, err = svc.Claim(context.Background(), "u1", "c1")
	require.Error(t, err)
	assert.Equal(t, "您已领取过该优惠券", err.Error())
	// The counter only moved once.
	assert.Equal(t, 1, repo.coupons["c1"].ReceivedCount)
}

func TestClaimAgainAfterUse(t *testing.T) {
	repo := newStubRepo()
	repo.coupons["c1"] = activeCoupon(100)
	svc := NewService(repo)

	uc, err := svc.Claim(context.Background(), "u1", "c1")
	require.NoError(t, err)
	for i := range repo.claims {
		if repo.claims[i].ID == uc.ID {
			repo.claims[i].Status = ClaimUsed
		}
	}

	_, err = svc.Claim(context.Background(), "u1", "c1")
	assert.NoError(t, err)
}

func TestClaimSoldOut(t *testing.T) {
	repo := newStubRepo()
	cp := activeCoupon(1)
	cp.ReceivedCount = 1
	repo.coupons["c1"] = cp
	svc := NewService(repo)

	_, err := svc.Claim(context.Background(), "u2", "c1")
	assert.ErrorIs(t, err, ErrSoldOut)
}

func TestClaimOutsideWindow(t *testing.T) {
	repo := newStubRepo()
	cp := activeCoupon(100)
	cp.StartTime = time.Now().Add(time.Hour)
	cp.EndTime = time.Now().Add(2 * time.Hour)
	repo.coupons["c1"] = cp
	svc := NewService(repo)

	_, err := svc.Claim(context.Background(), "u1", "c1")
	assert.ErrorIs(t, err, ErrOutsideWindow)
}

func TestClaimInactive(t *testing.T) {
	repo := newStubRepo()
	cp := activeCoupon(100)
	cp.Status = StatusExpired
	repo.coupons["c1"] = cp
	svc := NewService(repo)

	_, err := svc.Claim(context.Background(), "u1", "c1")
	assert.ErrorIs(t, err, ErrInactive)
}

func TestClaimUnknownCoupon(t *testing.T) {
	svc := NewService(newStubRepo())
	_, err := svc.Claim(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAvailableFiltersByMinAmount(t *testing.T) {
	repo := newStubRepo()
	repo.coupons["c1"] = activeCoupon(100)
	svc := NewService(repo)

	_, err := svc.Claim(context.Background(), "u1", "c1")
	require.NoError(t, err)

	got, err := svc.Available(context.Background(), "u1", decimal.RequireFromString("150.00"))
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = svc.Available(context.Background(), "u1", decimal.RequireFromString("99.99"))
	require.NoError(t, err)
	assert.Empty(t, got)
}
