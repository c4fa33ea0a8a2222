package admin

import (
	"context"
	"errors"
	"time"

	"github.com/minimall/minimall/internal/auth"
	"github.com/minimall/minimall/internal/coupon"
)

var (
	ErrBadCredentials  = errors.New("用户名或密码错误")
	ErrAccountDisabled = errors.New("账号已被禁用")
)

type Service struct {
	repo Repository
	jwt  *auth.JWTService
	now  func() time.Time
}

func NewService(repo Repository, jwt *auth.JWTService) *Service {
	return &Service{repo: repo, jwt: jwt, now: time.Now}
}

// Login authenticates a console account and hands back an admin-scoped
// token pair.
func (s *Service) Login(ctx context.Context, username, password string) (*Admin, string, string, error) {
	a, err := s.repo.GetAdminByUsername(ctx, username)
	if errors.Is(err, ErrAdminNotFound) {
		return nil, "", "", ErrBadCredentials
	}
	if err != nil {
		return nil, "", "", err
	}
	if err := auth.CheckPassword(a.Password, password); err != nil {
		return nil, "", "", ErrBadCredentials
	}
	if a.Status != "ACTIVE" {
		return nil, "", "", ErrAccountDisabled
	}

	access, err := s.jwt.GenerateAccessToken(a.ID, auth.ScopeAdmin)
	if err != nil {
		return nil, "", "", err
	}
	refresh, err := s.jwt.GenerateRefreshToken(a.ID, auth.ScopeAdmin)
	if err != nil {
		return nil, "", "", err
	}
	if err := s.repo.TouchLastLogin(ctx, a.ID); err != nil {
		return nil, "", "", err
	}
	return a, access, refresh, nil
}

// CouponsWithDerivedStatus lists coupons with their status recomputed
// from the claim window, so expired vouchers show as EXPIRED even when
// the stored column lags behind.
func (s *Service) CouponsWithDerivedStatus(ctx context.Context, keyword, status string, page, pageSize int) ([]coupon.Coupon, int, error) {
	coupons, total, err := s.repo.ListCoupons(ctx, keyword, status, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	now := s.now()
	for i := range coupons {
		switch {
		case now.Before(coupons[i].StartTime):
			coupons[i].Status = coupon.StatusPending
		case now.After(coupons[i].EndTime):
			coupons[i].Status = coupon.StatusExpired
		default:
			coupons[i].Status = coupon.StatusActive
		}
	}
	return coupons, total, nil
}
