package admin

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minimall/minimall/internal/auth"
	"github.com/minimall/minimall/internal/coupon"
	"github.com/minimall/minimall/internal/product"
)

type stubRepo struct {
	admins      map[string]*Admin
	coupons     []coupon.Coupon
	lastLoginID string
}

func newStubRepo() *stubRepo {
	return &stubRepo{admins: map[string]*Admin{}}
}

func (r *stubRepo) GetAdminByUsername(_ context.Context, username string) (*Admin, error) {
	a, ok := r.admins[username]
	if !ok {
		return nil, ErrAdminNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *stubRepo) TouchLastLogin(_ context.Context, adminID string) error {
	r.lastLoginID = adminID
	return nil
}

func (r *stubRepo) Dashboard(context.Context) (*DashboardStats, error) { return &DashboardStats{}, nil }

func (r *stubRepo) ListProducts(context.Context, string, string, int, int) ([]product.Product, int, error) {
	return nil, 0, nil
}
func (r *stubRepo) CreateProduct(context.Context, *product.Product, []product.SKU) error { return nil }
func (r *stubRepo) UpdateProduct(context.Context, *product.Product) error                { return nil }
func (r *stubRepo) UpdateProductStatus(context.Context, string, string) error            { return nil }
func (r *stubRepo) DeleteProduct(context.Context, string) error                          { return nil }

func (r *stubRepo) ListUsers(context.Context, string, string, int, int) ([]UserRow, int, error) {
	return nil, 0, nil
}
func (r *stubRepo) SetUserStatus(context.Context, string, string) error { return nil }

func (r *stubRepo) ListCoupons(_ context.Context, keyword, status string, _, _ int) ([]coupon.Coupon, int, error) {
	var out []coupon.Coupon
	for _, c := range r.coupons {
		if keyword != "" && !strings.Contains(c.Name, keyword) {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		out = append(out, c)
	}
	return out, len(out), nil
}
func (r *stubRepo) CreateCoupon(context.Context, *coupon.Coupon) error { return nil }
func (r *stubRepo) UpdateCoupon(context.Context, *coupon.Coupon) error { return nil }
func (r *stubRepo) DeleteCoupon(context.Context, string) error         { return nil }

func (r *stubRepo) CreateCategory(context.Context, *product.Category) error { return nil }
func (r *stubRepo) UpdateCategory(context.Context, *product.Category) error { return nil }
func (r *stubRepo) DeleteCategory(context.Context, string) error            { return nil }

func testService(repo Repository) *Service {
	jwt := auth.NewJWTService("test-secret", "test-refresh", time.Hour, 24*time.Hour)
	return NewService(repo, jwt)
}

func seedAdmin(t *testing.T, repo *stubRepo, status string) {
	t.Helper()
	hash, err := auth.HashPassword("admin123")
	require.NoError(t, err)
	repo.admins["admin"] = &Admin{ID: "a1", Username: "admin", Password: hash, Role: "SUPER", Status: status}
}

func TestLogin(t *testing.T) {
	repo := newStubRepo()
	seedAdmin(t, repo, "ACTIVE")
	svc := testService(repo)

	a, access, refresh, err := svc.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, "a1", a.ID)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)
	assert.Equal(t, "a1", repo.lastLoginID)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newStubRepo()
	seedAdmin(t, repo, "ACTIVE")
	svc := testService(repo)

	_, _, _, err := svc.Login(context.Background(), "admin", "nope")
	assert.ErrorIs(t, err, ErrBadCredentials)
	assert.Empty(t, repo.lastLoginID)
}

func TestLoginUnknownUsername(t *testing.T) {
	svc := testService(newStubRepo())

	_, _, _, err := svc.Login(context.Background(), "ghost", "whatever")
	// Unknown account and bad password answer the same way.
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestLoginDisabled(t *testing.T) {
	repo := newStubRepo()
	seedAdmin(t, repo, "DISABLED")
	svc := testService(repo)

	_, _, _, err := svc.Login(context.Background(), "admin", "admin123")
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestCouponsWithDerivedStatus(t *testing.T) {
	repo := newStubRepo()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	repo.coupons = []coupon.Coupon{
		{ID: "c1", Status: "ACTIVE", StartTime: now.Add(time.Hour), EndTime: now.Add(48 * time.Hour)},
		{ID: "c2", Status: "ACTIVE", StartTime: now.Add(-48 * time.Hour), EndTime: now.Add(-time.Hour)},
		{ID: "c3", Status: "PENDING", StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour)},
	}
	svc := testService(repo)
	svc.now = func() time.Time { return now }

	coupons, total, err := svc.CouponsWithDerivedStatus(context.Background(), "", "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, coupon.StatusPending, coupons[0].Status)
	assert.Equal(t, coupon.StatusExpired, coupons[1].Status)
	assert.Equal(t, coupon.StatusActive, coupons[2].Status)
}

func TestCouponListFilters(t *testing.T) {
	repo := newStubRepo()
	now := time.Now()
	repo.coupons = []coupon.Coupon{
		{ID: "c1", Name: "满100减20", Status: "ACTIVE", StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour)},
		{ID: "c2", Name: "新人专享券", Status: "INACTIVE", StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour)},
	}
	svc := testService(repo)

	coupons, total, err := svc.CouponsWithDerivedStatus(context.Background(), "新人", "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "c2", coupons[0].ID)

	_, total, err = svc.CouponsWithDerivedStatus(context.Background(), "", "ACTIVE", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}
