package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minimall/minimall/internal/auth"
)

type stubRepo struct {
	users     map[string]*User // by id
	addresses map[string]*Address
	favorites map[string]string // favorite id -> userID|productID
	follows   map[string][2]string
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		users:     map[string]*User{},
		addresses: map[string]*Address{},
		favorites: map[string]string{},
		follows:   map[string][2]string{},
	}
}

func (s *stubRepo) GetByPhone(_ context.Context, phone string) (*User, error) {
	for _, u := range s.users {
		if u.Phone == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *stubRepo) GetByID(_ context.Context, id string) (*User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *stubRepo) Create(_ context.Context, u *User) error {
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *stubRepo) UpdateProfile(_ context.Context, u *User) error {
	if _, ok := s.users[u.ID]; !ok {
		return ErrNotFound
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *stubRepo) UpdatePassword(_ context.Context, userID, hash string) error {
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.Password = hash
	return nil
}

func (s *stubRepo) FollowCounts(_ context.Context, userID string) (int, int, error) {
	followers, following := 0, 0
	for _, f := range s.follows {
		if f[1] == userID {
			followers++
		}
		if f[0] == userID {
			following++
		}
	}
	return followers, following, nil
}

func (s *stubRepo) Addresses(_ context.Context, userID string) ([]Address, error) {
	var out []Address
	for _, a := range s.addresses {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *stubRepo) GetAddress(_ context.Context, userID, addressID string) (*Address, error) {
	a, ok := s.addresses[addressID]
	if !ok || a.UserID != userID {
		return nil, ErrAddressNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *stubRepo) CreateAddress(_ context.Context, a *Address) error {
	if a.IsDefault {
		for _, other := range s.addresses {
			if other.UserID == a.UserID {
				other.IsDefault = false
			}
		}
	}
	cp := *a
	s.addresses[a.ID] = &cp
	return nil
}

func (s *stubRepo) UpdateAddress(_ context.Context, a *Address) error {
	if _, ok := s.addresses[a.ID]; !ok {
		return ErrAddressNotFound
	}
	if a.IsDefault {
		for id, other := range s.addresses {
			if other.UserID == a.UserID && id != a.ID {
				other.IsDefault = false
			}
		}
	}
	cp := *a
	s.addresses[a.ID] = &cp
	return nil
}

func (s *stubRepo) DeleteAddress(_ context.Context, userID, addressID string) error {
	a, ok := s.addresses[addressID]
	if !ok || a.UserID != userID {
		return ErrAddressNotFound
	}
	delete(s.addresses, addressID)
	return nil
}

func (s *stubRepo) CountAddresses(_ context.Context, userID string) (int, error) {
	n := 0
	for _, a := range s.addresses {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *stubRepo) SetDefaultAddress(_ context.Context, userID, addressID string) error {
	target, ok := s.addresses[addressID]
	if !ok || target.UserID != userID {
		return ErrAddressNotFound
	}
	for _, a := range s.addresses {
		if a.UserID == userID {
			a.IsDefault = false
		}
	}
	target.IsDefault = true
	return nil
}

func (s *stubRepo) HasFavorite(_ context.Context, userID, productID string) (bool, error) {
	_, ok := s.favorites[userID+"|"+productID]
	return ok, nil
}

func (s *stubRepo) AddFavorite(_ context.Context, id, userID, productID string) error {
	s.favorites[userID+"|"+productID] = id
	return nil
}

func (s *stubRepo) RemoveFavorite(_ context.Context, userID, productID string) (bool, error) {
	key := userID + "|" + productID
	if _, ok := s.favorites[key]; !ok {
		return false, nil
	}
	delete(s.favorites, key)
	return true, nil
}

func (s *stubRepo) Favorites(context.Context, string, int, int) ([]FavoriteItem, int, error) {
	return nil, 0, nil
}

func (s *stubRepo) History(context.Context, string, int, int) ([]HistoryItem, int, error) {
	return nil, 0, nil
}

func (s *stubRepo) ClearHistory(context.Context, string) error { return nil }

func (s *stubRepo) IsFollowing(_ context.Context, followerID, followedID string) (bool, error) {
	_, ok := s.follows[followerID+"|"+followedID]
	return ok, nil
}

func (s *stubRepo) Follow(_ context.Context, id, followerID, followedID string) error {
	s.follows[followerID+"|"+followedID] = [2]string{followerID, followedID}
	return nil
}

func (s *stubRepo) Unfollow(_ context.Context, followerID, followedID string) (bool, error) {
	key := followerID + "|" + followedID
	if _, ok := s.follows[key]; !ok {
		return false, nil
	}
	delete(s.follows, key)
	return true, nil
}

func (s *stubRepo) Followers(context.Context, string, int, int) ([]FollowUser, int, error) {
	return nil, 0, nil
}

func (s *stubRepo) Following(context.Context, string, int, int) ([]FollowUser, int, error) {
	return nil, 0, nil
}

func newTestService() (*stubRepo, *Service) {
	repo := newStubRepo()
	jwtSvc := auth.NewJWTService("a-secret", "r-secret", time.Minute, time.Hour)
	return repo, NewService(repo, jwtSvc)
}

func TestRegisterAndLogin(t *testing.T) {
	_, svc := newTestService()

	u, pair, err := svc.Register(context.Background(), "13800138000", "secret1", "")
	require.NoError(t, err)
	assert.Equal(t, "用户8000", u.Nickname)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	u2, _, err := svc.Login(context.Background(), "13800138000", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, u2.ID)
}

func TestRegisterDuplicatePhone(t *testing.T) {
	_, svc := newTestService()

	_, _, err := svc.Register(context.Background(), "13800138000", "secret1", "")
	require.NoError(t, err)
	_, _, err = svc.Register(context.Background(), "13800138000", "another1", "")
	assert.ErrorIs(t, err, ErrPhoneTaken)
}

func TestLoginWrongPassword(t *testing.T) {
	_, svc := newTestService()
	_, _, err := svc.Register(context.Background(), "13800138000", "secret1", "")
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "13800138000", "wrong-pass")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, _, err = svc.Login(context.Background(), "13911112222", "secret1")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestLoginDisabledAccount(t *testing.T) {
	repo, svc := newTestService()
	u, _, err := svc.Register(context.Background(), "13800138000", "secret1", "")
	require.NoError(t, err)
	repo.users[u.ID].Status = StatusDisabled

	_, _, err = svc.Login(context.Background(), "13800138000", "secret1")
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestRefreshRejectsDisabledAccount(t *testing.T) {
	repo, svc := newTestService()
	u, pair, err := svc.Register(context.Background(), "13800138000", "secret1", "")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)

	repo.users[u.ID].Status = StatusDisabled
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestProfileMasksPhone(t *testing.T) {
	_, svc := newTestService()
	u, _, err := svc.Register(context.Background(), "13800138000", "secret1", "小明")
	require.NoError(t, err)

	p, err := svc.Me(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "138****8000", p.Phone)
	assert.Equal(t, "小明", p.Nickname)
}

func TestChangePassword(t *testing.T) {
	_, svc := newTestService()
	u, _, err := svc.Register(context.Background(), "13800138000", "secret1", "")
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), u.ID, "wrong", "newsecret")
	assert.ErrorIs(t, err, ErrWrongOldPassword)

	require.NoError(t, svc.ChangePassword(context.Background(), u.ID, "secret1", "newsecret"))
	_, _, err = svc.Login(context.Background(), "13800138000", "newsecret")
	assert.NoError(t, err)
}

func TestFirstAddressBecomesDefault(t *testing.T) {
	_, svc := newTestService()

	a1, err := svc.CreateAddress(context.Background(), "u1", Address{
		ReceiverName: "张三", ReceiverPhone: "13800138000",
		Province: "广东省", City: "深圳市", District: "南山区", DetailAddress: "科技园1号",
	})
	require.NoError(t, err)
	assert.True(t, a1.IsDefault)

	a2, err := svc.CreateAddress(context.Background(), "u1", Address{
		ReceiverName: "李四", ReceiverPhone: "13900139000",
		Province: "广东省", City: "广州市", District: "天河区", DetailAddress: "体育西路2号",
	})
	require.NoError(t, err)
	assert.False(t, a2.IsDefault)
}

func TestSingleDefaultAddress(t *testing.T) {
	repo, svc := newTestService()

	a1, err := svc.CreateAddress(context.Background(), "u1", Address{
		ReceiverName: "张三", ReceiverPhone: "1", Province: "p", City: "c", District: "d", DetailAddress: "x",
	})
	require.NoError(t, err)
	a2, err := svc.CreateAddress(context.Background(), "u1", Address{
		ReceiverName: "李四", ReceiverPhone: "2", Province: "p", City: "c", District: "d", DetailAddress: "y",
	})
	require.NoError(t, err)

	require.NoError(t, svc.SetDefaultAddress(context.Background(), "u1", a2.ID))
	assert.False(t, repo.addresses[a1.ID].IsDefault)
	assert.True(t, repo.addresses[a2.ID].IsDefault)
}

func TestDeleteDefaultPromotesAnother(t *testing.T) {
	repo, svc := newTestService()

	a1, err := svc.CreateAddress(context.Background(), "u1", Address{
		ReceiverName: "张三", ReceiverPhone: "1", Province: "p", City: "c", District: "d", DetailAddress: "x",
	})
	require.NoError(t, err)
	a2, err := svc.CreateAddress(context.Background(), "u1", Address{
		ReceiverName: "李四", ReceiverPhone: "2", Province: "p", City: "c", District: "d", DetailAddress: "y",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAddress(context.Background(), "u1", a1.ID))
	assert.True(t, repo.addresses[a2.ID].IsDefault)
}

func TestFavoriteTwiceRejected(t *testing.T) {
	_, svc := newTestService()

	require.NoError(t, svc.AddFavorite(context.Background(), "u1", "p1"))
	err := svc.AddFavorite(context.Background(), "u1", "p1")
	assert.ErrorIs(t, err, ErrAlreadyFavorite)

	require.NoError(t, svc.RemoveFavorite(context.Background(), "u1", "p1"))
	err = svc.RemoveFavorite(context.Background(), "u1", "p1")
	assert.ErrorIs(t, err, ErrNotFavorite)
}

func TestFollowRules(t *testing.T) {
	repo, svc := newTestService()
	repo.users["u2"] = &User{ID: "u2", Phone: "13911112222", Status: StatusActive}

	assert.ErrorIs(t, svc.Follow(context.Background(), "u1", "u1"), ErrFollowSelf)
	assert.ErrorIs(t, svc.Follow(context.Background(), "u1", "ghost"), ErrNotFound)

	require.NoError(t, svc.Follow(context.Background(), "u1", "u2"))
	assert.ErrorIs(t, svc.Follow(context.Background(), "u1", "u2"), ErrAlreadyFollowing)

	require.NoError(t, svc.Unfollow(context.Background(), "u1", "u2"))
	assert.ErrorIs(t, svc.Unfollow(context.Background(), "u1", "u2"), ErrNotFollowing)
}

func TestMaskedPhoneShortNumber(t *testing.T) {
	u := User{Phone: "12345"}
	assert.Equal(t, "12345", u.MaskedPhone())
}
