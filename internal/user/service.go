package user

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/minimall/minimall/internal/auth"
)

var (
	ErrPhoneTaken       = errors.New("手机号已注册")
	ErrBadCredentials   = errors.New("手机号或密码错误")
	ErrAccountDisabled  = errors.New("账号已被禁用")
	ErrWrongOldPassword = errors.New("旧密码错误")
	ErrAlreadyFavorite  = errors.New("已收藏该商品")
	ErrNotFavorite      = errors.New("未收藏该商品")
	ErrFollowSelf       = errors.New("不能关注自己")
	ErrAlreadyFollowing = errors.New("已经关注过该用户")
	ErrNotFollowing     = errors.New("未关注该用户")
)

type Service struct {
	repo Repository
	jwt  *auth.JWTService
}

func NewService(repo Repository, jwt *auth.JWTService) *Service {
	return &Service{repo: repo, jwt: jwt}
}

// SendCode pretends to send an SMS verification code. There is no SMS
// provider wired in, so the code is fixed and only logged.
func (s *Service) SendCode(phone string) string {
	const code = "123456"
	log.Printf("[sms] verification code for %s: %s", phone, code)
	return code
}

func (s *Service) Register(ctx context.Context, phone, password, nickname string) (*User, *TokenPair, error) {
	if _, err := s.repo.GetByPhone(ctx, phone); err == nil {
		return nil, nil, ErrPhoneTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, nil, err
	}
	if nickname == "" {
		nickname = "用户" + phone[len(phone)-4:]
	}
	u := &User{
		ID:       uuid.NewString(),
		Phone:    phone,
		Password: hash,
		Nickname: nickname,
		Status:   StatusActive,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, nil, err
	}
	pair, err := s.tokens(u.ID)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

func (s *Service) Login(ctx context.Context, phone, password string) (*User, *TokenPair, error) {
	u, err := s.repo.GetByPhone(ctx, phone)
	if errors.Is(err, ErrNotFound) {
		return nil, nil, ErrBadCredentials
	}
	if err != nil {
		return nil, nil, err
	}
	if err := auth.CheckPassword(u.Password, password); err != nil {
		return nil, nil, ErrBadCredentials
	}
	if u.Status != StatusActive {
		return nil, nil, ErrAccountDisabled
	}
	pair, err := s.tokens(u.ID)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

// Refresh trades a valid refresh token for a fresh pair. Disabled
// accounts are cut off here too.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if u.Status != StatusActive {
		return nil, ErrAccountDisabled
	}
	return s.tokens(u.ID)
}

func (s *Service) tokens(userID string) (*TokenPair, error) {
	access, err := s.jwt.GenerateAccessToken(userID, auth.ScopeUser)
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwt.GenerateRefreshToken(userID, auth.ScopeUser)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Me returns the caller's profile with a masked phone number.
func (s *Service) Me(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	followers, following, err := s.repo.FollowCounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{
		ID:             u.ID,
		Phone:          u.MaskedPhone(),
		Nickname:       u.Nickname,
		Avatar:         u.Avatar,
		Gender:         u.Gender,
		Birthday:       u.Birthday,
		Bio:            u.Bio,
		FollowerCount:  followers,
		FollowingCount: following,
		CreatedAt:      u.CreatedAt,
	}, nil
}

type ProfileUpdate struct {
	Nickname string     `json:"nickname"`
	Avatar   string     `json:"avatar"`
	Gender   string     `json:"gender"`
	Birthday *time.Time `json:"birthday"`
	Bio      string     `json:"bio"`
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*Profile, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if upd.Nickname != "" {
		u.Nickname = upd.Nickname
	}
	if upd.Avatar != "" {
		u.Avatar = upd.Avatar
	}
	if upd.Gender != "" {
		u.Gender = upd.Gender
	}
	if upd.Birthday != nil {
		u.Birthday = upd.Birthday
	}
	if upd.Bio != "" {
		u.Bio = upd.Bio
	}
	if err := s.repo.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	return s.Me(ctx, userID)
}

func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := auth.CheckPassword(u.Password, oldPassword); err != nil {
		return ErrWrongOldPassword
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, userID, hash)
}

func (s *Service) Addresses(ctx context.Context, userID string) ([]Address, error) {
	return s.repo.Addresses(ctx, userID)
}

// CreateAddress makes the user's first address the default regardless of
// the flag in the payload.
func (s *Service) CreateAddress(ctx context.Context, userID string, a Address) (*Address, error) {
	n, err := s.repo.CountAddresses(ctx, userID)
	if err != nil {
		return nil, err
	}
	a.ID = uuid.NewString()
	a.UserID = userID
	if n == 0 {
		a.IsDefault = true
	}
	if err := s.repo.CreateAddress(ctx, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Service) UpdateAddress(ctx context.Context, userID, addressID string, a Address) (*Address, error) {
	if _, err := s.repo.GetAddress(ctx, userID, addressID); err != nil {
		return nil, err
	}
	a.ID = addressID
	a.UserID = userID
	if err := s.repo.UpdateAddress(ctx, &a); err != nil {
		return nil, err
	}
	return s.repo.GetAddress(ctx, userID, addressID)
}

// DeleteAddress removes the row and, when it was the default, promotes
// the most recent remaining address.
func (s *Service) DeleteAddress(ctx context.Context, userID, addressID string) error {
	a, err := s.repo.GetAddress(ctx, userID, addressID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteAddress(ctx, userID, addressID); err != nil {
		return err
	}
	if a.IsDefault {
		rest, err := s.repo.Addresses(ctx, userID)
		if err != nil {
			return err
		}
		if len(rest) > 0 {
			return s.repo.SetDefaultAddress(ctx, userID, rest[0].ID)
		}
	}
	return nil
}

func (s *Service) SetDefaultAddress(ctx context.Context, userID, addressID string) error {
	return s.repo.SetDefaultAddress(ctx, userID, addressID)
}

func (s *Service) AddFavorite(ctx context.Context, userID, productID string) error {
	exists, err := s.repo.HasFavorite(ctx, userID, productID)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyFavorite
	}
	return s.repo.AddFavorite(ctx, uuid.NewString(), userID, productID)
}

func (s *Service) RemoveFavorite(ctx context.Context, userID, productID string) error {
	removed, err := s.repo.RemoveFavorite(ctx, userID, productID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotFavorite
	}
	return nil
}

func (s *Service) Favorites(ctx context.Context, userID string, page, pageSize int) ([]FavoriteItem, int, error) {
	return s.repo.Favorites(ctx, userID, page, pageSize)
}

func (s *Service) History(ctx context.Context, userID string, page, pageSize int) ([]HistoryItem, int, error) {
	return s.repo.History(ctx, userID, page, pageSize)
}

func (s *Service) ClearHistory(ctx context.Context, userID string) error {
	return s.repo.ClearHistory(ctx, userID)
}

func (s *Service) Follow(ctx context.Context, followerID, followedID string) error {
	if followerID == followedID {
		return ErrFollowSelf
	}
	if _, err := s.repo.GetByID(ctx, followedID); err != nil {
		return err
	}
	following, err := s.repo.IsFollowing(ctx, followerID, followedID)
	if err != nil {
		return err
	}
	if following {
		return ErrAlreadyFollowing
	}
	return s.repo.Follow(ctx, uuid.NewString(), followerID, followedID)
}

func (s *Service) Unfollow(ctx context.Context, followerID, followedID string) error {
	removed, err := s.repo.Unfollow(ctx, followerID, followedID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotFollowing
	}
	return nil
}

func (s *Service) Followers(ctx context.Context, userID string, page, pageSize int) ([]FollowUser, int, error) {
	return s.repo.Followers(ctx, userID, page, pageSize)
}

func (s *Service) Following(ctx context.Context, userID string, page, pageSize int) ([]FollowUser, int, error) {
	return s.repo.Following(ctx, userID, page, pageSize)
}
