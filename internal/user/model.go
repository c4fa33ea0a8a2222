package user

import "time"

const (
	StatusActive   = "ACTIVE"
	StatusDisabled = "DISABLED"
)

type User struct {
	ID        string     `json:"id"`
	Phone     string     `json:"phone"`
	Password  string     `json:"-"`
	Nickname  string     `json:"nickname"`
	Avatar    string     `json:"avatar,omitempty"`
	Gender    string     `json:"gender,omitempty"`
	Birthday  *time.Time `json:"birthday,omitempty"`
	Bio       string     `json:"bio,omitempty"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// MaskedPhone hides the middle four digits: 138****5678.
func (u *User) MaskedPhone() string {
	if len(u.Phone) < 7 {
		return u.Phone
	}
	return u.Phone[:3] + "****" + u.Phone[len(u.Phone)-4:]
}

// Profile is the public view of a user, phone masked.
type Profile struct {
	ID             string     `json:"id"`
	Phone          string     `json:"phone"`
	Nickname       string     `json:"nickname"`
	Avatar         string     `json:"avatar,omitempty"`
	Gender         string     `json:"gender,omitempty"`
	Birthday       *time.Time `json:"birthday,omitempty"`
	Bio            string     `json:"bio,omitempty"`
	FollowerCount  int        `json:"followerCount"`
	FollowingCount int        `json:"followingCount"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type Address struct {
	ID            string    `json:"id"`
	UserID        string    `json:"-"`
	ReceiverName  string    `json:"receiverName"`
	ReceiverPhone string    `json:"receiverPhone"`
	Province      string    `json:"province"`
	City          string    `json:"city"`
	District      string    `json:"district"`
	DetailAddress string    `json:"detailAddress"`
	IsDefault     bool      `json:"isDefault"`
	CreatedAt     time.Time `json:"createdAt"`
}

// FavoriteItem joins a favorite row with its product snapshot.
type FavoriteItem struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Title     string    `json:"title"`
	MainImage string    `json:"mainImage"`
	Price     string    `json:"price"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// HistoryItem is one browse history entry.
type HistoryItem struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Title     string    `json:"title"`
	MainImage string    `json:"mainImage"`
	Price     string    `json:"price"`
	Status    string    `json:"status"`
	ViewedAt  time.Time `json:"viewedAt"`
}

// FollowUser is a row in a follower/following listing.
type FollowUser struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

// TokenPair is what login and refresh hand back.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
