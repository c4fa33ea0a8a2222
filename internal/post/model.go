package post

import "time"

// Review states. Only APPROVED posts show up in public feeds.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

type Author struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar,omitempty"`
}

type Post struct {
	ID           string    `json:"id"`
	UserID       string    `json:"-"`
	Content      string    `json:"content"`
	Images       []string  `json:"images"`
	Status       string    `json:"status"`
	LikeCount    int       `json:"likeCount"`
	CommentCount int       `json:"commentCount"`
	CreatedAt    time.Time `json:"createdAt"`
	Author       Author    `json:"author"`
	// Viewer-relative flags, zero for anonymous requests.
	IsLiked     bool `json:"isLiked"`
	IsFollowing bool `json:"isFollowing"`
}

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	UserID    string    `json:"-"`
	ParentID  string    `json:"parentId,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Author    Author    `json:"author"`
}
