package post

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotCommentOwner = errors.New("无权删除此评论")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

// Feed lists approved posts, newest first. viewerID may be empty.
func (s *Service) Feed(ctx context.Context, viewerID string, page, pageSize int) ([]Post, int, error) {
	return s.repo.List(ctx, viewerID, StatusApproved, page, pageSize)
}

func (s *Service) MyPosts(ctx context.Context, userID string, page, pageSize int) ([]Post, int, error) {
	return s.repo.ListByUser(ctx, userID, page, pageSize)
}

// Get returns a post if the viewer may see it: approved posts are
// public, the rest only show to their author.
func (s *Service) Get(ctx context.Context, viewerID, postID string) (*Post, error) {
	p, err := s.repo.GetByID(ctx, viewerID, postID)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusApproved && p.UserID != viewerID {
		return nil, ErrNotFound
	}
	return p, nil
}

// Create submits a post for review.
func (s *Service) Create(ctx context.Context, userID, content string, images []string) (*Post, error) {
	if images == nil {
		images = []string{}
	}
	p := &Post{
		ID:      uuid.NewString(),
		UserID:  userID,
		Content: content,
		Images:  images,
		Status:  StatusPending,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ToggleLike flips the viewer's like and reports the new state.
func (s *Service) ToggleLike(ctx context.Context, userID, postID string) (liked bool, err error) {
	if _, err := s.repo.GetByID(ctx, userID, postID); err != nil {
		return false, err
	}
	has, err := s.repo.HasLike(ctx, userID, postID)
	if err != nil {
		return false, err
	}
	if has {
		return false, s.repo.RemoveLike(ctx, userID, postID)
	}
	return true, s.repo.AddLike(ctx, uuid.NewString(), userID, postID)
}

func (s *Service) Comments(ctx context.Context, postID string, page, pageSize int) ([]Comment, int, error) {
	if _, err := s.repo.GetByID(ctx, "", postID); err != nil {
		return nil, 0, err
	}
	return s.repo.Comments(ctx, postID, page, pageSize)
}

// AddComment validates the post and, for replies, that the parent
// belongs to the same post.
func (s *Service) AddComment(ctx context.Context, userID, postID, parentID, content string) (*Comment, error) {
	if _, err := s.repo.GetByID(ctx, "", postID); err != nil {
		return nil, err
	}
	if parentID != "" {
		parent, err := s.repo.GetComment(ctx, parentID)
		if err != nil || parent.PostID != postID {
			return nil, ErrParentNotFound
		}
	}
	cm := &Comment{
		ID:       uuid.NewString(),
		PostID:   postID,
		UserID:   userID,
		ParentID: parentID,
		Content:  content,
	}
	if err := s.repo.CreateComment(ctx, cm); err != nil {
		return nil, err
	}
	return cm, nil
}

func (s *Service) DeleteComment(ctx context.Context, userID, commentID string) error {
	cm, err := s.repo.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if cm.UserID != userID {
		return ErrNotCommentOwner
	}
	return s.repo.DeleteComment(ctx, commentID)
}

// Admin review surface.

func (s *Service) ListForReview(ctx context.Context, status string, page, pageSize int) ([]Post, int, error) {
	return s.repo.List(ctx, "", status, page, pageSize)
}

func (s *Service) Review(ctx context.Context, postID, status string) error {
	return s.repo.UpdateStatus(ctx, postID, status)
}

func (s *Service) Remove(ctx context.Context, postID string) error {
	return s.repo.Delete(ctx, postID)
}
