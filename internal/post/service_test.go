package post

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	posts    map[string]*Post
	likes    map[string]bool // userID|postID
	comments map[string]*Comment
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		posts:    map[string]*Post{},
		likes:    map[string]bool{},
		comments: map[string]*Comment{},
	}
}

func (s *stubRepo) List(_ context.Context, viewerID, status string, _, _ int) ([]Post, int, error) {
	var out []Post
	for _, p := range s.posts {
		if status != "" && p.Status != status {
			continue
		}
		cp := *p
		cp.IsLiked = s.likes[viewerID+"|"+p.ID]
		out = append(out, cp)
	}
	return out, len(out), nil
}

func (s *stubRepo) ListByUser(_ context.Context, userID string, _, _ int) ([]Post, int, error) {
	var out []Post
	for _, p := range s.posts {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, len(out), nil
}

func (s *stubRepo) GetByID(_ context.Context, viewerID, postID string) (*Post, error) {
	p, ok := s.posts[postID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	cp.IsLiked = s.likes[viewerID+"|"+postID]
	return &cp, nil
}

func (s *stubRepo) Create(_ context.Context, p *Post) error {
	cp := *p
	s.posts[p.ID] = &cp
	return nil
}

func (s *stubRepo) UpdateStatus(_ context.Context, postID, status string) error {
	p, ok := s.posts[postID]
	if !ok {
		return ErrNotFound
	}
	p.Status = status
	return nil
}

func (s *stubRepo) Delete(_ context.Context, postID string) error {
	if _, ok := s.posts[postID]; !ok {
		return ErrNotFound
	}
	delete(s.posts, postID)
	return nil
}

func (s *stubRepo) HasLike(_ context.Context, userID, postID string) (bool, error) {
	return s.likes[userID+"|"+postID], nil
}

func (s *stubRepo) AddLike(_ context.Context, _, userID, postID string) error {
	s.likes[userID+"|"+postID] = true
	s.posts[postID].LikeCount++
	return nil
}

func (s *stubRepo) RemoveLike(_ context.Context, userID, postID string) error {
	delete(s.likes, userID+"|"+postID)
	s.posts[postID].LikeCount--
	return nil
}

func (s *stubRepo) Comments(_ context.Context, postID string, _, _ int) ([]Comment, int, error) {
	var out []Comment
	for _, cm := range s.comments {
		if cm.PostID == postID {
			out = append(out, *cm)
		}
	}
	return out, len(out), nil
}

func (s *stubRepo) GetComment(_ context.Context, commentID string) (*Comment, error) {
	cm, ok := s.comments[commentID]
	if !ok {
		return nil, ErrCommentNotFound
	}
	cp := *cm
	return &cp, nil
}

func (s *stubRepo) CreateComment(_ context.Context, cm *Comment) error {
	cp := *cm
	s.comments[cm.ID] = &cp
	s.posts[cm.PostID].CommentCount++
	return nil
}

func (s *stubRepo) DeleteComment(_ context.Context, commentID string) error {
	cm, ok := s.comments[commentID]
	if !ok {
		return ErrCommentNotFound
	}
	delete(s.comments, commentID)
	s.posts[cm.PostID].CommentCount--
	return nil
}

func approvedPost(repo *stubRepo, id, author string) {
	repo.posts[id] = &Post{ID: id, UserID: author, Content: "内容", Status: StatusApproved}
}

func TestCreateStartsPending(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	p, err := svc.Create(context.Background(), "u1", "第一条动态", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Status)
	assert.NotNil(t, p.Images)

	// A pending post is invisible in the public feed.
	feed, total, err := svc.Feed(context.Background(), "", 1, 20)
	require.NoError(t, err)
	assert.Empty(t, feed)
	assert.Zero(t, total)
}

func TestPendingPostVisibleOnlyToAuthor(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	p, err := svc.Create(context.Background(), "u1", "审核中", nil)
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), "u1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = svc.Get(context.Background(), "u2", p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReviewApprovesIntoFeed(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	p, err := svc.Create(context.Background(), "u1", "待审核", nil)
	require.NoError(t, err)
	require.NoError(t, svc.Review(context.Background(), p.ID, StatusApproved))

	feed, total, err := svc.Feed(context.Background(), "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, p.ID, feed[0].ID)
}

func TestToggleLike(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)
	approvedPost(repo, "p1", "u2")

	liked, err := svc.ToggleLike(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, repo.posts["p1"].LikeCount)

	liked, err = svc.ToggleLike(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, repo.posts["p1"].LikeCount)
}

func TestCommentAndReply(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)
	approvedPost(repo, "p1", "u2")

	cm, err := svc.AddComment(context.Background(), "u1", "p1", "", "好看")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.posts["p1"].CommentCount)

	reply, err := svc.AddComment(context.Background(), "u2", "p1", cm.ID, "谢谢")
	require.NoError(t, err)
	assert.Equal(t, cm.ID, reply.ParentID)
}

func TestReplyToMissingParent(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)
	approvedPost(repo, "p1", "u2")

	_, err := svc.AddComment(context.Background(), "u1", "p1", "ghost", "回复")
	assert.ErrorIs(t, err, ErrParentNotFound)
}

func TestReplyToParentOnOtherPost(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)
	approvedPost(repo, "p1", "u2")
	approvedPost(repo, "p2", "u3")

	cm, err := svc.AddComment(context.Background(), "u1", "p1", "", "评论")
	require.NoError(t, err)

	_, err = svc.AddComment(context.Background(), "u1", "p2", cm.ID, "跨帖回复")
	assert.ErrorIs(t, err, ErrParentNotFound)
}

func TestDeleteCommentOwnership(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)
	approvedPost(repo, "p1", "u2")

	cm, err := svc.AddComment(context.Background(), "u1", "p1", "", "评论")
	require.NoError(t, err)

	err = svc.DeleteComment(context.Background(), "u2", cm.ID)
	assert.ErrorIs(t, err, ErrNotCommentOwner)

	require.NoError(t, svc.DeleteComment(context.Background(), "u1", cm.ID))
	assert.Equal(t, 0, repo.posts["p1"].CommentCount)
}
