package post

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound        = errors.New("帖子不存在")
	ErrParentNotFound  = errors.New("父评论不存在")
	ErrCommentNotFound = errors.New("评论不存在")
)

type Repository interface {
	List(ctx context.Context, viewerID, status string, page, pageSize int) ([]Post, int, error)
	ListByUser(ctx context.Context, userID string, page, pageSize int) ([]Post, int, error)
	GetByID(ctx context.Context, viewerID, postID string) (*Post, error)
	Create(ctx context.Context, p *Post) error
	UpdateStatus(ctx context.Context, postID, status string) error
	Delete(ctx context.Context, postID string) error

	HasLike(ctx context.Context, userID, postID string) (bool, error)
	AddLike(ctx context.Context, id, userID, postID string) error
	RemoveLike(ctx context.Context, userID, postID string) error

	Comments(ctx context.Context, postID string, page, pageSize int) ([]Comment, int, error)
	GetComment(ctx context.Context, commentID string) (*Comment, error)
	CreateComment(ctx context.Context, cm *Comment) error
	DeleteComment(ctx context.Context, commentID string) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

// postCols pulls the author row and the viewer-relative flags in one
// query; $v is the viewer id ('' for anonymous).
const postCols = `p.id, p.user_id, p.content, p.images, p.status, p.like_count, p.comment_count,
		p.created_at, u.id, u.nickname, COALESCE(u.avatar,''),
		EXISTS (SELECT 1 FROM post_likes pl WHERE pl.post_id = p.id AND pl.user_id = $1),
		EXISTS (SELECT 1 FROM follows f WHERE f.follower_id = $1 AND f.followed_id = p.user_id)`

func scanPost(row interface{ Scan(...any) error }, p *Post) error {
	return row.Scan(&p.ID, &p.UserID, &p.Content, &p.Images, &p.Status, &p.LikeCount,
		&p.CommentCount, &p.CreatedAt, &p.Author.ID, &p.Author.Nickname, &p.Author.Avatar,
		&p.IsLiked, &p.IsFollowing)
}

func (r *PGRepo) List(ctx context.Context, viewerID, status string, page, pageSize int) ([]Post, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var total int
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM posts WHERE ($1 = '' OR status = $1)
	`, status).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+postCols+`
		FROM posts p JOIN users u ON u.id = p.user_id
		WHERE ($2 = '' OR p.status = $2)
		ORDER BY p.created_at DESC LIMIT $3 OFFSET $4
	`, viewerID, status, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out, err := collectPosts(rows)
	return out, total, err
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]Post, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var total int
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM posts WHERE user_id=$1
	`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+postCols+`
		FROM posts p JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $2
		ORDER BY p.created_at DESC LIMIT $3 OFFSET $4
	`, userID, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out, err := collectPosts(rows)
	return out, total, err
}

func collectPosts(rows pgx.Rows) ([]Post, error) {
	var out []Post
	for rows.Next() {
		var p Post
		if err := scanPost(rows, &p); err != nil {
			return nil, err
		}
		if p.Images == nil {
			p.Images = []string{}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PGRepo) GetByID(ctx context.Context, viewerID, postID string) (*Post, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p Post
	row := r.db.QueryRow(ctx, `
		SELECT `+postCols+`
		FROM posts p JOIN users u ON u.id = p.user_id
		WHERE p.id = $2
	`, viewerID, postID)
	if err := scanPost(row, &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return &p, nil
}

func (r *PGRepo) Create(ctx context.Context, p *Post) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO posts (id, user_id, content, images, status, like_count, comment_count, created_at)
		VALUES ($1,$2,$3,$4,$5,0,0,NOW())
	`, p.ID, p.UserID, p.Content, p.Images, p.Status)
	return err
}

func (r *PGRepo) UpdateStatus(ctx context.Context, postID, status string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `UPDATE posts SET status=$2 WHERE id=$1`, postID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, postID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id=$1`, postID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) HasLike(ctx context.Context, userID, postID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM post_likes WHERE user_id=$1 AND post_id=$2
	`, userID, postID).Scan(&n)
	return n > 0, err
}

// AddLike inserts the like and bumps the denormalized counter together.
func (r *PGRepo) AddLike(ctx context.Context, id, userID, postID string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO post_likes (id, user_id, post_id, created_at) VALUES ($1,$2,$3,NOW())
	`, id, userID, postID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE posts SET like_count = like_count + 1 WHERE id=$1
	`, postID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) RemoveLike(ctx context.Context, userID, postID string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		DELETE FROM post_likes WHERE user_id=$1 AND post_id=$2
	`, userID, postID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		if _, err := tx.Exec(ctx, `
			UPDATE posts SET like_count = GREATEST(like_count - 1, 0) WHERE id=$1
		`, postID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) Comments(ctx context.Context, postID string, page, pageSize int) ([]Comment, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var total int
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM post_comments WHERE post_id=$1
	`, postID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.post_id, c.user_id, COALESCE(c.parent_id,''), c.content, c.created_at,
		       u.id, u.nickname, COALESCE(u.avatar,'')
		FROM post_comments c JOIN users u ON u.id = c.user_id
		WHERE c.post_id=$1
		ORDER BY c.created_at ASC LIMIT $2 OFFSET $3
	`, postID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		var cm Comment
		if err := rows.Scan(&cm.ID, &cm.PostID, &cm.UserID, &cm.ParentID, &cm.Content,
			&cm.CreatedAt, &cm.Author.ID, &cm.Author.Nickname, &cm.Author.Avatar); err != nil {
			return nil, 0, err
		}
		out = append(out, cm)
	}
	return out, total, rows.Err()
}

func (r *PGRepo) GetComment(ctx context.Context, commentID string) (*Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var cm Comment
	err := r.db.QueryRow(ctx, `
		SELECT id, post_id, user_id, COALESCE(parent_id,''), content, created_at
		FROM post_comments WHERE id=$1
	`, commentID).Scan(&cm.ID, &cm.PostID, &cm.UserID, &cm.ParentID, &cm.Content, &cm.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCommentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cm, nil
}

func (r *PGRepo) CreateComment(ctx context.Context, cm *Comment) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var parentID any
	if cm.ParentID != "" {
		parentID = cm.ParentID
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO post_comments (id, post_id, user_id, parent_id, content, created_at)
		VALUES ($1,$2,$3,$4,$5,NOW())
	`, cm.ID, cm.PostID, cm.UserID, parentID, cm.Content); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE posts SET comment_count = comment_count + 1 WHERE id=$1
	`, cm.PostID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) DeleteComment(ctx context.Context, commentID string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var postID string
	err = tx.QueryRow(ctx, `
		DELETE FROM post_comments WHERE id=$1 RETURNING post_id
	`, commentID).Scan(&postID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrCommentNotFound
	}
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE posts SET comment_count = GREATEST(comment_count - 1, 0) WHERE id=$1
	`, postID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
