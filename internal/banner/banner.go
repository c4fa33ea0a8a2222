// Package banner serves the home page carousel.
package banner

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minimall/minimall/internal/httpx"
)

const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

var ErrNotFound = errors.New("轮播图不存在")

type Banner struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Image     string    `json:"image"`
	LinkType  string    `json:"linkType,omitempty"`
	LinkValue string    `json:"linkValue,omitempty"`
	Sort      int       `json:"sort"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type Repository interface {
	ListActive(ctx context.Context) ([]Banner, error)
	List(ctx context.Context) ([]Banner, error)
	Create(ctx context.Context, b *Banner) error
	Update(ctx context.Context, b *Banner) error
	Delete(ctx context.Context, id string) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const cols = `id, title, image, COALESCE(link_type,''), COALESCE(link_value,''), sort, status, created_at`

func (r *PGRepo) list(ctx context.Context, where string, args ...any) ([]Banner, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT `+cols+` FROM banners `+where+` ORDER BY sort ASC, created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Banner
	for rows.Next() {
		var b Banner
		if err := rows.Scan(&b.ID, &b.Title, &b.Image, &b.LinkType, &b.LinkValue,
			&b.Sort, &b.Status, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PGRepo) ListActive(ctx context.Context) ([]Banner, error) {
	return r.list(ctx, `WHERE status=$1`, StatusActive)
}

func (r *PGRepo) List(ctx context.Context) ([]Banner, error) {
	return r.list(ctx, ``)
}

func (r *PGRepo) Create(ctx context.Context, b *Banner) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO banners (id, title, image, link_type, link_value, sort, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
	`, b.ID, b.Title, b.Image, b.LinkType, b.LinkValue, b.Sort, b.Status)
	return err
}

func (r *PGRepo) Update(ctx context.Context, b *Banner) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE banners SET title=$2, image=$3, link_type=$4, link_value=$5, sort=$6, status=$7
		WHERE id=$1
	`, b.ID, b.Title, b.Image, b.LinkType, b.LinkValue, b.Sort, b.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM banners WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type upsertRequest struct {
	Title     string `json:"title" binding:"required"`
	Image     string `json:"image" binding:"required"`
	LinkType  string `json:"linkType"`
	LinkValue string `json:"linkValue"`
	Sort      int    `json:"sort"`
	Status    string `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE"`
}

// ActiveHandler is the public carousel endpoint.
func ActiveHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		banners, err := repo.ListActive(c.Request.Context())
		if err != nil {
			httpx.ServerError(c, err, gin.Mode() != gin.ReleaseMode)
			return
		}
		httpx.OK(c, banners)
	}
}

func AdminListHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		banners, err := repo.List(c.Request.Context())
		if err != nil {
			httpx.ServerError(c, err, gin.Mode() != gin.ReleaseMode)
			return
		}
		httpx.OK(c, banners)
	}
}

func AdminCreateHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req upsertRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		if req.Status == "" {
			req.Status = StatusActive
		}
		b := &Banner{
			ID:        uuid.NewString(),
			Title:     req.Title,
			Image:     req.Image,
			LinkType:  req.LinkType,
			LinkValue: req.LinkValue,
			Sort:      req.Sort,
			Status:    req.Status,
		}
		if err := repo.Create(c.Request.Context(), b); err != nil {
			httpx.ServerError(c, err, gin.Mode() != gin.ReleaseMode)
			return
		}
		httpx.Created(c, b)
	}
}

func AdminUpdateHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req upsertRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		if req.Status == "" {
			req.Status = StatusActive
		}
		b := &Banner{
			ID:        c.Param("id"),
			Title:     req.Title,
			Image:     req.Image,
			LinkType:  req.LinkType,
			LinkValue: req.LinkValue,
			Sort:      req.Sort,
			Status:    req.Status,
		}
		if err := repo.Update(c.Request.Context(), b); err != nil {
			if errors.Is(err, ErrNotFound) {
				httpx.NotFound(c, err.Error())
				return
			}
			httpx.ServerError(c, err, gin.Mode() != gin.ReleaseMode)
			return
		}
		httpx.OK(c, b)
	}
}

func AdminDeleteHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
			if errors.Is(err, ErrNotFound) {
				httpx.NotFound(c, err.Error())
				return
			}
			httpx.ServerError(c, err, gin.Mode() != gin.ReleaseMode)
			return
		}
		httpx.OK(c, nil)
	}
}
