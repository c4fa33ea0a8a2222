// Package ranking builds the top-10 product boards: hot, new, rating
// and favorite. Results are cached in Redis for a short window and the
// previous snapshot is kept around to compute trend arrows.
package ranking

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	BoardHot      = "hot"
	BoardNew      = "new"
	BoardRating   = "rating"
	BoardFavorite = "favorite"
)

var ErrUnknownBoard = errors.New("榜单类型不正确")

const boardSize = 10

type Entry struct {
	Rank      int    `json:"rank"`
	ProductID string `json:"productId"`
	Title     string `json:"title"`
	MainImage string `json:"mainImage"`
	Price     string `json:"price"`
	Score     string `json:"score"`
	// Trend compares with the previous snapshot: up, down, same or new.
	Trend string `json:"trend"`
}

type Repository interface {
	TopBy(ctx context.Context, board string) ([]Entry, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

var boardQueries = map[string]string{
	BoardHot: `
		SELECT id, title, main_image, price::text, sales::text
		FROM products WHERE status='ACTIVE'
		ORDER BY sales DESC, created_at DESC LIMIT 10`,
	BoardNew: `
		SELECT id, title, main_image, price::text, to_char(created_at, 'YYYY-MM-DD')
		FROM products WHERE status='ACTIVE'
		ORDER BY created_at DESC LIMIT 10`,
	BoardRating: `
		SELECT id, title, main_image, price::text, rating::text
		FROM products WHERE status='ACTIVE'
		ORDER BY rating DESC, sales DESC LIMIT 10`,
	BoardFavorite: `
		SELECT p.id, p.title, p.main_image, p.price::text, COUNT(f.id)::text
		FROM products p
		LEFT JOIN favorites f ON f.product_id = p.id
		WHERE p.status='ACTIVE'
		GROUP BY p.id
		ORDER BY COUNT(f.id) DESC, p.sales DESC LIMIT 10`,
}

func (r *PGRepo) TopBy(ctx context.Context, board string) ([]Entry, error) {
	q, ok := boardQueries[board]
	if !ok {
		return nil, ErrUnknownBoard
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ProductID, &e.Title, &e.MainImage, &e.Price, &e.Score); err != nil {
			return nil, err
		}
		e.Rank = len(out) + 1
		out = append(out, e)
	}
	return out, rows.Err()
}

type Service struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
}

func NewService(repo Repository, cache Cache) *Service {
	if cache == nil {
		cache = NoopCache{}
	}
	return &Service{repo: repo, cache: cache, ttl: 5 * time.Minute}
}

// Board returns the ranked board, served from cache when fresh.
func (s *Service) Board(ctx context.Context, board string) ([]Entry, error) {
	if _, ok := boardQueries[board]; !ok {
		return nil, ErrUnknownBoard
	}

	if entries, ok := s.cache.Get(ctx, board); ok {
		return entries, nil
	}

	entries, err := s.repo.TopBy(ctx, board)
	if err != nil {
		return nil, err
	}
	s.applyTrend(ctx, board, entries)
	s.cache.Set(ctx, board, entries, s.ttl)
	if len(entries) == 0 {
		entries = []Entry{}
	}
	return entries, nil
}

// applyTrend marks each entry against the previous snapshot, then
// stores the current one as the next baseline.
func (s *Service) applyTrend(ctx context.Context, board string, entries []Entry) {
	prev, ok := s.cache.GetSnapshot(ctx, board)
	prevRank := map[string]int{}
	if ok {
		for _, e := range prev {
			prevRank[e.ProductID] = e.Rank
		}
	}
	for i := range entries {
		old, seen := prevRank[entries[i].ProductID]
		switch {
		case !ok:
			entries[i].Trend = "same"
		case !seen:
			entries[i].Trend = "new"
		case entries[i].Rank < old:
			entries[i].Trend = "up"
		case entries[i].Rank > old:
			entries[i].Trend = "down"
		default:
			entries[i].Trend = "same"
		}
	}
	s.cache.SetSnapshot(ctx, board, entries)
}
