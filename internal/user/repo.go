package user

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound        = errors.New("用户不存在")
	ErrAddressNotFound = errors.New("地址不存在")
)

type Repository interface {
	GetByPhone(ctx context.Context, phone string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, u *User) error
	UpdateProfile(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, userID, hash string) error
	FollowCounts(ctx context.Context, userID string) (followers, following int, err error)

	Addresses(ctx context.Context, userID string) ([]Address, error)
	GetAddress(ctx context.Context, userID, addressID string) (*Address, error)
	CreateAddress(ctx context.Context, a *Address) error
	UpdateAddress(ctx context.Context, a *Address) error
	DeleteAddress(ctx context.Context, userID, addressID string) error
	CountAddresses(ctx context.Context, userID string) (int, error)
	SetDefaultAddress(ctx context.Context, userID, addressID string) error

	HasFavorite(ctx context.Context, userID, productID string) (bool, error)
	AddFavorite(ctx context.Context, id, userID, productID string) error
	RemoveFavorite(ctx context.Context, userID, productID string) (bool, error)
	Favorites(ctx context.Context, userID string, page, pageSize int) ([]FavoriteItem, int, error)

	History(ctx context.Context, userID string, page, pageSize int) ([]HistoryItem, int, error)
	ClearHistory(ctx context.Context, userID string) error

	IsFollowing(ctx context.Context, followerID, followedID string) (bool, error)
	Follow(ctx context.Context, id, followerID, followedID string) error
	Unfollow(ctx context.Context, followerID, followedID string) (bool, error)
	Followers(ctx context.Context, userID string, page, pageSize int) ([]FollowUser, int, error)
	Following(ctx context.Context, userID string, page, pageSize int) ([]FollowUser, int, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const userCols = `id, phone, password, nickname, COALESCE(avatar,''), COALESCE(gender,''),
		birthday, COALESCE(bio,''), status, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }, u *User) error {
	return row.Scan(&u.ID, &u.Phone, &u.Password, &u.Nickname, &u.Avatar, &u.Gender,
		&u.Birthday, &u.Bio, &u.Status, &u.CreatedAt, &u.UpdatedAt)
}

func (r *PGRepo) GetByPhone(ctx context.Context, phone string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var u User
	row := r.db.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE phone=$1`, phone)
	if err := scanUser(row, &u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var u User
	row := r.db.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id)
	if err := scanUser(row, &u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *PGRepo) Create(ctx context.Context, u *User) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, phone, password, nickname, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,NOW(),NOW())
	`, u.ID, u.Phone, u.Password, u.Nickname, u.Status)
	return err
}

func (r *PGRepo) UpdateProfile(ctx context.Context, u *User) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE users SET nickname=$2, avatar=$3, gender=$4, birthday=$5, bio=$6, updated_at=NOW()
		WHERE id=$1
	`, u.ID, u.Nickname, u.Avatar, u.Gender, u.Birthday, u.Bio)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) UpdatePassword(ctx context.Context, userID, hash string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE users SET password=$2, updated_at=NOW() WHERE id=$1
	`, userID, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) FollowCounts(ctx context.Context, userID string) (int, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var followers, following int
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM follows WHERE followed_id=$1),
			(SELECT COUNT(*) FROM follows WHERE follower_id=$1)
	`, userID).Scan(&followers, &following)
	return followers, following, err
}

func (r *PGRepo) Addresses(ctx context.Context, userID string) ([]Address, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, receiver_name, receiver_phone, province, city, district,
		       detail_address, is_default, created_at
		FROM addresses WHERE user_id=$1
		ORDER BY is_default DESC, created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Address
	for rows.Next() {
		var a Address
		if err := rows.Scan(&a.ID, &a.UserID, &a.ReceiverName, &a.ReceiverPhone,
			&a.Province, &a.City, &a.District, &a.DetailAddress, &a.IsDefault, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PGRepo) GetAddress(ctx context.Context, userID, addressID string) (*Address, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var a Address
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, receiver_name, receiver_phone, province, city, district,
		       detail_address, is_default, created_at
		FROM addresses WHERE id=$1 AND user_id=$2
	`, addressID, userID).Scan(&a.ID, &a.UserID, &a.ReceiverName, &a.ReceiverPhone,
		&a.Province, &a.City, &a.District, &a.DetailAddress, &a.IsDefault, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAddressNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAddress inserts the row; when it is flagged default it clears
// the flag on the user's other addresses in the same transaction.
func (r *PGRepo) CreateAddress(ctx context.Context, a *Address) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if a.IsDefault {
		if _, err := tx.Exec(ctx, `
			UPDATE addresses SET is_default=FALSE WHERE user_id=$1
		`, a.UserID); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO addresses (id, user_id, receiver_name, receiver_phone, province, city,
			district, detail_address, is_default, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW())
	`, a.ID, a.UserID, a.ReceiverName, a.ReceiverPhone, a.Province, a.City,
		a.District, a.DetailAddress, a.IsDefault); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) UpdateAddress(ctx context.Context, a *Address) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if a.IsDefault {
		if _, err := tx.Exec(ctx, `
			UPDATE addresses SET is_default=FALSE WHERE user_id=$1 AND id <> $2
		`, a.UserID, a.ID); err != nil {
			return err
		}
	}
	tag, err := tx.Exec(ctx, `
		UPDATE addresses SET receiver_name=$3, receiver_phone=$4, province=$5, city=$6,
			district=$7, detail_address=$8, is_default=$9
		WHERE id=$1 AND user_id=$2
	`, a.ID, a.UserID, a.ReceiverName, a.ReceiverPhone, a.Province, a.City,
		a.District, a.DetailAddress, a.IsDefault)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAddressNotFound
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) DeleteAddress(ctx context.Context, userID, addressID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		DELETE FROM addresses WHERE id=$1 AND user_id=$2
	`, addressID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAddressNotFound
	}
	return nil
}

func (r *PGRepo) CountAddresses(ctx context.Context, userID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM addresses WHERE user_id=$1`, userID).Scan(&n)
	return n, err
}

func (r *PGRepo) SetDefaultAddress(ctx context.Context, userID, addressID string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		UPDATE addresses SET is_default=FALSE WHERE user_id=$1
	`, userID); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE addresses SET is_default=TRUE WHERE id=$1 AND user_id=$2
	`, addressID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAddressNotFound
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) HasFavorite(ctx context.Context, userID, productID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM favorites WHERE user_id=$1 AND product_id=$2
	`, userID, productID).Scan(&n)
	return n > 0, err
}

func (r *PGRepo) AddFavorite(ctx context.Context, id, userID, productID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO favorites (id, user_id, product_id, created_at) VALUES ($1,$2,$3,NOW())
	`, id, userID, productID)
	return err
}

func (r *PGRepo) RemoveFavorite(ctx context.Context, userID, productID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		DELETE FROM favorites WHERE user_id=$1 AND product_id=$2
	`, userID, productID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PGRepo) Favorites(ctx context.Context, userID string, page, pageSize int) ([]FavoriteItem, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var total int
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM favorites WHERE user_id=$1
	`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT f.id, p.id, p.title, p.main_image, p.price::text, p.status, f.created_at
		FROM favorites f
		JOIN products p ON p.id = f.product_id
		WHERE f.user_id=$1
		ORDER BY f.created_at DESC LIMIT $2 OFFSET $3
	`, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []FavoriteItem
	for rows.Next() {
		var it FavoriteItem
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Title, &it.MainImage,
			&it.Price, &it.Status, &it.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, it)
	}
	return out, total, rows.Err()
}

func (r *PGRepo) History(ctx context.Context, userID string, page, pageSize int) ([]HistoryItem, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var total int
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM browse_history WHERE user_id=$1
	`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT h.id, p.id, p.title, p.main_image, p.price::text, p.status, h.created_at
		FROM browse_history h
		JOIN products p ON p.id = h.product_id
		WHERE h.user_id=$1
		ORDER BY h.created_at DESC LIMIT $2 OFFSET $3
	`, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []HistoryItem
	for rows.Next() {
		var it HistoryItem
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Title, &it.MainImage,
			&it.Price, &it.Status, &it.ViewedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, it)
	}
	return out, total, rows.Err()
}

func (r *PGRepo) ClearHistory(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `DELETE FROM browse_history WHERE user_id=$1`, userID)
	return err
}

func (r *PGRepo) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM follows WHERE follower_id=$1 AND followed_id=$2
	`, followerID, followedID).Scan(&n)
	return n > 0, err
}

func (r *PGRepo) Follow(ctx context.Context, id, followerID, followedID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO follows (id, follower_id, followed_id, created_at) VALUES ($1,$2,$3,NOW())
	`, id, followerID, followedID)
	return err
}

func (r *PGRepo) Unfollow(ctx context.Context, followerID, followedID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		DELETE FROM follows WHERE follower_id=$1 AND followed_id=$2
	`, followerID, followedID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PGRepo) followList(ctx context.Context, matchCol, otherCol, userID string, page, pageSize int) ([]FollowUser, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM follows WHERE `+matchCol+`=$1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT u.id, u.nickname, COALESCE(u.avatar,''), COALESCE(u.bio,'')
		FROM follows f
		JOIN users u ON u.id = f.`+otherCol+`
		WHERE f.`+matchCol+`=$1
		ORDER BY f.created_at DESC LIMIT $2 OFFSET $3
	`, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []FollowUser
	for rows.Next() {
		var fu FollowUser
		if err := rows.Scan(&fu.ID, &fu.Nickname, &fu.Avatar, &fu.Bio); err != nil {
			return nil, 0, err
		}
		out = append(out, fu)
	}
	return out, total, rows.Err()
}

func (r *PGRepo) Followers(ctx context.Context, userID string, page, pageSize int) ([]FollowUser, int, error) {
	return r.followList(ctx, "followed_id", "follower_id", userID, page, pageSize)
}

func (r *PGRepo) Following(ctx context.Context, userID string, page, pageSize int) ([]FollowUser, int, error) {
	return r.followList(ctx, "follower_id", "followed_id", userID, page, pageSize)
}
