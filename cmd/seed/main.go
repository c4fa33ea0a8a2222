// Command seed creates the database schema and loads development data.
// It is destructive only for missing tables; existing rows are kept
// unless -fresh is passed.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minimall/minimall/internal/auth"
	"github.com/minimall/minimall/internal/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	phone VARCHAR(20) NOT NULL UNIQUE,
	password TEXT NOT NULL,
	nickname VARCHAR(50) NOT NULL,
	avatar TEXT,
	gender VARCHAR(10),
	birthday TIMESTAMPTZ,
	bio TEXT,
	status VARCHAR(20) NOT NULL DEFAULT 'ACTIVE',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS admins (
	id UUID PRIMARY KEY,
	username VARCHAR(50) NOT NULL UNIQUE,
	password TEXT NOT NULL,
	nickname VARCHAR(50),
	role VARCHAR(20) NOT NULL DEFAULT 'ADMIN',
	status VARCHAR(20) NOT NULL DEFAULT 'ACTIVE',
	last_login_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS addresses (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	receiver_name VARCHAR(50) NOT NULL,
	receiver_phone VARCHAR(20) NOT NULL,
	province VARCHAR(50) NOT NULL,
	city VARCHAR(50) NOT NULL,
	district VARCHAR(50) NOT NULL,
	detail_address TEXT NOT NULL,
	is_default BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS categories (
	id UUID PRIMARY KEY,
	parent_id UUID REFERENCES categories(id),
	name VARCHAR(50) NOT NULL,
	icon TEXT,
	sort INT NOT NULL DEFAULT 0,
	status VARCHAR(20) NOT NULL DEFAULT 'ACTIVE'
);

CREATE TABLE IF NOT EXISTS products (
	id UUID PRIMARY KEY,
	category_id UUID REFERENCES categories(id),
	title VARCHAR(200) NOT NULL,
	description TEXT,
	main_image TEXT NOT NULL,
	price NUMERIC(10,2) NOT NULL,
	original_price NUMERIC(10,2) NOT NULL DEFAULT 0,
	stock INT NOT NULL DEFAULT 0 CHECK (stock >= 0),
	sales INT NOT NULL DEFAULT 0,
	views INT NOT NULL DEFAULT 0,
	rating NUMERIC(3,1) NOT NULL DEFAULT 5.0,
	tags VARCHAR(200),
	status VARCHAR(20) NOT NULL DEFAULT 'ACTIVE',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS skus (
	id UUID PRIMARY KEY,
	product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	specs VARCHAR(200) NOT NULL,
	price NUMERIC(10,2) NOT NULL,
	stock INT NOT NULL DEFAULT 0,
	image TEXT
);

CREATE TABLE IF NOT EXISTS cart_items (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	quantity INT NOT NULL CHECK (quantity > 0),
	selected BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (user_id, product_id)
);

CREATE TABLE IF NOT EXISTS coupons (
	id UUID PRIMARY KEY,
	name VARCHAR(100) NOT NULL,
	type VARCHAR(20) NOT NULL DEFAULT 'FIXED',
	discount_amount NUMERIC(10,2) NOT NULL,
	min_amount NUMERIC(10,2) NOT NULL DEFAULT 0,
	total_count INT NOT NULL,
	received_count INT NOT NULL DEFAULT 0 CHECK (received_count <= total_count),
	start_time TIMESTAMPTZ NOT NULL,
	end_time TIMESTAMPTZ NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'ACTIVE',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS user_coupons (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	coupon_id UUID NOT NULL REFERENCES coupons(id) ON DELETE CASCADE,
	status VARCHAR(20) NOT NULL DEFAULT 'UNUSED',
	used_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS orders (
	id UUID PRIMARY KEY,
	order_no VARCHAR(40) NOT NULL UNIQUE,
	user_id UUID NOT NULL REFERENCES users(id),
	address_id UUID NOT NULL REFERENCES addresses(id),
	total_amount NUMERIC(10,2) NOT NULL,
	discount_amount NUMERIC(10,2) NOT NULL DEFAULT 0,
	shipping_fee NUMERIC(10,2) NOT NULL DEFAULT 0,
	actual_amount NUMERIC(10,2) NOT NULL,
	status VARCHAR(30) NOT NULL DEFAULT 'PENDING_PAYMENT',
	payment_method VARCHAR(30),
	payment_time TIMESTAMPTZ,
	shipping_no VARCHAR(60),
	shipping_method VARCHAR(60),
	shipping_time TIMESTAMPTZ,
	confirm_time TIMESTAMPTZ,
	close_time TIMESTAMPTZ,
	close_reason VARCHAR(100),
	buyer_message VARCHAR(500),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders (user_id, status);

CREATE TABLE IF NOT EXISTS order_items (
	id UUID PRIMARY KEY,
	order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	product_id UUID NOT NULL,
	product_title VARCHAR(200) NOT NULL,
	product_image TEXT NOT NULL,
	price NUMERIC(10,2) NOT NULL,
	quantity INT NOT NULL,
	total_amount NUMERIC(10,2) NOT NULL
);

CREATE TABLE IF NOT EXISTS refunds (
	id UUID PRIMARY KEY,
	refund_no VARCHAR(40) NOT NULL UNIQUE,
	order_id UUID NOT NULL UNIQUE REFERENCES orders(id),
	user_id UUID NOT NULL REFERENCES users(id),
	refund_amount NUMERIC(10,2) NOT NULL,
	refund_reason VARCHAR(500) NOT NULL,
	refund_type VARCHAR(30) NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
	reject_reason VARCHAR(500),
	process_time TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS favorites (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (user_id, product_id)
);

CREATE TABLE IF NOT EXISTS browse_history (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS follows (
	id UUID PRIMARY KEY,
	follower_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	followed_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (follower_id, followed_id)
);

CREATE TABLE IF NOT EXISTS posts (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	content TEXT NOT NULL,
	images TEXT[] NOT NULL DEFAULT '{}',
	status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
	like_count INT NOT NULL DEFAULT 0,
	comment_count INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS post_likes (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (user_id, post_id)
);

CREATE TABLE IF NOT EXISTS post_comments (
	id UUID PRIMARY KEY,
	post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	parent_id UUID REFERENCES post_comments(id) ON DELETE CASCADE,
	content VARCHAR(500) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS banners (
	id UUID PRIMARY KEY,
	title VARCHAR(100) NOT NULL,
	image TEXT NOT NULL,
	link_type VARCHAR(20),
	link_value TEXT,
	sort INT NOT NULL DEFAULT 0,
	status VARCHAR(20) NOT NULL DEFAULT 'ACTIVE',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

var dropOrder = []string{
	"post_comments", "post_likes", "posts", "follows", "browse_history",
	"favorites", "refunds", "order_items", "orders", "user_coupons",
	"coupons", "cart_items", "skus", "products", "categories",
	"addresses", "banners", "admins", "users",
}

func main() {
	fresh := flag.Bool("fresh", false, "drop all tables before seeding")
	flag.Parse()

	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("[seed] postgres: %v", err)
	}
	defer pool.Close()

	if *fresh {
		for _, table := range dropOrder {
			if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
				log.Fatalf("[seed] drop %s: %v", table, err)
			}
		}
		log.Println("[seed] dropped existing tables")
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Fatalf("[seed] schema: %v", err)
	}
	log.Println("[seed] schema ready")

	if err := seedData(ctx, pool); err != nil {
		log.Fatalf("[seed] data: %v", err)
	}
	log.Println("[seed] done")
}

func seedData(ctx context.Context, pool *pgxpool.Pool) error {
	var n int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM admins").Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		log.Println("[seed] data already present, skipping")
		return nil
	}

	adminHash, err := auth.HashPassword("admin123")
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, `
		INSERT INTO admins (id, username, password, nickname, role)
		VALUES ($1, 'admin', $2, '超级管理员', 'SUPER_ADMIN')
	`, uuid.NewString(), adminHash); err != nil {
		return err
	}

	userHash, err := auth.HashPassword("123456")
	if err != nil {
		return err
	}
	demoUser := uuid.NewString()
	if _, err := pool.Exec(ctx, `
		INSERT INTO users (id, phone, password, nickname)
		VALUES ($1, '13800138000', $2, '测试用户')
	`, demoUser, userHash); err != nil {
		return err
	}

	catDigital := uuid.NewString()
	catClothes := uuid.NewString()
	if _, err := pool.Exec(ctx, `
		INSERT INTO categories (id, name, icon, sort) VALUES
		($1, '数码电器', 'icon-digital', 1),
		($2, '服饰鞋包', 'icon-clothes', 2)
	`, catDigital, catClothes); err != nil {
		return err
	}

	products := []struct {
		category, title, price, original string
		stock                            int
	}{
		{catDigital, "无线蓝牙耳机 Pro", "299.00", "399.00", 500},
		{catDigital, "智能手表 S2", "899.00", "899.00", 200},
		{catDigital, "便携充电宝 20000mAh", "129.00", "159.00", 1000},
		{catClothes, "纯棉基础白T恤", "59.00", "79.00", 800},
		{catClothes, "轻量跑步鞋", "349.00", "349.00", 300},
	}
	for _, p := range products {
		if _, err := pool.Exec(ctx, `
			INSERT INTO products (id, category_id, title, main_image, price, original_price, stock)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, uuid.NewString(), p.category, p.title,
			"https://cdn.example.com/placeholder.png", p.price, p.original, p.stock); err != nil {
			return err
		}
	}

	if _, err := pool.Exec(ctx, `
		INSERT INTO coupons (id, name, discount_amount, min_amount, total_count, start_time, end_time)
		VALUES ($1, '新人立减券', 20.00, 100.00, 1000, NOW(), NOW() + INTERVAL '30 days')
	`, uuid.NewString()); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
		INSERT INTO banners (id, title, image, link_type, sort)
		VALUES ($1, '开学季大促', 'https://cdn.example.com/banner1.png', 'NONE', 1)
	`, uuid.NewString()); err != nil {
		return err
	}
	return nil
}
