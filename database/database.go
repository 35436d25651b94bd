package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"bakery-service/config"
)

var DB *sql.DB

func InitDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("open mysql: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping mysql: %w", err)
	}

	DB = db
	return ensureSchema(db)
}

func CloseDB() {
	if DB != nil {
		_ = DB.Close()
	}
}

// ensureSchema creates missing tables. Statements are idempotent so the
// service can start against a fresh database.
func ensureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id INT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			price DECIMAL(10,2) NOT NULL,
			quantity INT NOT NULL DEFAULT 0,
			low_stock_alert INT NOT NULL DEFAULT 5,
			in_stock BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id INT AUTO_INCREMENT PRIMARY KEY,
			order_number VARCHAR(32) NOT NULL UNIQUE,
			user_id INT NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
			subtotal DECIMAL(10,2) NOT NULL,
			delivery_fee DECIMAL(10,2) NOT NULL DEFAULT 0,
			tax DECIMAL(10,2) NOT NULL DEFAULT 0,
			discount DECIMAL(10,2) NOT NULL DEFAULT 0,
			total DECIMAL(10,2) NOT NULL,
			coupon_id INT NULL,
			points_redeemed INT NOT NULL DEFAULT 0,
			points_earned INT NOT NULL DEFAULT 0,
			delivery_partner_id INT NULL,
			agent_lat DOUBLE NULL,
			agent_lng DOUBLE NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			INDEX idx_orders_user (user_id),
			INDEX idx_orders_status (status)
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id INT AUTO_INCREMENT PRIMARY KEY,
			order_id INT NOT NULL,
			product_id INT NOT NULL,
			product_name VARCHAR(255) NOT NULL,
			quantity INT NOT NULL,
			price DECIMAL(10,2) NOT NULL,
			INDEX idx_order_items_order (order_id)
		)`,
		`CREATE TABLE IF NOT EXISTS order_addresses (
			id INT AUTO_INCREMENT PRIMARY KEY,
			order_id INT NOT NULL UNIQUE,
			name VARCHAR(255) NOT NULL,
			phone VARCHAR(32) NOT NULL,
			street VARCHAR(255) NOT NULL,
			city VARCHAR(128) NOT NULL,
			postal_code VARCHAR(16) NOT NULL,
			customer_lat DOUBLE NULL,
			customer_lng DOUBLE NULL,
			location_source VARCHAR(16) NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS order_status_history (
			id INT AUTO_INCREMENT PRIMARY KEY,
			order_id INT NOT NULL,
			status VARCHAR(20) NOT NULL,
			note VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_status_history_order (order_id)
		)`,
		`CREATE TABLE IF NOT EXISTS coupons (
			id INT AUTO_INCREMENT PRIMARY KEY,
			code VARCHAR(64) NOT NULL UNIQUE,
			discount_type VARCHAR(16) NOT NULL,
			value DECIMAL(10,2) NOT NULL,
			max_discount DECIMAL(10,2) NULL,
			min_order_amount DECIMAL(10,2) NOT NULL DEFAULT 0,
			usage_limit INT NULL,
			used_count INT NOT NULL DEFAULT 0,
			first_time_only BOOLEAN NOT NULL DEFAULT FALSE,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			valid_from TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			valid_to TIMESTAMP NULL
		)`,
		`CREATE TABLE IF NOT EXISTS loyalty_accounts (
			user_id INT PRIMARY KEY,
			points INT NOT NULL DEFAULT 0,
			tier VARCHAR(16) NOT NULL DEFAULT 'BRONZE',
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS points_transactions (
			id INT AUTO_INCREMENT PRIMARY KEY,
			user_id INT NOT NULL,
			points INT NOT NULL,
			type VARCHAR(16) NOT NULL,
			order_id INT NULL,
			description VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_points_user (user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS admin_notifications (
			id INT AUTO_INCREMENT PRIMARY KEY,
			type VARCHAR(16) NOT NULL,
			product_id INT NOT NULL,
			message VARCHAR(255) NOT NULL DEFAULT '',
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_notifications_product (product_id, type, is_read)
		)`,
		`CREATE TABLE IF NOT EXISTS delivery_partners (
			id INT AUTO_INCREMENT PRIMARY KEY,
			user_id INT NOT NULL UNIQUE,
			name VARCHAR(255) NOT NULL,
			total_deliveries INT NOT NULL DEFAULT 0
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
