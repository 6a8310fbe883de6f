package db

import (
	"database/sql"
	"fmt"
	"log"

	"veestributes/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// CloseDB closes the database connection.
func CloseDB() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// InitDB initializes the database schema, creating tables if they
// don't exist. Platforms and distribution attempts are migrated
// separately through GORM.
func InitDB() error {
	if err := createUsersTable(); err != nil {
		return err
	}
	if err := createReleasesTable(); err != nil {
		return err
	}
	if err := createFilesTable(); err != nil {
		return err
	}

	log.Println("Database initialization completed.")
	return nil
}

func createUsersTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		name VARCHAR(100) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		phone VARCHAR(20),
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

func createReleasesTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS releases (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NOT NULL,
		title VARCHAR(255) NOT NULL,
		artist VARCHAR(255),
		album VARCHAR(255),
		genre VARCHAR(100),
		description TEXT,
		release_date DATE,
		status VARCHAR(20) NOT NULL DEFAULT 'draft',
		distributed_at TIMESTAMP NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_user_releases FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create releases table: %w", err)
	}
	return nil
}

func createFilesTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS files (
		id INT AUTO_INCREMENT PRIMARY KEY,
		release_id INT NOT NULL,
		filename VARCHAR(255) NOT NULL,
		original_filename VARCHAR(255),
		file_type VARCHAR(20) NOT NULL,
		file_size BIGINT NOT NULL DEFAULT 0,
		mime_type VARCHAR(100),
		file_path VARCHAR(767) NOT NULL,
		url_path VARCHAR(767),
		duration INT,
		bitrate INT,
		sample_rate INT,
		channels INT,
		width INT,
		height INT,
		processing_status VARCHAR(20) NOT NULL DEFAULT 'pending',
		processing_error TEXT,
		uploaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		processed_at TIMESTAMP NULL,
		CONSTRAINT fk_release_files FOREIGN KEY (release_id) REFERENCES releases(id) ON DELETE CASCADE,
		CONSTRAINT uq_release_filename UNIQUE (release_id, filename)
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create files table: %w", err)
	}
	return nil
}
