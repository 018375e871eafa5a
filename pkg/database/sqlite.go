package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

type SQLiteConfig struct {
	Path                string
	SearchCaseSensitive bool
}

// NewSQLiteConnection открывает (или создает) файл базы данных
func NewSQLiteConnection(cfg SQLiteConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Файловый движок сериализует писателей сам, пул не нужен
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if cfg.SearchCaseSensitive {
		if _, err := db.Exec("PRAGMA case_sensitive_like = ON"); err != nil {
			return nil, fmt.Errorf("failed to set case_sensitive_like: %w", err)
		}
	}

	return db, nil
}
