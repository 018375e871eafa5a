package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"jobBoardBot/internal/domain/models"

	"github.com/jmoiron/sqlx"
)

// Дата начала подписки хранится текстом, как "2006-01-02"
const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db *sqlx.DB
}

func NewSQLiteRepository(db *sqlx.DB) *SQLiteRepository {
	return &SQLiteRepository{
		db: db,
	}
}

// InitSchema создает таблицы, если их еще нет. Повторный вызов безопасен.
func (r *SQLiteRepository) InitSchema(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
			telegram_id INTEGER PRIMARY KEY,
			role TEXT,
			employer_code TEXT UNIQUE,
			subscription_active INTEGER NOT NULL DEFAULT 0,
			subscription_start TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS vacancies (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			employer_code TEXT NOT NULL,
			city TEXT NOT NULL,
			description TEXT NOT NULL
		)`,
	}

	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}

	return nil
}

// accountRow — строка таблицы users до преобразования даты
type accountRow struct {
	TelegramID         int64   `db:"telegram_id"`
	Role               *string `db:"role"`
	EmployerCode       string  `db:"employer_code"`
	SubscriptionActive bool    `db:"subscription_active"`
	SubscriptionStart  *string `db:"subscription_start"`
}

func (row *accountRow) toModel() (*models.Account, error) {
	account := &models.Account{
		TelegramID:         row.TelegramID,
		Role:               row.Role,
		EmployerCode:       row.EmployerCode,
		SubscriptionActive: row.SubscriptionActive,
	}

	if row.SubscriptionStart != nil && *row.SubscriptionStart != "" {
		start, err := time.Parse(dateLayout, *row.SubscriptionStart)
		if err != nil {
			return nil, fmt.Errorf("invalid subscription_start %q: %w", *row.SubscriptionStart, err)
		}
		account.SubscriptionStart = &start
	}

	return account, nil
}

// GetAccount получает аккаунт по telegram_id
func (r *SQLiteRepository) GetAccount(ctx context.Context, telegramID int64) (*models.Account, error) {
	var row accountRow
	query := `SELECT telegram_id, role, employer_code, subscription_active, subscription_start FROM users WHERE telegram_id = ?`

	err := r.db.GetContext(ctx, &row, query, telegramID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return row.toModel()
}

// GetAccountByEmployerCode получает аккаунт по коду работодателя
func (r *SQLiteRepository) GetAccountByEmployerCode(ctx context.Context, code string) (*models.Account, error) {
	var row accountRow
	query := `SELECT telegram_id, role, employer_code, subscription_active, subscription_start FROM users WHERE employer_code = ?`

	err := r.db.GetContext(ctx, &row, query, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account by employer_code: %w", err)
	}

	return row.toModel()
}

// CreateAccount создает новый аккаунт
func (r *SQLiteRepository) CreateAccount(ctx context.Context, telegramID int64, role, employerCode string) (*models.Account, error) {
	query := `INSERT INTO users (telegram_id, role, employer_code, subscription_active) VALUES (?, ?, ?, 0)`

	if _, err := r.db.ExecContext(ctx, query, telegramID, role, employerCode); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return r.GetAccount(ctx, telegramID)
}

// ListAccounts возвращает все аккаунты
func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var rows []accountRow
	query := `SELECT telegram_id, role, employer_code, subscription_active, subscription_start FROM users ORDER BY telegram_id`

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	accounts := make([]models.Account, 0, len(rows))
	for i := range rows {
		account, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}

	return accounts, nil
}

// ActivateSubscription включает подписку с заданной датой начала
func (r *SQLiteRepository) ActivateSubscription(ctx context.Context, telegramID int64, start time.Time) error {
	query := `UPDATE users SET subscription_active = 1, subscription_start = ? WHERE telegram_id = ?`

	res, err := r.db.ExecContext(ctx, query, start.Format(dateLayout), telegramID)
	if err != nil {
		return fmt.Errorf("failed to activate subscription: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// DeactivateSubscription выключает подписку и очищает дату начала
func (r *SQLiteRepository) DeactivateSubscription(ctx context.Context, telegramID int64) error {
	query := `UPDATE users SET subscription_active = 0, subscription_start = NULL WHERE telegram_id = ?`

	res, err := r.db.ExecContext(ctx, query, telegramID)
	if err != nil {
		return fmt.Errorf("failed to deactivate subscription: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// DeleteAccount удаляет аккаунт вместе со всеми его вакансиями
func (r *SQLiteRepository) DeleteAccount(ctx context.Context, telegramID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM vacancies WHERE employer_code = (SELECT employer_code FROM users WHERE telegram_id = ?)`,
		telegramID,
	); err != nil {
		return fmt.Errorf("failed to delete vacancies: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE telegram_id = ?`, telegramID)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrAccountNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	return nil
}

// CreateVacancy создает вакансию и возвращает ее id
func (r *SQLiteRepository) CreateVacancy(ctx context.Context, employerCode, city, description string) (int64, error) {
	query := `INSERT INTO vacancies (employer_code, city, description) VALUES (?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query, employerCode, city, description)
	if err != nil {
		return 0, fmt.Errorf("failed to create vacancy: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get vacancy id: %w", err)
	}

	return id, nil
}

// VacanciesByEmployer возвращает вакансии конкретного работодателя
func (r *SQLiteRepository) VacanciesByEmployer(ctx context.Context, employerCode string) ([]models.Vacancy, error) {
	var vacancies []models.Vacancy
	query := `SELECT id, employer_code, city, description FROM vacancies WHERE employer_code = ? ORDER BY id`

	if err := r.db.SelectContext(ctx, &vacancies, query, employerCode); err != nil {
		return nil, fmt.Errorf("failed to get vacancies by employer: %w", err)
	}

	return vacancies, nil
}

// SearchVacanciesByCity ищет вакансии по подстроке города
func (r *SQLiteRepository) SearchVacanciesByCity(ctx context.Context, citySubstring string) ([]models.Vacancy, error) {
	var vacancies []models.Vacancy
	query := `SELECT id, employer_code, city, description FROM vacancies WHERE city LIKE ? ORDER BY id`

	if err := r.db.SelectContext(ctx, &vacancies, query, "%"+citySubstring+"%"); err != nil {
		return nil, fmt.Errorf("failed to search vacancies: %w", err)
	}

	return vacancies, nil
}

// AllVacancies возвращает все вакансии
func (r *SQLiteRepository) AllVacancies(ctx context.Context) ([]models.Vacancy, error) {
	var vacancies []models.Vacancy
	query := `SELECT id, employer_code, city, description FROM vacancies ORDER BY id`

	if err := r.db.SelectContext(ctx, &vacancies, query); err != nil {
		return nil, fmt.Errorf("failed to get all vacancies: %w", err)
	}

	return vacancies, nil
}

// UpdateVacancyDescription обновляет описание вакансии с проверкой владельца
func (r *SQLiteRepository) UpdateVacancyDescription(ctx context.Context, vacancyID int64, employerCode, description string) error {
	query := `UPDATE vacancies SET description = ? WHERE id = ? AND employer_code = ?`

	res, err := r.db.ExecContext(ctx, query, description, vacancyID, employerCode)
	if err != nil {
		return fmt.Errorf("failed to update vacancy: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrVacancyNotFound
	}

	return nil
}

// DeleteVacancy удаляет вакансию с проверкой владельца
func (r *SQLiteRepository) DeleteVacancy(ctx context.Context, vacancyID int64, employerCode string) error {
	query := `DELETE FROM vacancies WHERE id = ? AND employer_code = ?`

	res, err := r.db.ExecContext(ctx, query, vacancyID, employerCode)
	if err != nil {
		return fmt.Errorf("failed to delete vacancy: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrVacancyNotFound
	}

	return nil
}

// Raw выполняет произвольный SQL. Единственный вызывающий — обработчик
// команды /sql, доступной только администратору.
func (r *SQLiteRepository) Raw(ctx context.Context, query string) (*RawResult, error) {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(query)), "select") {
		rows, err := r.db.QueryxContext(ctx, query)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		columns, err := rows.Columns()
		if err != nil {
			return nil, err
		}

		result := &RawResult{Columns: columns}
		for rows.Next() {
			values, err := rows.SliceScan()
			if err != nil {
				return nil, err
			}

			row := make([]string, 0, len(values))
			for _, v := range values {
				if v == nil {
					row = append(row, "NULL")
					continue
				}
				if b, ok := v.([]byte); ok {
					row = append(row, string(b))
					continue
				}
				row = append(row, fmt.Sprintf("%v", v))
			}
			result.Rows = append(result.Rows, row)
		}

		if err := rows.Err(); err != nil {
			return nil, err
		}

		return result, nil
	}

	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return nil, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	return &RawResult{RowsAffected: affected}, nil
}
