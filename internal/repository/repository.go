package repository

import (
	"context"
	"errors"
	"time"

	"jobBoardBot/internal/domain/models"
)

var (
	// ErrAccountNotFound — аккаунт с таким идентификатором отсутствует
	ErrAccountNotFound = errors.New("account not found")

	// ErrVacancyNotFound — вакансия отсутствует либо принадлежит другому
	// работодателю. Различие намеренно не раскрывается.
	ErrVacancyNotFound = errors.New("vacancy not found or not owned")
)

// RawResult — результат привилегированного сырого запроса администратора
type RawResult struct {
	Columns      []string
	Rows         [][]string
	RowsAffected int64
}

// Repository интерфейс для работы с базой данных
type Repository interface {
	// Account methods
	GetAccount(ctx context.Context, telegramID int64) (*models.Account, error)
	GetAccountByEmployerCode(ctx context.Context, code string) (*models.Account, error)
	CreateAccount(ctx context.Context, telegramID int64, role, employerCode string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	ActivateSubscription(ctx context.Context, telegramID int64, start time.Time) error
	DeactivateSubscription(ctx context.Context, telegramID int64) error
	DeleteAccount(ctx context.Context, telegramID int64) error

	// Vacancy methods
	CreateVacancy(ctx context.Context, employerCode, city, description string) (int64, error)
	VacanciesByEmployer(ctx context.Context, employerCode string) ([]models.Vacancy, error)
	SearchVacanciesByCity(ctx context.Context, citySubstring string) ([]models.Vacancy, error)
	AllVacancies(ctx context.Context) ([]models.Vacancy, error)
	UpdateVacancyDescription(ctx context.Context, vacancyID int64, employerCode, description string) error
	DeleteVacancy(ctx context.Context, vacancyID int64, employerCode string) error

	// Raw выполняет произвольный SQL от имени администратора
	Raw(ctx context.Context, query string) (*RawResult, error)
}
