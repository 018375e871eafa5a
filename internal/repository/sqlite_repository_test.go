package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"jobBoardBot/pkg/database"
)

func newTestRepo(t *testing.T, caseSensitive bool) *SQLiteRepository {
	t.Helper()

	db, err := database.NewSQLiteConnection(database.SQLiteConfig{
		Path:                filepath.Join(t.TempDir(), "test.db"),
		SearchCaseSensitive: caseSensitive,
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := NewSQLiteRepository(db)
	if err := repo.InitSchema(context.Background()); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}

	return repo
}

func TestInitSchemaIdempotent(t *testing.T) {
	repo := newTestRepo(t, false)

	// Повторная инициализация не должна падать
	if err := repo.InitSchema(context.Background()); err != nil {
		t.Errorf("second InitSchema returned error: %v", err)
	}

	if _, err := repo.CreateAccount(context.Background(), 1, "employer", "EMP1"); err != nil {
		t.Errorf("account creation after double init failed: %v", err)
	}
}

func TestCreateAndGetAccount(t *testing.T) {
	repo := newTestRepo(t, false)
	ctx := context.Background()

	account, err := repo.GetAccount(ctx, 42)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if account != nil {
		t.Fatal("expected nil for missing account")
	}

	created, err := repo.CreateAccount(ctx, 42, "employer", "EMP42")
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	if created.EmployerCode != "EMP42" {
		t.Errorf("expected employer_code EMP42, got %s", created.EmployerCode)
	}
	if created.SubscriptionActive {
		t.Error("new account must not have an active subscription")
	}
	if created.SubscriptionStart != nil {
		t.Error("new account must not have a subscription start date")
	}

	byCode, err := repo.GetAccountByEmployerCode(ctx, "EMP42")
	if err != nil {
		t.Fatalf("GetAccountByEmployerCode failed: %v", err)
	}
	if byCode == nil || byCode.TelegramID != 42 {
		t.Error("lookup by employer_code returned wrong account")
	}
}

func TestSubscriptionRoundTrip(t *testing.T) {
	repo := newTestRepo(t, false)
	ctx := context.Background()

	if _, err := repo.CreateAccount(ctx, 7, "employer", "EMP7"); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	if err := repo.ActivateSubscription(ctx, 7, start); err != nil {
		t.Fatalf("ActivateSubscription failed: %v", err)
	}

	account, err := repo.GetAccount(ctx, 7)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if !account.SubscriptionActive {
		t.Error("subscription must be active")
	}
	if account.SubscriptionStart == nil || !account.SubscriptionStart.Equal(start) {
		t.Errorf("expected start %v, got %v", start, account.SubscriptionStart)
	}

	if err := repo.DeactivateSubscription(ctx, 7); err != nil {
		t.Fatalf("DeactivateSubscription failed: %v", err)
	}

	account, err = repo.GetAccount(ctx, 7)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if account.SubscriptionActive {
		t.Error("subscription must be inactive")
	}
	if account.SubscriptionStart != nil {
		t.Error("subscription start must be cleared")
	}

	if err := repo.ActivateSubscription(ctx, 999, start); err != ErrAccountNotFound {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestOwnershipIsolation(t *testing.T) {
	repo := newTestRepo(t, false)
	ctx := context.Background()

	if _, err := repo.CreateAccount(ctx, 1, "employer", "EMP1"); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	if _, err := repo.CreateAccount(ctx, 2, "employer", "EMP2"); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	id, err := repo.CreateVacancy(ctx, "EMP2", "Москва", "Повар в кафе")
	if err != nil {
		t.Fatalf("CreateVacancy failed: %v", err)
	}

	// Чужая вакансия неотличима от несуществующей
	if err := repo.DeleteVacancy(ctx, id, "EMP1"); err != ErrVacancyNotFound {
		t.Errorf("delete of foreign vacancy: expected ErrVacancyNotFound, got %v", err)
	}
	if err := repo.UpdateVacancyDescription(ctx, id, "EMP1", "hacked"); err != ErrVacancyNotFound {
		t.Errorf("update of foreign vacancy: expected ErrVacancyNotFound, got %v", err)
	}

	vacancies, err := repo.VacanciesByEmployer(ctx, "EMP2")
	if err != nil {
		t.Fatalf("VacanciesByEmployer failed: %v", err)
	}
	if len(vacancies) != 1 || vacancies[0].Description != "Повар в кафе" {
		t.Error("foreign vacancy must remain unmodified")
	}

	// Владелец проходит
	if err := repo.UpdateVacancyDescription(ctx, id, "EMP2", "Повар-сушист"); err != nil {
		t.Errorf("owner update failed: %v", err)
	}
	if err := repo.DeleteVacancy(ctx, id, "EMP2"); err != nil {
		t.Errorf("owner delete failed: %v", err)
	}
}

func TestSearchSubstring(t *testing.T) {
	repo := newTestRepo(t, false)
	ctx := context.Background()

	if _, err := repo.CreateVacancy(ctx, "EMP1", "New York", "Cook needed"); err != nil {
		t.Fatalf("CreateVacancy failed: %v", err)
	}
	if _, err := repo.CreateVacancy(ctx, "EMP1", "York", "Waiter needed"); err != nil {
		t.Fatalf("CreateVacancy failed: %v", err)
	}
	if _, err := repo.CreateVacancy(ctx, "EMP1", "Berlin", "Driver needed"); err != nil {
		t.Fatalf("CreateVacancy failed: %v", err)
	}

	found, err := repo.SearchVacanciesByCity(ctx, "York")
	if err != nil {
		t.Fatalf("SearchVacanciesByCity failed: %v", err)
	}
	if len(found) != 2 {
		t.Errorf("expected 2 matches for York, got %d", len(found))
	}

	// Регистронезависимый режим по умолчанию
	found, err = repo.SearchVacanciesByCity(ctx, "york")
	if err != nil {
		t.Fatalf("SearchVacanciesByCity failed: %v", err)
	}
	if len(found) != 2 {
		t.Errorf("case-insensitive search: expected 2 matches, got %d", len(found))
	}
}

func TestSearchCaseSensitive(t *testing.T) {
	repo := newTestRepo(t, true)
	ctx := context.Background()

	if _, err := repo.CreateVacancy(ctx, "EMP1", "New York", "Cook needed"); err != nil {
		t.Fatalf("CreateVacancy failed: %v", err)
	}

	found, err := repo.SearchVacanciesByCity(ctx, "york")
	if err != nil {
		t.Fatalf("SearchVacanciesByCity failed: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("case-sensitive search: expected 0 matches, got %d", len(found))
	}

	found, err = repo.SearchVacanciesByCity(ctx, "York")
	if err != nil {
		t.Fatalf("SearchVacanciesByCity failed: %v", err)
	}
	if len(found) != 1 {
		t.Errorf("case-sensitive search: expected 1 match, got %d", len(found))
	}
}

func TestDeleteAccountCascades(t *testing.T) {
	repo := newTestRepo(t, false)
	ctx := context.Background()

	if _, err := repo.CreateAccount(ctx, 1, "employer", "EMP1"); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	if _, err := repo.CreateVacancy(ctx, "EMP1", "Минск", "Сварщик"); err != nil {
		t.Fatalf("CreateVacancy failed: %v", err)
	}
	if _, err := repo.CreateVacancy(ctx, "EMP1", "Гомель", "Токарь"); err != nil {
		t.Fatalf("CreateVacancy failed: %v", err)
	}

	if err := repo.DeleteAccount(ctx, 1); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}

	account, err := repo.GetAccount(ctx, 1)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if account != nil {
		t.Error("account must be deleted")
	}

	vacancies, err := repo.AllVacancies(ctx)
	if err != nil {
		t.Fatalf("AllVacancies failed: %v", err)
	}
	if len(vacancies) != 0 {
		t.Errorf("vacancies must be cascade-deleted, got %d", len(vacancies))
	}

	if err := repo.DeleteAccount(ctx, 1); err != ErrAccountNotFound {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestRawQuery(t *testing.T) {
	repo := newTestRepo(t, false)
	ctx := context.Background()

	if _, err := repo.CreateAccount(ctx, 5, "employer", "EMP5"); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	result, err := repo.Raw(ctx, "SELECT telegram_id, employer_code FROM users")
	if err != nil {
		t.Fatalf("Raw select failed: %v", err)
	}
	if len(result.Columns) != 2 {
		t.Errorf("expected 2 columns, got %d", len(result.Columns))
	}
	if len(result.Rows) != 1 || result.Rows[0][1] != "EMP5" {
		t.Errorf("unexpected rows: %v", result.Rows)
	}

	result, err = repo.Raw(ctx, "UPDATE users SET role = 'employer' WHERE telegram_id = 5")
	if err != nil {
		t.Fatalf("Raw update failed: %v", err)
	}
	if result.RowsAffected != 1 {
		t.Errorf("expected 1 row affected, got %d", result.RowsAffected)
	}

	// Ошибка возвращается как есть
	if _, err := repo.Raw(ctx, "SELECT nothing FROM nowhere"); err == nil {
		t.Error("expected error for invalid query")
	}
}
