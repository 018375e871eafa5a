package statemachine

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"jobBoardBot/internal/domain/models"
	"jobBoardBot/internal/repository"
	"jobBoardBot/internal/service"
	"jobBoardBot/internal/session"
	"jobBoardBot/pkg/database"
)

type noopNotifier struct{}

func (noopNotifier) Notify() {}

func newTestManager(t *testing.T) (*Manager, *session.Store, repository.Repository) {
	t.Helper()

	db, err := database.NewSQLiteConnection(database.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := repository.NewSQLiteRepository(db)
	if err := repo.InitSchema(context.Background()); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := session.NewStore(log, time.Hour)
	svc := service.New(log, repo, noopNotifier{})

	return NewManager(log, sessions, svc), sessions, repo
}

func registerEmployer(t *testing.T, repo repository.Repository, telegramID int64) {
	t.Helper()

	code := "EMP" + strconv.FormatInt(telegramID, 10)
	if _, err := repo.CreateAccount(context.Background(), telegramID, models.RoleEmployer, code); err != nil {
		t.Fatalf("failed to create account: %v", err)
	}
}

func TestConversationCompletion(t *testing.T) {
	m, sessions, repo := newTestManager(t)
	ctx := context.Background()

	registerEmployer(t, repo, 1)

	reply := m.StartAddVacancy(1)
	if reply.Text != "Введите город:" {
		t.Errorf("unexpected prompt: %s", reply.Text)
	}

	reply = m.HandleText(ctx, 1, false, "Berlin")
	if reply.Text != "Введите описание вакансии:" {
		t.Errorf("unexpected prompt: %s", reply.Text)
	}

	reply = m.HandleText(ctx, 1, false, "Cook needed")
	if reply.Text != "Вакансия добавлена." {
		t.Errorf("unexpected reply: %s", reply.Text)
	}

	// Ровно одна строка с теми самыми значениями
	vacancies, err := repo.AllVacancies(ctx)
	if err != nil {
		t.Fatalf("AllVacancies failed: %v", err)
	}
	if len(vacancies) != 1 {
		t.Fatalf("expected exactly 1 vacancy, got %d", len(vacancies))
	}
	if vacancies[0].City != "Berlin" || vacancies[0].Description != "Cook needed" {
		t.Errorf("unexpected vacancy: %+v", vacancies[0])
	}
	if vacancies[0].EmployerCode != "EMP1" {
		t.Errorf("vacancy must be owned by EMP1, got %s", vacancies[0].EmployerCode)
	}

	// Диалог закрыт
	if _, ok := sessions.Get(1); ok {
		t.Error("conversation state must be cleared after completion")
	}
}

func TestConversationWithoutAccount(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	m.StartAddVacancy(1)
	m.HandleText(ctx, 1, false, "Berlin")

	reply := m.HandleText(ctx, 1, false, "Cook needed")
	if reply.Text != "Ошибка. Вы не работодатель." {
		t.Errorf("unexpected reply: %s", reply.Text)
	}
}

func TestEditStateTakesPrecedence(t *testing.T) {
	m, sessions, repo := newTestManager(t)
	ctx := context.Background()

	registerEmployer(t, repo, 1)

	id, err := repo.CreateVacancy(ctx, "EMP1", "Минск", "Сварщик")
	if err != nil {
		t.Fatalf("CreateVacancy failed: %v", err)
	}

	// Основное состояние выставлено отдельно, но редактирование важнее
	sessions.Put(1, models.StateAwaitingCity, "")
	m.StartEdit(1, id)

	reply := m.HandleText(ctx, 1, false, "Сварщик 5 разряда")
	if reply.Text != "Описание обновлено." {
		t.Errorf("unexpected reply: %s", reply.Text)
	}

	vacancies, err := repo.AllVacancies(ctx)
	if err != nil {
		t.Fatalf("AllVacancies failed: %v", err)
	}
	if len(vacancies) != 1 {
		t.Fatalf("edit must not create a vacancy, got %d rows", len(vacancies))
	}
	if vacancies[0].Description != "Сварщик 5 разряда" {
		t.Errorf("description not updated: %s", vacancies[0].Description)
	}
}

func TestEditForeignVacancyDenied(t *testing.T) {
	m, _, repo := newTestManager(t)
	ctx := context.Background()

	registerEmployer(t, repo, 1)
	registerEmployer(t, repo, 2)

	id, err := repo.CreateVacancy(ctx, "EMP2", "Минск", "Сварщик")
	if err != nil {
		t.Fatalf("CreateVacancy failed: %v", err)
	}

	m.StartEdit(1, id)

	reply := m.HandleText(ctx, 1, false, "hacked")
	if reply.Text != "Не найдена или не ваша." {
		t.Errorf("unexpected reply: %s", reply.Text)
	}

	vacancies, _ := repo.VacanciesByEmployer(ctx, "EMP2")
	if vacancies[0].Description != "Сварщик" {
		t.Error("foreign vacancy must remain unmodified")
	}
}

func TestSearchFlow(t *testing.T) {
	m, _, repo := newTestManager(t)
	ctx := context.Background()

	if _, err := repo.CreateVacancy(ctx, "EMP1", "New York", "Cook needed"); err != nil {
		t.Fatalf("CreateVacancy failed: %v", err)
	}
	if _, err := repo.CreateVacancy(ctx, "EMP1", "York", "Waiter needed"); err != nil {
		t.Fatalf("CreateVacancy failed: %v", err)
	}

	m.StartSearch(5)

	reply := m.HandleText(ctx, 5, false, "York")
	if !strings.Contains(reply.Text, "New York") || !strings.Contains(reply.Text, "Cook needed") {
		t.Errorf("search results missing expected vacancy: %s", reply.Text)
	}
	if strings.Count(reply.Text, "#") != 2 {
		t.Errorf("expected 2 results, got: %s", reply.Text)
	}

	// Пустой результат
	m.StartSearch(5)
	reply = m.HandleText(ctx, 5, false, "Marrakesh")
	if reply.Text != "Вакансий нет." {
		t.Errorf("unexpected reply: %s", reply.Text)
	}
}

func TestStartFlowResetsPriorState(t *testing.T) {
	m, sessions, repo := newTestManager(t)

	registerEmployer(t, repo, 1)

	sessions.SetEdit(1, 99)
	sessions.Put(1, models.StateAwaitingDescription, "Минск")

	m.StartSearch(1)

	if _, ok := sessions.TakeEdit(1); ok {
		t.Error("entering search must clear edit state")
	}

	sess, ok := sessions.Get(1)
	if !ok || sess.State != models.StateAwaitingWorkerCity {
		t.Errorf("expected awaiting_worker_city, got %+v", sess)
	}
}

func TestSubscriptionConfirmFlow(t *testing.T) {
	m, _, repo := newTestManager(t)
	ctx := context.Background()

	registerEmployer(t, repo, 42)

	m.StartSubscriptionConfirm(100)

	reply := m.HandleText(ctx, 100, true, "EMP42")
	if !strings.Contains(reply.Text, "EMP42") {
		t.Errorf("unexpected reply: %s", reply.Text)
	}
	if reply.Notify == nil || reply.Notify.TelegramID != 42 {
		t.Errorf("expected notification for user 42, got %+v", reply.Notify)
	}

	account, err := repo.GetAccount(ctx, 42)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if !account.SubscriptionActive {
		t.Error("subscription must be activated")
	}

	// Неизвестная цель
	m.StartSubscriptionConfirm(100)
	reply = m.HandleText(ctx, 100, true, "EMP404")
	if reply.Text != "Аккаунт не найден." {
		t.Errorf("unexpected reply: %s", reply.Text)
	}
}

func TestSubscriptionConfirmDeniedForNonAdmin(t *testing.T) {
	m, sessions, _ := newTestManager(t)
	ctx := context.Background()

	sessions.Put(1, models.StateAwaitingSubscriptionTarget, "")

	reply := m.HandleText(ctx, 1, false, "EMP42")
	if reply.Text != "Нет доступа." {
		t.Errorf("unexpected reply: %s", reply.Text)
	}
}

func TestNoOpenStatePrompt(t *testing.T) {
	m, _, _ := newTestManager(t)

	reply := m.HandleText(context.Background(), 1, false, "привет")
	if reply.Text != "Напишите /start" {
		t.Errorf("unexpected reply: %s", reply.Text)
	}
}
