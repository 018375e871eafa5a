package statemachine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"jobBoardBot/internal/domain/models"
	"jobBoardBot/internal/pkg/logger/sl"
	"jobBoardBot/internal/repository"
	"jobBoardBot/internal/service"
	"jobBoardBot/internal/session"
)

// Notification — уведомление другому пользователю, отправляемое
// по возможности. Неудача отправки не откатывает операцию.
type Notification struct {
	TelegramID int64
	Text       string
}

// Reply — типизированный результат шага диалога
type Reply struct {
	Text    string
	Buttons []string
	Notify  *Notification
}

// Manager продвигает диалоги по свободному тексту. Команды и кнопки
// меню сюда не попадают — их разбирает телеграм-обработчик.
type Manager struct {
	log      *slog.Logger
	sessions *session.Store
	service  *service.Service
}

func NewManager(log *slog.Logger, sessions *session.Store, svc *service.Service) *Manager {
	return &Manager{
		log:      log,
		sessions: sessions,
		service:  svc,
	}
}

// StartAddVacancy открывает поток размещения вакансии.
// Любые прежние состояния пользователя сбрасываются: потоки не вкладываются.
func (m *Manager) StartAddVacancy(userID int64) Reply {
	m.sessions.ClearAll(userID)
	m.sessions.Put(userID, models.StateAwaitingCity, "")

	return Reply{Text: "Введите город:"}
}

// StartSearch открывает поток поиска вакансий
func (m *Manager) StartSearch(userID int64) Reply {
	m.sessions.ClearAll(userID)
	m.sessions.Put(userID, models.StateAwaitingWorkerCity, "")

	return Reply{Text: "Введите город для поиска:"}
}

// StartEdit запоминает вакансию для редактирования. Основное
// состояние диалога не трогается: редактирование имеет приоритет.
func (m *Manager) StartEdit(userID, vacancyID int64) Reply {
	m.sessions.SetEdit(userID, vacancyID)

	return Reply{Text: fmt.Sprintf("Введите новое описание для вакансии #%d:", vacancyID)}
}

// StartSubscriptionConfirm открывает административный поток
// подтверждения оплаты
func (m *Manager) StartSubscriptionConfirm(userID int64) Reply {
	m.sessions.ClearAll(userID)
	m.sessions.Put(userID, models.StateAwaitingSubscriptionTarget, "")

	return Reply{Text: "Введите telegram id или код работодателя:"}
}

// HandleText обрабатывает свободный текст пользователя, у которого
// не сработал ни один триггер
func (m *Manager) HandleText(ctx context.Context, userID int64, isAdmin bool, text string) Reply {
	text = strings.TrimSpace(text)

	// Состояние редактирования перекрывает основной диалог
	if vacancyID, ok := m.sessions.TakeEdit(userID); ok {
		return m.finishEdit(ctx, userID, vacancyID, text)
	}

	sess, ok := m.sessions.Get(userID)
	if !ok {
		return Reply{Text: "Напишите /start"}
	}

	switch sess.State {
	case models.StateAwaitingCity:
		m.sessions.Put(userID, models.StateAwaitingDescription, text)
		return Reply{Text: "Введите описание вакансии:"}

	case models.StateAwaitingDescription:
		return m.finishAddVacancy(ctx, userID, sess.City, text)

	case models.StateAwaitingWorkerCity:
		return m.finishSearch(ctx, userID, text)

	case models.StateAwaitingSubscriptionTarget:
		if !isAdmin {
			m.sessions.Clear(userID)
			return Reply{Text: "Нет доступа."}
		}
		return m.finishSubscriptionConfirm(ctx, userID, text)

	default:
		m.sessions.Clear(userID)
		return Reply{Text: "Напишите /start"}
	}
}

func (m *Manager) finishEdit(ctx context.Context, userID, vacancyID int64, text string) Reply {
	err := m.service.UpdateVacancyDescription(ctx, userID, vacancyID, text)
	if err != nil {
		if errors.Is(err, repository.ErrVacancyNotFound) {
			return Reply{Text: "Не найдена или не ваша."}
		}

		m.log.Error("failed to update vacancy", sl.Err(err))
		return Reply{Text: "Произошла ошибка. Попробуйте позже."}
	}

	return Reply{Text: "Описание обновлено."}
}

func (m *Manager) finishAddVacancy(ctx context.Context, userID int64, city, description string) Reply {
	m.sessions.Clear(userID)

	_, err := m.service.AddVacancy(ctx, userID, city, description)
	if err != nil {
		if errors.Is(err, service.ErrNotEmployer) {
			return Reply{Text: "Ошибка. Вы не работодатель."}
		}

		m.log.Error("failed to add vacancy", sl.Err(err))
		return Reply{Text: "Произошла ошибка. Попробуйте позже."}
	}

	return Reply{Text: "Вакансия добавлена."}
}

func (m *Manager) finishSearch(ctx context.Context, userID int64, city string) Reply {
	m.sessions.Clear(userID)

	vacancies, err := m.service.SearchVacancies(ctx, city)
	if err != nil {
		m.log.Error("failed to search vacancies", sl.Err(err))
		return Reply{Text: "Произошла ошибка. Попробуйте позже."}
	}

	if len(vacancies) == 0 {
		return Reply{Text: "Вакансий нет."}
	}

	var b strings.Builder
	for _, v := range vacancies {
		b.WriteString(fmt.Sprintf("#%d | %s: %s\n", v.ID, v.City, truncate(v.Description, 50)))
	}

	return Reply{Text: b.String()}
}

func (m *Manager) finishSubscriptionConfirm(ctx context.Context, userID int64, target string) Reply {
	m.sessions.Clear(userID)

	account, err := m.service.ActivateSubscriptionByTarget(ctx, target)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return Reply{Text: "Аккаунт не найден."}
		}

		m.log.Error("failed to activate subscription", sl.Err(err))
		return Reply{Text: "Произошла ошибка. Попробуйте позже."}
	}

	return Reply{
		Text: fmt.Sprintf("✅ Подписка активирована для %s.", account.EmployerCode),
		Notify: &Notification{
			TelegramID: account.TelegramID,
			Text:       "✅ Оплата подтверждена. Подписка активна 30 дней.\nНажмите Оплатил, чтобы открыть меню.",
		},
	}
}

// truncate обрезает строку до n символов, не разрывая руны
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n-3]) + "..."
}
