package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"jobBoardBot/internal/pkg/logger/sl"
	"jobBoardBot/internal/repository"
	"jobBoardBot/internal/service"
	"jobBoardBot/internal/statemachine"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Триггеры действий над конкретной вакансией
var (
	reDeleteVacancy = regexp.MustCompile(`^Удалить (\d+)$`)
	reEditVacancy   = regexp.MustCompile(`^Изменить (\d+)$`)
)

type Handler struct {
	bot           *tgbotapi.BotAPI
	log           *slog.Logger
	service       *service.Service
	sm            *statemachine.Manager
	km            *KeyboardManager
	adminID       int64
	adminUsername string
}

func NewHandler(
	log *slog.Logger,
	botToken string,
	adminID int64,
	adminUsername string,
	svc *service.Service,
	sm *statemachine.Manager,
) (*Handler, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Handler{
		bot:           bot,
		log:           log,
		service:       svc,
		sm:            sm,
		km:            NewKeyboardManager(),
		adminID:       adminID,
		adminUsername: adminUsername,
	}, nil
}

// Start запускает обработку сообщений от Telegram
func (h *Handler) Start(ctx context.Context) error {
	h.log.Info("authorized on account", slog.String("username", h.bot.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil || update.Message.From == nil {
				continue
			}

			go h.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage маршрутизирует входящее сообщение: команды, точные
// подписи кнопок, шаблонные триггеры, затем открытый диалог
func (h *Handler) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID
	isAdmin := userID == h.adminID

	if message.IsCommand() {
		h.handleCommand(ctx, message, isAdmin)
		return
	}

	switch message.Text {
	case ButtonEmployer:
		h.handleEmployerStart(ctx, message)
	case ButtonPaid:
		h.handlePaid(ctx, message)
	case ButtonAddVacancy:
		h.sendReply(message.Chat.ID, h.sm.StartAddVacancy(userID))
	case ButtonMyVacancies:
		h.handleMyVacancies(ctx, message)
	case ButtonSubscription:
		h.handleSubscriptionStatus(ctx, message)
	case ButtonWorker:
		h.sendReply(message.Chat.ID, h.sm.StartSearch(userID))
	case ButtonAdminPanel:
		if !isAdmin {
			h.send(message.Chat.ID, "Нет доступа.")
			return
		}
		h.sendWithKeyboard(message.Chat.ID, "🔧 Админ-панель активна:", h.km.AdminKeyboard())
	case ButtonConfirmPayment:
		if !isAdmin {
			h.send(message.Chat.ID, "Нет доступа.")
			return
		}
		h.sendReply(message.Chat.ID, h.sm.StartSubscriptionConfirm(userID))
	default:
		if m := reDeleteVacancy.FindStringSubmatch(message.Text); m != nil {
			vacancyID, _ := strconv.ParseInt(m[1], 10, 64)
			h.handleDeleteVacancy(ctx, message, vacancyID)
			return
		}
		if m := reEditVacancy.FindStringSubmatch(message.Text); m != nil {
			vacancyID, _ := strconv.ParseInt(m[1], 10, 64)
			h.sendReply(message.Chat.ID, h.sm.StartEdit(userID, vacancyID))
			return
		}

		h.sendReply(message.Chat.ID, h.sm.HandleText(ctx, userID, isAdmin, message.Text))
	}
}

// handleCommand обрабатывает слэш-команды
func (h *Handler) handleCommand(ctx context.Context, message *tgbotapi.Message, isAdmin bool) {
	command := message.Command()

	if command == "start" {
		h.sendWithKeyboard(message.Chat.ID, "Выберите вашу роль:", h.km.RoleKeyboard(isAdmin))
		return
	}

	// Все остальные команды административные
	if !isAdmin {
		h.send(message.Chat.ID, "Нет доступа.")
		return
	}

	switch command {
	case "setsub":
		h.handleSetSub(ctx, message)
	case "deluser":
		h.handleDelUser(ctx, message)
	case "listusers":
		h.handleListUsers(ctx, message)
	case "vacancies":
		h.handleAdminVacancies(ctx, message)
	case "sql":
		h.handleSQL(ctx, message)
	default:
		h.send(message.Chat.ID, "Неизвестная команда. Используйте /start для начала.")
	}
}

// handleEmployerStart регистрирует работодателя и показывает его код
func (h *Handler) handleEmployerStart(ctx context.Context, message *tgbotapi.Message) {
	account, err := h.service.RegisterEmployer(ctx, message.From.ID)
	if err != nil {
		h.log.Error("failed to register employer", sl.Err(err))
		h.send(message.Chat.ID, "Произошла ошибка. Попробуйте позже.")
		return
	}

	text := fmt.Sprintf(
		"✅ Ваш код работодателя: <b>%s</b>\n\n"+
			"📩 Свяжитесь с админом для оплаты: @%s\n"+
			"После оплаты нажмите кнопку <b>Оплатил</b>.",
		account.EmployerCode,
		h.adminUsername,
	)

	h.sendWithKeyboard(message.Chat.ID, text, h.km.PaymentKeyboard())
}

// handlePaid проверяет, подтвердил ли админ оплату
func (h *Handler) handlePaid(ctx context.Context, message *tgbotapi.Message) {
	active, _, err := h.service.SubscriptionStatus(ctx, message.From.ID)
	if err != nil {
		h.log.Error("failed to check subscription", sl.Err(err))
		h.send(message.Chat.ID, "Произошла ошибка. Попробуйте позже.")
		return
	}

	if !active {
		h.send(message.Chat.ID, "❌ Оплата ещё не подтверждена админом.\nПожалуйста, свяжитесь с ним.")
		return
	}

	h.sendWithKeyboard(message.Chat.ID, "✅ Подписка подтверждена. Добро пожаловать!", h.km.EmployerKeyboard())
}

// handleMyVacancies показывает вакансии работодателя кнопками
func (h *Handler) handleMyVacancies(ctx context.Context, message *tgbotapi.Message) {
	vacancies, err := h.service.MyVacancies(ctx, message.From.ID)
	if err != nil {
		if errors.Is(err, service.ErrSubscriptionInactive) || errors.Is(err, service.ErrNotEmployer) {
			h.send(message.Chat.ID, "❌ Подписка не активна.")
			return
		}

		h.log.Error("failed to list vacancies", sl.Err(err))
		h.send(message.Chat.ID, "Произошла ошибка. Попробуйте позже.")
		return
	}

	if len(vacancies) == 0 {
		h.send(message.Chat.ID, "У вас пока нет вакансий.")
		return
	}

	labels := make([]string, 0, len(vacancies))
	for _, v := range vacancies {
		labels = append(labels, fmt.Sprintf("%d: %s", v.ID, truncate(v.Description, 30)))
	}

	text := "Ваши вакансии:\n\nУдалить &lt;id&gt; — удалить, Изменить &lt;id&gt; — изменить описание."
	h.sendWithKeyboard(message.Chat.ID, text, h.km.FromLabels(labels))
}

// handleSubscriptionStatus показывает остаток дней подписки
func (h *Handler) handleSubscriptionStatus(ctx context.Context, message *tgbotapi.Message) {
	active, daysLeft, err := h.service.SubscriptionStatus(ctx, message.From.ID)
	if err != nil {
		h.log.Error("failed to check subscription", sl.Err(err))
		h.send(message.Chat.ID, "Произошла ошибка. Попробуйте позже.")
		return
	}

	if !active {
		h.send(message.Chat.ID, "Подписка не активна.")
		return
	}

	h.send(message.Chat.ID, fmt.Sprintf("Осталось дней подписки: %d", daysLeft))
}

// handleDeleteVacancy удаляет вакансию по триггеру «Удалить <id>»
func (h *Handler) handleDeleteVacancy(ctx context.Context, message *tgbotapi.Message, vacancyID int64) {
	err := h.service.DeleteVacancy(ctx, message.From.ID, vacancyID)
	if err != nil {
		if errors.Is(err, repository.ErrVacancyNotFound) {
			h.send(message.Chat.ID, "Не найдена или не ваша.")
			return
		}

		h.log.Error("failed to delete vacancy", sl.Err(err))
		h.send(message.Chat.ID, "Произошла ошибка. Попробуйте позже.")
		return
	}

	h.send(message.Chat.ID, fmt.Sprintf("Вакансия #%d удалена.", vacancyID))
}

// handleSetSub включает подписку с заданным остатком дней
func (h *Handler) handleSetSub(ctx context.Context, message *tgbotapi.Message) {
	args := strings.Fields(message.CommandArguments())
	if len(args) != 2 {
		h.send(message.Chat.ID, "Использование: /setsub &lt;id&gt; &lt;days&gt;")
		return
	}

	telegramID, err1 := strconv.ParseInt(args[0], 10, 64)
	days, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		h.send(message.Chat.ID, "Использование: /setsub &lt;id&gt; &lt;days&gt;")
		return
	}

	account, err := h.service.SetSubscription(ctx, telegramID, days)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			h.send(message.Chat.ID, "Аккаунт не найден.")
			return
		}

		h.log.Error("failed to set subscription", sl.Err(err))
		h.send(message.Chat.ID, "Произошла ошибка. Попробуйте позже.")
		return
	}

	h.send(message.Chat.ID, fmt.Sprintf("✅ Подписка для %s: осталось %d дн.", account.EmployerCode, days))
}

// handleDelUser удаляет аккаунт вместе с его вакансиями
func (h *Handler) handleDelUser(ctx context.Context, message *tgbotapi.Message) {
	args := strings.Fields(message.CommandArguments())
	if len(args) != 1 {
		h.send(message.Chat.ID, "Использование: /deluser &lt;id&gt;")
		return
	}

	telegramID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.send(message.Chat.ID, "Использование: /deluser &lt;id&gt;")
		return
	}

	if err := h.service.DeleteAccount(ctx, telegramID); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			h.send(message.Chat.ID, "Аккаунт не найден.")
			return
		}

		h.log.Error("failed to delete account", sl.Err(err))
		h.send(message.Chat.ID, "Произошла ошибка. Попробуйте позже.")
		return
	}

	h.send(message.Chat.ID, fmt.Sprintf("Аккаунт %d удалён вместе с вакансиями.", telegramID))
}

// handleListUsers выводит таблицу аккаунтов
func (h *Handler) handleListUsers(ctx context.Context, message *tgbotapi.Message) {
	accounts, err := h.service.ListAccounts(ctx)
	if err != nil {
		h.log.Error("failed to list accounts", sl.Err(err))
		h.send(message.Chat.ID, "Произошла ошибка. Попробуйте позже.")
		return
	}

	if len(accounts) == 0 {
		h.send(message.Chat.ID, "Нет пользователей.")
		return
	}

	var b strings.Builder
	for _, a := range accounts {
		role := "-"
		if a.Role != nil {
			role = *a.Role
		}
		start := "-"
		if a.SubscriptionStart != nil {
			start = a.SubscriptionStart.Format("2006-01-02")
		}
		b.WriteString(fmt.Sprintf("%d | %s | %s | %t | %s\n", a.TelegramID, role, a.EmployerCode, a.SubscriptionActive, start))
	}

	h.sendPre(message.Chat.ID, b.String())
}

// handleAdminVacancies выводит таблицу всех вакансий
func (h *Handler) handleAdminVacancies(ctx context.Context, message *tgbotapi.Message) {
	vacancies, err := h.service.AllVacancies(ctx)
	if err != nil {
		h.log.Error("failed to list all vacancies", sl.Err(err))
		h.send(message.Chat.ID, "Произошла ошибка. Попробуйте позже.")
		return
	}

	if len(vacancies) == 0 {
		h.send(message.Chat.ID, "Нет вакансий.")
		return
	}

	var b strings.Builder
	for _, v := range vacancies {
		b.WriteString(fmt.Sprintf("%d | %s | %s | %s\n", v.ID, v.EmployerCode, v.City, truncate(v.Description, 40)))
	}

	h.sendPre(message.Chat.ID, b.String())
}

// handleSQL выполняет произвольный SQL администратора
func (h *Handler) handleSQL(ctx context.Context, message *tgbotapi.Message) {
	query := strings.TrimSpace(message.CommandArguments())
	if query == "" {
		h.send(message.Chat.ID, "Использование: /sql &lt;запрос&gt;")
		return
	}

	result, err := h.service.RawQuery(ctx, query)
	if err != nil {
		// Диагностика дословно: это привилегированный канал
		h.send(message.Chat.ID, fmt.Sprintf("Ошибка: %v", err))
		return
	}

	if result.Columns == nil {
		h.send(message.Chat.ID, fmt.Sprintf("✅ Готово. Строк изменено: %d", result.RowsAffected))
		return
	}

	if len(result.Rows) == 0 {
		h.send(message.Chat.ID, "Пусто.")
		return
	}

	var b strings.Builder
	b.WriteString(strings.Join(result.Columns, " | "))
	b.WriteString("\n")
	for _, row := range result.Rows {
		b.WriteString(strings.Join(row, " | "))
		b.WriteString("\n")
	}

	h.sendPre(message.Chat.ID, b.String())
}

// sendReply отправляет результат шага диалога: сначала best-effort
// уведомление адресату, затем ответ инициатору. Неудача уведомления
// не откатывает операцию, но попадает в ответ.
func (h *Handler) sendReply(chatID int64, reply statemachine.Reply) {
	text := reply.Text

	if reply.Notify != nil {
		msg := tgbotapi.NewMessage(reply.Notify.TelegramID, reply.Notify.Text)
		msg.ParseMode = "HTML"
		if _, err := h.bot.Send(msg); err != nil {
			h.log.Warn("failed to notify user", slog.Int64("telegram_id", reply.Notify.TelegramID), sl.Err(err))
			text += "\n⚠️ Не удалось уведомить пользователя."
		}
	}

	if len(reply.Buttons) > 0 {
		h.sendWithKeyboard(chatID, text, h.km.FromLabels(reply.Buttons))
		return
	}

	h.send(chatID, text)
}

// send отправляет сообщение без обновления клавиатуры
func (h *Handler) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"
	if _, err := h.bot.Send(msg); err != nil {
		h.log.Error("failed to send message", sl.Err(err))
	}
}

// sendWithKeyboard отправляет сообщение с reply-клавиатурой
func (h *Handler) sendWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"
	msg.ReplyMarkup = keyboard
	if _, err := h.bot.Send(msg); err != nil {
		h.log.Error("failed to send message", sl.Err(err))
	}
}

// sendPre отправляет табличный дамп моноширинным блоком
func (h *Handler) sendPre(chatID int64, text string) {
	h.send(chatID, "<pre>"+html.EscapeString(text)+"</pre>")
}

// truncate обрезает строку до n символов, не разрывая руны
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n-3]) + "..."
}
