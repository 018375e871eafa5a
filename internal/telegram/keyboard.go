package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Подписи кнопок меню. Точные совпадения текста служат триггерами.
const (
	ButtonEmployer       = "Я работодатель"
	ButtonWorker         = "Ищу работу"
	ButtonPaid           = "Оплатил"
	ButtonAddVacancy     = "Разместить вакансию"
	ButtonMyVacancies    = "Мои вакансии"
	ButtonSubscription   = "Подписка"
	ButtonAdminPanel     = "🔧 Админ-панель"
	ButtonConfirmPayment = "Подтвердить оплату"
)

// KeyboardManager собирает reply-клавиатуры для меню бота
type KeyboardManager struct{}

func NewKeyboardManager() *KeyboardManager {
	return &KeyboardManager{}
}

// RoleKeyboard — стартовый выбор роли
func (km *KeyboardManager) RoleKeyboard(isAdmin bool) tgbotapi.ReplyKeyboardMarkup {
	labels := []string{ButtonEmployer, ButtonWorker}
	if isAdmin {
		labels = append(labels, ButtonAdminPanel)
	}

	return km.FromLabels(labels)
}

// PaymentKeyboard — единственная кнопка подтверждения оплаты
func (km *KeyboardManager) PaymentKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return km.FromLabels([]string{ButtonPaid})
}

// EmployerKeyboard — меню работодателя с активной подпиской
func (km *KeyboardManager) EmployerKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return km.FromLabels([]string{ButtonAddVacancy, ButtonMyVacancies, ButtonSubscription})
}

// AdminKeyboard — меню администратора
func (km *KeyboardManager) AdminKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return km.FromLabels([]string{
		ButtonConfirmPayment,
		"/vacancies",
		"/listusers",
		"/sql SELECT * FROM users",
	})
}

// FromLabels строит клавиатуру из списка подписей, по кнопке в ряд
func (km *KeyboardManager) FromLabels(labels []string) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(labels))
	for _, label := range labels {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(label)))
	}

	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.ResizeKeyboard = true
	keyboard.OneTimeKeyboard = false

	return keyboard
}
