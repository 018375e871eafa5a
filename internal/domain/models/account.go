package models

import "time"

// RoleEmployer — единственная явная роль в системе. Соискатели
// аккаунт не создают.
const RoleEmployer = "employer"

// Account представляет аккаунт работодателя
type Account struct {
	TelegramID         int64      `db:"telegram_id"`
	Role               *string    `db:"role"`
	EmployerCode       string     `db:"employer_code"`
	SubscriptionActive bool       `db:"subscription_active"`
	SubscriptionStart  *time.Time `db:"-"`
}

// IsEmployer сообщает, выбрал ли пользователь роль работодателя
func (a *Account) IsEmployer() bool {
	return a.Role != nil && *a.Role == RoleEmployer
}
