package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"jobBoardBot/internal/domain/models"
	"jobBoardBot/internal/repository"
)

// Срок подписки в днях с момента подтверждения оплаты
const subscriptionPeriodDays = 30

// RegisterEmployer получает аккаунт работодателя, создавая его при
// первом обращении. Код работодателя выводится из telegram_id и
// никогда не меняется.
func (s *Service) RegisterEmployer(ctx context.Context, telegramID int64) (*models.Account, error) {
	account, err := s.repo.GetAccount(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if account != nil {
		return account, nil
	}

	employerCode := fmt.Sprintf("EMP%d", telegramID)

	account, err = s.repo.CreateAccount(ctx, telegramID, models.RoleEmployer, employerCode)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.backup.Notify()

	return account, nil
}

// SubscriptionStatus вычисляет состояние подписки на текущий момент.
// Аккаунт без даты начала считается никогда не подписанным. Истечение
// обнаруживается лениво: первый же запрос статуса после срока
// деактивирует подписку и очищает дату начала.
func (s *Service) SubscriptionStatus(ctx context.Context, telegramID int64) (active bool, daysLeft int, err error) {
	account, err := s.repo.GetAccount(ctx, telegramID)
	if err != nil {
		return false, 0, fmt.Errorf("failed to get account: %w", err)
	}

	if account == nil || account.SubscriptionStart == nil {
		return false, 0, nil
	}

	elapsed := int(s.now().Sub(*account.SubscriptionStart).Hours() / 24)
	daysLeft = subscriptionPeriodDays - elapsed

	if daysLeft < 0 {
		if err := s.repo.DeactivateSubscription(ctx, telegramID); err != nil {
			return false, 0, fmt.Errorf("failed to deactivate expired subscription: %w", err)
		}
		s.backup.Notify()

		s.log.Info("subscription expired", "telegram_id", telegramID)

		return false, 0, nil
	}

	return account.SubscriptionActive, daysLeft, nil
}

// ActivateSubscriptionByTarget включает подписку по telegram_id или
// коду работодателя. Возвращает аккаунт для уведомления владельца.
func (s *Service) ActivateSubscriptionByTarget(ctx context.Context, target string) (*models.Account, error) {
	var account *models.Account
	var err error

	if id, parseErr := strconv.ParseInt(target, 10, 64); parseErr == nil {
		account, err = s.repo.GetAccount(ctx, id)
	} else {
		account, err = s.repo.GetAccountByEmployerCode(ctx, target)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve target account: %w", err)
	}
	if account == nil {
		return nil, repository.ErrAccountNotFound
	}

	return s.activate(ctx, account, s.now())
}

// SetSubscription включает подписку так, чтобы осталось days дней.
// Дата начала сдвигается в прошлое на недостающий остаток срока.
func (s *Service) SetSubscription(ctx context.Context, telegramID int64, days int) (*models.Account, error) {
	account, err := s.repo.GetAccount(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, repository.ErrAccountNotFound
	}

	start := s.now().AddDate(0, 0, days-subscriptionPeriodDays)

	return s.activate(ctx, account, start)
}

func (s *Service) activate(ctx context.Context, account *models.Account, start time.Time) (*models.Account, error) {
	if err := s.repo.ActivateSubscription(ctx, account.TelegramID, start); err != nil {
		return nil, fmt.Errorf("failed to activate subscription: %w", err)
	}

	s.backup.Notify()

	s.log.Info("subscription activated",
		"telegram_id", account.TelegramID,
		"employer_code", account.EmployerCode,
	)

	account.SubscriptionActive = true
	account.SubscriptionStart = &start

	return account, nil
}
