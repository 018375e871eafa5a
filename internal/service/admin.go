package service

import (
	"context"
	"fmt"

	"jobBoardBot/internal/domain/models"
	"jobBoardBot/internal/repository"
)

// ListAccounts возвращает все аккаунты для административной сводки
func (s *Service) ListAccounts(ctx context.Context) ([]models.Account, error) {
	return s.repo.ListAccounts(ctx)
}

// AllVacancies возвращает все вакансии для административной сводки
func (s *Service) AllVacancies(ctx context.Context) ([]models.Vacancy, error) {
	return s.repo.AllVacancies(ctx)
}

// DeleteAccount удаляет аккаунт и каскадно его вакансии
func (s *Service) DeleteAccount(ctx context.Context, telegramID int64) error {
	if err := s.repo.DeleteAccount(ctx, telegramID); err != nil {
		return err
	}

	s.backup.Notify()

	s.log.Info("account deleted", "telegram_id", telegramID)

	return nil
}

// RawQuery выполняет произвольный SQL администратора. Ошибки
// возвращаются как есть: администратор видит диагностику дословно.
func (s *Service) RawQuery(ctx context.Context, query string) (*repository.RawResult, error) {
	result, err := s.repo.Raw(ctx, query)
	if err != nil {
		return nil, err
	}

	// Не-SELECT мог изменить данные
	if result.Columns == nil {
		s.backup.Notify()
	}

	s.log.Warn("raw sql executed", "query", fmt.Sprintf("%.80s", query))

	return result, nil
}
