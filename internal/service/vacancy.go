package service

import (
	"context"
	"fmt"

	"jobBoardBot/internal/domain/models"
	"jobBoardBot/internal/repository"
)

// AddVacancy создает вакансию от имени пользователя. Вакансия
// пишется одним оператором, когда известны оба поля: обрыв диалога
// между городом и описанием не оставляет частичной строки.
func (s *Service) AddVacancy(ctx context.Context, telegramID int64, city, description string) (int64, error) {
	account, err := s.repo.GetAccount(ctx, telegramID)
	if err != nil {
		return 0, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return 0, ErrNotEmployer
	}

	id, err := s.repo.CreateVacancy(ctx, account.EmployerCode, city, description)
	if err != nil {
		return 0, fmt.Errorf("failed to create vacancy: %w", err)
	}

	s.backup.Notify()

	s.log.Info("vacancy created", "id", id, "employer_code", account.EmployerCode, "city", city)

	return id, nil
}

// MyVacancies возвращает вакансии пользователя. Требует активной подписки.
func (s *Service) MyVacancies(ctx context.Context, telegramID int64) ([]models.Vacancy, error) {
	account, err := s.repo.GetAccount(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, ErrNotEmployer
	}

	active, _, err := s.SubscriptionStatus(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, ErrSubscriptionInactive
	}

	return s.repo.VacanciesByEmployer(ctx, account.EmployerCode)
}

// SearchVacancies ищет вакансии по подстроке города
func (s *Service) SearchVacancies(ctx context.Context, city string) ([]models.Vacancy, error) {
	return s.repo.SearchVacanciesByCity(ctx, city)
}

// UpdateVacancyDescription меняет описание вакансии. Владелец
// проверяется по коду работодателя, выведенному из telegram_id на
// момент операции; чужая или несуществующая вакансия дает одинаковый
// результат.
func (s *Service) UpdateVacancyDescription(ctx context.Context, telegramID, vacancyID int64, description string) error {
	account, err := s.repo.GetAccount(ctx, telegramID)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return repository.ErrVacancyNotFound
	}

	if err := s.repo.UpdateVacancyDescription(ctx, vacancyID, account.EmployerCode, description); err != nil {
		return err
	}

	s.backup.Notify()

	return nil
}

// DeleteVacancy удаляет вакансию с той же проверкой владельца
func (s *Service) DeleteVacancy(ctx context.Context, telegramID, vacancyID int64) error {
	account, err := s.repo.GetAccount(ctx, telegramID)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return repository.ErrVacancyNotFound
	}

	if err := s.repo.DeleteVacancy(ctx, vacancyID, account.EmployerCode); err != nil {
		return err
	}

	s.backup.Notify()

	return nil
}
