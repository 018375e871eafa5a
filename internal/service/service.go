package service

import (
	"errors"
	"log/slog"
	"time"

	"jobBoardBot/internal/repository"
)

var (
	// ErrNotEmployer — у пользователя нет аккаунта работодателя
	ErrNotEmployer = errors.New("user has no employer account")

	// ErrSubscriptionInactive — подписка не оплачена или истекла
	ErrSubscriptionInactive = errors.New("subscription is not active")
)

// BackupNotifier ставит в очередь синхронизацию с внешним хранилищем
type BackupNotifier interface {
	Notify()
}

type Service struct {
	log    *slog.Logger
	repo   repository.Repository
	backup BackupNotifier
	now    func() time.Time
}

func New(log *slog.Logger, repo repository.Repository, backup BackupNotifier) *Service {
	return &Service{
		log:    log,
		repo:   repo,
		backup: backup,
		now:    time.Now,
	}
}
