package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"jobBoardBot/internal/pkg/logger/sl"
)

// ErrNotFound — удаленной копии еще нет
var ErrNotFound = errors.New("remote copy not found")

// Storage — внешнее хранилище, держащее копию файла базы данных
type Storage interface {
	// Fetch возвращает содержимое удаленной копии и маркер ревизии
	Fetch(ctx context.Context) (content []byte, revision string, err error)

	// Upload загружает содержимое поверх указанной ревизии.
	// Пустая ревизия означает создание нового объекта.
	Upload(ctx context.Context, content []byte, revision string) error
}

// Syncer зеркалирует локальный файл базы во внешнее хранилище.
// Уведомления не блокируют вызывающего: канал на один слот
// склеивает всплески мутаций в одну синхронизацию.
type Syncer struct {
	log     *slog.Logger
	storage Storage
	dbPath  string
	timeout time.Duration
	notify  chan struct{}
}

func NewSyncer(log *slog.Logger, storage Storage, dbPath string, timeout time.Duration) *Syncer {
	return &Syncer{
		log:     log,
		storage: storage,
		dbPath:  dbPath,
		timeout: timeout,
		notify:  make(chan struct{}, 1),
	}
}

// Enabled сообщает, настроено ли внешнее хранилище
func (s *Syncer) Enabled() bool {
	return s.storage != nil
}

// Restore восстанавливает локальный файл из удаленной копии.
// Вызывается до открытия базы. Если локальный файл уже есть или
// хранилище не настроено — ничего не делает.
func (s *Syncer) Restore(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}

	if _, err := os.Stat(s.dbPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat local database: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	content, _, err := s.storage.Fetch(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.log.Info("no remote copy to restore")
			return nil
		}
		return fmt.Errorf("failed to fetch remote copy: %w", err)
	}

	if err := os.WriteFile(s.dbPath, content, 0o644); err != nil {
		return fmt.Errorf("failed to write local database: %w", err)
	}

	s.log.Info("database restored from remote copy", slog.Int("bytes", len(content)))

	return nil
}

// Start запускает фоновую горутину синхронизации
func (s *Syncer) Start(ctx context.Context) {
	if !s.Enabled() {
		return
	}

	go s.run(ctx)
}

// Notify ставит синхронизацию в очередь. Никогда не блокирует:
// если синхронизация уже запрошена, повторный сигнал схлопывается.
func (s *Syncer) Notify() {
	if !s.Enabled() {
		return
	}

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Syncer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.notify:
			if err := s.syncOnce(ctx); err != nil {
				// Ошибка бэкапа никогда не доходит до пользователя
				s.log.Error("backup sync failed", sl.Err(err))
			}
		}
	}
}

func (s *Syncer) syncOnce(ctx context.Context) error {
	content, err := os.ReadFile(s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to read local database: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// Текущая ревизия нужна, чтобы не затереть чужую запись
	_, revision, err := s.storage.Fetch(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to fetch remote revision: %w", err)
	}

	if err := s.storage.Upload(ctx, content, revision); err != nil {
		return fmt.Errorf("failed to upload backup: %w", err)
	}

	s.log.Debug("backup uploaded", slog.Int("bytes", len(content)))

	return nil
}
