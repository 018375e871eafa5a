package app

import (
	"context"
	"fmt"
	"log/slog"

	"jobBoardBot/internal/backup"
	"jobBoardBot/internal/config"
	"jobBoardBot/internal/pkg/logger/sl"
	"jobBoardBot/internal/repository"
	"jobBoardBot/internal/service"
	"jobBoardBot/internal/session"
	"jobBoardBot/internal/statemachine"
	"jobBoardBot/internal/telegram"
	"jobBoardBot/pkg/database"
)

type App struct {
	config   *config.Config
	log      *slog.Logger
	handler  *telegram.Handler
	syncer   *backup.Syncer
	sessions *session.Store
}

func New(ctx context.Context, log *slog.Logger, cfg *config.Config) (*App, error) {
	// Собираем бэкап до открытия базы: файл может потребоваться восстановить
	storage, err := newBackupStorage(log, cfg)
	if err != nil {
		return nil, err
	}

	syncer := backup.NewSyncer(log, storage, cfg.Storage.Path, cfg.Backup.Timeout)

	if err := syncer.Restore(ctx); err != nil {
		// Недоступность удаленной копии не мешает работать с локальной
		log.Error("restore from remote copy failed", sl.Err(err))
	}

	db, err := database.NewSQLiteConnection(database.SQLiteConfig{
		Path:                cfg.Storage.Path,
		SearchCaseSensitive: cfg.Storage.SearchCaseSensitive,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	log.Info("connected to database", slog.String("path", cfg.Storage.Path))

	repo := repository.NewSQLiteRepository(db)

	if err := repo.InitSchema(ctx); err != nil {
		// Продолжаем работать: обработчики, которым нужна база,
		// откажут по отдельности
		log.Error("schema init failed", sl.Err(err))
	}

	sessions := session.NewStore(log, cfg.Session.TTL)

	svc := service.New(log, repo, syncer)

	sm := statemachine.NewManager(log, sessions, svc)

	handler, err := telegram.NewHandler(
		log,
		cfg.Telegram.BotToken,
		cfg.Admin.ID,
		cfg.Admin.Username,
		svc,
		sm,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram handler: %w", err)
	}

	return &App{
		config:   cfg,
		log:      log,
		handler:  handler,
		syncer:   syncer,
		sessions: sessions,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.syncer.Start(ctx)

	a.sessions.StartSweeper(a.config.Session.SweepInterval)
	defer a.sessions.StopSweeper()

	a.log.Info("starting telegram bot")

	return a.handler.Start(ctx)
}

// newBackupStorage выбирает бэкенд внешнего хранилища по конфигурации.
// Отсутствие настроек выключает бэкап, но не мешает запуску.
func newBackupStorage(log *slog.Logger, cfg *config.Config) (backup.Storage, error) {
	switch cfg.Backup.Backend {
	case "":
		log.Info("backup disabled")
		return nil, nil

	case "github":
		if cfg.Backup.GitHub.Repo == "" || cfg.Backup.GitHub.Token == "" {
			log.Warn("github backup selected but not configured, backup disabled")
			return nil, nil
		}
		return backup.NewGitHubStorage(
			cfg.Backup.GitHub.Repo,
			cfg.Backup.GitHub.Path,
			cfg.Backup.GitHub.Token,
		), nil

	case "s3":
		client, err := backup.NewS3Conn(&backup.S3Config{
			Host:      cfg.Backup.S3.Host,
			Port:      cfg.Backup.S3.Port,
			AccessKey: cfg.Backup.S3.AccessKey,
			SecretKey: cfg.Backup.S3.SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to s3: %w", err)
		}
		return backup.NewS3Storage(client, cfg.Backup.S3.Bucket, cfg.Backup.S3.Object), nil

	default:
		return nil, fmt.Errorf("unknown backup backend: %s", cfg.Backup.Backend)
	}
}
