package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"local"`
	Telegram TelegramConfig `yaml:"telegram"`
	Admin    AdminConfig    `yaml:"admin"`
	Storage  StorageConfig  `yaml:"storage"`
	Session  SessionConfig  `yaml:"session"`
	Backup   BackupConfig   `yaml:"backup"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN" env-required:"true"`
}

type AdminConfig struct {
	ID       int64  `yaml:"id" env:"ADMIN_ID" env-default:"123456"`
	Username string `yaml:"username" env:"ADMIN_USERNAME" env-default:"admin"`
}

type StorageConfig struct {
	Path                string `yaml:"path" env:"DB_PATH" env-default:"jobs.db"`
	SearchCaseSensitive bool   `yaml:"search_case_sensitive" env:"SEARCH_CASE_SENSITIVE" env-default:"false"`
}

type SessionConfig struct {
	TTL           time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"1h"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"SESSION_SWEEP_INTERVAL" env-default:"10m"`
}

// BackupConfig описывает внешнее хранилище копии базы. Backend пустой —
// бэкап выключен.
type BackupConfig struct {
	Backend string        `yaml:"backend" env:"BACKUP_BACKEND"`
	Timeout time.Duration `yaml:"timeout" env:"BACKUP_TIMEOUT" env-default:"10s"`
	GitHub  GitHubConfig  `yaml:"github"`
	S3      S3Config      `yaml:"s3"`
}

type GitHubConfig struct {
	Repo  string `yaml:"repo" env:"GITHUB_REPO"`
	Path  string `yaml:"path" env:"GITHUB_PATH" env-default:"jobs.db"`
	Token string `yaml:"token" env:"GITHUB_TOKEN"`
}

type S3Config struct {
	Host      string `yaml:"host" env:"S3_HOST" env-default:"localhost"`
	Port      string `yaml:"port" env:"S3_PORT" env-default:"9000"`
	AccessKey string `yaml:"access_key" env:"S3_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"S3_SECRET_KEY"`
	Bucket    string `yaml:"bucket" env:"S3_BUCKET" env-default:"backups"`
	Object    string `yaml:"object" env:"S3_OBJECT" env-default:"jobs.db"`
}

// MustLoad читает конфигурацию из файла, указанного флагом или
// переменной CONFIG_PATH, либо напрямую из переменных окружения
func MustLoad() *Config {
	var cfg Config

	if configPath := fetchConfigPath(); configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			panic("config file does not exist: " + configPath)
		}

		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			panic("cannot read config: " + err.Error())
		}

		return &cfg
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic("cannot read config from environment: " + err.Error())
	}

	return &cfg
}

// fetchConfigPath получает путь к конфигурационному файлу из флага или переменной окружения
func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
