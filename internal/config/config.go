package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host        string
	Port        int
	BaseURL     string
	CORSOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret        string
	DownloadTokenSecret string
	DownloadTokenTTL    time.Duration
}

type StorageMode string

const (
	StorageModeLocal StorageMode = "local"
	StorageModeMinio StorageMode = "minio"
)

type StorageConfig struct {
	Mode           StorageMode
	LocalDir       string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

type RedisConfig struct {
	Addr        string
	CarModelTTL time.Duration
}

type NotifyConfig struct {
	Workers   int
	QueueSize int
}

type UploadConfig struct {
	MaxDocumentBytes int64
	MaxCSVBytes      int64
	PDFFontPath      string
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Storage     StorageConfig
	SMTP        SMTPConfig
	Redis       RedisConfig
	Notify      NotifyConfig
	Upload      UploadConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:        v.GetString("HTTP_HOST"),
			Port:        v.GetInt("HTTP_PORT"),
			BaseURL:     strings.TrimRight(v.GetString("BASE_URL"), "/"),
			CORSOrigins: parseList(v.GetString("CORS_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret:        v.GetString("JWT_ACCESS_SECRET"),
			DownloadTokenSecret: v.GetString("DOWNLOAD_TOKEN_SECRET"),
			DownloadTokenTTL:    v.GetDuration("DOWNLOAD_TOKEN_TTL"),
		},
		Storage: StorageConfig{
			Mode:           StorageMode(strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_MODE")))),
			LocalDir:       v.GetString("STORAGE_LOCAL_DIR"),
			MinioEndpoint:  v.GetString("MINIO_ENDPOINT"),
			MinioAccessKey: v.GetString("MINIO_ACCESS_KEY"),
			MinioSecretKey: v.GetString("MINIO_SECRET_KEY"),
			MinioBucket:    v.GetString("MINIO_BUCKET"),
			MinioUseSSL:    v.GetBool("MINIO_USE_SSL"),
			MinioPublicURL: strings.TrimRight(v.GetString("MINIO_PUBLIC_URL"), "/"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetString("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
			FromName: v.GetString("SMTP_FROM_NAME"),
		},
		Redis: RedisConfig{
			Addr:        strings.TrimSpace(v.GetString("REDIS_ADDR")),
			CarModelTTL: v.GetDuration("CAR_MODEL_CACHE_TTL"),
		},
		Notify: NotifyConfig{
			Workers:   v.GetInt("NOTIFY_WORKERS"),
			QueueSize: v.GetInt("NOTIFY_QUEUE_SIZE"),
		},
		Upload: UploadConfig{
			MaxDocumentBytes: v.GetInt64("UPLOAD_MAX_DOCUMENT_BYTES"),
			MaxCSVBytes:      v.GetInt64("UPLOAD_MAX_CSV_BYTES"),
			PDFFontPath:      v.GetString("PDF_FONT_PATH"),
		},
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if cfg.HTTP.BaseURL == "" {
		cfg.HTTP.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.HTTP.Port)
	}
	if cfg.Auth.DownloadTokenTTL <= 0 {
		cfg.Auth.DownloadTokenTTL = 7 * 24 * time.Hour
	}
	if cfg.Storage.Mode == "" {
		cfg.Storage.Mode = StorageModeLocal
	}
	if cfg.Storage.LocalDir == "" {
		cfg.Storage.LocalDir = "./uploads"
	}
	if cfg.SMTP.Port == "" {
		cfg.SMTP.Port = "587"
	}
	if cfg.SMTP.FromName == "" {
		cfg.SMTP.FromName = "Dear Carmate"
	}
	if cfg.Redis.CarModelTTL <= 0 {
		cfg.Redis.CarModelTTL = time.Hour
	}
	if cfg.Notify.Workers <= 0 {
		cfg.Notify.Workers = 2
	}
	if cfg.Notify.QueueSize <= 0 {
		cfg.Notify.QueueSize = 64
	}
	if cfg.Upload.MaxDocumentBytes <= 0 {
		cfg.Upload.MaxDocumentBytes = 20 << 20
	}
	if cfg.Upload.MaxCSVBytes <= 0 {
		cfg.Upload.MaxCSVBytes = 50 << 20
	}
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Auth.DownloadTokenSecret == "" {
		return fmt.Errorf("DOWNLOAD_TOKEN_SECRET is required")
	}
	switch cfg.Storage.Mode {
	case StorageModeLocal:
	case StorageModeMinio:
		if cfg.Storage.MinioEndpoint == "" || cfg.Storage.MinioBucket == "" {
			return fmt.Errorf("STORAGE_MODE=minio requires MINIO_ENDPOINT and MINIO_BUCKET")
		}
	default:
		return fmt.Errorf("invalid STORAGE_MODE=%q (allowed: %q, %q)", cfg.Storage.Mode, StorageModeLocal, StorageModeMinio)
	}
	return nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
