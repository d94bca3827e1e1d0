package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// APIServerConfig 保存 API 服务器的配置。
type APIServerConfig struct {
	Host         string        `mapstructure:"HOST"`
	Port         string        `mapstructure:"PORT"`
	ReadTimeout  time.Duration `mapstructure:"READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`
	CORS         CORSConfig    `mapstructure:"CORS"`
}

// CORSConfig holds configuration for CORS.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"ALLOWED_ORIGINS"`
	AllowedMethods   []string `mapstructure:"ALLOWED_METHODS"`
	AllowedHeaders   []string `mapstructure:"ALLOWED_HEADERS"`
	ExposedHeaders   []string `mapstructure:"EXPOSED_HEADERS"`
	AllowCredentials bool     `mapstructure:"ALLOW_CREDENTIALS"`
	MaxAge           int      `mapstructure:"MAX_AGE"`
}

// Config holds all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	AppName    string          `mapstructure:"APP_NAME"`
	AppVersion string          `mapstructure:"APP_VERSION"`
	LogLevel   string          `mapstructure:"LOG_LEVEL"`
	APIServer  APIServerConfig `mapstructure:"API_SERVER"`
	Kafka      KafkaConfig     `mapstructure:"KAFKA"`
	Database   DatabaseConfig  `mapstructure:"DATABASE"`
	Storage    StorageConfig   `mapstructure:"STORAGE"`
	Mail       MailConfig      `mapstructure:"MAIL"`
	Auth       AuthConfig      `mapstructure:"AUTH"`
}

// KafkaConfig holds configuration for Kafka.
type KafkaConfig struct {
	Brokers           []string `mapstructure:"BROKERS"`
	ClientID          string   `mapstructure:"CLIENT_ID"`
	Protocol          string   `mapstructure:"PROTOCOL"`
	ContactEmailTopic string   `mapstructure:"CONTACT_EMAIL_TOPIC"` // 联系表单邮件队列
	ConsumerGroup     string   `mapstructure:"CONSUMER_GROUP"`      // mailworker 消费者组
}

// DatabaseConfig holds configuration for the database.
type DatabaseConfig struct {
	Type     string `mapstructure:"TYPE"`
	Host     string `mapstructure:"HOST"`
	Port     int    `mapstructure:"PORT"`
	User     string `mapstructure:"USER"`
	Password string `mapstructure:"PASSWORD"`
	DBName   string `mapstructure:"DB_NAME"`
	SSLMode  string `mapstructure:"SSL_MODE"`
}

// StorageConfig holds configuration for voucher image storage.
type StorageConfig struct {
	Type            string   `mapstructure:"TYPE"`              // "local", "s3"
	LocalPath       string   `mapstructure:"LOCAL_PATH"`        // 例如 ./public/images/vouchers
	PublicURLPrefix string   `mapstructure:"PUBLIC_URL_PREFIX"` // 例如 /images/vouchers
	MaxFileSizeMB   int64    `mapstructure:"MAX_FILE_SIZE_MB"`
	S3              S3Config `mapstructure:"S3"`
}

// S3Config holds configuration for AWS S3.
type S3Config struct {
	BucketName      string `mapstructure:"BUCKET_NAME"`
	Region          string `mapstructure:"REGION"`
	AccessKeyID     string `mapstructure:"ACCESS_KEY_ID"`
	SecretAccessKey string `mapstructure:"SECRET_ACCESS_KEY"`
	Endpoint        string `mapstructure:"ENDPOINT"` // For S3 compatible storage like MinIO
}

// MailConfig 描述第三方邮件发送服务 (EmailJS 兼容接口)。
type MailConfig struct {
	Endpoint   string        `mapstructure:"ENDPOINT"`
	ServiceID  string        `mapstructure:"SERVICE_ID"`
	TemplateID string        `mapstructure:"TEMPLATE_ID"`
	PublicKey  string        `mapstructure:"PUBLIC_KEY"`
	Timeout    time.Duration `mapstructure:"TIMEOUT"`
}

// MockAccount 是模拟认证服务中的一个固定账户。
type MockAccount struct {
	ID          string `mapstructure:"ID"`
	Email       string `mapstructure:"EMAIL"`
	Password    string `mapstructure:"PASSWORD"`
	Name        string `mapstructure:"NAME"`
	IsPublisher bool   `mapstructure:"IS_PUBLISHER"`
}

// AuthConfig holds the mock authentication accounts.
type AuthConfig struct {
	Accounts []MockAccount `mapstructure:"ACCOUNTS"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()

	v.SetDefault("APP_NAME", "Voucher-Go")
	v.SetDefault("APP_VERSION", "0.0.1")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("API_SERVER.HOST", "0.0.0.0")
	v.SetDefault("API_SERVER.PORT", "8081")
	v.SetDefault("API_SERVER.READ_TIMEOUT", 30*time.Second)
	v.SetDefault("API_SERVER.WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("API_SERVER.CORS.ALLOWED_ORIGINS", []string{"http://localhost:3000"}) // Next.js dev server
	v.SetDefault("API_SERVER.CORS.ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("API_SERVER.CORS.ALLOWED_HEADERS", []string{"Accept", "Content-Type", "X-Request-ID"})
	v.SetDefault("API_SERVER.CORS.EXPOSED_HEADERS", []string{"Content-Length", "X-Request-ID"})
	v.SetDefault("API_SERVER.CORS.ALLOW_CREDENTIALS", true)
	v.SetDefault("API_SERVER.CORS.MAX_AGE", 300) // 5 minutes

	v.SetDefault("KAFKA.BROKERS", []string{"localhost:9092"})
	v.SetDefault("KAFKA.CLIENT_ID", "voucher-go-client")
	v.SetDefault("KAFKA.PROTOCOL", "plaintext")
	v.SetDefault("KAFKA.CONTACT_EMAIL_TOPIC", "voucher-contact-email")
	v.SetDefault("KAFKA.CONSUMER_GROUP", "voucher-mailworker-group")

	v.SetDefault("DATABASE.TYPE", "postgres")
	v.SetDefault("DATABASE.HOST", "localhost")
	v.SetDefault("DATABASE.PORT", 5432)
	v.SetDefault("DATABASE.USER", "postgres")
	v.SetDefault("DATABASE.PASSWORD", "password")
	v.SetDefault("DATABASE.DB_NAME", "voucher_db")
	v.SetDefault("DATABASE.SSL_MODE", "disable")

	v.SetDefault("STORAGE.TYPE", "local")
	v.SetDefault("STORAGE.LOCAL_PATH", "./public/images/vouchers")
	v.SetDefault("STORAGE.PUBLIC_URL_PREFIX", "/images/vouchers")
	v.SetDefault("STORAGE.MAX_FILE_SIZE_MB", 20)
	// 没有默认值的 key 也要注册，否则 AutomaticEnv 不会把环境变量带进 Unmarshal
	v.SetDefault("STORAGE.S3.BUCKET_NAME", "")
	v.SetDefault("STORAGE.S3.REGION", "us-east-1")
	v.SetDefault("STORAGE.S3.ACCESS_KEY_ID", "")
	v.SetDefault("STORAGE.S3.SECRET_ACCESS_KEY", "")
	v.SetDefault("STORAGE.S3.ENDPOINT", "")

	v.SetDefault("MAIL.ENDPOINT", "https://api.emailjs.com/api/v1.0/email/send")
	v.SetDefault("MAIL.SERVICE_ID", "default_service")
	v.SetDefault("MAIL.TEMPLATE_ID", "contact_form")
	v.SetDefault("MAIL.PUBLIC_KEY", "")
	v.SetDefault("MAIL.TIMEOUT", 10*time.Second)

	v.SetDefault("AUTH.ACCOUNTS", []map[string]any{
		{"ID": "1", "EMAIL": "publisher@example.com", "PASSWORD": "password123", "NAME": "Demo Publisher", "IS_PUBLISHER": true},
		{"ID": "2", "EMAIL": "user@example.com", "PASSWORD": "password123", "NAME": "Demo User", "IS_PUBLISHER": false},
	})

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// STORAGE_LOCAL_PATH 覆盖 Storage.LocalPath
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return
		}
		// 没有配置文件时使用默认值
		err = nil
	}

	err = v.Unmarshal(&config)
	return
}

// Addr 返回监听地址。
func (c APIServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}
