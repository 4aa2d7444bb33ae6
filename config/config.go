// Initializing application configuration
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ds124wfegd/lensmaster/internal/entity"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Billing   BillingConfig   `mapstructure:"billing"`
	Catalog   entity.Catalog  `mapstructure:"catalog"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Rabbit    RabbitConfig    `mapstructure:"rabbit"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	WhatsApp  WhatsAppConfig  `mapstructure:"whatsapp"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Worker    WorkerConfig    `mapstructure:"worker"`
}

type ServerConfig struct {
	AppVersion     string        `mapstructure:"app_version"`
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	Timeout        time.Duration `mapstructure:"timeout"`
	Idle_timeout   time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Env            string        `mapstructure:"environment"`
	Mode           string        `mapstructure:"mode"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type BillingConfig struct {
	DailyRate int64  `mapstructure:"daily_rate"`
	Currency  string `mapstructure:"currency"`
}

type NotifyConfig struct {
	// Sinks lists the order sinks to enable: log, feed, whatsapp, telegram, queue, rabbit, kafka, stream.
	Sinks    []string `mapstructure:"sinks"`
	FeedSize int      `mapstructure:"feed_size"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// Настройки пула соединений
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
}

type QueueConfig struct {
	Prefix       string        `mapstructure:"prefix"`
	MaxRetries   int           `mapstructure:"max_retries"`
	BaseDelay    time.Duration `mapstructure:"base_delay"`
	PollTimeout  time.Duration `mapstructure:"poll_timeout"`
	DelayedCheck time.Duration `mapstructure:"delayed_check"`
}

type RabbitConfig struct {
	URL       string `mapstructure:"url"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	QueueName string `mapstructure:"queue_name"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	BaseURL  string `mapstructure:"base_url"`
}

type WhatsAppConfig struct {
	Phone string `mapstructure:"phone"`
}

type AssistantConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	FastModel    string        `mapstructure:"fast_model"`
	DeepModel    string        `mapstructure:"deep_model"`
	ImageModel   string        `mapstructure:"image_model"`
	EditModel    string        `mapstructure:"edit_model"`
	VideoModel   string        `mapstructure:"video_model"`
	ThinkBudget  int           `mapstructure:"think_budget"`
	MaxImagePx   int           `mapstructure:"max_image_px"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	ChatHistory  int           `mapstructure:"chat_history"`
}

type WorkerConfig struct {
	QueueMonitorInterval time.Duration `mapstructure:"queue_monitor_interval"`
}

// LoadConfig reads ./config/config.yaml when present; every key has a default
// and can be overridden with LENSMASTER_<SECTION>_<KEY> environment variables.
func LoadConfig() (*viper.Viper, error) {
	return LoadConfigFrom("./config")
}

func LoadConfigFrom(paths ...string) (*viper.Viper, error) {

	viperInstance := viper.New()

	for _, p := range paths {
		viperInstance.AddConfigPath(p)
	}
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	viperInstance.SetEnvPrefix("lensmaster")
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()

	setDefaults(viperInstance)

	if err := viperInstance.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if c.Assistant.APIKey == "" {
		c.Assistant.APIKey = GetEnv("GEMINI_API_KEY", GetEnv("API_KEY", ""))
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.Billing.DailyRate <= 0 {
		return fmt.Errorf("billing.daily_rate must be positive, got %d", c.Billing.DailyRate)
	}
	if len(c.Catalog) == 0 {
		return fmt.Errorf("catalog must list at least one camera")
	}
	seen := make(map[string]struct{}, len(c.Catalog))
	for _, m := range c.Catalog {
		if strings.TrimSpace(m.ID) == "" {
			return fmt.Errorf("catalog entry %q has no id", m.Name)
		}
		if _, dup := seen[m.ID]; dup {
			return fmt.Errorf("duplicate camera id %q in catalog", m.ID)
		}
		seen[m.ID] = struct{}{}
	}
	return nil
}

// GetServerAddress возвращает полный адрес сервера
func (c *Config) GetServerAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

func (c *Config) GetRabbitURL() string {
	if c.Rabbit.URL != "" {
		return c.Rabbit.URL
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%d/",
		c.Rabbit.Username,
		c.Rabbit.Password,
		c.Rabbit.Host,
		c.Rabbit.Port)
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.app_version", "1.0.0")
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("log.level", "info")

	v.SetDefault("billing.daily_rate", 400)
	v.SetDefault("billing.currency", "₹")
	v.SetDefault("catalog", []map[string]string{
		{"id": "sony-a7iv", "name": "Sony A7 IV", "description": "Full-frame Mirrorless Camera"},
		{"id": "canon-r5", "name": "Canon EOS R5", "description": "8K Video Professional Body"},
		{"id": "nikon-z9", "name": "Nikon Z9", "description": "Flagship Speed & Performance"},
	})

	v.SetDefault("notify.sinks", []string{"log", "feed"})
	v.SetDefault("notify.feed_size", 50)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("redis.pool_timeout", 4*time.Second)

	v.SetDefault("queue.prefix", "lensmaster")
	v.SetDefault("queue.max_retries", 3)
	v.SetDefault("queue.base_delay", 5*time.Second)
	v.SetDefault("queue.poll_timeout", 5*time.Second)
	v.SetDefault("queue.delayed_check", 10*time.Second)

	v.SetDefault("rabbit.url", "")
	v.SetDefault("rabbit.host", "localhost")
	v.SetDefault("rabbit.port", 5672)
	v.SetDefault("rabbit.username", "guest")
	v.SetDefault("rabbit.password", "guest")
	v.SetDefault("rabbit.queue_name", "lensmaster.orders")

	v.SetDefault("kafka.brokers", []string{"localhost:9094"})
	v.SetDefault("kafka.topic", "lensmaster-orders")

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.base_url", "https://api.telegram.org")

	v.SetDefault("whatsapp.phone", "")

	v.SetDefault("assistant.api_key", "")
	v.SetDefault("assistant.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("assistant.fast_model", "gemini-3-flash-preview")
	v.SetDefault("assistant.deep_model", "gemini-3-pro-preview")
	v.SetDefault("assistant.image_model", "gemini-3-pro-image-preview")
	v.SetDefault("assistant.edit_model", "gemini-2.5-flash-image")
	v.SetDefault("assistant.video_model", "veo-3.1-fast-generate-preview")
	v.SetDefault("assistant.think_budget", 32768)
	v.SetDefault("assistant.max_image_px", 1536)
	v.SetDefault("assistant.poll_interval", 8*time.Second)
	v.SetDefault("assistant.timeout", 5*time.Minute)
	v.SetDefault("assistant.chat_history", 20)

	v.SetDefault("worker.queue_monitor_interval", 30*time.Second)
}

// GetEnv returns the variable, or defaultValue when it is unset or empty.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
