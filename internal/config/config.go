package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	viper "github.com/spf13/viper"
)

/*
把init跟read分開
init : 設置viper watch 與 onConfigChange
read : 一般讀取, 使用讀寫鎖
*/
var configSingleton *ConfigSingleTon
var muonce sync.Once

// ConfigPathEnv 指定設定檔路徑的環境變數, 未設定時讀取 ./.env
const ConfigPathEnv = "STOREFRONT_CONFIG"

type ConfigSingleTon struct {
	config *Config
	mu     sync.RWMutex
}

type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	Env        string `mapstructure:"ENV"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	DbName        string `mapstructure:"POSTGRES_DB"`
	DbHost        string `mapstructure:"POSTGRES_HOST"`
	DbPort        string `mapstructure:"POSTGRES_PORT"`
	DbUser        string `mapstructure:"POSTGRES_USER"`
	DbPas         string `mapstructure:"POSTGRES_PASSWORD"`
	DbAutoMigrate bool   `mapstructure:"DB_AUTO_MIGRATE"`
	MigrationURL  string `mapstructure:"MIGRATION_URL"`

	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int           `mapstructure:"REDIS_DB"`
	ProductCacheTTL time.Duration `mapstructure:"PRODUCT_CACHE_TTL"`

	KafkaBrokers    string `mapstructure:"KAFKA_BROKERS"` // 逗號分隔, 空字串表示不發送事件
	KafkaOrderTopic string `mapstructure:"KAFKA_ORDER_TOPIC"`

	AuthTokenKey         string        `mapstructure:"AUTH_TOKEN_KEY"`
	AccessTokenDuration  time.Duration `mapstructure:"ACCESS_TOKEN_DURATION"`
	RefreshTokenDuration time.Duration `mapstructure:"REFRESH_TOKEN_DURATION"`

	TaxRate               string `mapstructure:"TAX_RATE"`
	ShippingFlatRate      string `mapstructure:"SHIPPING_FLAT_RATE"`
	FreeShippingThreshold string `mapstructure:"FREE_SHIPPING_THRESHOLD"`
	Currency              string `mapstructure:"CURRENCY"`

	RateLimitCapacity int     `mapstructure:"RATE_LIMIT_CAPACITY"`
	RateLimitRefill   float64 `mapstructure:"RATE_LIMIT_REFILL"` // 每秒補充 token 數

	OtelEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"` // 空字串表示不輸出 trace
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("POSTGRES_DB", "storefront")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("MIGRATION_URL", "")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("PRODUCT_CACHE_TTL", "5m")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_ORDER_TOPIC", "storefront.orders")
	v.SetDefault("AUTH_TOKEN_KEY", "")
	v.SetDefault("ACCESS_TOKEN_DURATION", "15m")
	v.SetDefault("REFRESH_TOKEN_DURATION", "168h")
	v.SetDefault("TAX_RATE", "0.08")
	v.SetDefault("SHIPPING_FLAT_RATE", "9.99")
	v.SetDefault("FREE_SHIPPING_THRESHOLD", "100")
	v.SetDefault("CURRENCY", "USD")
	v.SetDefault("RATE_LIMIT_CAPACITY", 100)
	v.SetDefault("RATE_LIMIT_REFILL", 10)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
}

// GetConfig 回傳目前的設定, 設定檔修改後會回傳新的一份
func GetConfig() *Config {
	initConfig()
	configSingleton.mu.RLock()
	defer configSingleton.mu.RUnlock()
	return configSingleton.config
}

func initConfig() {
	muonce.Do(func() {
		configSingleton = &ConfigSingleTon{}
		v := viper.New()
		cf, err := load(v, configPath())
		if err != nil {
			log.Fatalf("error read config: %v", err)
		}
		configSingleton.config = cf

		if v.ConfigFileUsed() == "" {
			return
		}
		v.OnConfigChange(func(e fsnotify.Event) {
			cf, err := unmarshal(v)
			if err != nil {
				// 保留舊設定
				log.Printf("failed to reload config file %s: %v", e.Name, err)
				return
			}
			configSingleton.mu.Lock()
			configSingleton.config = cf
			configSingleton.mu.Unlock()
			log.Printf("config reloaded from %s", e.Name)
		})
		v.WatchConfig()
	})
}

func configPath() string {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p
	}
	return ".env"
}

// Load 讀取指定設定檔, 檔案不存在時只使用環境變數與預設值
// 單純回傳錯誤, 由外部決定要不要Fatal
func Load(path string) (*Config, error) {
	return load(viper.New(), path)
}

func load(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cf := &Config{}
	if err := v.Unmarshal(cf); err != nil {
		return nil, err
	}
	if err := cf.Validate(); err != nil {
		return nil, err
	}
	return cf, nil
}

func (c *Config) Validate() error {
	for key, value := range map[string]string{
		"TAX_RATE":                c.TaxRate,
		"SHIPPING_FLAT_RATE":      c.ShippingFlatRate,
		"FREE_SHIPPING_THRESHOLD": c.FreeShippingThreshold,
	} {
		d, err := decimal.NewFromString(value)
		if err != nil {
			return fmt.Errorf("%s must be a decimal: %w", key, err)
		}
		if d.IsNegative() {
			return fmt.Errorf("%s must not be negative", key)
		}
	}
	if len(c.Currency) != 3 {
		return fmt.Errorf("CURRENCY must be a 3 letter code")
	}
	if c.RateLimitCapacity <= 0 || c.RateLimitRefill <= 0 {
		return fmt.Errorf("RATE_LIMIT_CAPACITY and RATE_LIMIT_REFILL must be positive")
	}
	return nil
}

// StoreSettings 下單使用的稅率與運費, Validate 已保證可以解析
func (c *Config) StoreSettings() model.StoreSettings {
	return model.StoreSettings{
		TaxRate:               decimal.RequireFromString(c.TaxRate),
		ShippingFlatRate:      decimal.RequireFromString(c.ShippingFlatRate),
		FreeShippingThreshold: decimal.RequireFromString(c.FreeShippingThreshold),
		Currency:              strings.ToUpper(c.Currency),
	}
}

func (c *Config) KafkaBrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// IsDebug debug 或 development 環境
func (c *Config) IsDebug() bool {
	return c.Env == "debug" || c.Env == "development"
}

// LiveStoreSettings 每次都讀取最新設定, 設定檔熱更新後下一筆訂單就生效
type LiveStoreSettings struct{}

func (LiveStoreSettings) StoreSettings() model.StoreSettings {
	return GetConfig().StoreSettings()
}
