package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Bitcoin    BitcoinConfig    `mapstructure:"bitcoin"`
	Provider   ProviderConfig   `mapstructure:"provider"`
	Issuance   IssuanceConfig   `mapstructure:"issuance"`
	Fee        FeeConfig        `mapstructure:"fee"`
	Price      PriceConfig      `mapstructure:"price"`
	Estimator  EstimatorConfig  `mapstructure:"estimator"`
	ServiceFee ServiceFeeConfig `mapstructure:"service_fee"`
	Redis      RedisConfig      `mapstructure:"redis"`
	MQ         MQConfig         `mapstructure:"mq"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	HttpPort string `mapstructure:"http_port"`
}

type BitcoinConfig struct {
	Network string `mapstructure:"network"` // mainnet / testnet
}

type ProviderConfig struct {
	Kind          string         `mapstructure:"kind"` // esplora / bitcoind
	EsploraURL    string         `mapstructure:"esplora_url"`
	Bitcoind      BitcoindConfig `mapstructure:"bitcoind"`
	Timeout       time.Duration  `mapstructure:"timeout"`
	MaxRetries    int            `mapstructure:"max_retries"`
	LookupWorkers int            `mapstructure:"lookup_workers"` // 并发查询前序交易的数量
}

type BitcoindConfig struct {
	Host string `mapstructure:"host"`
	User string `mapstructure:"user"`
	Pass string `mapstructure:"pass"`
	TLS  bool   `mapstructure:"tls"`
}

type IssuanceConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type FeeConfig struct {
	PrimaryURL     string        `mapstructure:"primary_url"`
	SecondaryURL   string        `mapstructure:"secondary_url"`
	DefaultRate    float64       `mapstructure:"default_rate"` // sat/vB
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	WarmInterval   time.Duration `mapstructure:"warm_interval"`
	MaxRetries     int           `mapstructure:"max_retries"`
	TargetBlocks   int           `mapstructure:"target_blocks"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type PriceConfig struct {
	PrimaryURL   string        `mapstructure:"primary_url"`
	SecondaryURL string        `mapstructure:"secondary_url"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	WarmInterval time.Duration `mapstructure:"warm_interval"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

type EstimatorConfig struct {
	AssumedInputs int           `mapstructure:"assumed_inputs"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	UTXOCacheTTL  time.Duration `mapstructure:"utxo_cache_ttl"`
}

type ServiceFeeConfig struct {
	Amount  uint64 `mapstructure:"amount"` // sat
	Address string `mapstructure:"address"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MQConfig struct {
	Type    string   `mapstructure:"type"` // none / redis / kafka
	Topic   string   `mapstructure:"topic"`
	Brokers []string `mapstructure:"brokers"`
}

var Global Config

func Init() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// 环境变量: FEE_PRIMARY_URL 覆盖 fee.primary_url
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Warning: Config file not found, using defaults and environment variables")
		} else {
			log.Fatalf("Fatal error config file: %s \n", err)
		}
	}

	if err := viper.Unmarshal(&Global); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	log.Printf("Configuration loaded successfully. Env: %s Network: %s", Global.App.Env, Global.Bitcoin.Network)
}

func setDefaults() {
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.http_port", "8080")

	viper.SetDefault("bitcoin.network", "mainnet")

	viper.SetDefault("provider.kind", "esplora")
	viper.SetDefault("provider.esplora_url", "https://mempool.space/api")
	viper.SetDefault("provider.bitcoind.host", "localhost:8332")
	viper.SetDefault("provider.timeout", 10*time.Second)
	viper.SetDefault("provider.max_retries", 2)
	viper.SetDefault("provider.lookup_workers", 4)

	viper.SetDefault("issuance.url", "https://api.counterparty.io:4000")
	viper.SetDefault("issuance.timeout", 20*time.Second)

	viper.SetDefault("fee.primary_url", "https://mempool.space")
	viper.SetDefault("fee.secondary_url", "https://blockstream.info")
	viper.SetDefault("fee.default_rate", 10.0)
	viper.SetDefault("fee.cache_ttl", 30*time.Second)
	viper.SetDefault("fee.warm_interval", 30*time.Second)
	viper.SetDefault("fee.max_retries", 3)
	viper.SetDefault("fee.target_blocks", 3)
	viper.SetDefault("fee.request_timeout", 5*time.Second)

	viper.SetDefault("price.primary_url", "https://api.coingecko.com")
	viper.SetDefault("price.secondary_url", "https://mempool.space")
	viper.SetDefault("price.cache_ttl", 5*time.Minute)
	viper.SetDefault("price.warm_interval", 5*time.Minute)
	viper.SetDefault("price.max_retries", 3)

	viper.SetDefault("estimator.assumed_inputs", 1)
	viper.SetDefault("estimator.session_ttl", 30*time.Minute)
	viper.SetDefault("estimator.utxo_cache_ttl", 30*time.Second)

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("mq.type", "none")
	viper.SetDefault("mq.topic", "stamp_events_psbt")
	viper.SetDefault("mq.brokers", []string{"localhost:9092"})
}
