package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Leader   LeaderConfig   `mapstructure:"leader"`
	Instance InstanceConfig `mapstructure:"instance"`
	Keeper   KeeperConfig   `mapstructure:"keeper"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type LeaderConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type InstanceConfig struct {
	ID string `mapstructure:"id"`
}

// KeeperConfig carries the bidding policy and the keeper's ledger identity.
// Amount-valued fields are decimal strings so precision survives the config
// layer untouched.
type KeeperConfig struct {
	MaxPrice              string        `mapstructure:"max_price"`
	Step                  string        `mapstructure:"step"`
	MinimalBid            string        `mapstructure:"minimal_bid"`
	AllowanceCeiling      string        `mapstructure:"allowance_ceiling"`
	TraderAddress         string        `mapstructure:"trader_address"`
	AuctionManagerAddress string        `mapstructure:"auction_manager_address"`
	PollInterval          time.Duration `mapstructure:"poll_interval"`
}

func Load() (*Config, error) {
	// Set default values
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("mysql.dsn", "keeper_user:keeper_pass@tcp(localhost:3306)/keeper_db?parseTime=true")
	viper.SetDefault("mysql.max_open_conns", 25)
	viper.SetDefault("mysql.max_idle_conns", 10)
	viper.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("leader.ttl", 30*time.Second)
	viper.SetDefault("instance.id", "auction-keeper-1")
	viper.SetDefault("keeper.max_price", "20")
	viper.SetDefault("keeper.step", "0.5")
	viper.SetDefault("keeper.minimal_bid", "1")
	viper.SetDefault("keeper.allowance_ceiling", "1000000")
	viper.SetDefault("keeper.trader_address", "")
	viper.SetDefault("keeper.auction_manager_address", "")
	viper.SetDefault("keeper.poll_interval", 10*time.Second)

	// Configuration file settings
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/auction-keeper/")

	// Environment variable support
	viper.AutomaticEnv()

	// Environment variable mappings
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("redis.address", "REDIS_ADDRESS")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")
	viper.BindEnv("mysql.dsn", "MYSQL_DSN")
	viper.BindEnv("mysql.max_open_conns", "MYSQL_MAX_OPEN_CONNS")
	viper.BindEnv("mysql.max_idle_conns", "MYSQL_MAX_IDLE_CONNS")
	viper.BindEnv("mysql.conn_max_lifetime", "MYSQL_CONN_MAX_LIFETIME")
	viper.BindEnv("leader.ttl", "LEADER_TTL")
	viper.BindEnv("instance.id", "INSTANCE_ID")
	viper.BindEnv("keeper.max_price", "KEEPER_MAX_PRICE")
	viper.BindEnv("keeper.step", "KEEPER_STEP")
	viper.BindEnv("keeper.minimal_bid", "KEEPER_MINIMAL_BID")
	viper.BindEnv("keeper.allowance_ceiling", "KEEPER_ALLOWANCE_CEILING")
	viper.BindEnv("keeper.trader_address", "KEEPER_TRADER_ADDRESS")
	viper.BindEnv("keeper.auction_manager_address", "KEEPER_AUCTION_MANAGER_ADDRESS")
	viper.BindEnv("keeper.poll_interval", "KEEPER_POLL_INTERVAL")

	// Read configuration file (optional - will use defaults/env vars if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Config file not found, continue with defaults and environment variables
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// GetConfigString returns a formatted string representation of the config
func (c *Config) GetConfigString() string {
	return fmt.Sprintf(
		"Server: %s:%d, Redis: %s, MySQL: %s, Instance: %s, MaxPrice: %s, Step: %s",
		c.Server.Host,
		c.Server.Port,
		c.Redis.Address,
		c.MySQL.DSN,
		c.Instance.ID,
		c.Keeper.MaxPrice,
		c.Keeper.Step,
	)
}
