package config

import (
	"flag"
	"os"
	"sync"
)

const (
	defaultServerAddress = ":8080"
	defaultDatabaseDSN   = ""
	defaultRedisAddress  = ""
	defaultAMQPURL       = ""
	defaultLogLevel      = "debug"
	defaultSweepInterval = "5s"
)

type Config struct {
	ServerAddr    string
	DatabaseDSN   string
	RedisAddr     string
	AMQPURL       string
	LogLevel      string
	SweepInterval string
}

var (
	once      sync.Once
	singleton *Config
)

// New returns new Config. It parses command line and environment variables only once.
func New() (*Config, error) {
	once.Do(func() {
		cfg := Config{}

		// initialize flags
		flag.StringVar(&cfg.ServerAddr, "a", defaultServerAddress, "server address")
		flag.StringVar(&cfg.DatabaseDSN, "d", defaultDatabaseDSN, "database DSN")
		flag.StringVar(&cfg.RedisAddr, "r", defaultRedisAddress, "redis address")
		flag.StringVar(&cfg.AMQPURL, "q", defaultAMQPURL, "amqp broker url")
		flag.StringVar(&cfg.LogLevel, "l", defaultLogLevel, "log level")
		flag.StringVar(&cfg.SweepInterval, "s", defaultSweepInterval, "completion sweep interval")

		flag.Parse()

		// if environment variable is set, then using it
		if runAddrEnv := os.Getenv("RUN_ADDRESS"); runAddrEnv != "" {
			cfg.ServerAddr = runAddrEnv
		}
		if dataBaseURIEnv := os.Getenv("DATABASE_URI"); dataBaseURIEnv != "" {
			cfg.DatabaseDSN = dataBaseURIEnv
		}
		if redisAddrEnv := os.Getenv("REDIS_ADDRESS"); redisAddrEnv != "" {
			cfg.RedisAddr = redisAddrEnv
		}
		if amqpURLEnv := os.Getenv("AMQP_URL"); amqpURLEnv != "" {
			cfg.AMQPURL = amqpURLEnv
		}
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			cfg.LogLevel = logLevelEnv
		}
		if sweepIntervalEnv := os.Getenv("SWEEP_INTERVAL"); sweepIntervalEnv != "" {
			cfg.SweepInterval = sweepIntervalEnv
		}

		singleton = &cfg
	})

	return singleton, nil
}
