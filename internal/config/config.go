package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
)

type (
	Config struct {
		TelegramAPIToken  string   `env:"TOKEN,required"`
		DefaultLanguage   string   `env:"LANG,default=en"`
		EnabledHandlers   []string `env:"HANDLERS,default=admin,moderation"`
		LogLevel          int      `env:"LOG_LEVEL,default=2"`
		DBName            string   `env:"DB_NAME,default=sentinel.db"`
		MetricsListenAddr string   `env:"METRICS_LISTEN_ADDR,default=:2112"`
		Verification      Verification
	}

	Verification struct {
		TimeoutSeconds int `env:"VERIFICATION_TIMEOUT,default=60"`

		// Overrides the embedded suspicious-word list when set.
		ForbiddenWords []string `env:"FORBIDDEN_WORDS"`
	}
)

func (v Verification) Timeout() time.Duration {
	return time.Duration(v.TimeoutSeconds) * time.Second
}

var (
	once         sync.Once
	globalConfig = &Config{}
	globalErr    error
)

func Load() (Config, error) {
	once.Do(func() {
		cfg := &Config{}
		envcfg := envconfig.Config{
			Lookuper: envconfig.PrefixLookuper("SENTINEL_", envconfig.OsLookuper()),
			Target:   cfg,
		}
		if err := envconfig.ProcessWith(context.Background(), &envcfg); err != nil {
			globalErr = fmt.Errorf("process env config: %w", err)
			return
		}
		log.Traceln("loaded config")
		globalConfig = cfg
	})
	return *globalConfig, globalErr
}

func Get() Config {
	cfg, err := Load()
	if err != nil {
		log.WithField("error", err.Error()).Error("cant load config")
	}
	return cfg
}
