package bot

import (
	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/robostop/sentinel/internal/config"
	"github.com/robostop/sentinel/internal/db"
)

// ServiceBot defines bot-specific operations
type ServiceBot interface {
	GetBot() *api.BotAPI
}

// ServiceDB defines database-specific operations
type ServiceDB interface {
	GetDB() db.Client
}

// Service defines the core bot service interface
type Service interface {
	ServiceBot
	ServiceDB
	GetLanguage() string
}

type service struct {
	bot *api.BotAPI
	db  db.Client
	cfg *config.Config
}

func NewService(bot *api.BotAPI, db db.Client, cfg *config.Config) *service {
	return &service{
		bot: bot,
		db:  db,
		cfg: cfg,
	}
}

func (s *service) GetBot() *api.BotAPI {
	return s.bot
}

func (s *service) GetDB() db.Client {
	return s.db
}

func (s *service) GetLanguage() string {
	return s.cfg.DefaultLanguage
}
