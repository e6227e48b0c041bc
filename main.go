package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/robostop/sentinel/internal/bot"
	"github.com/robostop/sentinel/internal/config"
	"github.com/robostop/sentinel/internal/db/sqlite"
	admin "github.com/robostop/sentinel/internal/handlers/admin"
	moderation "github.com/robostop/sentinel/internal/handlers/moderation"
	"github.com/robostop/sentinel/internal/infra"
	"github.com/robostop/sentinel/internal/lifecycle"
	"github.com/robostop/sentinel/internal/observability"
)

func main() {
	cfg := config.Get()
	log.SetFormatter(&config.StFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.Level(cfg.LogLevel))

	infra.GoRecoverable("main", func() {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if err := observability.Init(ctx, cfg.MetricsListenAddr); err != nil {
			log.WithError(err).Fatalln("cant initialize observability")
		}

		botAPI, err := api.NewBotAPI(cfg.TelegramAPIToken)
		if err != nil {
			log.WithError(err).Errorln("cant initialize bot api")
			time.Sleep(1 * time.Second)
			log.Fatalln("exiting")
		}
		if log.Level(cfg.LogLevel) == log.TraceLevel {
			botAPI.Debug = true
		}
		defer botAPI.StopReceivingUpdates()

		client, err := sqlite.NewSQLiteClient(ctx, infra.GetWorkDir(), cfg.DBName)
		if err != nil {
			log.WithError(err).Fatalln("cant initialize sqlite client")
		}
		defer func() {
			if err := client.Close(); err != nil {
				log.WithError(err).Errorln("cant close sqlite client")
			}
		}()

		service := bot.NewService(botAPI, client, &cfg)

		verifier := moderation.NewVerifier(botAPI, client, &cfg)
		bot.RegisterUpdateHandler("moderation", verifier)
		bot.RegisterUpdateHandler("admin", admin.NewAdmin(botAPI, client, &cfg))

		runtime := lifecycle.NewRuntime(verifier)
		if err := runtime.Start(ctx); err != nil {
			log.WithError(err).Fatalln("cant start components")
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer stopCancel()
			if err := runtime.Stop(stopCtx); err != nil {
				log.WithError(err).Errorln("cant stop components")
			}
		}()

		updateConfig := api.NewUpdate(0)
		updateConfig.Timeout = 60
		updateProcessor := bot.NewUpdateProcessor(service)
		updateChan, errorChan := bot.GetUpdatesChans(ctx, botAPI, updateConfig)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			for {
				select {
				case err := <-errorChan:
					return errors.WithMessage(err, "bot api get updates error")
				case update := <-updateChan:
					if err := updateProcessor.Process(gctx, &update); err != nil {
						log.WithError(err).Errorln("cant process update")
					}
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		})

		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Errorln("no more updates")
		}
	})
}
