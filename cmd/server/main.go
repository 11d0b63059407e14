package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"refsync/bot"
	"refsync/impl/core"
	"refsync/internal/abuse"
	"refsync/internal/config"
	"refsync/internal/database"
	"refsync/internal/http-server/api"
	"refsync/internal/seed"
	"refsync/internal/stats"
	"refsync/internal/store"
	"refsync/lib/logger"
	"refsync/lib/sl"
)

const (
	restoreTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	baseLog := logger.SetupLogger(conf.Env, *logPath)
	log := baseLog
	log.Info("starting refsync", slog.String("config", *configPath), slog.String("env", conf.Env))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var tgBot *bot.TgBot
	if conf.Telegram.Enabled {
		var err error
		tgBot, err = bot.NewTgBot(conf.Telegram.ApiKey, baseLog, bot.BotConfig{
			ChatIds:  conf.Telegram.ChatIds,
			MinLevel: slog.Level(conf.Telegram.MinLevel),
		})
		if err != nil {
			log.Error("telegram bot", sl.Err(err))
		} else {
			tgBot.Start(ctx)
			defer tgBot.Stop()
			log = logger.WithTelegram(baseLog, tgBot, slog.Level(conf.Telegram.MinLevel))
			log.Info("telegram bot started", slog.Int("chats", len(conf.Telegram.ChatIds)))
		}
	}

	policy := abuse.New(abuse.Config{
		MaxPendingReferrals:    conf.Referral.MaxPendingReferrals,
		MaxReferralsPerDay:     conf.Referral.MaxReferralsPerDay,
		ReferralExpirationDays: conf.Referral.ReferralExpirationDays,
	})
	st := store.New(store.WithPolicy(policy))
	handler := core.New(st, stats.New(st, conf.Referral.RewardPerCompletion), conf.ShareUrl, log)
	if tgBot != nil {
		handler.SetNotifier(tgBot)
	}

	if mongo := database.NewMongoClient(conf); mongo != nil {
		handler.SetMirror(mongo)
		restoreCtx, cancel := context.WithTimeout(ctx, restoreTimeout)
		users, referrals, err := handler.Restore(restoreCtx)
		cancel()
		if err != nil {
			log.Error("restore from mongodb", sl.Err(err))
			return
		}
		log.With(
			slog.Int("users", users),
			slog.Int("referrals", referrals),
		).Info("restored from mongodb")
	}

	if _, found := st.FirstUser(); !found && conf.Seed {
		if err := handler.Seed(ctx, seed.New(0, nil)); err != nil {
			log.Error("seed data", sl.Err(err))
			return
		}
	}

	server := api.New(conf, log, handler)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown", sl.Err(err))
		}
	}()

	if err := server.Start(); err != nil {
		log.Error("server stopped", sl.Err(err))
	}
	log.Info("service stopped")
}
