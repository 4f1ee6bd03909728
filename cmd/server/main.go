package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"directory-agent/config"
	"directory-agent/internal/client/gcal"
	"directory-agent/internal/client/history"
	"directory-agent/internal/client/llm"
	"directory-agent/internal/client/sheets"
	"directory-agent/internal/handler"
	"directory-agent/internal/lock"
	"directory-agent/internal/logging"
	"directory-agent/internal/service"
	"directory-agent/internal/service/agenda"
	"directory-agent/internal/service/conversation"
	"directory-agent/internal/service/directory"
	"directory-agent/internal/service/executor"
	servicellm "directory-agent/internal/service/llm"
)

func main() {
	// 按环境加载配置（APP_ENV=local|dev|prod）
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ginMode := cfg.Server.Mode
	if os.Getenv("GIN_MODE") != "" {
		ginMode = os.Getenv("GIN_MODE")
	}
	gin.SetMode(ginMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	timeout := cfg.Timeouts.External

	// 外部客户端
	sheetsClient, err := sheets.NewClient(ctx, sheets.Config{
		SpreadsheetID:   cfg.Sheets.SpreadsheetID,
		Range:           cfg.Sheets.Range,
		CredentialsFile: cfg.Sheets.CredentialsFile,
		Timeout:         timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("init sheets client")
	}
	calendarClient, err := gcal.NewClient(ctx, gcal.Config{
		CredentialsFile: cfg.Calendar.CredentialsFile,
		Timeout:         timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("init calendar client")
	}
	historyClient := history.NewClient(history.Config{
		BaseURL: cfg.History.BaseURL,
		APIKey:  cfg.History.APIKey,
		Timeout: timeout,
	})
	llmClient := llm.NewClient(llm.Config{
		APIKey:          cfg.LLM.APIKey,
		BaseURL:         cfg.LLM.BaseURL,
		Model:           cfg.LLM.Model,
		Temperature:     cfg.LLM.Temperature,
		DisableJSONMode: cfg.LLM.DisableJSONMode,
		Timeout:         timeout,
	})

	var locker lock.Locker = lock.Noop{}
	if cfg.Lock.RedisAddr != "" {
		redisLock, err := lock.NewRedis(ctx, lock.RedisConfig{
			Addr:     cfg.Lock.RedisAddr,
			Password: cfg.Lock.RedisPassword,
			DB:       cfg.Lock.RedisDB,
			TTL:      cfg.Lock.TTL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("init session lock")
		}
		defer redisLock.Close()
		locker = redisLock
		log.Info().Str("addr", cfg.Lock.RedisAddr).Msg("per-session edit lock enabled")
	}

	// 服务层
	store := directory.NewStore(sheetsClient)
	agendaSvc := agenda.NewService(calendarClient, agenda.Config{
		DefaultTimezone: cfg.Calendar.DefaultTimezone,
		LookaheadDays:   cfg.Calendar.LookaheadDays,
		ListLimit:       cfg.Calendar.ListLimit,
		SearchLimit:     cfg.Calendar.SearchLimit,
	})
	editSvc := service.NewEditService(
		conversation.NewReconciler(historyClient, cfg.History.SettleDelay),
		servicellm.NewResolver(servicellm.NewService(llmClient, cfg.Location())),
		executor.NewExecutor(store, agendaSvc),
		locker,
	)

	// 路由
	r := handler.Router(handler.NewWebhookHandler(editSvc, service.NewLookupService(store), service.NewCalendarService(agendaSvc)))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("addr", srv.Addr).Str("env", config.Env()).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("serve")
	}
}
