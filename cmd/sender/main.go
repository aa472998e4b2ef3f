package main

import (
	"context"
	"errors"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/rabbitmq"
	"github.com/wb-go/wbf/redis"
	"github.com/wb-go/wbf/zlog"

	dispatchapi "github.com/kimsangwoo/bizmsg/internal/api/handlers/dispatch"
	draftapi "github.com/kimsangwoo/bizmsg/internal/api/handlers/draft"
	templateapi "github.com/kimsangwoo/bizmsg/internal/api/handlers/template"
	"github.com/kimsangwoo/bizmsg/internal/api/router"
	"github.com/kimsangwoo/bizmsg/internal/api/server"
	"github.com/kimsangwoo/bizmsg/internal/config"
	"github.com/kimsangwoo/bizmsg/internal/draft"
	"github.com/kimsangwoo/bizmsg/internal/model"
	dispatchmsg "github.com/kimsangwoo/bizmsg/internal/rabbitmq/handlers/dispatch"
	"github.com/kimsangwoo/bizmsg/internal/rabbitmq/queue"
	batchrepo "github.com/kimsangwoo/bizmsg/internal/repository/batch"
	templaterepo "github.com/kimsangwoo/bizmsg/internal/repository/template"
	dispatchsvc "github.com/kimsangwoo/bizmsg/internal/service/dispatch"
	templatesvc "github.com/kimsangwoo/bizmsg/internal/service/template"
	"github.com/kimsangwoo/bizmsg/internal/worker"
	"github.com/kimsangwoo/bizmsg/pkg/kakaobiz"
	"github.com/kimsangwoo/bizmsg/pkg/mts"
	"github.com/kimsangwoo/bizmsg/pkg/naverbiz"
	"github.com/kimsangwoo/bizmsg/pkg/rcsbiz"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zlog.Init()
	cfg := config.Must()
	val := validator.New()

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL(), cfg.RabbitMQ.Retries, cfg.RabbitMQ.Pause)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to rabbitmq")
	}

	ch, err := conn.Channel()
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to open channel")
	}

	q, err := queue.NewDispatchQueue(ch)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to create dispatch queue")
	}

	opts := &dbpg.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}

	slaveDSNs := make([]string, 0, len(cfg.Database.Slaves))
	for _, s := range cfg.Database.Slaves {
		slaveDSNs = append(slaveDSNs, s.DSN())
	}

	db, err := dbpg.New(cfg.Database.Master.DSN(), slaveDSNs, opts)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	dbNum, err := strconv.Atoi(cfg.Redis.Database)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to parse redis database")
	}

	rdb := redis.New(cfg.Redis.Address, cfg.Redis.Password, dbNum)

	if err = rdb.Ping(ctx).Err(); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to redis")
	}

	mtsClient := mts.NewClient(cfg.Providers.MTS.BaseURL, cfg.Providers.MTS.APIKey)
	kakaoClient := kakaobiz.NewClient(cfg.Providers.Kakao.BaseURL, cfg.Providers.Kakao.APIKey)
	naverClient := naverbiz.NewClient(cfg.Providers.Naver.BaseURL, cfg.Providers.Naver.APIKey)
	rcsClient := rcsbiz.NewClient(cfg.Providers.RCS.BaseURL, cfg.Providers.RCS.APIKey)

	senders := map[model.Channel]dispatchsvc.Sender{
		model.ChannelSMS:        mtsClient,
		model.ChannelAlimtalk:   kakaoClient,
		model.ChannelFriendtalk: kakaoClient,
		model.ChannelBrand:      kakaoClient,
		model.ChannelNaver:      naverClient,
		model.ChannelRCS:        rcsClient,
	}

	gateways := map[model.Channel]templatesvc.InspectionGateway{
		model.ChannelAlimtalk: kakaoClient,
		model.ChannelBrand:    kakaoClient,
		model.ChannelNaver:    naverClient,
	}

	tmplService := templatesvc.NewService(templaterepo.NewRepository(db), gateways, rdb)
	dispService := dispatchsvc.NewService(batchrepo.NewRepository(db), q, senders, rdb, cfg.Workers.Count)
	draftStore := draft.NewStore(rdb)

	tmplHandler := templateapi.NewHandler(tmplService, val, cfg)
	dispHandler := dispatchapi.NewHandler(dispService, val, cfg)
	draftHandler := draftapi.NewHandler(draftStore, cfg)
	messageHandler := dispatchmsg.NewHandler(dispService)

	dispatcher := worker.NewDispatcher(q, messageHandler, dispService)

	go dispatcher.Run(ctx, cfg.Retry, cfg.Workers.Count)

	r := router.New(tmplHandler, dispHandler, draftHandler)
	s := server.New(cfg.Server.HTTPPort, r)

	go func() {
		if err := s.ListenAndServe(); err != nil {
			zlog.Logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	zlog.Logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	zlog.Logger.Info().Msg("shutting down server")
	if err := s.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to shutdown server")
	}

	if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
		zlog.Logger.Info().Msg("timeout exceeded, forcing shutdown")
	}

	if err := db.Master.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close master DB")
	}

	for i, slave := range db.Slaves {
		if err := slave.Close(); err != nil {
			zlog.Logger.Error().Err(err).Int("slave", i).Msg("failed to close slave DB")
		}
	}

	if err := ch.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close RabbitMQ channel")
	}

	if err := conn.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close RabbitMQ connection")
	}
}
