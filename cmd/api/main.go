package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Crew_Community/internal/config"
	"Crew_Community/internal/handler"
	"Crew_Community/internal/middleware"
	"Crew_Community/internal/pkg"
	"Crew_Community/internal/repository/mysql"
	"Crew_Community/internal/repository/redis"
	"Crew_Community/internal/router"
	"Crew_Community/internal/service"
	"Crew_Community/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := pkg.NewLogger(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	pkg.SetAccessSecret(cfg.JWTAccessSecret)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := mysql.InitDB(cfg.MySQLDSN)
	if err != nil {
		log.Fatal("init mysql failed", "err", err)
	}
	// 自动建表（开发阶段 OK）
	if err := mysql.AutoMigrate(db); err != nil {
		log.Fatal("auto migrate failed", "err", err)
	}

	// 连接redis
	rdb, err := redis.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal("init redis failed", "err", err)
	}
	defer rdb.Close()

	var images service.ImageStore = storage.NopStore{}
	if cfg.GCSBucket != "" {
		gcs, err := storage.NewGCSStore(ctx, storage.GCSConfig{
			Bucket:      cfg.GCSBucket,
			CDNDomain:   cfg.GCSCDNDomain,
			Credentials: cfg.GCSCredentials,
		})
		if err != nil {
			log.Fatal("init gcs failed", "err", err)
		}
		defer gcs.Close()
		images = gcs
	} else {
		log.Warn("gcs bucket not configured, image upload disabled")
	}

	sender := service.LogSender(log)
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := pkg.NewKafkaProducer(pkg.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		if err != nil {
			log.Fatal("init kafka failed", "err", err)
		}
		defer producer.Close()
		sender = service.KafkaSender(producer)
	}

	outbox := &mysql.OutboxRepository{DB: db}
	crews := &mysql.CrewRepository{DB: db}
	lock := &redis.DistLock{RDB: rdb}

	deps := service.CrewDeps{
		Tx:             &mysql.Transactor{DB: db},
		Crews:          crews,
		Tags:           &mysql.CrewTagRepository{DB: db},
		Members:        &mysql.CrewMemberRepository{DB: db},
		Applications:   &mysql.CrewApplicationRepository{DB: db},
		Meetings:       &mysql.MeetingRepository{DB: db},
		MeetingMembers: &mysql.MeetingMemberRepository{DB: db},
		Users:          &mysql.UserRepository{DB: db},
		Outbox:         outbox,
		Images:         images,
		Thumbnails:     redis.NewThumbnailCache(rdb),
		Log:            log,
		MaxJoined:      cfg.MaxJoinedCrews,
		MaxApplied:     cfg.MaxAppliedCrews,
	}
	crewSvc := service.NewCrewService(deps)
	querySvc := service.NewCrewQueryService(deps)
	meetingSvc := service.NewMeetingService(deps)

	go service.NewOutboxRelayer(outbox, sender, lock, log, cfg.OutboxInterval).Run(ctx)
	go service.NewMemberCountReconciler(crews, lock, log, cfg.ReconcileInterval).Run(ctx)

	// Gin
	r := router.InitRouter(router.Deps{
		Crews:      handler.NewCrewHandler(crewSvc, querySvc, log),
		Meetings:   handler.NewMeetingHandler(meetingSvc, log),
		Tokens:     &redis.TokenRepository{RDB: rdb},
		ApplyLimit: middleware.NewUserLimiter(cfg.ApplyRateRPS, cfg.ApplyRateBurst, 10*time.Minute),
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("http server started", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", "err", err)
	}
	log.Info("server exited")
}
