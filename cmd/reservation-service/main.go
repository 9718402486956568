package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kavelio/reservation-service/internal/app/background"
	"github.com/kavelio/reservation-service/internal/clock"
	"github.com/kavelio/reservation-service/internal/config"
	publisher "github.com/kavelio/reservation-service/internal/infrastructure/kafka"
	"github.com/kavelio/reservation-service/internal/infrastructure/metrics"
	"github.com/kavelio/reservation-service/internal/infrastructure/migrate"
	"github.com/kavelio/reservation-service/internal/infrastructure/postgres"
	"github.com/kavelio/reservation-service/internal/infrastructure/postgres/repository"
	usecase "github.com/kavelio/reservation-service/internal/usecase/reservation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()
	// Init database
	db := postgres.MustInitDB(cfg)

	if cfg.ReservationDB.MigrationsPath != "" {
		if err := migrate.RunMigrations(db, cfg.ReservationDB.MigrationsPath); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

	// Init kafka publisher
	brokers := []string{fmt.Sprintf("%s:%s", cfg.KafkaService.Host, cfg.KafkaService.Port)}
	kafkaPublisher := publisher.NewDefaultKafkaPublisher(brokers, cfg.KafkaService.Topic)
	defer kafkaPublisher.Close()

	// Init repositories
	reservationRepo := repository.NewDefaultReservationRepository(db)
	vendorDirectory := repository.NewPGVendorDirectory(db)

	// Init metrics
	reservationMetrics := metrics.NewReservationMetrics(prometheus.DefaultRegisterer)

	// Init reservation usecase
	uc := usecase.NewDefaultReservationUsecase(
		reservationRepo,
		vendorDirectory,
		usecase.DefaultGuardChain(reservationRepo),
		kafkaPublisher,
		reservationMetrics,
		clock.NewSystem(),
	)
	uc.SweepBatchSize = cfg.Sweeper.BatchSize

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Expiration sweeper
	tasks := background.NewBackgroundTasks(uc, time.Duration(cfg.Sweeper.IntervalSeconds)*time.Second)
	tasks.StartAll(ctx)

	// Metrics endpoint
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.HTTPServer.Host, cfg.HTTPServer.Port),
		Handler: mux,
	}

	go func() {
		log.Printf("reservation-service listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("http server shutdown: %v", err)
	}

	// Flush in-flight reservation events before the kafka writer closes.
	uc.DrainEvents()
}
