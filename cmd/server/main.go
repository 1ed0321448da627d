package main

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"confplane/internal/changelog"
	"confplane/internal/config"
	"confplane/internal/db"
	"confplane/internal/featureflag"
	"confplane/internal/policyconfig"
	"confplane/internal/scopedconfig/cache"
	"confplane/internal/scopedconfig/repository"
	"confplane/internal/server"
	"confplane/internal/telemetry/otel"
)

// Default tables served when a key has no matching record at any scope.
// Resolved as synthetic GLOBAL values and cached like any resolution; a stored
// record for the same key always wins.
var (
	flagDefaults = map[string]bool{
		"MAINTENANCE_MODE": false,
	}
	policyDefaults = map[string]json.RawMessage{
		"LEAD_RATE_LIMIT": json.RawMessage(`{"perHour":100}`),
	}
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "confplane", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	providers.SetGlobal()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	var resolutionCache cache.Cache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer client.Close()
		resolutionCache = cache.NewRedis(client)
	} else {
		log.Println("REDIS_ADDR not set; using in-memory cache (single process only)")
		resolutionCache = cache.NewMemory()
	}

	producer, err := changelog.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.ChangelogKafkaTopic)
	if err != nil {
		log.Fatalf("changelog: %v", err)
	}
	defer producer.Close()
	emitter := changelog.Fanout(producer, otel.NewChangeEmitter(providers.LoggerProvider))

	flags := featureflag.NewService(
		repository.NewPostgresRepository[bool](conn, repository.TableFeatureFlags),
		resolutionCache, emitter, cfg.FlagTTL(), flagDefaults,
	)
	policies := policyconfig.NewService(
		repository.NewPostgresRepository[json.RawMessage](conn, repository.TableRuntimePolicies),
		resolutionCache, emitter, cfg.PolicyTTL(), policyDefaults,
	)
	flagRecords, err := flags.List(ctx)
	if err != nil {
		log.Fatalf("feature flags: %v", err)
	}
	policyRecords, err := policies.List(ctx)
	if err != nil {
		log.Fatalf("runtime policies: %v", err)
	}
	log.Printf("serving %d feature flag records, %d runtime policy records", len(flagRecords), len(policyRecords))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer lis.Close()

	s := server.New()
	go s.WatchReadiness(ctx, conn, 10*time.Second)

	go func() {
		log.Printf("gRPC server listening on %s", cfg.GRPCAddr)
		if err := s.Serve(lis); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down gRPC server...")
	s.GracefulStop()
	cancel()
	time.Sleep(changelog.ShutdownDrainDuration)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("otel shutdown: %v", err)
	}
	log.Println("gRPC server stopped")
}
