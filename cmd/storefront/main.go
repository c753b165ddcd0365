package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/example/storefront-state/internal/api"
	"github.com/example/storefront-state/internal/auth"
	"github.com/example/storefront-state/internal/backend"
	"github.com/example/storefront-state/internal/infrastructure/kafka"
	"github.com/example/storefront-state/internal/infrastructure/storage"
	"github.com/example/storefront-state/internal/session"
	"github.com/example/storefront-state/internal/state"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Configuration from environment variables
	listenAddr := getEnv("LISTEN_ADDR", ":8090")
	backendURL := getEnv("BACKEND_URL", "http://localhost:8080")
	storeBackend := getEnv("STORE_BACKEND", "file")
	profile := getEnv("STORE_PROFILE", "default")
	checkInterval, err := time.ParseDuration(getEnv("SESSION_CHECK_INTERVAL", "5s"))
	if err != nil {
		log.Fatalf("[Storefront] Invalid SESSION_CHECK_INTERVAL: %v", err)
	}

	log.Println("[Storefront] ========================================")
	log.Println("[Storefront] Storefront State Engine")
	log.Println("[Storefront] ========================================")
	log.Printf("[Storefront] Backend:  %s", backendURL)
	log.Printf("[Storefront] Storage:  %s (profile %s)", storeBackend, profile)

	adapter := newAdapter(ctx, storeBackend, profile)

	// Optional activity stream
	var emitter state.Emitter
	if brokersStr := os.Getenv("KAFKA_BROKERS"); brokersStr != "" {
		brokers := strings.Split(brokersStr, ",")
		topic := getEnv("KAFKA_TOPIC", "storefront-activity")
		producer := kafka.NewProducer(brokers, topic)
		defer producer.Close()
		emitter = producer
		log.Printf("[Storefront] Activity stream: %v topic %s", brokers, topic)
	}

	// Session layer: hydrate token/identity, then the state container
	sess := session.NewManager(ctx, adapter, auth.NewInspector())
	client := backend.NewClient(backendURL, sess.Token)

	st := state.New(ctx, state.Config{
		Storage: adapter,
		Wallet:  client,
		Auth:    sess,
		Emitter: emitter,
		Profile: profile,
	})

	handlers := api.NewHandlers(st, sess, checkInterval)
	defer handlers.DisarmWatchdog()

	// A rehydrated session gets its watchdog back immediately
	if sess.Token() != "" {
		handlers.ArmWatchdog()
		log.Println("[Storefront] Session rehydrated, watchdog armed")
	}

	server := &http.Server{
		Addr:    listenAddr,
		Handler: api.NewRouter(handlers),
	}

	go func() {
		log.Printf("[Storefront] Listening on %s", listenAddr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[Storefront] Server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Storefront] Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)
}

// newAdapter builds the configured persistent store backend.
func newAdapter(ctx context.Context, kind, profile string) storage.Adapter {
	switch kind {
	case "memory":
		return storage.NewMemory()

	case "file":
		dir := getEnv("STATE_DIR", "./state")
		adapter, err := storage.NewFile(dir)
		if err != nil {
			log.Fatalf("[Storefront] Failed to open state dir: %v", err)
		}
		return adapter

	case "postgres":
		connStr := os.Getenv("DATABASE_URL")
		if connStr == "" {
			log.Fatal("[Storefront] DATABASE_URL is required for the postgres backend")
		}
		db, err := storage.ConnectPostgres(connStr)
		if err != nil {
			log.Fatalf("[Storefront] Failed to connect to PostgreSQL: %v", err)
		}
		return storage.NewPostgres(db, profile)

	case "dynamo":
		table := os.Getenv("DYNAMO_TABLE")
		if table == "" {
			log.Fatal("[Storefront] DYNAMO_TABLE is required for the dynamo backend")
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			log.Fatalf("[Storefront] Failed to load AWS config: %v", err)
		}
		return storage.NewDynamo(dynamodb.NewFromConfig(cfg), table, profile)

	default:
		log.Fatalf("[Storefront] Unknown STORE_BACKEND %q", kind)
		return nil
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
