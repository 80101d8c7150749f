package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"groupchat/internal/chat"
	"groupchat/internal/db"
	"groupchat/internal/message"
	"groupchat/internal/presence"
	"groupchat/internal/room"
	"groupchat/internal/summary"
)

func main() {
	// 1. Config & Flags
	addr := flag.String("addr", ":8080", "http service address")
	flag.Parse()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("❌ DB_DSN is not set")
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// 2. Connect to Database (Platform Layer)
	database, err := db.NewDatabase(dsn)
	if err != nil {
		log.Fatalf("❌ Failed to connect to DB: %v", err)
	}
	log.Println("✅ Connected to PostgreSQL")

	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	log.Println("✅ Database Schema Initialized")

	// 3. Connect to Redis (Platform Layer)
	redisClient := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	log.Println("✅ Connected to Redis")

	// 4. Wire the features
	roomRepo := room.NewRepository(database.Conn)
	msgRepo := message.NewRepository(database.Conn)
	tracker := presence.NewTracker(redisClient)
	codeGen := room.NewCodeGenerator(roomRepo)
	hub := chat.NewHub()

	roomHandler := room.NewHandler(roomRepo, codeGen, tracker, logger)
	chatHandler := chat.NewHandler(hub, roomRepo, msgRepo, tracker, logger)

	// Optional summarizer; the chat core runs fine without it.
	var summarizer summary.Summarizer
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		model := os.Getenv("GEMINI_MODEL")
		if model == "" {
			model = "gemini-2.0-flash"
		}
		summarizer, err = summary.NewGeminiSummarizer(context.Background(), apiKey, model)
		if err != nil {
			log.Fatalf("❌ Failed to initialize summarizer: %v", err)
		}
		log.Println("✅ Summarizer enabled")
	}
	summaryHandler := summary.NewHandler(roomRepo, msgRepo, summarizer, logger)

	// 5. Define Routes
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("ok")) })

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Post("/rooms", roomHandler.Create)
		r.Get("/rooms", roomHandler.ListPublic)
		r.Post("/rooms/{code}/join", roomHandler.Join)
		r.Get("/rooms/{code}/online", roomHandler.Online)
		r.Get("/rooms/{code}/summary", summaryHandler.Summarize)
	})

	// WebSocket (Real-time); no request timeout on long-lived sockets
	r.Get("/ws/{code}", chatHandler.ServeWs)

	log.Printf("🚀 Server starting on %s", *addr)
	if err := http.ListenAndServe(*addr, r); err != nil {
		log.Fatal(err)
	}
}
