package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/gyanpath/lms-backend/internal/config"
	"github.com/gyanpath/lms-backend/internal/database"
	"github.com/gyanpath/lms-backend/internal/gateway"
	"github.com/gyanpath/lms-backend/internal/handlers"
	"github.com/gyanpath/lms-backend/internal/middleware"
	"github.com/gyanpath/lms-backend/internal/routes"
	"github.com/gyanpath/lms-backend/internal/services"
	"github.com/gyanpath/lms-backend/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	log.Printf("Connecting to MongoDB...")
	if err := database.Connect(cfg.MongoURI); err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer database.Disconnect()

	userStore := store.NewMongoUserStore(database.DB)
	courseStore := store.NewMongoCourseStore(database.DB)
	paymentStore := store.NewMongoPaymentStore(database.DB)

	if err := userStore.EnsureIndexes(context.Background()); err != nil {
		log.Printf("⚠️  WARNING: failed to ensure user indexes: %v", err)
	}
	if err := paymentStore.EnsureIndexes(context.Background()); err != nil {
		log.Printf("⚠️  WARNING: failed to ensure payment indexes: %v", err)
	}

	// Redis only backs the rate limiter; skip it when not configured.
	if cfg.RedisURI != "" {
		log.Printf("Connecting to Redis...")
		if err := database.ConnectRedis(cfg.RedisURI); err != nil {
			log.Printf("⚠️  WARNING: failed to connect to Redis, rate limiting disabled: %v", err)
		} else {
			defer database.DisconnectRedis()
		}
	}

	var media services.MediaUploader
	if cfg.CloudinaryName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		cld, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Printf("Warning: Failed to initialize Cloudinary: %v", err)
			log.Println("File uploads will not be available")
		} else {
			media = cld
			log.Println("✅ Cloudinary service initialized")
		}
	} else {
		log.Println("Warning: Cloudinary credentials not found. File uploads will not be available")
	}

	sessions := services.NewSessionService(cfg.JWTSecret, cfg.SessionTTL)
	mailer := services.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	razorpay := gateway.NewClient(cfg.RazorpayKeyID, cfg.RazorpaySecret, cfg.RazorpayPlanID)

	authHandler := handlers.NewAuthHandler(userStore, sessions, media, mailer, cfg.FrontendURL)
	courseHandler := handlers.NewCourseHandler(courseStore, media)
	paymentHandler := handlers.NewPaymentHandler(userStore, paymentStore, razorpay, cfg.RazorpayKeyID, cfg.RazorpaySecret)

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity() {
			r.Use(mw)
		}
		log.Println("✅ Production security enabled (security headers, per-IP + login rate limiting)")
	} else {
		r.Use(middleware.RateLimitMiddleware)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	routes.Setup(r, authHandler, courseHandler, paymentHandler, sessions, userStore)

	log.Printf("🚀 LMS backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
