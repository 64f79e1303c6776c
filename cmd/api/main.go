package main

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/preludehq/leaddesk/internal/cache"
	"github.com/preludehq/leaddesk/internal/infra/http/handlers"
	"github.com/preludehq/leaddesk/internal/infra/http/middleware"
	"github.com/preludehq/leaddesk/internal/infra/integration/crmapi"
	"github.com/preludehq/leaddesk/internal/infra/integration/leadsapi"
	"github.com/preludehq/leaddesk/internal/infra/mail"
	"github.com/preludehq/leaddesk/internal/infra/queue"
	"github.com/preludehq/leaddesk/internal/store"
	"github.com/preludehq/leaddesk/internal/usecase"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	godotenv.Load()

	userEmail := os.Getenv("USER_EMAIL")
	if userEmail == "" {
		log.Println("⚠️  USER_EMAIL not set, lead loads will be no-ops until configured")
	}

	// 1. Cache (file-backed; swap for MemoryStorage in tests)
	cacheDir := env("CACHE_DIR", defaultCacheDir())
	storage, err := cache.NewFileStorage(cacheDir, 10*1024*1024)
	if err != nil {
		log.Fatal(err)
	}
	dataCache := cache.New(storage)

	// 2. Upstream clients
	leadsURL := env("LEADS_API_URL", "http://localhost:9000")
	crmURL := env("CRM_API_URL", "http://localhost:8003")
	leadsClient := leadsapi.NewClient(leadsURL, os.Getenv("LEADS_API_TOKEN"))
	crmClient := crmapi.NewClient(crmURL, os.Getenv("CRM_API_TOKEN"))

	// 3. Stores
	leadStore := store.New(leadsClient, dataCache, userEmail)
	leadStore.OnCacheRead = middleware.RecordCacheRead
	tokenStore := store.NewTokenStore(dataCache, userEmail)

	// 4. Outreach pipeline
	rabbitMQ, err := queue.NewRabbitMQ(
		env("RABBITMQ_USER", "user"), env("RABBITMQ_PASS", "password"),
		env("RABBITMQ_HOST", "localhost"), env("RABBITMQ_PORT", "5672"),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer rabbitMQ.Conn.Close()
	defer rabbitMQ.Ch.Close()

	producer := queue.NewProducer(rabbitMQ.Ch)

	mailPort, _ := strconv.Atoi(env("MAIL_PORT", "587"))
	mailSender := mail.NewEmailSender(
		os.Getenv("MAIL_HOST"), mailPort, os.Getenv("MAIL_USER"), os.Getenv("MAIL_PASS"),
		env("MAIL_FROM", "outreach@prelude.local"),
	)

	worker := queue.NewWorker(rabbitMQ.Ch, mailSender, leadsClient)
	go worker.Start(queue.QueueName)

	// 5. Use cases
	createLeadUC := usecase.NewCreateLeadUseCase(leadsClient, leadStore)
	outreachUC := usecase.NewSendOutreachUseCase(producer, leadStore)

	// 6. Handlers
	leadHandler := handlers.NewLeadHandler(leadStore, leadsClient, createLeadUC, outreachUC)
	leadHandler.Tokens = tokenStore
	crmHandler := handlers.NewCRMHandler(crmClient)
	healthHandler := handlers.NewHealthHandler(rabbitMQ.Conn, leadsURL, crmURL)

	// 7. Router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/leads", func(r chi.Router) {
		r.Get("/", leadHandler.List)
		r.Post("/", leadHandler.Create)
		r.Post("/refresh", leadHandler.Refresh)
		r.Get("/export", leadHandler.ExportCSV)
		r.Get("/stats", leadHandler.GetStats)
		r.Post("/outreach", leadHandler.Outreach)
		r.Post("/sync-replies", leadHandler.SyncReplies)
		r.Put("/{id}", leadHandler.Update)
		r.Patch("/{id}/status", leadHandler.UpdateStatus)
		r.Delete("/{id}", leadHandler.Delete)
		r.Post("/{id}/promote", leadHandler.Promote)
		r.Get("/{id}/ai-suggestion", leadHandler.AISuggestion)
		r.Post("/{id}/ai-suggestion/regenerate", leadHandler.RegenerateAISuggestion)
	})

	r.Post("/api/auth/token", leadHandler.SaveToken)
	r.Post("/api/cache/clear", leadHandler.ClearCache)

	r.Route("/api/crm", func(r chi.Router) {
		r.Get("/meetings", crmHandler.ListMeetings)
		r.Post("/meetings", crmHandler.CreateMeeting)
		r.Get("/meetings/{id}", crmHandler.GetMeeting)
		r.Put("/meetings/{id}", crmHandler.UpdateMeeting)
		r.Delete("/meetings/{id}", crmHandler.DeleteMeeting)
		r.Post("/sync-all-google-calendar", crmHandler.SyncCalendar)

		r.Route("/customers/{customerId}/contacts", func(r chi.Router) {
			r.Get("/", crmHandler.ListContacts)
			r.Post("/", crmHandler.CreateContact)
			r.Put("/{contactId}", crmHandler.UpdateContact)
			r.Delete("/{contactId}", crmHandler.DeleteContact)
			r.Put("/{contactId}/set-primary", crmHandler.SetPrimaryContact)
		})

		r.Route("/deals/{id}", func(r chi.Router) {
			r.Put("/", crmHandler.UpdateDeal)
			r.Get("/notes", crmHandler.ListDealNotes)
			r.Post("/notes", crmHandler.CreateDealNote)
			r.Get("/call-summaries", crmHandler.ListDealCallSummaries)
			r.Get("/meetings", crmHandler.ListDealMeetings)
			r.Get("/activities", crmHandler.ListDealActivities)
			r.Post("/activities", crmHandler.CreateDealActivity)
		})

		r.Put("/notes/{id}", crmHandler.UpdateNote)
	})

	port := ":" + env("PORT", "8080")
	log.Printf("🔥 leaddesk API listening on %s", port)
	http.ListenAndServe(port, r)
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".leaddesk-cache"
	}
	return filepath.Join(home, ".config", "leaddesk", "cache")
}
