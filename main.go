package main

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/pixelflow/imagestorebackend/catalog"
	"github.com/pixelflow/imagestorebackend/config"
	"github.com/pixelflow/imagestorebackend/handlers"
	"github.com/pixelflow/imagestorebackend/ingest"
	"github.com/pixelflow/imagestorebackend/media"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	storagePaths := []string{cfg.OriginalsPath, cfg.PreviewsPath, filepath.Dir(cfg.CatalogPath)}
	for _, p := range storagePaths {
		log.Printf("Ensuring storage directory exists: %s", p)
		if err := os.MkdirAll(p, 0755); err != nil {
			log.Fatalf("FATAL: Failed to create storage directory %s: %v", p, err)
		}
	}

	cat, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("FATAL: Failed to open catalog: %v", err)
	}

	mediaSubDirs := map[media.AssetType]string{
		media.AssetTypeOriginal: filepath.Base(cfg.OriginalsPath),
		media.AssetTypePreview:  filepath.Base(cfg.PreviewsPath),
	}
	mediaStore, err := media.NewLocalStorage(cfg.StorageRootPath, mediaSubDirs)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize media store: %v", err)
	}

	previewGen := media.NewPreviewGenerator(mediaStore, cfg.PreviewMaxWidth, cfg.PreviewJpegQuality)
	pipeline := ingest.NewPipeline(cat, mediaStore, previewGen)
	validator := media.Validator{MaxFileSize: cfg.MaxFileSize, MaxBatchCount: cfg.MaxBatchCount}
	previewCache := handlers.NewPreviewCache(cfg.PreviewCacheSize, cfg.PreviewCacheTTL)

	log.Printf("Using catalog: %s", cfg.CatalogPath)
	log.Printf("Storing originals in: %s", cfg.OriginalsPath)
	log.Printf("Storing previews in: %s (max width %dpx)", cfg.PreviewsPath, cfg.PreviewMaxWidth)
	log.Printf("Upload limits: %d bytes per file, %d files per batch", cfg.MaxFileSize, cfg.MaxBatchCount)

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"}, //TODO: configurable
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)
	r.Use(handlers.MetricsMiddleware())

	imageHandler := &handlers.ImageHandler{
		Cfg:       cfg,
		Catalog:   cat,
		Store:     mediaStore,
		Pipeline:  pipeline,
		Validator: validator,
		Cache:     previewCache,
	}
	assetHandler := &handlers.AssetHandler{Catalog: cat, Store: mediaStore, Cache: previewCache}
	systemHandler := &handlers.SystemHandler{Cfg: cfg, Catalog: cat, Store: mediaStore}

	r.Route("/api", func(r chi.Router) {
		r.Route("/images", func(r chi.Router) {
			r.Post("/", imageHandler.UploadImages)
			r.Get("/", imageHandler.ListImages)
			r.Route("/{image_id}", func(r chi.Router) {
				r.Get("/", imageHandler.GetImage)
				r.Delete("/", imageHandler.DeleteImage)
				r.Get("/original", assetHandler.ServeOriginal)
				r.Get("/preview", assetHandler.ServePreview)
			})
		})

		r.Get("/system/drift", systemHandler.DriftReport)
	})

	r.Get("/health", systemHandler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	serverAddr := ":" + port
	log.Printf("Server listening on %s", serverAddr)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
