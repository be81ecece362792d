package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"pix-provider/internal/config"
	"pix-provider/internal/logging"
	"pix-provider/internal/metrics"
	"pix-provider/internal/payment"
	"pix-provider/internal/pix"
	"pix-provider/internal/server"
	"pix-provider/internal/store"
	"pix-provider/internal/webhook"
)

func main() {
	if os.Getenv("APP_ENV") != "production" {
		godotenv.Load()
	}

	cfg := config.MustLoadConfig("config")

	logger := logging.GetLogger(cfg.Logs)

	metrics.Setup(cfg.Metrics)

	fileStore := store.NewFileStore(cfg.Store.File, logger)

	repo, err := payment.NewRepository(fileStore, logger)
	if err != nil {
		log.Fatal(err)
	}

	generator := pix.NewStaticGenerator(cfg.Pix)
	notifier := webhook.NewNotifier(cfg.Webhook, logger)

	engine := payment.NewEngine(repo, generator, notifier, logger)

	srv := server.New(cfg, engine, logger)

	logger.Info("PIX test provider starting",
		"port", cfg.Server.Port,
		"authEnabled", cfg.Auth.Token != "",
		"webhookUrl", cfg.Webhook.URL,
		"storeFile", cfg.Store.File,
	)

	log.Fatal(http.ListenAndServe(":"+cfg.Server.Port, srv))
}
