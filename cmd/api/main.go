package main

import (
	"context"
	"net/http"

	"recognition-api/internal/aitext"
	"recognition-api/internal/arbiter"
	"recognition-api/internal/config"
	"recognition-api/internal/handler"
	"recognition-api/internal/known"
	"recognition-api/internal/repository"
	"recognition-api/internal/service"
	"recognition-api/internal/signals"
	"recognition-api/internal/trainer"
	"recognition-api/internal/vision"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func main() {
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	// Database connection
	conn, err := pgxpool.New(context.Background(), cfg.DBSource)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to db")
	}
	defer conn.Close()

	// Initialize layers
	repo := repository.NewRepository(conn)

	knownEntries, err := repo.ListKnownLocations(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load known locations")
	}
	log.Info().Int("entries", len(knownEntries)).Msg("known locations loaded")

	matcher := known.NewMatcher(knownEntries)
	priorities := known.NewPriorityResolver(cfg.BusinessPriorities)
	normalizer := signals.NewNormalizer(cfg.Confidence, priorities)
	arb := arbiter.New(cfg.Confidence)

	visionClient := vision.NewClient(cfg.Sources.VisionURL, cfg.Sources.VisionTimeout)
	describerClient := aitext.NewClient(cfg.Sources.AITextURL, cfg.Sources.AITextTimeout)
	trainerClient := trainer.NewClient(cfg.Trainer.BaseURL, cfg.Trainer.Timeout)

	recognitionService := service.NewRecognitionService(
		normalizer, matcher, arb, repo,
		visionClient, describerClient,
		cfg.Sources.VisionTimeout, cfg.Sources.AITextTimeout,
		cfg.CorrectionRadiusDeg,
	)
	feedbackService := service.NewFeedbackService(repo, repo)
	syncService := service.NewQueueSyncService(repo, trainerClient, cfg.Trainer.BatchSize, cfg.Trainer.RetrainMinQueue)

	recognizeHandler := handler.NewRecognizeHandler(recognitionService)
	feedbackHandler := handler.NewFeedbackHandler(feedbackService)
	queueHandler := handler.NewQueueHandler(syncService)

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	v1.POST("/recognize", recognizeHandler.Recognize)
	v1.POST("/feedback", feedbackHandler.SubmitFeedback)
	v1.POST("/queue/sync", queueHandler.Sync)
	v1.GET("/queue/stats", queueHandler.Stats)

	r.Run(cfg.ServerAddress)
}
