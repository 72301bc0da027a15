package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sirrryasir/edoskill360-sub000/internal/api/handlers"
	"github.com/sirrryasir/edoskill360-sub000/internal/api/middleware"
	"github.com/sirrryasir/edoskill360-sub000/internal/config"
	"github.com/sirrryasir/edoskill360-sub000/internal/services"
	"github.com/sirrryasir/edoskill360-sub000/internal/storage"
)

// SetupRouter wires the services and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, notifier services.Notifier) *gin.Engine {
	userService := services.NewUserService(db)
	skillService := services.NewSkillService(db)
	verificationService := services.NewVerificationService(db, notifier)

	var oracle services.QuestionOracle
	if cfg.OracleURL != "" {
		oracle = services.NewHTTPOracle(cfg)
	}
	assessmentService := services.NewAssessmentService(db, oracle, verificationService, skillService, notifier, cfg.DefaultQuestionCount)
	reviewService := services.NewReviewService(db, verificationService, assessmentService, userService)

	var proofStorage storage.IProofStorage
	if cfg.AwsS3Bucket != "" {
		var err error
		proofStorage, err = storage.NewS3Storage(cfg)
		if err != nil {
			log.Fatalf("CRITICAL: Failed to initialize S3 storage for API: %v", err)
		}
	}

	r := gin.Default()

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)
	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	authHandler := handlers.NewRestAuthHandler(cfg, userService)
	verificationHandler := handlers.NewRestVerificationHandler(verificationService, userService, proofStorage)
	assessmentHandler := handlers.NewRestAssessmentHandler(assessmentService, skillService, userService)
	reviewHandler := handlers.NewRestReviewHandler(reviewService, userService)

	v1 := r.Group("/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		v1.POST("/auth/register", authHandler.Register)
		v1.POST("/auth/login", authHandler.Login)
		v1.GET("/skills", assessmentHandler.ListSkills)

		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			authRequired.GET("/verification", verificationHandler.GetStatus)
			authRequired.POST("/verification/profile/complete", verificationHandler.CompleteProfile)
			authRequired.POST("/verification/identity/upload-url", verificationHandler.CreateProofUploadURL)
			authRequired.POST("/verification/identity", verificationHandler.SubmitIdentity)
			authRequired.POST("/verification/interview", verificationHandler.SubmitInterview)
			authRequired.POST("/verification/reference", verificationHandler.SubmitReference)

			authRequired.PUT("/me/skills", assessmentHandler.ClaimSkills)
			authRequired.GET("/assessments", assessmentHandler.ListAssessments)
			authRequired.POST("/assessments/:id/sessions", assessmentHandler.StartSession)
			authRequired.POST("/sessions/:id/submit", assessmentHandler.SubmitSession)
			authRequired.GET("/sessions/:id", assessmentHandler.GetSession)
		}

		agentRequired := v1.Group("/review")
		agentRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret), middleware.AgentMiddleware())
		{
			agentRequired.GET("/queue", reviewHandler.GetQueue)
			agentRequired.POST("/:id/decision", reviewHandler.PostDecision)
		}

		adminRequired := v1.Group("/admin")
		adminRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret), middleware.AdminMiddleware())
		{
			adminRequired.POST("/assessments", assessmentHandler.PublishAssessment)
		}
	}

	return r
}
