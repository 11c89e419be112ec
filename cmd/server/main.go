package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"academix-system/config"
	"academix-system/internal/database"
	"academix-system/internal/database/models"
	"academix-system/internal/gateway/handlers"
	"academix-system/internal/gateway/middleware"
	"academix-system/internal/services/payroll"
	"academix-system/internal/utils"
)

func main() {
	cfg := config.LoadConfig()

	var logger *zap.Logger
	var err error
	if cfg.Server.Mode == gin.ReleaseMode {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	utils.SetJWTSecret(cfg.Auth.JWTSecret)

	redisClient := config.NewRedisClient(cfg.Redis)
	defer redisClient.Close()

	db, err := database.NewConnection(cfg.DB.DSN())
	if err != nil {
		sugar.Fatalw("failed to connect to db", "error", err)
	}

	if err := models.MigrateUserDB(db); err != nil {
		sugar.Fatalw("failed to migrate user tables", "error", err)
	}
	if err := models.MigrateCourseDB(db); err != nil {
		sugar.Fatalw("failed to migrate course tables", "error", err)
	}
	if err := models.MigratePaymentDB(db); err != nil {
		sugar.Fatalw("failed to migrate payment tables", "error", err)
	}
	if err := models.MigratePayrollDB(db); err != nil {
		sugar.Fatalw("failed to migrate payroll tables", "error", err)
	}
	if err := models.MigrateOrganizationDB(db); err != nil {
		sugar.Fatalw("failed to migrate organization tables", "error", err)
	}

	payrollSvc := payroll.NewService(db, redisClient, sugar)

	tokenTTL := time.Duration(cfg.Auth.TokenTTL) * time.Hour
	userHandler := handlers.NewUserHTTPHandler(db, redisClient, payrollSvc, sugar, tokenTTL)
	courseHandler := handlers.NewCourseHTTPHandler(db, redisClient, sugar)
	paymentHandler := handlers.NewPaymentHTTPHandler(db, redisClient, payrollSvc, sugar)
	payrollHandler := handlers.NewPayrollHTTPHandler(db, redisClient, payrollSvc, sugar)
	orgHandler := handlers.NewOrganizationHTTPHandler(db, redisClient, sugar)

	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()

	r.Use(middleware.CORS())
	r.Use(middleware.RateLimit())

	// --- Public API Group ---
	public := r.Group("/api/v1")
	{
		auth := public.Group("/auth")
		{
			auth.POST("/login", userHandler.Login)
			auth.POST("/register", userHandler.Register)
		}

		public.POST("/organizations", orgHandler.CreateOrganization)
	}

	// --- Protected API Group ---
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth())
	{
		users := protected.Group("/users")
		{
			users.GET("", userHandler.ListUsers)
			users.GET("/teachers", userHandler.ListTeachers)
			users.GET("/:id", userHandler.GetUser)
			users.PUT("/:id", userHandler.UpdateUser)
		}

		courses := protected.Group("/courses")
		{
			courses.POST("", courseHandler.CreateCourse)
			courses.GET("", courseHandler.ListCourses)
			courses.GET("/:id", courseHandler.GetCourse)
			courses.PUT("/:id", courseHandler.UpdateCourse)
		}

		payments := protected.Group("/payments")
		{
			payments.POST("", paymentHandler.CreatePayment)
			payments.GET("", paymentHandler.ListPayments)
			payments.GET("/:id", paymentHandler.GetPayment)
			payments.PUT("/:id", paymentHandler.UpdatePayment)
		}

		payrollGroup := protected.Group("/payroll")
		{
			payrollGroup.GET("", payrollHandler.ListEntries)
			payrollGroup.POST("", payrollHandler.CreateManualEntry)
			payrollGroup.GET("/report", payrollHandler.Report)
			payrollGroup.POST("/reconcile", payrollHandler.Reconcile)
			payrollGroup.GET("/reconcile/progress", payrollHandler.ReconcileProgress)
			payrollGroup.POST("/pay", payrollHandler.BulkPayEntries)
			payrollGroup.GET("/:id", payrollHandler.GetEntry)
			payrollGroup.PUT("/:id", payrollHandler.AdjustEntry)
			payrollGroup.POST("/:id/pay", payrollHandler.PayEntry)
		}

		org := protected.Group("/organizations")
		{
			org.GET("/settings", orgHandler.GetSettings)
			org.PUT("/settings", orgHandler.UpdateSettings)
		}
	}

	sugar.Infow("academix server listening", "port", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		sugar.Fatalw("server exited", "error", err)
	}
}
