package main

import (
	"context"
	"net/http"
	"time"

	"cultural-property-api/internal/config"
	"cultural-property-api/internal/handler"
	"cultural-property-api/internal/repository"
	"cultural-property-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Cultural Property API
// @version 1.0
// @description REST API for cataloguing Japanese cultural property records, with CSV bulk import.
// @BasePath /api
func main() {
	config, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	// Database connection
	conn, err := pgxpool.New(context.Background(), config.DBSource)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to db")
	}
	defer conn.Close()

	// Initialize layers
	repo := repository.NewRepository(conn)
	if err := repo.Migrate(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("cannot migrate schema")
	}

	sessions := repository.NewSessionCache(30 * time.Minute)

	propertyService := service.NewPropertyService(repo)
	movieService := service.NewMovieService(repo)
	tagService := service.NewTagService(repo)
	importService := service.NewImportService(repo, sessions)
	accountService := service.NewAccountService(repo, service.NewLogMailer())

	propertyHandler := handler.NewPropertyHandler(propertyService)
	movieHandler := handler.NewMovieHandler(movieService)
	tagHandler := handler.NewTagHandler(tagService)
	importHandler := handler.NewImportHandler(importService)
	accountHandler := handler.NewAccountHandler(accountService)

	r := gin.Default()
	r.Use(handler.Identity())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")

	api.GET("/cultural_property", propertyHandler.List)
	api.GET("/cultural_property/my", propertyHandler.My)
	api.GET("/cultural_property/:id", propertyHandler.Get)
	api.POST("/cultural_property", propertyHandler.Create)
	api.PUT("/cultural_property/:id", propertyHandler.Update)
	api.DELETE("/cultural_property/:id", propertyHandler.Delete)

	api.GET("/movie", movieHandler.List)
	api.GET("/movie/my", movieHandler.My)
	api.GET("/movie/:id", movieHandler.Get)
	api.POST("/movie", movieHandler.Create)
	api.PUT("/movie/:id", movieHandler.Update)
	api.DELETE("/movie/:id", movieHandler.Delete)

	api.GET("/tag", tagHandler.List)
	api.GET("/tag/:id", tagHandler.Get)
	api.POST("/tag", tagHandler.Create)
	api.PUT("/tag/:id", tagHandler.Update)
	api.DELETE("/tag/:id", tagHandler.Delete)

	api.POST("/import/preview", importHandler.Preview)
	api.POST("/import/execute", importHandler.Execute)

	api.POST("/accounts/signup", accountHandler.SignUp)
	api.GET("/accounts/verify-email", accountHandler.VerifyEmail)
	api.POST("/accounts/resend-verification", accountHandler.ResendVerification)
	api.GET("/accounts/me", accountHandler.Profile)
	api.PUT("/accounts/me", accountHandler.UpdateProfile)
	api.POST("/accounts/change-password", accountHandler.ChangePassword)

	r.Run(config.ServerAddress)
}
