package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"docket-service/internal/db"
	"docket-service/internal/dispatch"
	"docket-service/internal/handlers"
	"docket-service/internal/middleware"
	"docket-service/internal/observability"
	"docket-service/internal/rabbitmq"
	"docket-service/internal/reconcile"
	"docket-service/internal/repositories"
	"docket-service/internal/telemetry"
	"docket-service/internal/ws"
)

const serviceName = "docket-service"

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	shutdownTracing, err := telemetry.Init(ctx, serviceName,
		getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""))
	if err != nil {
		logger.Fatal("failed to init tracing", zap.Error(err))
	}
	defer shutdownTracing(context.Background())

	mongoURI := getEnv("MONGO_URI", "mongodb://localhost:27017")
	mongoDB := getEnv("MONGO_DB", "docket")
	database, err := db.Connect(ctx, mongoURI, mongoDB)
	if err != nil {
		logger.Fatal("failed to connect to db", zap.Error(err))
	}
	if err := db.EnsureIndexes(ctx, database); err != nil {
		logger.Fatal("failed to ensure indexes", zap.Error(err))
	}

	groupRepo := repositories.NewGroupRepo(database)
	listRepo := repositories.NewListRepo(database)
	itemRepo := repositories.NewItemRepo(database)
	noteRepo := repositories.NewNoteRepo(database)
	commentRepo := repositories.NewCommentRepo(database)
	pollRepo := repositories.NewPollRepo(database)
	inviteRepo := repositories.NewInviteRepo(database)
	invitationRepo := repositories.NewInvitationRepo(database)
	activityRepo := repositories.NewActivityRepo(database)
	notificationRepo := repositories.NewNotificationRepo(database)
	userRepo := repositories.NewUserRepo(database)

	publisher := rabbitmq.NewPublisher(
		getEnv("RABBITMQ_URL", ""),
		getEnv("RABBITMQ_EXCHANGE", "docket.activity"),
		logger,
	)
	defer publisher.Close()

	hub := ws.NewHub(logger)
	dispatcher := dispatch.New(activityRepo, notificationRepo, groupRepo, publisher, hub,
		logger, serviceName, getEnv("ENVIRONMENT", "development"))
	defer dispatcher.Wait()

	verifier := middleware.NewVerifier(getEnv("JWT_SECRET", "dev-secret"))

	groupHandler := handlers.NewGroupHandler(groupRepo, listRepo, itemRepo, noteRepo,
		commentRepo, pollRepo, inviteRepo, dispatcher, logger)
	listHandler := handlers.NewListHandler(listRepo, itemRepo, groupRepo, dispatcher, logger)
	itemHandler := handlers.NewItemHandler(itemRepo, listRepo, groupRepo, dispatcher, logger)
	noteHandler := handlers.NewNoteHandler(noteRepo, commentRepo, groupRepo, userRepo, dispatcher, logger)
	pollHandler := handlers.NewPollHandler(pollRepo, groupRepo, dispatcher, logger)
	inviteHandler := handlers.NewInviteHandler(inviteRepo, invitationRepo, groupRepo, userRepo,
		notificationRepo, dispatcher, logger)
	syncHandler := handlers.NewSyncHandler(reconcile.New(listRepo), logger)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	activityHandler := handlers.NewActivityHandler(activityRepo, groupRepo)
	healthHandler := handlers.NewHealthHandler(serviceName, func(ctx context.Context) error {
		return database.Client().Ping(ctx, nil)
	})

	groupWS := ws.NewGroupWebSocketHandler(hub, groupRepo, verifier)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handlers.RequestIDMiddleware())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/api/invites/:token", inviteHandler.Lookup)
	router.GET("/ws/groups/:group_id", groupWS.Handle)

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(verifier))

	api.POST("/groups", groupHandler.Create)
	api.GET("/groups", groupHandler.ListMine)
	api.GET("/groups/:group_id", groupHandler.Get)
	api.PATCH("/groups/:group_id", groupHandler.Update)
	api.DELETE("/groups/:group_id", groupHandler.Delete)
	api.PATCH("/groups/:group_id/members/:user_id", groupHandler.UpdateMemberRole)
	api.DELETE("/groups/:group_id/members/:user_id", groupHandler.KickMember)
	api.POST("/groups/:group_id/leave", groupHandler.Leave)

	api.POST("/groups/:group_id/invites", inviteHandler.Generate)
	api.POST("/invites/:token/accept", inviteHandler.Accept)
	api.POST("/groups/:group_id/invitations", inviteHandler.SendInvite)
	api.GET("/invitations", inviteHandler.ListMyInvitations)
	api.POST("/invitations/:invitation_id", inviteHandler.Respond)

	api.POST("/lists", listHandler.Create)
	api.GET("/lists", listHandler.ListMine)
	api.GET("/lists/:list_id", listHandler.Get)
	api.PATCH("/lists/:list_id", listHandler.Update)
	api.DELETE("/lists/:list_id", listHandler.Delete)
	api.GET("/groups/:group_id/lists", listHandler.ListByGroup)

	api.POST("/lists/:list_id/items", itemHandler.Create)
	api.GET("/lists/:list_id/items", itemHandler.List)
	api.PATCH("/items/:item_id", itemHandler.Update)
	api.DELETE("/items/:item_id", itemHandler.Delete)

	api.POST("/groups/:group_id/notes", noteHandler.Create)
	api.GET("/groups/:group_id/notes", noteHandler.ListByGroup)
	api.GET("/notes/:note_id", noteHandler.Get)
	api.PATCH("/notes/:note_id", noteHandler.Update)
	api.DELETE("/notes/:note_id", noteHandler.Delete)
	api.POST("/notes/:note_id/comments", noteHandler.CreateComment)
	api.GET("/notes/:note_id/comments", noteHandler.ListComments)
	api.DELETE("/comments/:comment_id", noteHandler.DeleteComment)

	api.POST("/groups/:group_id/polls", pollHandler.Create)
	api.GET("/groups/:group_id/polls", pollHandler.ListByGroup)
	api.GET("/polls/:poll_id", pollHandler.Get)
	api.PATCH("/polls/:poll_id", pollHandler.Update)
	api.DELETE("/polls/:poll_id", pollHandler.Delete)
	api.POST("/polls/:poll_id/vote", pollHandler.Vote)
	api.POST("/polls/:poll_id/options", pollHandler.AddOption)

	api.POST("/sync/lists", syncHandler.SyncLists)

	api.GET("/notifications", notificationHandler.ListMine)
	api.PATCH("/notifications/:notification_id/read", notificationHandler.MarkRead)
	api.POST("/notifications/read-all", notificationHandler.MarkAllRead)

	api.GET("/groups/:group_id/activity", activityHandler.ListByGroup)

	port := getEnv("PORT", "8086")
	logger.Info("server starting", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
