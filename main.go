package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trello-project/tracking-service/activity"
	"trello-project/tracking-service/auth"
	"trello-project/tracking-service/handlers"
	"trello-project/tracking-service/logging"
	"trello-project/tracking-service/notifications"
	"trello-project/tracking-service/ordering"
	"trello-project/tracking-service/realtime"
	"trello-project/tracking-service/services"
	"trello-project/tracking-service/stores/mongostore"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logging.Logger.Warn("No .env file found, relying on the environment")
	}
	logging.InitLogger()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoURI := os.Getenv("MONGO_DB_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logging.Logger.Fatalf("Database connection failed: %v", err)
	}
	defer client.Disconnect(context.Background())

	if err := client.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("MongoDB connection error: %v", err)
	}
	logging.Logger.Info("Connected to MongoDB")

	collections := mongostore.NewCollections(client.Database("tracking_db"))
	if err := collections.EnsureIndexes(ctx); err != nil {
		logging.Logger.Fatalf("Failed to create indexes: %v", err)
	}

	projectStore := mongostore.NewProjectStore(collections)
	boardStore := mongostore.NewBoardStore(collections)
	taskStore := mongostore.NewTaskStore(collections)
	subtaskStore := mongostore.NewSubtaskStore(collections)
	userStore := mongostore.NewUserStore(collections)
	activityStore := mongostore.NewActivityStore(collections)

	notificationStore, err := notifications.NewRepository()
	if err != nil {
		logging.Logger.Fatalf("Cassandra connection failed: %v", err)
	}
	defer notificationStore.Close()

	hub := realtime.NewHub()
	resolver := auth.NewResolver(projectStore, boardStore, taskStore, subtaskStore)
	order := ordering.NewManager()
	recorder := activity.NewRecorder(activityStore, boardStore, taskStore, subtaskStore)
	fanout := notifications.NewFanout(notificationStore, hub)

	userService := services.NewUserService(userStore)
	projectService := services.NewProjectService(projectStore, boardStore, taskStore, subtaskStore, userStore, notificationStore, resolver, recorder, fanout)
	boardService := services.NewBoardService(boardStore, taskStore, subtaskStore, notificationStore, resolver, order, recorder, fanout)
	taskService := services.NewTaskService(boardStore, taskStore, subtaskStore, notificationStore, resolver, order, recorder, fanout)
	subtaskService := services.NewSubtaskService(subtaskStore, notificationStore, resolver, order, recorder, fanout)
	activityService := services.NewActivityService(resolver, recorder)
	notificationService := services.NewNotificationService(notificationStore)

	router := handlers.NewRouter(handlers.Handlers{
		Auth:          handlers.NewAuthHandler(userService),
		Users:         handlers.NewUserHandler(userService),
		Projects:      handlers.NewProjectHandler(projectService),
		Boards:        handlers.NewBoardHandler(boardService),
		Tasks:         handlers.NewTaskHandler(taskService),
		Subtasks:      handlers.NewSubtaskHandler(subtaskService),
		Activity:      handlers.NewActivityHandler(activityService),
		Notifications: handlers.NewNotificationHandler(notificationService),
		WS:            handlers.NewWSHandler(hub),
	})

	addr := os.Getenv("SERVER_ADDRESS")
	if addr == "" {
		addr = ":8080"
	}
	logging.Logger.Infof("Tracking service listening on %s", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		logging.Logger.Fatalf("Server stopped: %v", err)
	}
}
