package main

import (
	"context"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"campusmarket/internal/adapter/api"
	"campusmarket/internal/adapter/api/handler"
	apimiddleware "campusmarket/internal/adapter/api/middleware"
	"campusmarket/internal/adapter/api/router"
	"campusmarket/internal/adapter/repository"
	"campusmarket/internal/infrastructure/firebase"
	"campusmarket/internal/infrastructure/geocode"
	"campusmarket/internal/infrastructure/websocket"
	"campusmarket/internal/usecase"
	"campusmarket/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opts []option.ClientOption

	// Service account from env var in production, file path for local
	// development. Application default credentials as a last resort.
	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(serviceAccountJSON)))
	} else if serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"); serviceAccountPath != "" {
		if _, err := os.Stat(serviceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", serviceAccountPath)
		}
		opts = append(opts, option.WithCredentialsFile(serviceAccountPath))
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	productRepo := repository.NewFirestoreProductRepository(firestoreClient)
	chatRepo := repository.NewFirestoreChatRepository(firestoreClient)

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient, cfg.FirebaseApiKey)
	geocoder := geocode.NewClient(cfg.MapsApiKey)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	authUseCase := usecase.NewAuthUseCase(firebaseAuthClient, userRepo, geocoder)
	userUseCase := usecase.NewUserUseCase(userRepo, geocoder)
	productUseCase := usecase.NewProductUseCase(productRepo, userRepo, geocoder)
	chatUseCase := usecase.NewChatUseCase(chatRepo, userRepo, productRepo, wsManager)

	// The relay hands inbound send_message events to the chat use case,
	// which persists before the manager broadcasts.
	wsManager.SetMessageSender(chatUseCase)

	handler.Setup(authUseCase, userUseCase, productUseCase, chatUseCase)
	handler.SetupHealthHandler()

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)
	wsHandler := handler.NewWebSocketHandler(wsManager, authMiddleware)

	router.Setup(e, authMiddleware)
	router.SetupWebSocketRouter(e, wsHandler)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
