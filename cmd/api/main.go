package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"tolio/internal/database"
	"tolio/internal/middleware"
	"tolio/internal/modules/auth"
	"tolio/internal/modules/booking"
	"tolio/internal/modules/catalog"
	"tolio/internal/modules/chat"
	"tolio/internal/modules/notification"
	"tolio/internal/modules/payment"
	"tolio/internal/modules/review"
	jwtsvc "tolio/internal/pkg/jwt"
	"tolio/internal/repository"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is empty")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is empty")
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	userRepo := repository.NewUserRepository(db)
	itemRepo := repository.NewItemRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	serviceBookingRepo := repository.NewServiceBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	materialRepo := repository.NewMaterialPaymentRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	j := jwtsvc.New(secret, 24*time.Hour)

	notificationService := notification.NewService(notificationRepo)
	notificationHandler := notification.NewHandler(notificationService)

	hub := chat.NewHub()
	defer hub.Close()
	chatService := chat.NewService(messageRepo, notificationService, hub)
	chatHandler := chat.NewHandler(chatService, hub, j)

	authService := auth.NewService(userRepo, j)
	authHandler := auth.NewHandler(authService)

	catalogService := catalog.NewService(itemRepo, serviceRepo)
	catalogHandler := catalog.NewHandler(catalogService)

	bookingService := booking.NewService(
		bookingRepo, serviceBookingRepo,
		itemRepo, serviceRepo,
		notificationService, chatService,
	)
	bookingHandler := booking.NewHandler(bookingService)

	rails := []payment.Rail{
		payment.NewStripeRail(os.Getenv("STRIPE_SECRET_KEY"), os.Getenv("STRIPE_WEBHOOK_SECRET")),
		payment.NewMercadoPagoRail(
			os.Getenv("MERCADOPAGO_ACCESS_TOKEN"),
			os.Getenv("MERCADOPAGO_NOTIFICATION_URL"),
			os.Getenv("MERCADOPAGO_BACK_URL"),
		),
		payment.NewEscrowRail(os.Getenv("ESCROW_WEBHOOK_SECRET")),
	}
	paymentService := payment.NewService(
		paymentRepo, materialRepo,
		bookingRepo, serviceBookingRepo,
		serviceRepo, userRepo,
		notificationService, chatService,
		rails, log.Printf,
	)
	paymentHandler := payment.NewHandler(paymentService)

	reviewService := review.NewService(reviewRepo, bookingRepo, serviceBookingRepo, notificationService)
	reviewHandler := review.NewHandler(reviewService)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterRoutes(v1)
		catalogHandler.RegisterPublicRoutes(v1)
		reviewHandler.RegisterPublicRoutes(v1)
		paymentHandler.RegisterWebhooks(v1)
		chatHandler.RegisterWebsocket(v1)

		protected := v1.Group("/")
		protected.Use(middleware.AuthRequired(j))
		{
			catalogHandler.RegisterRoutes(protected)
			bookingHandler.RegisterRoutes(protected)
			paymentHandler.RegisterRoutes(protected)
			reviewHandler.RegisterRoutes(protected)
			notificationHandler.RegisterRoutes(protected)
			chatHandler.RegisterRoutes(protected)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
