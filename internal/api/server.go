package api

import (
	"log"
	"time"

	"github.com/CampusPerks/points_service/config"
	"github.com/CampusPerks/points_service/infra/queue"
	"github.com/CampusPerks/points_service/internal/api/rest/handlers"
	"github.com/CampusPerks/points_service/internal/api/rest/middleware"
	"github.com/CampusPerks/points_service/internal/domain"
	"github.com/CampusPerks/points_service/internal/helper"
	"github.com/CampusPerks/points_service/internal/repository"
	"github.com/CampusPerks/points_service/internal/services"
	"github.com/CampusPerks/points_service/pkg/cloudinary"
	pkgutils "github.com/CampusPerks/points_service/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const resetCooldown = 60 * time.Second

func StartServer(cfg config.Config) {
	app := fiber.New()

	// ---------- CORS ----------
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.BaseUrl,
		AllowHeaders:     "Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// ---------- DB ----------
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DatabaseDSN,
		PreferSimpleProtocol: true,
	}), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("database connection error: %v", err)
	}
	log.Println("database connected")

	// ---------- MIGRATION + SEED (guarded by advisory lock) ----------
	const migrateLockID int64 = 20260831

	if err := db.Exec("SELECT pg_advisory_lock(?)", migrateLockID).Error; err != nil {
		log.Fatalf("migration lock error: %v", err)
	}
	defer func() {
		_ = db.Exec("SELECT pg_advisory_unlock(?)", migrateLockID).Error
	}()

	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Promotion{},
		&domain.Usage{},
		&domain.Transaction{},
		&domain.Event{},
	); err != nil {
		log.Fatalf("migration error: %v", err)
	}
	log.Println("migration successful")

	seedSuperuser(db, cfg.DefaultUserPassword)

	// ---------- Infra ----------
	kafkaProducer := queue.NewProducer(
		cfg.KafkaBroker,
		cfg.KafkaTopic,
		cfg.KafkaUsername,
		cfg.KafkaPassword,
	)
	cld, err := cloudinary.New()
	if err != nil {
		log.Fatalf("cloudinary init error: %v", err)
	}
	up := cloudinary.NewCloudinaryUploader(cld)

	authHelper := helper.SetupAuth(cfg.AccessSecret)
	limiter := pkgutils.NewResetLimiter(resetCooldown)

	// ---------- Repositories ----------
	userRepo := repository.NewUserRepository(db)
	txnRepo := repository.NewTransactionRepository(db)
	promoRepo := repository.NewPromotionRepository(db)
	eventRepo := repository.NewEventRepository(db)

	// ---------- Services ----------
	userSvc := services.NewUserService(
		userRepo,
		promoRepo,
		kafkaProducer,
		up,
		limiter,
		authHelper,
		cfg.DefaultUserPassword,
	)
	ledgerSvc := services.NewLedgerService(txnRepo, userRepo, promoRepo, kafkaProducer)
	promoSvc := services.NewPromotionService(promoRepo)
	eventSvc := services.NewEventService(eventRepo, userRepo, kafkaProducer)

	// ---------- Health ----------
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// ---------- Handlers ----------
	authHandler := handlers.NewAuthHandler(userSvc)
	authHandler.SetupRoutes(app)

	// everything below requires a token
	app.Use(middleware.AuthMiddleware(authHelper, userSvc))

	handlers.NewUserHandler(userSvc, ledgerSvc).SetupRoutes(app)
	handlers.NewUploadHandler(userSvc).SetupRoutes(app)
	handlers.NewTransactionHandler(ledgerSvc).SetupRoutes(app)
	handlers.NewPromotionHandler(promoSvc).SetupRoutes(app)
	handlers.NewEventHandler(eventSvc).SetupRoutes(app)

	// ---------- Listen ----------
	addr := ":" + cfg.ServerPort
	log.Println("listening on", addr)
	log.Fatal(app.Listen(addr))
}

// seedSuperuser guarantees one bootstrap account so the first operator can
// log in and create the rest.
func seedSuperuser(db *gorm.DB, password string) {
	var count int64
	if err := db.Model(&domain.User{}).
		Where("role = ?", domain.RoleSuperuser).
		Count(&count).Error; err != nil {
		log.Printf("superuser seed check error: %v", err)
		return
	}
	if count > 0 {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("superuser seed hash error: %v", err)
		return
	}

	if err := db.Create(&domain.User{
		Utorid:       "clive123",
		Name:         "Bootstrap Superuser",
		Email:        "clive.su@utoronto.ca",
		PasswordHash: string(hash),
		Role:         domain.RoleSuperuser,
		Verified:     true,
	}).Error; err != nil {
		log.Printf("superuser seed error: %v", err)
		return
	}
	log.Println("seeded bootstrap superuser")
}
