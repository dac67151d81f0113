package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yourusername/vocab-api/internal/config"
	"github.com/yourusername/vocab-api/internal/handler"
	"github.com/yourusername/vocab-api/internal/middleware"
	pgRepo "github.com/yourusername/vocab-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/vocab-api/internal/repository/redis"
	"github.com/yourusername/vocab-api/internal/service"
	"github.com/yourusername/vocab-api/internal/service/drillmanager"
	"github.com/yourusername/vocab-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis с использованием унифицированной конфигурации
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	collectionRepo := pgRepo.NewCollectionRepo(db)
	itemRepo := pgRepo.NewItemRepo(db)
	answerRepo := pgRepo.NewAnswerRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// --- Конфигурация движка тренировки ---
	drillConfig := drillmanager.DefaultConfig()
	drillConfig.HighWeight = cfg.Drill.HighWeight
	drillConfig.SpreadK = cfg.Drill.SpreadK
	drillConfig.BatchSize = cfg.Drill.BatchSize
	drillConfig.SessionTTL = time.Duration(cfg.Drill.SessionTTLMin) * time.Minute

	// Создаем контекст с отменой для корректного завершения работы горутин
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- AI-подсказки: перевод и озвучка ---
	var translationService service.TranslationService = &service.NoopTranslationService{}
	var speechService service.SpeechService = &service.NoopSpeechService{}
	if cfg.OpenAI.APIKey != "" {
		ts, err := service.NewOpenAITranslationService(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
		if err != nil {
			log.Printf("Failed to initialize TranslationService: %v", err)
			os.Exit(1)
		}
		translationService = ts

		ss, err := service.NewOpenAISpeechService(cfg.OpenAI.APIKey, cfg.OpenAI.Voice)
		if err != nil {
			log.Printf("Failed to initialize SpeechService: %v", err)
			os.Exit(1)
		}
		speechService = ss
		log.Println("AI-подсказки включены (перевод и озвучка)")
	} else {
		log.Println("OPENAI_API_KEY не задан, AI-подсказки отключены")
	}

	// --- Напоминания о практике ---
	var reminderService service.ReminderService = &service.NoopReminderService{}
	if cfg.Reminder.APIKey != "" && cfg.Reminder.To != "" {
		rs, err := service.NewResendReminderService(cfg.Reminder.APIKey, cfg.Reminder.From)
		if err != nil {
			log.Printf("Failed to initialize ReminderService: %v", err)
			os.Exit(1)
		}
		reminderService = rs
		log.Println("Ежедневные напоминания включены")
	}

	// Инициализируем сервисы
	lexiconService := service.NewLexiconService(collectionRepo, itemRepo)
	drillService := service.NewDrillService(collectionRepo, itemRepo, answerRepo, cacheRepo, drillConfig)

	// Фоновая вычистка неактивных сессий
	go func() {
		ticker := time.NewTicker(15 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				drillService.PruneSessions()
			case <-ctx.Done():
				log.Println("Завершение работы горутины вычистки сессий")
				return
			}
		}
	}()

	// Фоновая горутина ежедневных напоминаний
	go runReminderLoop(ctx, cfg, lexiconService, reminderService)

	// Инициализируем обработчики
	collectionHandler := handler.NewCollectionHandler(lexiconService, drillService)
	lexiconHandler := handler.NewLexiconHandler(lexiconService, translationService)
	drillHandler := handler.NewDrillHandler(drillService)
	assistHandler := handler.NewAssistHandler(translationService, speechService)
	wsHandler := handler.NewWSHandler(drillService)

	// Инициализируем роутер Gin
	router := gin.Default()

	isProduction := gin.Mode() == gin.ReleaseMode
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		// AI-подсказки
		api.POST("/translate", assistHandler.Translate)
		api.POST("/tts", assistHandler.Speak)

		// Коллекции
		collections := api.Group("/collections")
		{
			collections.GET("", collectionHandler.ListCollections)
			collections.POST("", collectionHandler.CreateCollection)

			// Группа маршрутов, требующих collectionID
			colWithID := collections.Group("/:id")
			colWithID.Use(middleware.ExtractUintParam("id", "collectionID")) // Применяем middleware
			{
				colWithID.GET("", collectionHandler.GetCollection)
				colWithID.PUT("/policy", collectionHandler.UpdatePolicy)
				colWithID.GET("/stats", collectionHandler.GetStats)

				// Словарь
				colWithID.GET("/words", lexiconHandler.ListWords)
				colWithID.POST("/words", lexiconHandler.AddWord)
				colWithID.POST("/words/import", lexiconHandler.ImportWords)
				colWithID.GET("/words/export", lexiconHandler.ExportWords)

				// Цикл тренировки
				colWithID.GET("/draw", drillHandler.Draw)
				colWithID.POST("/answers", drillHandler.SubmitAnswer)
				colWithID.POST("/retry", drillHandler.Retry)
				colWithID.POST("/abandon", drillHandler.Abandon)
				colWithID.POST("/introduce", drillHandler.Introduce)
				colWithID.POST("/introduce/advance", drillHandler.AdvanceIntroduction)
			}
		}
	}

	// WebSocket маршрут живой тренировки
	router.GET("/ws/drill/:id", middleware.ExtractUintParam("id", "collectionID"), wsHandler.HandleConnection)

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %s", cfg.Server.Port)

	// После получения сигнала SIGINT или SIGTERM вызываем cancel() для завершения горутин
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	cancel()

	// Создаем контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}

// runReminderLoop раз в сутки в заданный час шлет напоминание о практике,
// если в какой-то коллекции остались незнакомые слова
func runReminderLoop(ctx context.Context, cfg *config.Config, lexiconService *service.LexiconService, reminderService service.ReminderService) {
	if _, ok := reminderService.(*service.NoopReminderService); ok {
		return
	}

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	var lastSent string
	for {
		select {
		case <-ticker.C:
			now := time.Now().UTC()
			day := now.Format("2006-01-02")
			if now.Hour() != cfg.Reminder.HourUTC || day == lastSent {
				continue
			}

			cols, err := lexiconService.ListCollections()
			if err != nil {
				log.Printf("[Reminder] Не удалось получить коллекции: %v", err)
				continue
			}
			for i := range cols {
				items, err := lexiconService.ListWords(ctx, cols[i].ID)
				if err != nil {
					log.Printf("[Reminder] Не удалось получить слова коллекции %d: %v", cols[i].ID, err)
					continue
				}
				fresh := 0
				for j := range items {
					if !items[j].Introduced {
						fresh++
					}
				}
				if fresh == 0 {
					continue
				}
				if err := reminderService.SendPracticeReminder(ctx, cfg.Reminder.To, cols[i].Name, fresh); err != nil {
					log.Printf("[Reminder] Не удалось отправить напоминание: %v", err)
				}
			}
			lastSent = day
		case <-ctx.Done():
			log.Println("Завершение работы горутины напоминаний")
			return
		}
	}
}
