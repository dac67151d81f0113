package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/yourusername/vocab-api/internal/config"
	pgRepo "github.com/yourusername/vocab-api/internal/repository/postgres"
	"github.com/yourusername/vocab-api/internal/service"
	"github.com/yourusername/vocab-api/pkg/database"
)

// Утилита массовой загрузки словаря из xlsx: колонка A — подсказка,
// колонка B — перевод, первая строка — заголовок.
//
//	lexicon-import -file words.xlsx -collection 1
//	lexicon-import -file words.xlsx -name "fr-ro basics"
func main() {
	configPath := flag.String("config", "config/config.yml", "путь к файлу конфигурации")
	filePath := flag.String("file", "", "путь к xlsx-файлу со словами")
	collectionID := flag.Uint("collection", 0, "ID существующей коллекции")
	name := flag.String("name", "", "имя новой коллекции (если -collection не задан)")
	sourceLang := flag.String("source", "fr", "язык подсказок")
	targetLang := flag.String("target", "ro", "язык переводов")
	flag.Parse()

	if *filePath == "" {
		log.Println("Не задан -file")
		flag.Usage()
		os.Exit(2)
	}
	if *collectionID == 0 && *name == "" {
		log.Println("Нужен либо -collection, либо -name")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	lexiconService := service.NewLexiconService(pgRepo.NewCollectionRepo(db), pgRepo.NewItemRepo(db))
	ctx := context.Background()

	id := *collectionID
	if id == 0 {
		col, err := lexiconService.CreateCollection(*name, *sourceLang, *targetLang)
		if err != nil {
			log.Printf("Failed to create collection: %v", err)
			os.Exit(1)
		}
		id = col.ID
		log.Printf("Создана коллекция #%d %q (%s -> %s)", col.ID, col.Name, col.SourceLang, col.TargetLang)
	}

	f, err := os.Open(*filePath)
	if err != nil {
		log.Printf("Failed to open file: %v", err)
		os.Exit(1)
	}
	defer f.Close()

	result, err := lexiconService.ImportXLSX(ctx, id, f)
	if err != nil {
		log.Printf("Import failed: %v", err)
		os.Exit(1)
	}

	log.Printf("Импорт завершен: добавлено %d, обновлено %d, пропущено %d", result.Added, result.Updated, result.Skipped)
}
