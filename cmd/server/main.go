// Package main NoteMate Backend API.
// @title NoteMate Backend API
// @version 1.0
// @description Бэкенд NoteMate: заметки, задачи, формулы, расписание и отзывы.
// @host localhost:5000
// @BasePath /
// @schemes http https
package main

import (
	"log"

	"notemate-backend/internal/app"
	"notemate-backend/internal/config"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("Application failed: %v", err)
	}
}
