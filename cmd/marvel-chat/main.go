package main

import (
	"flag"
	"log"

	"github.com/iamvkosarev/marvel-ai-chat/config"
	"github.com/iamvkosarev/marvel-ai-chat/internal/app"
	"github.com/joho/godotenv"
)

func main() {
	cfgPath := flag.String("config", "", "path to the YAML config file")
	envPath := flag.String("env", ".env", "path to the .env file")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil {
		log.Printf("no env file loaded from %s: %v", *envPath, err)
	}

	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err = app.Run(cfg); err != nil {
		log.Fatalf("app stopped: %v", err)
	}
}
