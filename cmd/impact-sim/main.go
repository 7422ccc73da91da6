package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/mr1hm/go-impactor/internal/logging"
)

func main() {
	_ = godotenv.Load()
	logging.Setup(os.Getenv("LOG_LEVEL"), "text")

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
