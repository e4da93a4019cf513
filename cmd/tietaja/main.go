package main

import (
	"log"

	"github.com/avvvet/tietaja/internal/cmd"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (for development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cmd.Execute()
}
