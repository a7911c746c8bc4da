package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/ziadkadry99/docqa/cmd"
)

func main() {
	// Load .env if present; real environment variables win.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
