package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	relaycmder "github.com/d-wern/stella-relay/cmd/stellarelay"
)

func main() {
	// Best-effort: a missing .env is normal outside local development.
	godotenv.Load()

	cmd := relaycmder.NewRelayCmd()

	if err := cmd.Execute(); err != nil {
		fmt.Printf("Error executing root command: %v\n", err)
		os.Exit(1)
	}
}
