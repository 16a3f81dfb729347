package main

import (
	"fmt"
	"os"

	"github.com/arnavshah/crew-scheduler-api/pkg/auth"
	"github.com/arnavshah/crew-scheduler-api/pkg/config"
)

// keygen prints an integration API key for a client ID. The key is verified
// by HMAC, so it works without a database row until first use.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: keygen <clientID> [config.yaml]")
		os.Exit(1)
	}

	path := os.Getenv("CREW_CONFIG")
	if len(os.Args) > 2 {
		path = os.Args[2]
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	clientID := os.Args[1]
	apiKey := auth.NewManager(cfg.Auth).GenerateHMACKey(clientID)
	fmt.Printf("Generated Key for %s:\n%s\n", clientID, apiKey)
}
