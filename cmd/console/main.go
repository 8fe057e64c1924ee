package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mynfini/narrative-engine/pkg/ledger"
)

type ConsoleConfig struct {
	APIBaseURL  string
	CharacterID string
	Timeout     time.Duration
}

func main() {
	apiBaseURL := flag.String("api", getEnv("API_BASE_URL", "http://localhost:8080"), "base URL of the narrative engine API")
	characterID := flag.String("character", getEnv("CHARACTER_ID", ledger.DefaultCharacterID), "character to play as")
	flag.Parse()

	cfg := &ConsoleConfig{
		APIBaseURL:  *apiBaseURL,
		CharacterID: *characterID,
		Timeout:     30 * time.Second,
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	if !testConnection(client, cfg.APIBaseURL) {
		fmt.Fprintf(os.Stderr, "Could not connect to API at %s. Please ensure the API is running.\nTry: docker-compose up -d\n", cfg.APIBaseURL)
		os.Exit(1)
	}

	p := tea.NewProgram(NewConsoleUI(cfg, client),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
