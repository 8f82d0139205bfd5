package main

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/solorpg/chronicle/internal/handlers"
	"github.com/solorpg/chronicle/pkg/campaign"
)

type ConsoleConfig struct {
	APIBaseURL string
	Timeout    time.Duration
}

func main() {
	cfg := &ConsoleConfig{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
		Timeout:    120 * time.Second,
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
	}
	api := newAPIClient(cfg.APIBaseURL, client)

	if !api.healthy() {
		fmt.Fprintf(os.Stderr, "Could not connect to API. Please ensure the API is running.\nTry: docker-compose up -d\n")
		os.Exit(1)
	}

	req, err := promptCampaignSetup(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nStarting the campaign, the oracle is writing the opening scene...")
	created, err := api.createCampaign(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create campaign: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(NewConsoleUI(cfg, api, created),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithMouseAllMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// promptCampaignSetup collects the campaign parameters on stdin before
// the TUI takes over the terminal.
func promptCampaignSetup(in *os.File) (handlers.CreateCampaignRequest, error) {
	reader := bufio.NewReader(in)
	var req handlers.CreateCampaignRequest

	fmt.Println("Choose a campaign variant:")
	fmt.Println("  1 - Detective (solve a mystery, make an arrest)")
	fmt.Println("  2 - Leader (govern a nation, face the electorate)")
	fmt.Print("\nSelect by number: ")

	var choice int
	if _, err := fmt.Fscanf(reader, "%d\n", &choice); err != nil || choice < 1 || choice > 2 {
		return req, fmt.Errorf("invalid selection")
	}
	if choice == 1 {
		req.Variant = campaign.VariantDetective
	} else {
		req.Variant = campaign.VariantLeader
	}

	req.Title = readLine(reader, "Campaign title: ")
	if req.Title == "" {
		return req, fmt.Errorf("title is required")
	}
	req.Theme = readLine(reader, "Theme (optional, e.g. \"noir\", \"cold war\"): ")
	if req.Variant == campaign.VariantLeader {
		req.Nation = readLine(reader, "Nation name (optional): ")
	} else {
		req.Difficulty = readLine(reader, "Difficulty (easy/normal/hard, blank for normal): ")
	}
	req.Language = readLine(reader, "Language tag (blank for English): ")
	return req, nil
}

func readLine(reader *bufio.Reader, prompt string) string {
	fmt.Print(prompt)
	line, err := reader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
