package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"golang.org/x/term"

	"github.com/mmcdole/trackctl/internal/adapter"
	"github.com/mmcdole/trackctl/internal/adapter/source/rest"
	"github.com/mmcdole/trackctl/internal/domain"
)

// clearSpinnerLine clears the spinner line from the terminal
const clearSpinnerLine = "\r                                    \r"

const pingTimeout = 15 * time.Second

// runSetupFlow asks for the server URL, checks it answers and saves it
func runSetupFlow(ctx context.Context, cfg *adapter.Config, logger *slog.Logger) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("no server configured: set server.url in config.yaml, TRACKCTL_SERVER_URL or pass --server")
	}

	fmt.Println()
	fmt.Println("Welcome to trackctl!")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	var serverURL string

	// Loop until we get a reachable server URL
	for {
		fmt.Print("Enter your catalog server URL (e.g., http://localhost:8000): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		serverURL = strings.TrimRight(strings.TrimSpace(input), "/")

		if serverURL == "" {
			fmt.Println("Server URL cannot be empty. Please try again.")
			continue
		}

		cfg.Server.URL = serverURL
		if err := cfg.Validate(); err != nil {
			fmt.Printf("✗ %s\n\n", domain.UserMessage(err))
			continue
		}

		fmt.Println()
		client := rest.NewClient(serverURL, logger, rest.WithTimeout(cfg.Server.Timeout))
		if err := pingWithSpinner(ctx, client); err != nil {
			fmt.Printf("\n✗ Could not reach server: %s\n", domain.UserMessage(err))
			fmt.Println("Please check the URL and try again.")
			fmt.Println()
			continue
		}
		break
	}

	if err := adapter.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	logger.Info("saved server configuration", "url", serverURL)

	fmt.Println("✓ Configuration saved!")
	fmt.Println()
	return nil
}

// pingWithSpinner checks the server with a visual spinner
func pingWithSpinner(ctx context.Context, client *rest.Client) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	resultCh := make(chan error, 1)
	go func() {
		resultCh <- client.Ping(ctx)
	}()

	frames := spinner.Dot.Frames
	frame := 0
	fmt.Printf("\r%s Connecting...", frames[frame])

	ticker := time.NewTicker(spinner.Dot.FPS)
	defer ticker.Stop()

	for {
		select {
		case err := <-resultCh:
			fmt.Print(clearSpinnerLine)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Connected to %s\n", client.BaseURL())
			return nil

		case <-ticker.C:
			frame++
			fmt.Printf("\r%s Connecting...", frames[frame%len(frames)])

		case <-ctx.Done():
			fmt.Print(clearSpinnerLine)
			return fmt.Errorf("connection timed out")
		}
	}
}
