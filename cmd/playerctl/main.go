// Package main provides the player control CLI entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/slidebox/internal/api/connect"
	"github.com/osa030/slidebox/internal/app/player"
)

var (
	app     = kingpin.New("slidebox-playerctl", "slidebox player control client")
	server  = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token   = app.Flag("token", "Admin token (or set ADMIN_TOKEN env)").Envar("ADMIN_TOKEN").String()
	timeout = app.Flag("timeout", "Request timeout").Default("15s").Duration()

	// status command
	statusCmd = app.Command("status", "Show playback status")

	// toggle command
	toggleCmd = app.Command("toggle", "Toggle between playing and paused")

	// reload command
	reloadCmd    = app.Command("reload", "Refetch the playlists")
	reloadScreen = reloadCmd.Arg("screen-key", "Screen to switch to (default: current)").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if *token == "" {
		fmt.Println("Error: admin token is required (use --token or ADMIN_TOKEN env)")
		os.Exit(1)
	}

	client := apiconnect.NewPlayerServiceClient(
		http.DefaultClient,
		*server,
		connect.WithInterceptors(apiconnect.NewTokenInterceptor(*token)),
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var (
		status player.Status
		err    error
	)
	switch command {
	case statusCmd.FullCommand():
		status, err = client.GetStatus(ctx)
	case toggleCmd.FullCommand():
		status, err = client.TogglePlayPause(ctx)
	case reloadCmd.FullCommand():
		status, err = client.Reload(ctx, *reloadScreen)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	printStatus(status)
}

func printStatus(s player.Status) {
	fmt.Println("\n=== PLAYER STATUS ===")
	fmt.Printf("Screen: %s\n", s.ScreenKey)
	fmt.Printf("Playlists: %s\n", s.Phase)
	if s.Error != "" {
		fmt.Printf("  Error: %s\n", s.Error)
	}

	fmt.Printf("Playback: %s\n", s.State)
	if s.URL == "" {
		fmt.Println("\nNothing on screen")
		fmt.Println()
		return
	}

	fmt.Println("\nOn Screen:")
	fmt.Printf("  Slide: %d of %d\n", s.Index+1, s.Count)
	fmt.Printf("  Kind: %s\n", s.Kind)
	fmt.Printf("  URL: %s\n", s.URL)
	fmt.Printf("  Duration: %v\n", time.Duration(s.DurationMs)*time.Millisecond)
	fmt.Printf("  Remaining: %v (%.0f%%)\n", time.Duration(s.RemainingMs)*time.Millisecond, s.Progress*100)
	fmt.Printf("  Session ID: %s\n", s.SessionID)
	fmt.Println()
}
