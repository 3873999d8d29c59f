package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"examtrack/internal/api"
	"examtrack/internal/cache"
	"examtrack/internal/logging"
	"examtrack/internal/tui"
)

var cli struct {
	Server string `help:"Base URL of the exam tracker server." default:"http://localhost:5000" env:"EXAMTRACK_SERVER"`
	Cache  string `help:"Path to the local cache database." env:"EXAMTRACK_CACHE"`
	Debug  bool   `help:"Enable debug logging." env:"EXAMTRACK_DEBUG"`
}

func main() {
	kong.Parse(&cli,
		kong.Name("examtrack"),
		kong.Description("Terminal client for the exam preparation tracker."),
	)

	if err := logging.Initialize(cli.Debug); err != nil {
		fmt.Fprintf(os.Stderr, "error initializing logging: %v\n", err)
		os.Exit(1)
	}

	cachePath := cli.Cache
	if cachePath == "" {
		p, err := cache.DefaultPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		cachePath = p
	}

	c, err := cache.New(cachePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening cache: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	client, err := api.New(cli.Server)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	app := tui.NewApp(client, c)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
