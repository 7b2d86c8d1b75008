package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"vnplayer/internal/config"
	"vnplayer/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// The alt screen owns stdout; logs go to a file instead.
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if f, err := tea.LogToFile("player.log", "player"); err == nil {
		log = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: cfg.LogLevel}))
		defer func() { _ = f.Close() }()
	}

	var source services.StorySource
	if cfg.KindroidAPIKey != "" {
		source = services.NewKindroidService(cfg.KindroidAPIURL, cfg.KindroidAPIKey, cfg.KindroidAIID, cfg.StreamTimeout, log)
	} else {
		source = services.NewMockStorySource()
	}

	p := tea.NewProgram(NewPlayerUI(cfg, source, log),
		tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
