package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"rollcall/internal/academy"
	"rollcall/internal/attendance"
	"rollcall/internal/config"
	"rollcall/internal/tui"
)

func main() {
	cfg := config.Load()

	sessionID := flag.String("session", "", "session id to take attendance for")
	user := flag.String("user", os.Getenv("USER"), "name recorded as the submitter")
	flag.Parse()

	if *sessionID == "" {
		fmt.Fprintln(os.Stderr, "usage: rollcall -session <id>")
		os.Exit(2)
	}

	client := academy.New(cfg.AcademyAPIURL, cfg.AcademyAPIToken, cfg.AcademyTimeout)
	desk := attendance.NewDesk(client, attendance.NewMemoryStore())

	p := tea.NewProgram(
		tui.New(desk, *sessionID, *user, cfg.SearchDebounce),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
