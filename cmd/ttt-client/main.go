// Package main implements an interactive terminal client for the
// tic-tac-toe server API.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"tictactoe/internal/client/commands"
	"tictactoe/internal/client/display"
	"tictactoe/internal/client/session"
	"tictactoe/internal/core"
)

func main() {
	apiURL := flag.String("url", "http://localhost:8080", "API base URL")
	flag.Parse()

	s := session.New(strings.TrimRight(*apiURL, "/"))

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          display.Prompt("ttt"),
		HistoryFile:     ".ttt_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("%s%s%s\n", display.Red, err.Error(), display.Reset)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Printf("%sTic-Tac-Toe Client%s\n", display.Cyan, display.Reset)
	fmt.Printf("%sAPI: %s%s\n", display.Cyan, s.APIBaseURL, display.Reset)
	fmt.Printf("Type 'help' for commands\n\n")

	registry := commands.NewRegistry(s)

	for {
		rl.SetPrompt(buildPrompt(s))

		line, err := rl.Readline()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if line == "exit" || line == "x" {
			break
		}

		// Trailing -v enables verbose output for this command
		if strings.HasSuffix(line, " -v") {
			s.Verbose = true
			line = strings.TrimSuffix(line, " -v")
		} else {
			s.Verbose = false
		}

		registry.Execute(line)
	}
}

func buildPrompt(s *session.Session) string {
	var parts []string

	if s.Email != "" {
		parts = append(parts, display.Magenta+s.Email+display.Reset)
	}
	if s.CurrentGame != "" {
		game := s.CurrentGame
		if len(game) > 8 {
			game = game[:8]
		}
		parts = append(parts, display.White+game+display.Reset)
	}
	if s.PlayerSymbol != core.Empty {
		parts = append(parts, display.ColorForSymbol(s.PlayerSymbol))
	}

	promptStr := "ttt"
	if len(parts) > 0 {
		promptStr += display.Yellow + " [" + display.Reset +
			strings.Join(parts, display.Yellow+" - "+display.Reset) +
			display.Yellow + "]"
	}

	if st := s.GameState; st != nil {
		if st.Winner != core.Empty {
			promptStr += " - Winner:" + display.ColorForSymbol(st.Winner)
		} else {
			promptStr += " - Turn:" + display.ColorForSymbol(st.CurrentPlayer)
		}
	}

	return display.Prompt(promptStr)
}
