// FILE: internal/client/commands/game.go
package commands

import (
	"fmt"
	"strconv"

	"tictactoe/internal/client/display"
	"tictactoe/internal/core"
)

func (r *Registry) registerGameCommands() {
	r.Register(&Command{
		Name:        "new",
		ShortName:   "n",
		Description: "Create a new game and wait for an opponent",
		Usage:       "new",
		Handler:     newGameHandler,
	})

	r.Register(&Command{
		Name:        "join",
		ShortName:   "j",
		Description: "Join a waiting game as O",
		Usage:       "join <gameId>",
		Handler:     joinGameHandler,
	})

	r.Register(&Command{
		Name:        "use",
		ShortName:   "u",
		Description: "Set current game ID without joining",
		Usage:       "use <gameId>",
		Handler:     useGameHandler,
	})

	r.Register(&Command{
		Name:        "move",
		ShortName:   "m",
		Description: "Place a mark at position 0-8",
		Usage:       "move <position>",
		Handler:     moveHandler,
	})

	r.Register(&Command{
		Name:        "show",
		ShortName:   "h",
		Description: "Show board and game state",
		Usage:       "show",
		Handler:     showHandler,
	})

	r.Register(&Command{
		Name:        "board",
		ShortName:   "b",
		Description: "Show the server's ASCII board",
		Usage:       "board",
		Handler:     boardHandler,
	})

	r.Register(&Command{
		Name:        "state",
		ShortName:   "s",
		Description: "Show raw game JSON",
		Usage:       "state",
		Handler:     gameStateHandler,
	})

	r.Register(&Command{
		Name:        "wait",
		ShortName:   "w",
		Description: "Long-poll until the game changes",
		Usage:       "wait",
		Handler:     waitHandler,
	})

	r.Register(&Command{
		Name:        "quit",
		ShortName:   "q",
		Description: "Quit the current game (opponent wins)",
		Usage:       "quit",
		Handler:     quitGameHandler,
	})
}

func currentGame(s Session) (string, error) {
	gameID := s.GetCurrentGame()
	if gameID == "" {
		return "", fmt.Errorf("no current game, use 'new' or 'join <gameId>'")
	}
	return gameID, nil
}

func newGameHandler(s Session, args []string) error {
	resp, err := s.GetClient().CreateGame()
	if err != nil {
		return err
	}

	s.SetCurrentGame(resp.GameID, resp.PlayerSymbol)
	s.SetGameState(&resp.GameState)

	fmt.Fprintf(out, "%sGame created: %s%s\n", display.Green, resp.GameID, display.Reset)
	fmt.Fprintf(out, "You play %s. Share the game ID and 'wait' for an opponent\n",
		display.ColorForSymbol(resp.PlayerSymbol))
	return nil
}

func joinGameHandler(s Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: join <gameId>")
	}

	resp, err := s.GetClient().JoinGame(args[0])
	if err != nil {
		return err
	}

	s.SetCurrentGame(resp.GameID, resp.PlayerSymbol)
	s.SetGameState(&resp.GameState)

	fmt.Fprintf(out, "%sJoined game %s as %s%s\n", display.Green, resp.GameID,
		display.ColorForSymbol(resp.PlayerSymbol), display.Reset)
	printState(s, &resp.GameState)
	return nil
}

func useGameHandler(s Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: use <gameId>")
	}

	s.SetCurrentGame(args[0], core.Empty)
	return showHandler(s, nil)
}

func moveHandler(s Session, args []string) error {
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}
	if len(args) < 1 {
		return fmt.Errorf("usage: move <position>")
	}
	position, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("position must be a number 0-8")
	}

	resp, err := s.GetClient().MakeMove(gameID, position)
	if err != nil {
		return err
	}

	s.SetGameState(&resp.GameState)
	printState(s, &resp.GameState)
	return nil
}

func showHandler(s Session, args []string) error {
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}

	resp, err := s.GetClient().GetGame(gameID)
	if err != nil {
		return err
	}

	remember(s, resp)
	printGame(s, resp)
	return nil
}

func boardHandler(s Session, args []string) error {
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}

	resp, err := s.GetClient().GetBoard(gameID)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%s", resp.Board)
	return nil
}

func gameStateHandler(s Session, args []string) error {
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}

	resp, err := s.GetClient().GetGame(gameID)
	if err != nil {
		return err
	}

	remember(s, resp)
	fmt.Fprintf(out, "%sGame State:%s\n", display.Cyan, display.Reset)
	display.PrettyPrintJSON(out, resp)
	return nil
}

func waitHandler(s Session, args []string) error {
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}

	revision := s.GetRevision()
	fmt.Fprintf(out, "%sLong-polling for updates (revision: %d)...%s\n", display.Cyan, revision, display.Reset)
	fmt.Fprintf(out, "%sThis may take up to 25 seconds%s\n", display.Cyan, display.Reset)

	resp, err := s.GetClient().WaitGame(gameID, revision)
	if err != nil {
		return err
	}

	if resp.GameInfo.Revision != revision {
		fmt.Fprintf(out, "%sGame updated%s\n", display.Green, display.Reset)
	} else {
		fmt.Fprintf(out, "%sNo updates (timeout)%s\n", display.Yellow, display.Reset)
	}

	remember(s, resp)
	printGame(s, resp)
	return nil
}

func quitGameHandler(s Session, args []string) error {
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}

	resp, err := s.GetClient().QuitGame(gameID)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s%s%s\n", display.Yellow, resp.Message, display.Reset)
	s.SetCurrentGame("", core.Empty)
	return nil
}

// remember updates the session from a read, picking up the caller's seat
// when they opened the game with 'use'
func remember(s Session, resp *core.GameResponse) {
	s.SetRevision(resp.GameInfo.Revision)
	s.SetGameState(&resp.GameState)

	if s.GetPlayerSymbol() != core.Empty || s.GetUserID() == "" {
		return
	}
	switch s.GetUserID() {
	case resp.GameInfo.Player1ID:
		s.SetPlayerSymbol(core.X)
	case derefOr(resp.GameInfo.Player2ID, ""):
		s.SetPlayerSymbol(core.O)
	}
}

func printGame(s Session, resp *core.GameResponse) {
	info := resp.GameInfo
	fmt.Fprintf(out, "\nGame: %s | Status: %s | Revision: %d\n", info.ID, info.Status, info.Revision)
	fmt.Fprintf(out, "X: %s  O: %s\n", info.Player1ID, derefOr(info.Player2ID, "(waiting)"))
	printState(s, &resp.GameState)

	if info.Status == core.StatusCompleted {
		switch {
		case info.WinnerID == nil:
			fmt.Fprintf(out, "%sGame over, no winner%s\n", display.Yellow, display.Reset)
		case *info.WinnerID == s.GetUserID():
			fmt.Fprintf(out, "%sYou won!%s\n", display.Green, display.Reset)
		default:
			fmt.Fprintf(out, "%sWinner: %s%s\n", display.Yellow, *info.WinnerID, display.Reset)
		}
	}
}

func printState(s Session, state *core.GameState) {
	fmt.Fprintln(out)
	display.RenderBoard(out, *state)
	fmt.Fprintln(out)

	if state.Winner != core.Empty {
		fmt.Fprintf(out, "Winner: %s\n", display.ColorForSymbol(state.Winner))
		return
	}

	turn := fmt.Sprintf("Turn: %s", display.ColorForSymbol(state.CurrentPlayer))
	if sym := s.GetPlayerSymbol(); sym != core.Empty {
		if sym == state.CurrentPlayer {
			turn += " (you)"
		} else {
			turn += " (opponent)"
		}
	}
	if state.CooldownSpot != nil {
		turn += fmt.Sprintf(" | Blocked: %d", *state.CooldownSpot)
	}
	fmt.Fprintln(out, turn)
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
