// FILE: internal/client/commands/registry.go
package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"tictactoe/internal/client/api"
	"tictactoe/internal/client/display"
	"tictactoe/internal/core"
)

// out receives all command output
var out io.Writer = os.Stdout

type Session interface {
	GetAPIBaseURL() string
	SetAPIBaseURL(string)
	GetClient() *api.Client
	IsVerbose() bool

	SetAuth(userID, email, token string)
	GetAuthToken() string
	GetUserID() string
	GetEmail() string

	SetCurrentGame(gameID string, symbol core.Symbol)
	GetCurrentGame() string
	GetPlayerSymbol() core.Symbol
	SetPlayerSymbol(core.Symbol)
	GetRevision() int64
	SetRevision(int64)
	GetGameState() *core.GameState
	SetGameState(*core.GameState)
}

// Command defines a client command with its handler
type Command struct {
	Name        string
	ShortName   string
	Description string
	Usage       string
	Handler     func(Session, []string) error
}

// Registry manages command registration and execution
type Registry struct {
	session  Session
	commands map[string]*Command
}

func NewRegistry(session Session) *Registry {
	r := &Registry{
		session:  session,
		commands: make(map[string]*Command),
	}

	r.registerGameCommands()
	r.registerAuthCommands()
	r.registerDebugCommands()

	r.Register(&Command{
		Name:        "help",
		ShortName:   "?",
		Description: "Show available commands",
		Usage:       "help [command]",
		Handler:     r.helpHandler,
	})

	r.Register(&Command{
		Name:        "exit",
		ShortName:   "x",
		Description: "Exit the client",
		Usage:       "exit",
		Handler:     exitHandler,
	})

	return r
}

func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	if cmd.ShortName != "" {
		r.commands[cmd.ShortName] = cmd
	}
}

// Execute runs one input line and reports whether a command was found
func (r *Registry) Execute(input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return false
	}

	cmdName := parts[0]
	args := parts[1:]

	cmd, exists := r.commands[cmdName]
	if !exists {
		fmt.Fprintf(out, "%sUnknown command: %s%s\n", display.Red, cmdName, display.Reset)
		fmt.Fprintf(out, "Type 'help' for available commands\n")
		return false
	}

	r.session.GetClient().SetVerbose(r.session.IsVerbose())

	if err := cmd.Handler(r.session, args); err != nil {
		printError(err)
	}
	return true
}

func printError(err error) {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		fmt.Fprintf(out, "%sError: %s%s\n", display.Red, apiErr.Body.Error, display.Reset)
		if apiErr.Body.Code != "" {
			fmt.Fprintf(out, "%sCode: %s%s\n", display.Red, apiErr.Body.Code, display.Reset)
		}
		if apiErr.Body.Details != "" {
			fmt.Fprintf(out, "%sDetails: %s%s\n", display.Red, apiErr.Body.Details, display.Reset)
		}
		return
	}
	fmt.Fprintf(out, "%sError: %s%s\n", display.Red, err.Error(), display.Reset)
}

func (r *Registry) helpHandler(s Session, args []string) error {
	if len(args) > 0 {
		cmd, exists := r.commands[args[0]]
		if !exists {
			return fmt.Errorf("unknown command: %s", args[0])
		}
		fmt.Fprintf(out, "\n%s%s%s - %s\n", display.Cyan, cmd.Name, display.Reset, cmd.Description)
		if cmd.ShortName != "" {
			fmt.Fprintf(out, "Short form: %s%s%s\n", display.Cyan, cmd.ShortName, display.Reset)
		}
		fmt.Fprintf(out, "Usage: %s\n", cmd.Usage)
		return nil
	}

	fmt.Fprintf(out, "\n%sAvailable Commands:%s\n\n", display.Cyan, display.Reset)

	groups := []struct {
		title string
		names []string
	}{
		{"Game Commands", []string{"new", "join", "use", "move", "show", "board", "state", "wait", "quit"}},
		{"Auth Commands", []string{"register", "login", "logout", "whoami"}},
		{"Utility Commands", []string{"health", "url", "raw", "clear", "help", "exit"}},
	}

	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%s%s:%s\n", display.Yellow, g.title, display.Reset)
		for _, name := range g.names {
			cmd, exists := r.commands[name]
			if !exists {
				continue
			}
			shortPart := "    "
			if cmd.ShortName != "" {
				shortPart = fmt.Sprintf("[%s%s%s] ", display.Cyan, cmd.ShortName, display.Reset)
			}
			fmt.Fprintf(out, "  %s%-10s %s\n", shortPart, cmd.Name, cmd.Description)
		}
	}

	fmt.Fprintf(out, "\nType 'help <command>' for detailed usage\n")
	fmt.Fprintf(out, "Add '-v' to any command for verbose output\n")
	return nil
}

func exitHandler(s Session, args []string) error {
	fmt.Fprintf(out, "%sGoodbye!%s\n", display.Cyan, display.Reset)
	os.Exit(0)
	return nil
}
