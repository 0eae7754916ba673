// FILE: cmd/tttd/cli/cli.go
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/lixenwraith/auth"
	"golang.org/x/term"

	"tictactoe/internal/board"
	"tictactoe/internal/core"
	"tictactoe/internal/game"
	"tictactoe/internal/storage"
)

const minPasswordLength = 8

// Run is the entry point for the database maintenance commands
func Run(args []string) error {
	return run(os.Stdout, args)
}

func run(out io.Writer, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("subcommand required: init, delete, query, moves, user")
	}

	switch args[0] {
	case "init":
		return runInit(out, args[1:])
	case "delete":
		return runDelete(out, args[1:])
	case "query":
		return runQuery(out, args[1:])
	case "moves":
		return runMoves(out, args[1:])
	case "user":
		if len(args) < 2 {
			return fmt.Errorf("user subcommand required: add, list")
		}
		return runUser(out, args[1], args[2:])
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

// storeFlags registers the connection flags shared by every subcommand
type storeFlags struct {
	driver *string
	dsn    *string
}

func newStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		driver: fs.String("driver", storage.DriverSQLite, "Storage driver: sqlite3 or postgres"),
		dsn:    fs.String("dsn", "", "SQLite file path or Postgres URL (default $DATABASE_URL)"),
	}
}

func (f storeFlags) open() (*storage.Store, error) {
	driver, dsn := *f.driver, *f.dsn
	if dsn == "" {
		if url := os.Getenv("DATABASE_URL"); url != "" {
			driver, dsn = storage.DriverPostgres, url
		}
	}
	if dsn == "" {
		return nil, fmt.Errorf("database location required: use -dsn or DATABASE_URL")
	}

	store, err := storage.Open(driver, dsn, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return store, nil
}

func runInit(out io.Writer, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	sf := newStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := sf.open()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitDB(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	fmt.Fprintf(out, "Database initialized (%s)\n", store.Driver())
	return nil
}

func runDelete(out io.Writer, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	sf := newStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := sf.open()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.DeleteDB(); err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}

	fmt.Fprintln(out, "Database deleted")
	return nil
}

func runQuery(out io.Writer, args []string) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	sf := newStoreFlags(fs)
	gameID := fs.String("gameId", "", "Game ID to filter (optional, * for all)")
	playerID := fs.String("playerId", "", "Player ID to filter (optional, * for all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := sf.open()
	if err != nil {
		return err
	}
	defer store.Close()

	games, err := store.QueryGames(context.Background(), *gameID, *playerID)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(games) == 0 {
		fmt.Fprintln(out, "No games found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Game ID\tStatus\tPlayer X\tPlayer O\tWinner\tRev\tCreated")
	fmt.Fprintln(w, strings.Repeat("-", 90))

	for _, g := range games {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			short(g.GameID)+"...",
			g.Status,
			short(g.Player1ID),
			shortPtr(g.Player2ID),
			shortPtr(g.WinnerID),
			g.Revision,
			g.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nFound %d game(s)\n", len(games))
	return nil
}

// runMoves prints a game's move log and the board it derives to
func runMoves(out io.Writer, args []string) error {
	fs := flag.NewFlagSet("moves", flag.ContinueOnError)
	sf := newStoreFlags(fs)
	gameID := fs.String("gameId", "", "Game ID (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *gameID == "" {
		return fmt.Errorf("game ID required")
	}

	store, err := sf.open()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	record, err := store.GetGame(ctx, *gameID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("game not found: %s", *gameID)
	}
	if err != nil {
		return err
	}

	records, err := store.ListMoves(ctx, *gameID)
	if err != nil {
		return fmt.Errorf("failed to load moves: %w", err)
	}

	p2 := ""
	if record.Player2ID != nil {
		p2 = *record.Player2ID
	}
	seats := game.NewSeats(record.Player1ID, p2)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSymbol\tPlayer\tPosition\tTime")

	log := make([]game.Move, 0, len(records))
	for _, r := range records {
		sym, _ := seats.SymbolOf(r.PlayerID)
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
			r.MoveNumber, sym, short(r.PlayerID), r.Position,
			r.CreatedAt.UTC().Format("15:04:05"))
		log = append(log, game.Move{Number: r.MoveNumber, PlayerID: r.PlayerID, Position: r.Position})
	}
	w.Flush()

	state := game.Reconstruct(log, seats)
	b := board.Board(state.Board)
	fmt.Fprintf(out, "\n%s", b.ToASCII())
	fmt.Fprintf(out, "Status: %s  Next: %s", record.Status, state.CurrentPlayer)
	if state.CooldownSpot != nil {
		fmt.Fprintf(out, "  Cooldown: %d", *state.CooldownSpot)
	}
	if state.Winner != core.Empty {
		fmt.Fprintf(out, "  Winner: %s", state.Winner)
	}
	fmt.Fprintln(out)
	return nil
}

func runUser(out io.Writer, subcommand string, args []string) error {
	switch subcommand {
	case "add":
		return runUserAdd(out, args)
	case "list":
		return runUserList(out, args)
	default:
		return fmt.Errorf("unknown user subcommand: %s", subcommand)
	}
}

func runUserAdd(out io.Writer, args []string) error {
	fs := flag.NewFlagSet("user add", flag.ContinueOnError)
	sf := newStoreFlags(fs)
	email := fs.String("email", "", "Email address (required)")
	password := fs.String("password", "", "Password (optional, will prompt if not provided)")
	hash := fs.String("hash", "", "Pre-computed password hash (optional)")
	interactive := fs.Bool("interactive", false, "Interactive password prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		return fmt.Errorf("email required")
	}
	if *password != "" && *hash != "" {
		return fmt.Errorf("cannot specify both -password and -hash")
	}

	var passwordHash string
	switch {
	case *interactive:
		if *password != "" || *hash != "" {
			return fmt.Errorf("cannot use -interactive with -password or -hash")
		}
		fmt.Fprint(out, "Enter password: ")
		pwBytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(out)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		if passwordHash, err = hashPassword(string(pwBytes)); err != nil {
			return err
		}
	case *hash != "":
		passwordHash = *hash
	case *password != "":
		var err error
		if passwordHash, err = hashPassword(*password); err != nil {
			return err
		}
	default:
		return fmt.Errorf("password required: use -password, -hash, or -interactive")
	}

	store, err := sf.open()
	if err != nil {
		return err
	}
	defer store.Close()

	record := storage.UserRecord{
		UserID:       uuid.New().String(),
		Email:        strings.ToLower(strings.TrimSpace(*email)),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := store.CreateUser(context.Background(), record); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return fmt.Errorf("email already registered: %s", record.Email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(out, "User created successfully:\n")
	fmt.Fprintf(out, "  ID: %s\n", record.UserID)
	fmt.Fprintf(out, "  Email: %s\n", record.Email)
	return nil
}

func runUserList(out io.Writer, args []string) error {
	fs := flag.NewFlagSet("user list", flag.ContinueOnError)
	sf := newStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := sf.open()
	if err != nil {
		return err
	}
	defer store.Close()

	users, err := store.GetAllUsers(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if len(users) == 0 {
		fmt.Fprintln(out, "No users found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "User ID\tEmail\tCreated")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\n", u.UserID, u.Email, u.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
	}
	w.Flush()

	fmt.Fprintf(out, "\nTotal users: %d\n", len(users))
	return nil
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	h, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return h, nil
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func shortPtr(id *string) string {
	if id == nil {
		return "-"
	}
	return short(*id)
}
