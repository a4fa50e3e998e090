// Package cli implements the "db" maintenance subcommands of kamisado-server
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"kamisado/internal/server/core"
	"kamisado/internal/server/storage"

	"github.com/google/uuid"
	"github.com/lixenwraith/auth"
	"golang.org/x/term"
)

const minPasswordLength = 8

// out receives command output; tests swap it for a buffer
var out io.Writer = os.Stdout

// readPassword prompts without echo; tests swap it for a fixed value
var readPassword = func(prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}

// Run is the entry point for the CLI mini-app
func Run(args []string) error {
	if len(args) == 0 {
		return errors.New("subcommand required: init, delete, query, user")
	}

	switch args[0] {
	case "init":
		return runInit(args[1:])
	case "delete":
		return runDelete(args[1:])
	case "query":
		return runQuery(args[1:])
	case "user":
		if len(args) < 2 {
			return errors.New("user subcommand required: add, delete, set-password, set-hash, list")
		}
		return runUser(args[1], args[2:])
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

// command bundles a flag set with the mandatory -path flag
type command struct {
	fs   *flag.FlagSet
	path *string
}

func newCommand(name string) *command {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return &command{fs: fs, path: fs.String("path", "", "Database file path (required)")}
}

func (c *command) parse(args []string) error {
	if err := c.fs.Parse(args); err != nil {
		return err
	}
	if *c.path == "" {
		return errors.New("database path required")
	}
	return nil
}

func (c *command) open() (*storage.Store, error) {
	store, err := storage.NewStore(*c.path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return store, nil
}

func runInit(args []string) error {
	cmd := newCommand("init")
	if err := cmd.parse(args); err != nil {
		return err
	}

	store, err := cmd.open()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitDB(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	fmt.Fprintf(out, "Database initialized at: %s\n", *cmd.path)
	return nil
}

func runDelete(args []string) error {
	cmd := newCommand("delete")
	if err := cmd.parse(args); err != nil {
		return err
	}

	store, err := cmd.open()
	if err != nil {
		return err
	}
	if err := store.DeleteDB(); err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}

	fmt.Fprintf(out, "Database deleted: %s\n", *cmd.path)
	return nil
}

func runQuery(args []string) error {
	cmd := newCommand("query")
	gameID := cmd.fs.String("gameId", "", "Game ID to filter (optional, * for all)")
	playerID := cmd.fs.String("playerId", "", "Player ID to filter (optional, * for all)")
	withMoves := cmd.fs.Bool("moves", false, "List the moves of each game")
	if err := cmd.parse(args); err != nil {
		return err
	}

	store, err := cmd.open()
	if err != nil {
		return err
	}
	defer store.Close()

	games, err := store.QueryGames(*gameID, *playerID)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if len(games) == 0 {
		fmt.Fprintln(out, "No games found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Game ID\tWhite Player\tBlack Player\tStart Time")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, g := range games {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			short(g.GameID),
			playerInfo(g.WhitePlayerID, g.WhiteType, g.WhiteLevel),
			playerInfo(g.BlackPlayerID, g.BlackType, g.BlackLevel),
			g.StartTimeUTC.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()

	if *withMoves {
		for _, g := range games {
			if err := printMoves(store, g.GameID); err != nil {
				return err
			}
		}
	}

	fmt.Fprintf(out, "\nFound %d game(s)\n", len(games))
	return nil
}

func printMoves(store *storage.Store, gameID string) error {
	moves, err := store.QueryMoves(gameID)
	if err != nil {
		return fmt.Errorf("move query failed: %w", err)
	}

	fmt.Fprintf(out, "\nGame %s: %d move(s)\n", gameID, len(moves))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, m := range moves {
		skip := ""
		if m.Skipped {
			skip = "skip"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s%s\t%s\n", m.MoveNumber, m.PlayerSide, m.PieceColor, m.FromCell, m.ToCell, skip)
	}
	return w.Flush()
}

func playerInfo(id string, playerType, level int) string {
	t := core.PlayerType(playerType)
	if t == core.PlayerComputer {
		return fmt.Sprintf("%s (%s L%d)", short(id), t, level)
	}
	return fmt.Sprintf("%s (%s)", short(id), t)
}

func short(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}

func runUser(subcommand string, args []string) error {
	switch subcommand {
	case "add":
		return runUserAdd(args)
	case "delete":
		return runUserDelete(args)
	case "set-password":
		return runUserSetPassword(args)
	case "set-hash":
		return runUserSetHash(args)
	case "list":
		return runUserList(args)
	default:
		return fmt.Errorf("unknown user subcommand: %s", subcommand)
	}
}

// passwordHash resolves exactly one of -password, -hash or -interactive
func passwordHash(password, hash string, interactive bool) (string, error) {
	set := 0
	for _, on := range []bool{password != "", hash != "", interactive} {
		if on {
			set++
		}
	}
	if set == 0 {
		return "", errors.New("password required: use -password, -hash, or -interactive")
	}
	if set > 1 {
		return "", errors.New("specify only one of -password, -hash, -interactive")
	}

	if hash != "" {
		if err := auth.ValidatePHCHashFormat(hash); err != nil {
			return "", fmt.Errorf("invalid hash format: %w", err)
		}
		return hash, nil
	}

	if interactive {
		var err error
		if password, err = readPassword("Enter password: "); err != nil {
			return "", err
		}
	}
	if len(password) < minPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	// Argon2id
	h, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return h, nil
}

func runUserAdd(args []string) error {
	cmd := newCommand("user add")
	username := cmd.fs.String("username", "", "Username (required)")
	email := cmd.fs.String("email", "", "Email address (optional)")
	password := cmd.fs.String("password", "", "Password")
	hash := cmd.fs.String("hash", "", "Pre-computed PHC password hash")
	interactive := cmd.fs.Bool("interactive", false, "Interactive password prompt")
	if err := cmd.parse(args); err != nil {
		return err
	}
	if *username == "" {
		return errors.New("username required")
	}

	pwHash, err := passwordHash(*password, *hash, *interactive)
	if err != nil {
		return err
	}

	store, err := cmd.open()
	if err != nil {
		return err
	}
	defer store.Close()

	record := storage.UserRecord{
		UserID:       uuid.New().String(),
		Username:     strings.ToLower(*username),
		Email:        strings.ToLower(*email),
		PasswordHash: pwHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := store.CreateUser(record); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(out, "User created successfully:\n")
	fmt.Fprintf(out, "  ID: %s\n", record.UserID)
	fmt.Fprintf(out, "  Username: %s\n", record.Username)
	if record.Email != "" {
		fmt.Fprintf(out, "  Email: %s\n", record.Email)
	}
	return nil
}

func runUserDelete(args []string) error {
	cmd := newCommand("user delete")
	username := cmd.fs.String("username", "", "Username to delete")
	userID := cmd.fs.String("id", "", "User ID to delete")
	if err := cmd.parse(args); err != nil {
		return err
	}
	if (*username == "") == (*userID == "") {
		return errors.New("specify exactly one of -username or -id")
	}

	store, err := cmd.open()
	if err != nil {
		return err
	}
	defer store.Close()

	targetID := *userID
	if targetID == "" {
		user, err := store.GetUserByUsername(*username)
		if err != nil {
			return fmt.Errorf("user not found: %s", *username)
		}
		targetID = user.UserID
	}

	if err := store.DeleteUserByID(targetID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	fmt.Fprintf(out, "User deleted: %s\n", targetID)
	return nil
}

func runUserSetPassword(args []string) error {
	cmd := newCommand("user set-password")
	username := cmd.fs.String("username", "", "Username (required)")
	password := cmd.fs.String("password", "", "New password")
	interactive := cmd.fs.Bool("interactive", false, "Interactive password prompt")
	if err := cmd.parse(args); err != nil {
		return err
	}
	return setPassword(cmd, *username, *password, "", *interactive)
}

func runUserSetHash(args []string) error {
	cmd := newCommand("user set-hash")
	username := cmd.fs.String("username", "", "Username (required)")
	hash := cmd.fs.String("hash", "", "PHC password hash (required)")
	if err := cmd.parse(args); err != nil {
		return err
	}
	if *hash == "" {
		return errors.New("password hash required")
	}
	return setPassword(cmd, *username, "", *hash, false)
}

func setPassword(cmd *command, username, password, hash string, interactive bool) error {
	if username == "" {
		return errors.New("username required")
	}
	pwHash, err := passwordHash(password, hash, interactive)
	if err != nil {
		return err
	}

	store, err := cmd.open()
	if err != nil {
		return err
	}
	defer store.Close()

	user, err := store.GetUserByUsername(username)
	if err != nil {
		return fmt.Errorf("user not found: %s", username)
	}
	if err := store.UpdateUserPassword(user.UserID, pwHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	fmt.Fprintf(out, "Password updated for user: %s\n", username)
	return nil
}

func runUserList(args []string) error {
	cmd := newCommand("user list")
	if err := cmd.parse(args); err != nil {
		return err
	}

	store, err := cmd.open()
	if err != nil {
		return err
	}
	defer store.Close()

	users, err := store.GetAllUsers()
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	if len(users) == 0 {
		fmt.Fprintln(out, "No users found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "User ID\tUsername\tEmail\tCreated\tLast Login")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, u := range users {
		lastLogin := "never"
		if u.LastLoginAt != nil {
			lastLogin = u.LastLoginAt.Format("2006-01-02 15:04")
		}
		email := u.Email
		if email == "" {
			email = "(none)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			short(u.UserID),
			u.Username,
			email,
			u.CreatedAt.Format("2006-01-02 15:04"),
			lastLogin,
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nTotal users: %d\n", len(users))
	return nil
}
