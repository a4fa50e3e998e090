package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"kamisado/internal/client/display"
	"kamisado/internal/client/session"
)

// ErrExit asks the REPL to stop
var ErrExit = errors.New("exit")

// Prompter reads interactive input for commands that ask questions
type Prompter interface {
	Line(prompt string) (string, error)
	Password(prompt string) (string, error)
}

// Command defines a client command with its handler
type Command struct {
	Name        string
	ShortName   string
	Description string
	Usage       string
	Handler     func(args []string) error
}

// Registry manages command registration and execution
type Registry struct {
	session  *session.Session
	in       Prompter
	out      io.Writer
	commands map[string]*Command
}

func NewRegistry(s *session.Session, in Prompter) *Registry {
	r := &Registry{
		session:  s,
		in:       in,
		out:      os.Stdout,
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
		Handler: func([]string) error {
			fmt.Fprintf(r.out, "%sGoodbye!%s\n", display.Cyan, display.Reset)
			return ErrExit
		},
	})

	return r
}

// SetOutput redirects command and API output
func (r *Registry) SetOutput(w io.Writer) {
	r.out = w
	r.session.Client.Out = w
}

func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	if cmd.ShortName != "" {
		r.commands[cmd.ShortName] = cmd
	}
}

// Execute runs one input line. It returns false once the user asked to exit.
func (r *Registry) Execute(input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}

	cmd, exists := r.commands[parts[0]]
	if !exists {
		fmt.Fprintf(r.out, "%sUnknown command: %s%s\n", display.Red, parts[0], display.Reset)
		fmt.Fprintf(r.out, "Type 'help' for available commands\n")
		return true
	}

	r.session.Client.SetVerbose(r.session.Verbose)

	err := cmd.Handler(parts[1:])
	if errors.Is(err, ErrExit) {
		return false
	}
	if err != nil {
		fmt.Fprintf(r.out, "%sError: %s%s\n", display.Red, err.Error(), display.Reset)
	}
	return true
}

func (r *Registry) helpHandler(args []string) error {
	if len(args) > 0 {
		cmd, exists := r.commands[args[0]]
		if !exists {
			return fmt.Errorf("unknown command: %s", args[0])
		}
		fmt.Fprintf(r.out, "\n%s%s%s - %s\n", display.Cyan, cmd.Name, display.Reset, cmd.Description)
		if cmd.ShortName != "" {
			fmt.Fprintf(r.out, "Short form: %s%s%s\n", display.Cyan, cmd.ShortName, display.Reset)
		}
		fmt.Fprintf(r.out, "Usage: %s\n", cmd.Usage)
		return nil
	}

	fmt.Fprintf(r.out, "\n%sAvailable Commands:%s\n\n", display.Cyan, display.Reset)

	groups := []struct {
		title string
		names []string
	}{
		{"Game Commands", []string{"new", "players", "join", "select", "move", "computer", "undo", "show", "state", "poll", "delete"}},
		{"Auth Commands", []string{"register", "login", "logout", "whoami"}},
		{"Utility Commands", []string{"health", "url", "raw", "clear", "help", "exit"}},
	}
	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(r.out)
		}
		fmt.Fprintf(r.out, "%s%s:%s\n", display.Yellow, g.title, display.Reset)
		for _, name := range g.names {
			cmd, exists := r.commands[name]
			if !exists {
				continue
			}
			shortPart := "    "
			if cmd.ShortName != "" {
				shortPart = fmt.Sprintf("[%s%s%s] ", display.Cyan, cmd.ShortName, display.Reset)
			}
			fmt.Fprintf(r.out, "  %s%-10s %s\n", shortPart, cmd.Name, cmd.Description)
		}
	}

	fmt.Fprintf(r.out, "\nType 'help <command>' for detailed usage\n")
	fmt.Fprintf(r.out, "Add '-v' to any command for verbose output\n")
	return nil
}

// requireGame returns the current game ID or an error telling the user how to set one
func (r *Registry) requireGame() (string, error) {
	if r.session.CurrentGame == "" {
		return "", errors.New("no current game, use 'new' or 'join <gameId>'")
	}
	return r.session.CurrentGame, nil
}
