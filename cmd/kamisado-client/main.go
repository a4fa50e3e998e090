// Package main implements an interactive terminal client for the kamisado server API.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"kamisado/internal/client/commands"
	"kamisado/internal/client/display"
	"kamisado/internal/client/session"
	"kamisado/internal/server/core"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

func main() {
	apiURL := flag.String("url", "http://localhost:8080", "API server base URL")
	history := flag.String("history", ".kamisado_history", "Readline history file")
	flag.Parse()

	s := session.New(*apiURL)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          display.Prompt("kamisado"),
		HistoryFile:     *history,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("%s%s%s\n", display.Red, err.Error(), display.Reset)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Printf("%sKamisado Client%s\n", display.Cyan, display.Reset)
	fmt.Printf("%sAPI: %s%s\n", display.Cyan, s.APIBaseURL, display.Reset)
	fmt.Printf("Type 'help' for commands\n\n")

	registry := commands.NewRegistry(s, &terminalPrompter{rl: rl})

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
		if line == "quit" {
			break
		}

		// Check for verbose flag
		s.Verbose = strings.HasSuffix(line, " -v")
		line = strings.TrimSuffix(line, " -v")

		if !registry.Execute(line) {
			break
		}
	}
}

// terminalPrompter asks follow-up questions on the readline instance
type terminalPrompter struct {
	rl *readline.Instance
}

func (p *terminalPrompter) Line(prompt string) (string, error) {
	p.rl.SetPrompt(prompt)
	return p.rl.Readline()
}

func (p *terminalPrompter) Password(prompt string) (string, error) {
	fmt.Print(prompt)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func buildPrompt(s *session.Session) string {
	parts := []string{}

	if s.Username != "" {
		parts = append(parts, display.Magenta+s.Username+display.Reset)
	}
	if s.Username != "" && s.CurrentGame != "" {
		parts = append(parts, display.Yellow+" - "+display.Reset)
	}
	if s.CurrentGame != "" {
		parts = append(parts, display.White+s.CurrentGame[:min(8, len(s.CurrentGame))]+display.Reset)
	}
	if s.PlayerSide != "" {
		parts = append(parts, " "+display.ForSide(s.PlayerSide))
	}

	promptStr := "kamisado"
	if len(parts) > 0 {
		promptStr += display.Yellow + " [" + display.Reset + strings.Join(parts, "") + display.Yellow + "]"
	}

	if g := s.GameState; g != nil {
		p := g.Players.White
		if g.Turn.Side == core.SideBlack.String() {
			p = g.Players.Black
		}
		kind := "h"
		if p != nil && p.Type == core.PlayerComputer {
			kind = "c"
		}
		promptStr += fmt.Sprintf(" - %s(%s)", display.TurnLine(g), kind)
		if g.State != core.StateOngoing.String() {
			promptStr += " " + display.Red + g.State + display.Reset
		}
	}

	return display.Prompt(promptStr)
}
