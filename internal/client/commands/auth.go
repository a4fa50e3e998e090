package commands

import (
	"fmt"
	"strings"

	"kamisado/internal/client/display"
)

func (r *Registry) registerAuthCommands() {
	r.Register(&Command{
		Name:        "register",
		ShortName:   "r",
		Description: "Register a new user",
		Usage:       "register",
		Handler:     r.registerHandler,
	})
	r.Register(&Command{
		Name:        "login",
		ShortName:   "l",
		Description: "Login with credentials",
		Usage:       "login",
		Handler:     r.loginHandler,
	})
	r.Register(&Command{
		Name:        "logout",
		ShortName:   "o",
		Description: "End the session",
		Usage:       "logout",
		Handler:     r.logoutHandler,
	})
	r.Register(&Command{
		Name:        "whoami",
		ShortName:   "i",
		Description: "Show current user",
		Usage:       "whoami",
		Handler:     r.whoamiHandler,
	})
}

func (r *Registry) ask(prompt string) (string, error) {
	line, err := r.in.Line(display.Yellow + prompt + display.Reset)
	return strings.TrimSpace(line), err
}

func (r *Registry) registerHandler(args []string) error {
	username, err := r.ask("Username: ")
	if err != nil {
		return err
	}
	password, err := r.in.Password(display.Yellow + "Password: " + display.Reset)
	if err != nil {
		return err
	}
	email, err := r.ask("Email (optional): ")
	if err != nil {
		return err
	}

	resp, err := r.session.Client.Register(username, password, email)
	if err != nil {
		return err
	}
	r.session.SetAuth(resp.Token, resp.UserID, resp.Username)

	fmt.Fprintf(r.out, "%sRegistered successfully%s\n", display.Green, display.Reset)
	fmt.Fprintf(r.out, "User ID: %s\n", resp.UserID)
	fmt.Fprintf(r.out, "Username: %s\n", resp.Username)
	return nil
}

func (r *Registry) loginHandler(args []string) error {
	identifier, err := r.ask("Username or Email: ")
	if err != nil {
		return err
	}
	password, err := r.in.Password(display.Yellow + "Password: " + display.Reset)
	if err != nil {
		return err
	}

	resp, err := r.session.Client.Login(identifier, password)
	if err != nil {
		return err
	}
	r.session.SetAuth(resp.Token, resp.UserID, resp.Username)

	fmt.Fprintf(r.out, "%sLogged in successfully%s\n", display.Green, display.Reset)
	fmt.Fprintf(r.out, "User ID: %s\n", resp.UserID)
	fmt.Fprintf(r.out, "Username: %s\n", resp.Username)
	fmt.Fprintf(r.out, "Expires: %s\n", resp.ExpiresAt.Local().Format("2006-01-02 15:04"))
	return nil
}

func (r *Registry) logoutHandler(args []string) error {
	if !r.session.Authenticated() {
		fmt.Fprintf(r.out, "%sNot authenticated%s\n", display.Yellow, display.Reset)
		return nil
	}

	// Forget the token even if the server could not be reached
	err := r.session.Client.Logout()
	r.session.SetAuth("", "", "")
	if r.session.GameState != nil {
		r.session.Track(r.session.GameState)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "%sLogged out%s\n", display.Green, display.Reset)
	return nil
}

func (r *Registry) whoamiHandler(args []string) error {
	if !r.session.Authenticated() {
		fmt.Fprintf(r.out, "%sNot authenticated%s\n", display.Yellow, display.Reset)
		return nil
	}

	user, err := r.session.Client.GetCurrentUser()
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "%sCurrent User:%s\n", display.Cyan, display.Reset)
	fmt.Fprintf(r.out, "  User ID:  %s\n", user.UserID)
	fmt.Fprintf(r.out, "  Username: %s\n", user.Username)
	if user.Email != "" {
		fmt.Fprintf(r.out, "  Email:    %s\n", user.Email)
	}
	fmt.Fprintf(r.out, "  Created:  %s\n", user.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}
