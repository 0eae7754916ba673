// FILE: internal/client/commands/auth.go
package commands

import (
	"fmt"
	"syscall"

	"golang.org/x/term"

	"tictactoe/internal/client/display"
	"tictactoe/internal/core"
)

func (r *Registry) registerAuthCommands() {
	r.Register(&Command{
		Name:        "register",
		ShortName:   "r",
		Description: "Register a new user",
		Usage:       "register <email> [password]",
		Handler:     registerHandler,
	})

	r.Register(&Command{
		Name:        "login",
		ShortName:   "l",
		Description: "Login with credentials",
		Usage:       "login <email> [password]",
		Handler:     loginHandler,
	})

	r.Register(&Command{
		Name:        "logout",
		ShortName:   "o",
		Description: "Clear authentication",
		Usage:       "logout",
		Handler:     logoutHandler,
	})

	r.Register(&Command{
		Name:        "whoami",
		ShortName:   "i",
		Description: "Show current user",
		Usage:       "whoami",
		Handler:     whoamiHandler,
	})
}

// readPassword is replaced in tests
var readPassword = func(prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	return string(bytePassword), nil
}

// credentials takes the password from args or prompts for it
func credentials(args []string, usage string) (string, string, error) {
	if len(args) < 1 {
		return "", "", fmt.Errorf("usage: %s", usage)
	}
	if len(args) > 1 {
		return args[0], args[1], nil
	}
	password, err := readPassword(display.Yellow + "Password: " + display.Reset)
	return args[0], password, err
}

func registerHandler(s Session, args []string) error {
	email, password, err := credentials(args, "register <email> [password]")
	if err != nil {
		return err
	}

	resp, err := s.GetClient().Register(email, password)
	if err != nil {
		return err
	}
	return loggedIn(s, resp, "Registered successfully")
}

func loginHandler(s Session, args []string) error {
	email, password, err := credentials(args, "login <email> [password]")
	if err != nil {
		return err
	}

	resp, err := s.GetClient().Login(email, password)
	if err != nil {
		return err
	}
	return loggedIn(s, resp, "Logged in successfully")
}

func loggedIn(s Session, resp *core.AuthResponse, msg string) error {
	s.SetAuth(resp.UserID, resp.Email, resp.Token)

	fmt.Fprintf(out, "%s%s%s\n", display.Green, msg, display.Reset)
	fmt.Fprintf(out, "User ID: %s\n", resp.UserID)
	fmt.Fprintf(out, "Email:   %s\n", resp.Email)
	fmt.Fprintf(out, "Expires: %s\n", resp.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
	return nil
}

func logoutHandler(s Session, args []string) error {
	s.SetAuth("", "", "")
	fmt.Fprintf(out, "%sLogged out%s\n", display.Green, display.Reset)
	return nil
}

func whoamiHandler(s Session, args []string) error {
	if s.GetAuthToken() == "" {
		fmt.Fprintf(out, "%sNot authenticated%s\n", display.Yellow, display.Reset)
		return nil
	}

	user, err := s.GetClient().GetCurrentUser()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%sCurrent User:%s\n", display.Cyan, display.Reset)
	fmt.Fprintf(out, "  User ID: %s\n", user.UserID)
	fmt.Fprintf(out, "  Email:   %s\n", user.Email)
	fmt.Fprintf(out, "  Created: %s\n", user.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	return nil
}
