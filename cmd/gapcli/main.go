// gapcli is a small command-line consumer of the auth API, mainly for
// poking at a running server: register, verify, login, me, logout. The
// session is persisted to a file so tokens survive between invocations.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gaprio/auth-service/internal/client"
	"github.com/gaprio/auth-service/internal/client/credentials"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("gapcli", flag.ExitOnError)
	addr := fs.String("addr", "http://localhost:8080", "auth server base URL")
	sessionPath := fs.String("session", defaultSessionPath(), "session file path")
	fs.Usage = usage(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("command required")
	}

	store := credentials.NewFileStore(*sessionPath)
	c := client.New(*addr, store, func() {
		fmt.Fprintln(os.Stderr, "session expired, please log in again")
	})
	ctx := context.Background()

	switch cmd := fs.Arg(0); cmd {
	case "register":
		if fs.NArg() != 4 {
			return fmt.Errorf("usage: register <full name> <email> <password>")
		}
		if err := c.Register(ctx, fs.Arg(1), fs.Arg(2), fs.Arg(3)); err != nil {
			return err
		}
		fmt.Println("registered; check your mail for the verification code")
		return nil
	case "verify":
		if fs.NArg() != 3 {
			return fmt.Errorf("usage: verify <email> <code>")
		}
		if err := c.VerifyEmail(ctx, fs.Arg(1), fs.Arg(2)); err != nil {
			return err
		}
		fmt.Println("email verified, logged in")
		return nil
	case "resend":
		if fs.NArg() != 2 {
			return fmt.Errorf("usage: resend <email>")
		}
		if err := c.ResendCode(ctx, fs.Arg(1)); err != nil {
			return err
		}
		fmt.Println("verification code resent")
		return nil
	case "login":
		if fs.NArg() != 3 {
			return fmt.Errorf("usage: login <email> <password>")
		}
		if err := c.Login(ctx, fs.Arg(1), fs.Arg(2)); err != nil {
			return err
		}
		fmt.Println("logged in")
		return nil
	case "me":
		if client.Gate(store) == client.EntryLogin {
			return fmt.Errorf("not logged in")
		}
		profile, err := c.Me(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("#%d %s <%s>\n", profile.ID, profile.FullName, profile.Email)
		return nil
	case "logout":
		if err := c.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("logged out")
		return nil
	default:
		fs.Usage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gaprio-session.json"
	}
	return filepath.Join(home, ".gaprio", "session.json")
}

func usage(fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintln(os.Stderr, "usage: gapcli [flags] <command> [args]")
		fmt.Fprintln(os.Stderr, "commands: register, verify, resend, login, me, logout")
		fs.PrintDefaults()
	}
}
