// Command authctl manages accounts in the credential store directly,
// using the same configuration as the server.
//
// Usage:
//
//	authctl adduser <username>
//	authctl users
//	authctl stats
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/msomdec/sena-auth/internal/app"
	"github.com/msomdec/sena-auth/internal/config"
	"github.com/msomdec/sena-auth/internal/domain"
	"github.com/msomdec/sena-auth/internal/logging"
)

const usage = `usage: authctl <command>

commands:
  adduser <username>  register a user, password read from the terminal
  users               list registered users
  stats               show registration statistics
`

// readPassword is a test seam for term.ReadPassword.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}

var errUsage = errors.New("invalid usage")

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "authctl:", err)
		os.Exit(1)
	}
	level, _ := cfg.SlogLevel()
	slog.SetDefault(logging.New(level, io.Discard, os.Stderr))

	ctx := context.Background()
	db, err := app.OpenDatabase(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "authctl:", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := run(ctx, app.NewServices(cfg, db), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		} else {
			fmt.Fprintln(os.Stderr, "authctl:", err)
		}
		db.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, svc app.Services, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "adduser":
		if len(args) != 2 {
			return errUsage
		}
		return addUser(ctx, svc, args[1], out)
	case "users":
		return listUsers(ctx, svc, out)
	case "stats":
		return printStats(ctx, svc, out)
	default:
		return errUsage
	}
}

func addUser(ctx context.Context, svc app.Services, username string, out io.Writer) error {
	fmt.Fprint(out, "Enter password: ")
	pw, err := readPassword()
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	fmt.Fprint(out, "Confirm password: ")
	confirm, err := readPassword()
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	if !bytes.Equal(pw, confirm) {
		return errors.New("passwords do not match")
	}

	creds := domain.Credentials{Username: username, Password: string(pw)}
	if err := creds.ValidateRegistration(); err != nil {
		return err
	}

	profile, err := svc.Auth.Register(ctx, creds.Username, creds.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return fmt.Errorf("user %q already exists", username)
		}
		return err
	}
	fmt.Fprintf(out, "created user %s (id %d)\n", profile.Username, profile.ID)
	return nil
}

func listUsers(ctx context.Context, svc app.Services, out io.Writer) error {
	users, err := svc.Auth.ListUsers(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tCREATED")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", u.ID, u.Username, u.CreatedAt.Local().Format(time.DateTime))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d user(s)\n", len(users))
	return nil
}

func printStats(ctx context.Context, svc app.Services, out io.Writer) error {
	stats, err := svc.Status.Stats(ctx)
	if err != nil {
		return err
	}

	last := "never"
	if stats.LastActivity != nil {
		last = stats.LastActivity.Local().Format(time.DateTime)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "database\t%s\n", stats.DatabaseStatus)
	fmt.Fprintf(tw, "total users\t%d\n", stats.TotalUsers)
	fmt.Fprintf(tw, "registered today\t%d\n", stats.UsersRegisteredToday)
	fmt.Fprintf(tw, "last registration\t%s\n", last)
	fmt.Fprintf(tw, "memory\t%s\n", stats.MemoryFootprint)
	return tw.Flush()
}
