// Package main contains bookmarkctl, the account administration tool of
// bookmarkbot.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/edgard/bookmarkbot/internal/config"
	"github.com/edgard/bookmarkbot/internal/database"
	"github.com/edgard/bookmarkbot/internal/logger"
)

const usage = `usage: bookmarkctl [-config path] <command> [flags]

commands:
  useradd -username name [-password pw]          create a web account
  passwd -username name [-password pw]           change the password of an account
  assign-orphans -username name                  give bookmarks without owner to an account

Without -password the password is read from the first line of stdin.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("bookmarkctl", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := global.String("config", "./config.yaml", "Path to configuration file")
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		global.Usage()
		return 2
	}

	cmd, cmdArgs := global.Arg(0), global.Args()[1:]
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	username := fs.String("username", "", "account name")
	password := fs.String("password", "", "account password (read from stdin when empty)")
	if err := fs.Parse(cmdArgs); err != nil {
		return 2
	}
	if strings.TrimSpace(*username) == "" {
		fmt.Fprintln(stderr, "-username is required")
		return 2
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	log := logger.New(stderr, cfg.Logger.Level, cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	switch cmd {
	case "useradd", "passwd":
		pw := *password
		if pw == "" {
			if pw, err = readPassword(stdin); err != nil {
				fmt.Fprintln(stderr, err)
				return 1
			}
		}
		if cmd == "useradd" {
			u, err := store.CreateUser(ctx, *username, pw)
			if err != nil {
				return fail(stderr, err)
			}
			fmt.Fprintf(stdout, "created user %q (id %d)\n", u.Username, u.ID)
			return 0
		}
		if err := store.SetPassword(ctx, *username, pw); err != nil {
			return fail(stderr, err)
		}
		fmt.Fprintf(stdout, "password of %q updated\n", *username)
		return 0

	case "assign-orphans":
		u, err := store.GetUserByUsername(ctx, *username)
		if err != nil {
			return fail(stderr, err)
		}
		n, err := store.AssignOrphanBookmarks(ctx, u.ID)
		if err != nil {
			return fail(stderr, err)
		}
		fmt.Fprintf(stdout, "assigned %d bookmarks to %q\n", n, u.Username)
		return 0

	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", errors.New("empty password")
	}
	return pw, nil
}

func fail(w io.Writer, err error) int {
	fmt.Fprintln(w, err)
	if errors.Is(err, database.ErrValidation) || errors.Is(err, database.ErrConflict) || errors.Is(err, database.ErrNotFound) {
		return 2
	}
	return 1
}
