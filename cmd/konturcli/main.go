// Command konturcli is a small interactive client used to poke a
// kontur-client instance: request and submit verification codes, log in with
// a password, inspect the current session and watch push notifications.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	kontur "github.com/konturpay/kontur-go"
	"github.com/konturpay/kontur-go/apierror"
	"github.com/konturpay/kontur-go/events"
	"github.com/konturpay/kontur-go/internal/config"
	"github.com/konturpay/kontur-go/storage"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := storage.NewFileStore(cfg.StorageDir)
	if err != nil {
		return err
	}

	client, err := kontur.New(kontur.Config{
		Host:       cfg.Host,
		Storage:    store,
		HTTPClient: &http.Client{Timeout: cfg.RequestTimeout},
		Logger:     slog.New(slog.NewTextHandler(os.Stderr, nil)),
	})
	if err != nil {
		return err
	}
	defer client.Close()

	go watchNotifications(ctx, client)

	fmt.Printf("connected to %s; commands: code, login, passwd, whoami, accounts, logout, quit\n", cfg.Host)
	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil // EOF ends the session
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "code":
			if len(fields) != 2 {
				fmt.Println("usage: code <phone>")
				continue
			}
			d, err := client.Session.RequestCode(ctx, fields[1])
			if err != nil {
				printError(err)
				continue
			}
			fmt.Printf("code sent, next one available in %s\n", d)

		case "login":
			if len(fields) != 3 {
				fmt.Println("usage: login <phone> <code>")
				continue
			}
			user, err := client.Session.SubmitCode(ctx, fields[1], fields[2])
			if err != nil {
				printError(err)
				continue
			}
			if user == nil {
				fmt.Println("code accepted but no identity resolved")
				continue
			}
			fmt.Printf("logged in as %s %s\n", user.FirstName, user.LastName)

		case "passwd":
			if len(fields) != 2 {
				fmt.Println("usage: passwd <username>")
				continue
			}
			fmt.Print("password: ")
			pw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				printError(err)
				continue
			}
			user, err := client.Session.PasswordLogin(ctx, fields[1], string(pw))
			if err != nil {
				printError(err)
				continue
			}
			if user == nil {
				fmt.Println("credentials accepted but no identity resolved")
				continue
			}
			fmt.Printf("logged in as %s %s\n", user.FirstName, user.LastName)

		case "whoami":
			user, err := client.Session.CurrentUser(ctx)
			if err != nil {
				printError(err)
				continue
			}
			if user == nil {
				fmt.Println("not authenticated")
				continue
			}
			fmt.Printf("%s %s (%s)\n", user.FirstName, user.LastName, user.Phone)

		case "accounts":
			if _, err := client.Session.RequireUser(ctx); err != nil {
				printError(err)
				continue
			}
			accounts, err := client.Accounts.Accounts(ctx)
			if err != nil {
				printError(err)
				continue
			}
			for _, a := range accounts {
				fmt.Printf("%s  %s\n", a.ID, a.Name)
				for _, b := range a.Balance {
					fmt.Printf("    %s %s\n", b.Amount, b.Currency)
				}
			}

		case "logout":
			if err := client.Session.Logout(ctx); err != nil {
				printError(err)
				continue
			}
			fmt.Println("logged out")

		case "quit", "exit":
			return nil

		default:
			fmt.Println("unknown command:", fields[0])
		}
	}
}

// watchNotifications prints push notifications as they arrive. Subscriptions
// are registered up front; they start delivering once a session opens the
// channel.
func watchNotifications(ctx context.Context, client *kontur.Client) {
	kinds := []events.Kind{
		events.KindTransactionStatusChanged,
		events.KindRefillSucceeded,
		events.KindRefillFailedByGateway,
		events.KindRefillFailedByBackend,
	}
	for _, kind := range kinds {
		sub, err := client.Events.Subscribe(ctx, kind)
		if err != nil {
			fmt.Fprintln(os.Stderr, "subscribe failed:", err)
			continue
		}
		go func() {
			for n := range sub {
				fmt.Printf("\n[%s] %+v\n> ", n.Kind, n.Payload)
			}
		}()
	}
}

// printError renders a failure with enough detail to tell "no network" from
// "server rejected" from "business error".
func printError(err error) {
	var (
		te *apierror.TransportError
		pe *apierror.ProtocolError
		de *apierror.DecodeError
		ae *apierror.APIError
		ce *apierror.CooldownError
	)
	switch {
	case errors.Is(err, apierror.ErrNotAuthenticated):
		fmt.Println("log in first")
	case errors.As(err, &ce):
		fmt.Printf("please wait %s before requesting another code\n", ce.Remaining)
	case errors.As(err, &te):
		fmt.Println("network unavailable:", te.Err)
	case errors.As(err, &pe):
		fmt.Printf("server rejected the request (status %d)\n", pe.StatusCode)
	case errors.As(err, &de):
		fmt.Println("server sent a malformed response:", de.Err)
	case errors.As(err, &ae):
		fmt.Println("operation failed:", ae.Code)
	default:
		fmt.Println("error:", err)
	}
}
