// Command enroll-admin creates an administrator account from the terminal.
// The password and invite code are read without echo.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/server"
	"github.com/noah-isme/student-portal-api/pkg/config"
	"github.com/noah-isme/student-portal-api/pkg/logger"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

type enrollFunc func(ctx context.Context, req models.RegisterAdminRequest) (*models.AccountView, error)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx := context.Background()
	store, closeStore, err := server.OpenStore(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to open account store", zap.Error(err))
	}
	defer closeStore()

	deps := server.NewDependencies(cfg, store, nil, logr)
	if err := run(ctx, os.Args[1:], bufio.NewReader(os.Stdin), os.Stdout, deps.Credentials.RegisterPrivileged); err != nil {
		fmt.Fprintln(os.Stderr, "enroll-admin:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, in *bufio.Reader, out io.Writer, enroll enrollFunc) error {
	fs := flag.NewFlagSet("enroll-admin", flag.ContinueOnError)
	fs.SetOutput(out)
	name := fs.String("name", "", "display name of the administrator")
	email := fs.String("email", "", "login email of the administrator")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if strings.TrimSpace(*name) == "" {
		if *name, err = prompt(in, out, "Display name"); err != nil {
			return err
		}
	}
	if strings.TrimSpace(*email) == "" {
		if *email, err = prompt(in, out, "Email"); err != nil {
			return err
		}
	}

	secret, err := promptSecret(out, "Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptSecret(out, "Confirm password: ")
	if err != nil {
		return err
	}
	if secret != confirm {
		return errors.New("passwords do not match")
	}
	code, err := promptSecret(out, "Invite code: ")
	if err != nil {
		return err
	}

	view, err := enroll(ctx, models.RegisterAdminRequest{Name: *name, Email: *email, Password: secret, InviteCode: code})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "admin %s enrolled with id %s\n", view.Email, view.ID)
	return nil
}

func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	if _, err := fmt.Fprint(out, label+": "); err != nil {
		return "", err
	}
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

func promptSecret(out io.Writer, label string) (string, error) {
	if _, err := fmt.Fprint(out, label); err != nil {
		return "", err
	}
	raw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return string(raw), nil
}
