// Package admincli implements the administrative command-line tool:
// role changes, account unlocks, password resets and bulk CSV imports.
package admincli

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/term"

	"userhub/internal/logging"
	"userhub/internal/server/config"
	"userhub/internal/server/models"
	"userhub/internal/server/repositories/repomanager"
	"userhub/internal/server/services"
)

type CLI struct {
	users *services.UserService
	db    *sql.DB
	out   io.Writer
}

func New(cfg *config.Config, logger logging.Logger) (*CLI, error) {
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return &CLI{
		users: services.NewUserService(db, rm, cfg, logger),
		db:    db,
		out:   os.Stdout,
	}, nil
}

func (c *CLI) Close() error { return c.db.Close() }

// Run dispatches a subcommand: change-role, unlock, reset-password or
// import-users.
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: admin <change-role|unlock|reset-password|import-users> ...")
	}

	switch args[0] {
	case "change-role":
		if len(args) != 3 {
			return errors.New("usage: admin change-role <email> <role>")
		}
		return c.changeRole(ctx, args[1], args[2])
	case "unlock":
		if len(args) != 2 {
			return errors.New("usage: admin unlock <email>")
		}
		return c.unlock(ctx, args[1])
	case "reset-password":
		if len(args) != 2 {
			return errors.New("usage: admin reset-password <email>")
		}
		return c.resetPassword(ctx, args[1])
	case "import-users":
		if len(args) != 2 {
			return errors.New("usage: admin import-users <csv-file>")
		}
		return c.importUsers(ctx, args[1])
	}
	return fmt.Errorf("unknown command %q", args[0])
}

func (c *CLI) byEmail(ctx context.Context, email string) (*models.User, error) {
	user := c.users.GetByEmail(ctx, email)
	if user == nil {
		return nil, fmt.Errorf("user %s not found", email)
	}
	return user, nil
}

func (c *CLI) changeRole(ctx context.Context, email, roleName string) error {
	role, err := models.ParseRole(roleName)
	if err != nil {
		return err
	}
	user, err := c.byEmail(ctx, email)
	if err != nil {
		return err
	}
	if _, err := c.users.Update(ctx, user.ID, &services.UserPatch{Role: &role}); err != nil {
		return fmt.Errorf("updating role: %w", err)
	}
	fmt.Fprintf(c.out, "Updated %s role to %s\n", email, role)
	return nil
}

func (c *CLI) unlock(ctx context.Context, email string) error {
	user, err := c.byEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := c.users.UnlockAccount(ctx, user.ID); err != nil {
		return fmt.Errorf("unlocking account: %w", err)
	}
	fmt.Fprintf(c.out, "Unlocked %s\n", email)
	return nil
}

func (c *CLI) resetPassword(ctx context.Context, email string) error {
	user, err := c.byEmail(ctx, email)
	if err != nil {
		return err
	}

	fmt.Fprint(c.out, "New password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(c.out)
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	ok, err := c.users.ResetPassword(ctx, user.ID, string(password))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user %s not found", email)
	}
	fmt.Fprintf(c.out, "Password reset for %s\n", email)
	return nil
}

// importUsers bulk-creates accounts from a CSV file with an
// email,password,role header. Rows that fail are reported and skipped.
func (c *CLI) importUsers(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("reading csv header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}
	for _, required := range []string{"email", "password"} {
		if _, ok := columns[required]; !ok {
			return fmt.Errorf("csv is missing the %q column", required)
		}
	}

	imported := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("reading csv row: %w", err)
		}

		input := &services.CreateUserInput{
			Email:    row[columns["email"]],
			Password: row[columns["password"]],
		}
		user, err := c.users.Create(ctx, input, nil)
		if err != nil {
			fmt.Fprintf(c.out, "Skipping %s: %v\n", input.Email, err)
			continue
		}

		if i, ok := columns["role"]; ok && row[i] != "" {
			role, err := models.ParseRole(row[i])
			if err != nil {
				fmt.Fprintf(c.out, "Imported %s with default role: %v\n", input.Email, err)
			} else if _, err := c.users.Update(ctx, user.ID, &services.UserPatch{Role: &role}); err != nil {
				fmt.Fprintf(c.out, "Imported %s but failed to set role: %v\n", input.Email, err)
			}
		}
		imported++
	}
	fmt.Fprintf(c.out, "Imported %d users\n", imported)
	return nil
}
