package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/skylineops/costview/internal/config"
	"github.com/skylineops/costview/users"
	"github.com/skylineops/costview/users/postgres"
)

var (
	emailFlag = &cli.StringFlag{
		Name:     "email",
		Usage:    "email address of the user to promote",
		Required: true,
	}
	databaseURLFlag = &cli.StringFlag{
		Name:  "database-url",
		Usage: "postgres connection string (defaults to DATABASE_URL)",
	}
)

func main() {
	app := &cli.App{
		Name:  "makeadmin",
		Usage: "grant ROLE_ADMIN to an existing user",
		Flags: []cli.Flag{emailFlag, databaseURLFlag},
		Action: func(cCtx *cli.Context) error {
			dsn := cCtx.String("database-url")
			if dsn == "" {
				dsn = config.New().GetDatabaseURL()
			}
			return makeAdmin(dsn, cCtx.String("email"))
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func makeAdmin(dsn, email string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := postgres.Open(dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	user, err := store.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("[makeAdmin] lookup %q: %w", email, err)
	}
	if user.IsAdmin() {
		fmt.Printf("%s already has %s\n", email, users.RoleAdmin)
		return nil
	}
	if err := store.GrantRole(ctx, user.ID, users.RoleAdmin); err != nil {
		return fmt.Errorf("[makeAdmin] grant role: %w", err)
	}
	fmt.Printf("granted %s to %s\n", users.RoleAdmin, email)
	return nil
}
