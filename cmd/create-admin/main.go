package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"

	"taskboard/internal/auth"
	"taskboard/internal/config"
	"taskboard/internal/db"
	"taskboard/internal/models"
	"taskboard/internal/store"
)

func main() {
	app := &cli.App{
		Name:  "create-admin",
		Usage: "create a superuser account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true, EnvVars: []string{"ADMIN_EMAIL"}},
			&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"ADMIN_PASSWORD"}},
			&cli.StringFlag{Name: "username", Usage: "defaults to the email"},
			&cli.StringFlag{Name: "first-name"},
			&cli.StringFlag{Name: "last-name"},
		},
		Action: createAdmin,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "create-admin:", err)
		os.Exit(1)
	}
}

func createAdmin(c *cli.Context) error {
	cfg, err := config.LoadDB("")
	if err != nil {
		return err
	}
	if err := auth.ValidatePassword(c.String("password")); err != nil {
		return err
	}

	database, err := sqlx.Open("pgx", cfg.DB.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	ctx := context.Background()
	if err := db.RunMigrations(ctx, database); err != nil {
		return fmt.Errorf("failed migrations: %w", err)
	}

	hash, err := auth.HashPassword(c.String("password"))
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	admin := models.User{
		Username:     c.String("username"),
		Email:        c.String("email"),
		PasswordHash: hash,
		FirstName:    c.String("first-name"),
		LastName:     c.String("last-name"),
		IsActive:     true,
		IsSuperuser:  true,
	}
	if err := store.New(database).CreateUser(ctx, &admin); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("a user with email %s already exists", admin.Email)
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}

	fmt.Printf("Admin created: id=%d email=%s\n", admin.ID, admin.Email)
	return nil
}
