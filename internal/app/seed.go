package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vidupload/backend/internal/auth"
	"github.com/vidupload/backend/internal/config"
	"github.com/vidupload/backend/internal/db"
	"github.com/vidupload/backend/internal/models"
	"github.com/vidupload/backend/internal/repositories"
)

// adminSeed is built in code rather than from SQL so the password is hashed with bcrypt.
const adminSeed = "admin"

func runSeed(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected seed name (e.g. demo or admin)")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if args[0] == adminSeed {
		return seedAdmin(ctx, auth.NewCredentials(repositories.NewPostgresUserRepository(pool)), cfg.Admin)
	}

	seedDir, err := resolveDir(cfg.SeedDir)
	if err != nil {
		return err
	}
	seedName := seedFileName(args[0])
	contents, err := os.ReadFile(filepath.Join(seedDir, seedName))
	if err != nil {
		return fmt.Errorf("read seed %s: %w", seedName, err)
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, string(contents)); err != nil {
		return fmt.Errorf("apply seed %s: %w", seedName, err)
	}

	fmt.Printf("applied seed %s\n", seedName)
	return nil
}

func seedFileName(name string) string {
	if strings.HasSuffix(name, ".sql") {
		return name
	}
	return name + "_seed.sql"
}

// accountRegistrar is the part of the credential store the admin seed needs.
type accountRegistrar interface {
	Register(ctx context.Context, username, email, password string) (models.User, error)
}

// seedAdmin creates the configured admin account. An existing account is left untouched.
func seedAdmin(ctx context.Context, accounts accountRegistrar, admin config.AdminConfig) error {
	if admin.Password == "" {
		return errors.New("admin seed requires VIDUPLOAD_ADMIN_PASSWORD")
	}

	user, err := accounts.Register(ctx, admin.Username, admin.Email, admin.Password)
	if errors.Is(err, auth.ErrAccountExists) {
		fmt.Printf("admin account %s already exists\n", admin.Username)
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	fmt.Printf("created admin account %s (%s)\n", user.Username, user.ID)
	return nil
}
