package seed

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Config contains the values required by startup seed.
type Config struct {
	AdminEmail    string
	AdminPassword string
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

type defaultMaterial struct {
	name      string
	density   float64
	unitPrice float64
}

type defaultSurcharge struct {
	kind       string
	name       string
	pricePerKg float64
}

var defaultMaterials = []defaultMaterial{
	{"S45C", 7.85, 350},
	{"SUS304", 7.93, 900},
	{"A5052", 2.68, 1100},
	{"SKD11", 7.70, 1600},
}

var defaultSurcharges = []defaultSurcharge{
	{"POST", "Black oxide", 300},
	{"POST", "Electroless nickel", 1200},
	{"HEAT", "Quench and temper", 500},
	{"HEAT", "Vacuum hardening", 900},
}

// Run executes the startup seed in an idempotent way.
func Run(ctx context.Context, db *sql.DB, cfg Config) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	steps := []func(context.Context, *sql.Tx, Config, *Stats) error{
		seedAdmin,
		ensureMaterials,
		ensureSurcharges,
	}
	for _, step := range steps {
		if err := step(ctx, tx, cfg, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func seedAdmin(ctx context.Context, tx *sql.Tx, cfg Config, stats *Stats) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ? LIMIT 1)`, cfg.AdminEmail).Scan(&exists); err != nil {
		return fmt.Errorf("check admin user existence: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO users (email, password_hash) VALUES (?, ?)`, cfg.AdminEmail, string(hash)); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureMaterials(ctx context.Context, tx *sql.Tx, _ Config, stats *Stats) error {
	for _, m := range defaultMaterials {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM materials WHERE name = ? LIMIT 1)`, m.name).Scan(&exists); err != nil {
			return fmt.Errorf("check material %s existence: %w", m.name, err)
		}
		if exists {
			continue
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO materials (name, density, unit_price, notes, active)
			VALUES (?, ?, ?, ?, ?)
		`, m.name, m.density, m.unitPrice, "", true); err != nil {
			return fmt.Errorf("insert material %s: %w", m.name, err)
		}
		stats.Inserts++
	}
	return nil
}

func ensureSurcharges(ctx context.Context, tx *sql.Tx, _ Config, stats *Stats) error {
	for _, sc := range defaultSurcharges {
		var exists bool
		if err := tx.QueryRowContext(ctx, `
			SELECT EXISTS(
				SELECT 1
				FROM surcharges
				WHERE kind = ? AND name = ?
				LIMIT 1
			)
		`, sc.kind, sc.name).Scan(&exists); err != nil {
			return fmt.Errorf("check surcharge %s existence: %w", sc.name, err)
		}
		if exists {
			continue
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO surcharges (kind, name, price_per_kg, notes, active)
			VALUES (?, ?, ?, ?, ?)
		`, sc.kind, sc.name, sc.pricePerKg, "", true); err != nil {
			return fmt.Errorf("insert surcharge %s: %w", sc.name, err)
		}
		stats.Inserts++
	}
	return nil
}
