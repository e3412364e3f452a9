package quote

import (
	"context"
	"fmt"
	"strings"
)

// ListMaterials returns materials newest first. Inactive ones are skipped when activeOnly is set.
func (s *Store) ListMaterials(ctx context.Context, activeOnly bool) ([]Material, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, density, unit_price, COALESCE(notes, ''), active
		FROM materials
		WHERE (? = 0 OR active = TRUE)
		ORDER BY id DESC
	`, boolInt(activeOnly))
	if err != nil {
		return nil, fmt.Errorf("query materials: %w", err)
	}
	defer rows.Close()

	materials := make([]Material, 0)
	for rows.Next() {
		var m Material
		if err := rows.Scan(&m.ID, &m.Name, &m.Density, &m.UnitPrice, &m.Notes, &m.Active); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		materials = append(materials, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate materials: %w", err)
	}

	return materials, nil
}

// CreateMaterial validates and inserts m, returning its ID.
func (s *Store) CreateMaterial(ctx context.Context, m Material) (int64, error) {
	m.Name = strings.TrimSpace(m.Name)
	if err := m.Validate(); err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO materials (name, density, unit_price, notes, active)
		VALUES (?, ?, ?, ?, ?)
	`, m.Name, m.Density, m.UnitPrice, m.Notes, m.Active)
	if err != nil {
		return 0, fmt.Errorf("insert material: %w", err)
	}
	return result.LastInsertId()
}

// UpdateMaterial validates and overwrites the material with m.ID.
func (s *Store) UpdateMaterial(ctx context.Context, m Material) error {
	m.Name = strings.TrimSpace(m.Name)
	if err := m.Validate(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE materials
		SET
			name = ?,
			density = ?,
			unit_price = ?,
			notes = ?,
			active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, m.Name, m.Density, m.UnitPrice, m.Notes, m.Active, m.ID)
	if err != nil {
		return fmt.Errorf("update material: %w", err)
	}
	return affectedOrNotFound(result)
}

// ListSurcharges returns surcharges of kind, or of every kind when kind is empty.
func (s *Store) ListSurcharges(ctx context.Context, kind SurchargeKind, activeOnly bool) ([]Surcharge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, name, price_per_kg, COALESCE(notes, ''), active
		FROM surcharges
		WHERE (? = '' OR kind = ?) AND (? = 0 OR active = TRUE)
		ORDER BY kind, id DESC
	`, string(kind), string(kind), boolInt(activeOnly))
	if err != nil {
		return nil, fmt.Errorf("query surcharges: %w", err)
	}
	defer rows.Close()

	surcharges := make([]Surcharge, 0)
	for rows.Next() {
		var sc Surcharge
		if err := rows.Scan(&sc.ID, &sc.Kind, &sc.Name, &sc.PricePerKg, &sc.Notes, &sc.Active); err != nil {
			return nil, fmt.Errorf("scan surcharge: %w", err)
		}
		surcharges = append(surcharges, sc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate surcharges: %w", err)
	}

	return surcharges, nil
}

// CreateSurcharge validates and inserts sc, returning its ID.
func (s *Store) CreateSurcharge(ctx context.Context, sc Surcharge) (int64, error) {
	sc.Name = strings.TrimSpace(sc.Name)
	if err := sc.Validate(); err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO surcharges (kind, name, price_per_kg, notes, active)
		VALUES (?, ?, ?, ?, ?)
	`, string(sc.Kind), sc.Name, sc.PricePerKg, sc.Notes, sc.Active)
	if err != nil {
		return 0, fmt.Errorf("insert surcharge: %w", err)
	}
	return result.LastInsertId()
}

// UpdateSurcharge validates and overwrites the surcharge with sc.ID.
func (s *Store) UpdateSurcharge(ctx context.Context, sc Surcharge) error {
	sc.Name = strings.TrimSpace(sc.Name)
	if err := sc.Validate(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE surcharges
		SET
			kind = ?,
			name = ?,
			price_per_kg = ?,
			notes = ?,
			active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, string(sc.Kind), sc.Name, sc.PricePerKg, sc.Notes, sc.Active, sc.ID)
	if err != nil {
		return fmt.Errorf("update surcharge: %w", err)
	}
	return affectedOrNotFound(result)
}

// LoadRefs reads every material and surcharge, active or not, so existing lines keep pricing
// against retired reference data.
func (s *Store) LoadRefs(ctx context.Context) (Refs, error) {
	materials, err := s.ListMaterials(ctx, false)
	if err != nil {
		return Refs{}, err
	}
	surcharges, err := s.ListSurcharges(ctx, "", false)
	if err != nil {
		return Refs{}, err
	}
	return NewRefs(materials, surcharges), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
