package quote

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/metalworks/quoter/internal/pricing"
)

const statusDraft = "DRAFT"

const lineColumns = `
	id, quote_id, part_name, shape,
	spec_width, spec_depth, spec_height,
	raw_width, raw_depth, raw_height,
	use_default_margin, material_id, processing_hours,
	hourly_rate, hourly_rate_inherited, difficulty,
	post_surcharge_id, heat_surcharge_id, post_manual, heat_manual,
	manual_post_cost, manual_heat_cost,
	profit_rate_percent, profit_rate_inherited, quantity,
	breakdown_json, application_rate, raw_unit_price, unit_price, supply_price`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLine(row rowScanner) (Line, error) {
	var (
		l               Line
		shape           string
		materialID      sql.NullInt64
		postID          sql.NullInt64
		heatID          sql.NullInt64
		hourlyInherited bool
		profitInherited bool
		breakdownJSON   string
	)
	err := row.Scan(
		&l.ID, &l.QuoteID, &l.PartName, &shape,
		&l.Spec[0], &l.Spec[1], &l.Spec[2],
		&l.Raw[0], &l.Raw[1], &l.Raw[2],
		&l.UseDefaultMargin, &materialID, &l.ProcessingHours,
		&l.Applied.HourlyRate, &hourlyInherited, &l.Difficulty,
		&postID, &heatID, &l.PostManual, &l.HeatManual,
		&l.ManualPostCost, &l.ManualHeatCost,
		&l.Applied.ProfitRatePercent, &profitInherited, &l.Quantity,
		&breakdownJSON, &l.Price.ApplicationRate, &l.Price.RawUnitPrice, &l.Price.UnitPrice, &l.Price.SupplyPrice,
	)
	if err != nil {
		return Line{}, err
	}

	l.Shape = pricing.ShapeKind(shape)
	l.MaterialID = int64Ptr(materialID)
	l.PostSurchargeID = int64Ptr(postID)
	l.HeatSurchargeID = int64Ptr(heatID)
	if !hourlyInherited {
		rate := l.Applied.HourlyRate
		l.HourlyRate = &rate
	}
	if !profitInherited {
		rate := l.Applied.ProfitRatePercent
		l.ProfitRatePercent = &rate
	}
	l.Price.Quantity = l.Quantity

	if err := json.Unmarshal([]byte(breakdownJSON), &l.Breakdown); err != nil {
		return Line{}, fmt.Errorf("decode breakdown of line %d: %w", l.ID, err)
	}
	return l, nil
}

// CreateQuote inserts an empty draft quote with a fresh public reference.
func (s *Store) CreateQuote(ctx context.Context, h Header) (Quote, error) {
	h.Customer = strings.TrimSpace(h.Customer)
	h.Title = strings.TrimSpace(h.Title)
	h.Notes = strings.TrimSpace(h.Notes)

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO quotes (reference, customer, title, notes, status)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.NewString(), h.Customer, h.Title, h.Notes, statusDraft)
	if err != nil {
		return Quote{}, fmt.Errorf("insert quote: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Quote{}, fmt.Errorf("read quote id: %w", err)
	}
	return s.GetQuote(ctx, id)
}

// ListQuotes returns quotes newest first with their supply-price totals. A non-empty query filters
// by customer, title or notes.
func (s *Store) ListQuotes(ctx context.Context, query string) ([]ListItem, error) {
	query = strings.TrimSpace(query)
	search := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			q.id,
			q.reference,
			q.created_at,
			q.customer,
			COALESCE(q.title, ''),
			COALESCE(SUM(l.supply_price), 0)
		FROM quotes q
		LEFT JOIN quote_lines l ON l.quote_id = q.id
		WHERE (? = '' OR q.customer LIKE ? OR COALESCE(q.title, '') LIKE ? OR COALESCE(q.notes, '') LIKE ?)
		GROUP BY q.id
		ORDER BY datetime(q.created_at) DESC, q.id DESC
	`, query, search, search, search)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]ListItem, 0)
	for rows.Next() {
		var item ListItem
		if err := rows.Scan(&item.ID, &item.Reference, &item.CreatedAt, &item.Customer, &item.Title, &item.Total); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		quotes = append(quotes, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}

	return quotes, nil
}

// GetQuote reads a quote and its lines as stored, without recalculating prices.
func (s *Store) GetQuote(ctx context.Context, id int64) (Quote, error) {
	var (
		q     Quote
		title sql.NullString
		notes sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, reference, customer, title, notes, status, created_at
		FROM quotes
		WHERE id = ?
	`, id).Scan(&q.ID, &q.Reference, &q.Customer, &title, &notes, &q.Status, &q.CreatedAt)
	if err != nil {
		return Quote{}, notFoundOr(err, "query quote")
	}
	q.Title = title.String
	q.Notes = notes.String

	lines, err := s.listLines(ctx, s.db, id)
	if err != nil {
		return Quote{}, err
	}
	q.Lines = lines
	for _, l := range lines {
		q.Total += l.Price.SupplyPrice
	}
	return q, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) listLines(ctx context.Context, db queryer, quoteID int64) ([]Line, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+lineColumns+` FROM quote_lines WHERE quote_id = ? ORDER BY id`, quoteID)
	if err != nil {
		return nil, fmt.Errorf("query quote lines: %w", err)
	}
	defer rows.Close()

	lines := make([]Line, 0)
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quote line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quote lines: %w", err)
	}
	return lines, nil
}

func (s *Store) getLine(ctx context.Context, quoteID, lineID int64) (Line, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+lineColumns+` FROM quote_lines WHERE id = ? AND quote_id = ?`, lineID, quoteID)
	l, err := scanLine(row)
	if err != nil {
		return Line{}, notFoundOr(err, "query quote line")
	}
	return l, nil
}

// pricingContext loads what every line is priced against.
func (s *Store) pricingContext(ctx context.Context) (Settings, Refs, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return Settings{}, Refs{}, err
	}
	refs, err := s.LoadRefs(ctx)
	if err != nil {
		return Settings{}, Refs{}, err
	}
	return settings, refs, nil
}

// Preview prices a line against the stored settings without persisting anything.
func (s *Store) Preview(ctx context.Context, in LineInput) (Line, error) {
	if err := in.Validate(); err != nil {
		return Line{}, err
	}
	settings, refs, err := s.pricingContext(ctx)
	if err != nil {
		return Line{}, err
	}
	return Price(in, settings, refs), nil
}

// AddLine prices in and appends it to the quote. Unlike Preview, it rejects material and surcharge
// IDs that do not resolve.
func (s *Store) AddLine(ctx context.Context, quoteID int64, in LineInput) (Line, error) {
	if err := in.Validate(); err != nil {
		return Line{}, err
	}
	settings, refs, err := s.pricingContext(ctx)
	if err != nil {
		return Line{}, err
	}
	if err := refs.Check(in); err != nil {
		return Line{}, err
	}
	line := Price(in, settings, refs)

	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM quotes WHERE id = ?)`, quoteID).Scan(&exists); err != nil {
		return Line{}, fmt.Errorf("check quote existence: %w", err)
	}
	if !exists {
		return Line{}, ErrNotFound
	}

	breakdownJSON, err := json.Marshal(line.Breakdown)
	if err != nil {
		return Line{}, fmt.Errorf("encode breakdown: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO quote_lines (
			quote_id, part_name, shape,
			spec_width, spec_depth, spec_height,
			raw_width, raw_depth, raw_height,
			use_default_margin, material_id, processing_hours,
			hourly_rate, hourly_rate_inherited, difficulty,
			post_surcharge_id, heat_surcharge_id, post_manual, heat_manual,
			manual_post_cost, manual_heat_cost,
			profit_rate_percent, profit_rate_inherited, quantity,
			breakdown_json, application_rate, raw_unit_price, unit_price, supply_price
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		quoteID, line.PartName, string(line.Shape),
		line.Spec[0], line.Spec[1], line.Spec[2],
		line.Raw[0], line.Raw[1], line.Raw[2],
		line.UseDefaultMargin, nullInt64(line.MaterialID), line.ProcessingHours,
		line.Applied.HourlyRate, line.HourlyRate == nil, line.Difficulty,
		nullInt64(line.PostSurchargeID), nullInt64(line.HeatSurchargeID), line.PostManual, line.HeatManual,
		line.ManualPostCost, line.ManualHeatCost,
		line.Applied.ProfitRatePercent, line.ProfitRatePercent == nil, line.Quantity,
		string(breakdownJSON), line.Price.ApplicationRate, line.Price.RawUnitPrice, line.Price.UnitPrice, line.Price.SupplyPrice,
	)
	if err != nil {
		return Line{}, fmt.Errorf("insert quote line: %w", err)
	}
	if line.ID, err = result.LastInsertId(); err != nil {
		return Line{}, fmt.Errorf("read quote line id: %w", err)
	}
	line.QuoteID = quoteID
	return line, nil
}

// UpdateLine applies an inline edit and re-prices the line so the stored unit and supply prices
// match its breakdown.
func (s *Store) UpdateLine(ctx context.Context, quoteID, lineID int64, patch LinePatch) (Line, error) {
	current, err := s.getLine(ctx, quoteID, lineID)
	if err != nil {
		return Line{}, err
	}

	in := patch.Apply(current.LineInput)
	if err := in.Validate(); err != nil {
		return Line{}, err
	}

	settings, refs, err := s.pricingContext(ctx)
	if err != nil {
		return Line{}, err
	}
	if err := refs.Check(in); err != nil {
		return Line{}, err
	}

	var line Line
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		line, err = repriceLine(ctx, tx, current.ID, quoteID, in, settings, refs)
		return err
	})
	return line, err
}

// RepriceQuote re-prices every line of a quote against the current settings and reference data.
// Hourly and profit rates overridden on a line are kept; inherited rates and default margins follow
// the settings as they are now.
func (s *Store) RepriceQuote(ctx context.Context, quoteID int64) (Quote, error) {
	settings, refs, err := s.pricingContext(ctx)
	if err != nil {
		return Quote{}, err
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM quotes WHERE id = ?)`, quoteID).Scan(&exists); err != nil {
			return fmt.Errorf("check quote existence: %w", err)
		}
		if !exists {
			return ErrNotFound
		}

		lines, err := s.listLines(ctx, tx, quoteID)
		if err != nil {
			return err
		}
		for _, l := range lines {
			if _, err := repriceLine(ctx, tx, l.ID, quoteID, l.LineInput, settings, refs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Quote{}, err
	}
	return s.GetQuote(ctx, quoteID)
}

func repriceLine(ctx context.Context, tx *sql.Tx, lineID, quoteID int64, in LineInput, settings Settings, refs Refs) (Line, error) {
	line := Price(in, settings, refs)
	breakdownJSON, err := json.Marshal(line.Breakdown)
	if err != nil {
		return Line{}, fmt.Errorf("encode breakdown: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE quote_lines
		SET
			raw_width = ?,
			raw_depth = ?,
			raw_height = ?,
			hourly_rate = ?,
			hourly_rate_inherited = ?,
			difficulty = ?,
			post_surcharge_id = ?,
			post_manual = ?,
			manual_post_cost = ?,
			profit_rate_percent = ?,
			profit_rate_inherited = ?,
			quantity = ?,
			breakdown_json = ?,
			application_rate = ?,
			raw_unit_price = ?,
			unit_price = ?,
			supply_price = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND quote_id = ?
	`,
		line.Raw[0], line.Raw[1], line.Raw[2],
		line.Applied.HourlyRate, line.HourlyRate == nil, line.Difficulty,
		nullInt64(line.PostSurchargeID), line.PostManual, line.ManualPostCost,
		line.Applied.ProfitRatePercent, line.ProfitRatePercent == nil, line.Quantity,
		string(breakdownJSON), line.Price.ApplicationRate, line.Price.RawUnitPrice, line.Price.UnitPrice, line.Price.SupplyPrice,
		lineID, quoteID,
	)
	if err != nil {
		return Line{}, fmt.Errorf("update quote line: %w", err)
	}
	if err := affectedOrNotFound(result); err != nil {
		return Line{}, err
	}

	line.ID, line.QuoteID = lineID, quoteID
	return line, nil
}

// DeleteLine removes a line from a quote.
func (s *Store) DeleteLine(ctx context.Context, quoteID, lineID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM quote_lines WHERE id = ? AND quote_id = ?`, lineID, quoteID)
	if err != nil {
		return fmt.Errorf("delete quote line: %w", err)
	}
	return affectedOrNotFound(result)
}
