package quote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/metalworks/quoter/internal/pricing"
)

// DefaultSettings returns the settings a new company starts with. A non-positive rounding unit
// falls back to pricing.DefaultRoundingUnit.
func DefaultSettings(hourlyRate float64, roundingUnit int64) Settings {
	if roundingUnit <= 0 {
		roundingUnit = pricing.DefaultRoundingUnit
	}
	return Settings{
		HourlyRate:        hourlyRate,
		RoundingUnit:      roundingUnit,
		ProfitRatePercent: 20,
		DiscountPolicy:    pricing.DefaultDiscountPolicy(),
		Margins:           pricing.DefaultMarginByShape,
		Currency:          "JPY",
	}
}

// EnsureSettings inserts the settings singleton when it does not exist yet. Existing settings are
// never overwritten.
func (s *Store) EnsureSettings(ctx context.Context, defaults Settings) error {
	if err := defaults.Validate(); err != nil {
		return err
	}
	policyJSON, marginJSON, err := encodeSettings(defaults)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO company_settings (
			id,
			hourly_rate,
			rounding_unit,
			profit_rate_percent,
			discount_policy_json,
			margin_json,
			currency
		) VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, defaults.HourlyRate, defaults.RoundingUnit, defaults.ProfitRatePercent, policyJSON, marginJSON, defaults.Currency)
	if err != nil {
		return fmt.Errorf("insert default company_settings: %w", err)
	}
	return nil
}

// GetSettings reads the settings singleton.
func (s *Store) GetSettings(ctx context.Context) (Settings, error) {
	var (
		st         Settings
		policyJSON string
		marginJSON string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT hourly_rate, rounding_unit, profit_rate_percent, discount_policy_json, margin_json, currency
		FROM company_settings
		WHERE id = 1
	`).Scan(&st.HourlyRate, &st.RoundingUnit, &st.ProfitRatePercent, &policyJSON, &marginJSON, &st.Currency)
	if err != nil {
		return Settings{}, notFoundOr(err, "query company_settings")
	}

	st.DiscountPolicy, err = pricing.ParseDiscountPolicy([]byte(policyJSON))
	if err != nil {
		return Settings{}, err
	}
	st.Margins = pricing.DefaultMarginByShape
	if marginJSON != "" && marginJSON != "{}" {
		if err := json.Unmarshal([]byte(marginJSON), &st.Margins); err != nil {
			return Settings{}, fmt.Errorf("decode margins: %w", err)
		}
	}
	return st, nil
}

// UpdateSettings validates and stores the settings singleton.
func (s *Store) UpdateSettings(ctx context.Context, st Settings) error {
	if err := st.Validate(); err != nil {
		return err
	}
	if st.Currency == "" {
		st.Currency = "JPY"
	}
	policyJSON, marginJSON, err := encodeSettings(st)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE company_settings
		SET
			hourly_rate = ?,
			rounding_unit = ?,
			profit_rate_percent = ?,
			discount_policy_json = ?,
			margin_json = ?,
			currency = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`, st.HourlyRate, st.RoundingUnit, st.ProfitRatePercent, policyJSON, marginJSON, st.Currency)
	if err != nil {
		return fmt.Errorf("update company_settings: %w", err)
	}
	return affectedOrNotFound(result)
}

// UpdateDiscountPolicy replaces only the discount curves.
func (s *Store) UpdateDiscountPolicy(ctx context.Context, policy pricing.DiscountPolicy) error {
	st, err := s.GetSettings(ctx)
	if err != nil {
		return err
	}
	st.DiscountPolicy = policy
	return s.UpdateSettings(ctx, st)
}

func encodeSettings(st Settings) (string, string, error) {
	policy := st.DiscountPolicy
	if policy == nil {
		policy = pricing.DiscountPolicy{}
	}
	policyJSON, err := json.Marshal(policy)
	if err != nil {
		return "", "", fmt.Errorf("encode discount policy: %w", err)
	}
	marginJSON, err := json.Marshal(st.Margins)
	if err != nil {
		return "", "", fmt.Errorf("encode margins: %w", err)
	}
	return string(policyJSON), string(marginJSON), nil
}
