package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

type BlacklistRepository struct {
	db *sqlx.DB
}

func NewBlacklistRepository(db *sqlx.DB) *BlacklistRepository {
	return &BlacklistRepository{db: db}
}

// IsBlacklisted reports set membership for one card number.
func (r *BlacklistRepository) IsBlacklisted(ctx context.Context, cardNo string) (bool, error) {
	var count int
	query := `SELECT COUNT(1) FROM customer_blacklist WHERE LOWER(card_no) = LOWER($1)`
	if err := r.db.GetContext(ctx, &count, query, cardNo); err != nil {
		return false, fmt.Errorf("failed to check blacklist for %s: %w", cardNo, err)
	}
	return count > 0, nil
}

// LoadAll reads the full blacklist as a set keyed by lower-cased card
// number, for the conversion run's single upfront load.
func (r *BlacklistRepository) LoadAll(ctx context.Context) (map[string]struct{}, error) {
	var cards []string
	query := `SELECT card_no FROM customer_blacklist`
	if err := r.db.SelectContext(ctx, &cards, query); err != nil {
		return nil, fmt.Errorf("failed to load blacklist: %w", err)
	}

	set := make(map[string]struct{}, len(cards))
	for _, card := range cards {
		set[strings.ToLower(card)] = struct{}{}
	}
	return set, nil
}

func (r *BlacklistRepository) Add(ctx context.Context, cardNo, reason, addedBy string) error {
	query := `
		INSERT INTO customer_blacklist (card_no, reason, added_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (card_no) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, cardNo, reason, addedBy); err != nil {
		return fmt.Errorf("failed to blacklist %s: %w", cardNo, err)
	}
	return nil
}

func (r *BlacklistRepository) Remove(ctx context.Context, cardNo string) error {
	query := `DELETE FROM customer_blacklist WHERE card_no = $1`
	if _, err := r.db.ExecContext(ctx, query, cardNo); err != nil {
		return fmt.Errorf("failed to remove %s from blacklist: %w", cardNo, err)
	}
	return nil
}
