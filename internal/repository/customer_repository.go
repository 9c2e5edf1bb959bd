package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"loyalty-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// CustomerRepository reads the loyalty-store customer mirror. Rows are
// written only by the sync job; the core treats them as read-only.
type CustomerRepository struct {
	db *sqlx.DB
}

func NewCustomerRepository(db *sqlx.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) GetByCard(ctx context.Context, cardNo string) (*models.Customer, error) {
	var customer models.Customer
	query := `
		SELECT card_no, c_name, c_contact, created_by_user_id
		FROM customers WHERE card_no = $1`
	err := r.db.GetContext(ctx, &customer, query, cardNo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer %s: %w", cardNo, err)
	}
	return &customer, nil
}

// NameByCard returns the customer's display name, empty when unknown.
func (r *CustomerRepository) NameByCard(ctx context.Context, cardNo string) (string, error) {
	var name string
	query := `SELECT c_name FROM customers WHERE card_no = $1`
	err := r.db.GetContext(ctx, &name, query, cardNo)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get customer name for %s: %w", cardNo, err)
	}
	return name, nil
}

// CardsExistTx counts how many of the given cards exist, inside the
// current transaction. Used by the merge precondition check.
func (r *CustomerRepository) CardsExistTx(ctx context.Context, tx *sqlx.Tx, cardNos []string) (int, error) {
	query, args, err := sqlx.In(`SELECT COUNT(card_no) FROM customers WHERE card_no IN (?)`, cardNos)
	if err != nil {
		return 0, fmt.Errorf("failed to build card existence query: %w", err)
	}
	var count int
	if err := tx.GetContext(ctx, &count, tx.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("failed to check card existence: %w", err)
	}
	return count, nil
}

func (r *CustomerRepository) DeleteTx(ctx context.Context, tx *sqlx.Tx, cardNo string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM customers WHERE card_no = $1`, cardNo); err != nil {
		return fmt.Errorf("failed to delete customer %s: %w", cardNo, err)
	}
	return nil
}

func (r *CustomerRepository) AllCardNumbers(ctx context.Context) ([]string, error) {
	var cards []string
	if err := r.db.SelectContext(ctx, &cards, `SELECT card_no FROM customers`); err != nil {
		return nil, fmt.Errorf("failed to list card numbers: %w", err)
	}
	return cards, nil
}
