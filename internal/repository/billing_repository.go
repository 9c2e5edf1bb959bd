package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"loyalty-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// BillingRepository talks to the external billing store: the point balances
// the conversion engine consumes and the transaction log used for
// attribution. The store's shape is owned by the billing system.
type BillingRepository struct {
	db *sqlx.DB
}

func NewBillingRepository(db *sqlx.DB) *BillingRepository {
	return &BillingRepository{db: db}
}

// CustomersWithPoints returns every customer whose balance reaches the
// coarse prefilter threshold. Exact eligibility is re-checked per customer
// against their tier's conversion rate.
func (r *BillingRepository) CustomersWithPoints(ctx context.Context, minPoints float64) ([]models.BillingCustomer, error) {
	var customers []models.BillingCustomer
	query := `
		SELECT card_no, c_name, c_contact, points
		FROM customer_entry
		WHERE points >= $1 AND card_no IS NOT NULL AND card_no != ''`
	if err := r.db.SelectContext(ctx, &customers, query, minPoints); err != nil {
		return nil, fmt.Errorf("failed to find customers with points: %w", err)
	}
	return customers, nil
}

// UpdatePoints writes the post-conversion remainder back as the customer's
// balance.
func (r *BillingRepository) UpdatePoints(ctx context.Context, cardNo string, points float64) error {
	query := `UPDATE customer_entry SET points = $2 WHERE card_no = $1`
	if _, err := r.db.ExecContext(ctx, query, cardNo, points); err != nil {
		return fmt.Errorf("failed to update points for %s: %w", cardNo, err)
	}
	return nil
}

// LastTransaction holds the attribution pair for a conversion: which staff
// member handled the customer's most recent billing entry, and when.
type LastTransaction struct {
	CreatedByUserID string    `db:"created_by_user_id"`
	BDate           time.Time `db:"b_date"`
}

// GetLastTransaction looks up the most recent qualifying billing entry for
// a card. Returns nil when the customer has none.
func (r *BillingRepository) GetLastTransaction(ctx context.Context, cardNo string) (*LastTransaction, error) {
	var last LastTransaction
	query := `
		SELECT created_by_user_id, b_date
		FROM billing_entry
		WHERE card_no = $1 AND COALESCE(created_by_user_id, '') != ''
		ORDER BY bill_no DESC, b_date DESC
		LIMIT 1`
	err := r.db.GetContext(ctx, &last, query, cardNo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last transaction for %s: %w", cardNo, err)
	}
	return &last, nil
}

// CustomerName is the receipt fallback when the loyalty mirror has no row
// for the card yet.
func (r *BillingRepository) CustomerName(ctx context.Context, cardNo string) (string, error) {
	var name string
	query := `SELECT c_name FROM customer_entry WHERE card_no = $1`
	err := r.db.GetContext(ctx, &name, query, cardNo)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get billing customer name for %s: %w", cardNo, err)
	}
	return name, nil
}

// SyncCustomersInto mirrors billing customers into the loyalty store:
// upsert every billing row, then prune loyalty rows the billing store no
// longer has. Runs against the loyalty database connection it is given.
func (r *BillingRepository) SyncCustomersInto(ctx context.Context, loyaltyDB *sqlx.DB) (int64, error) {
	customers, err := r.allCustomers(ctx)
	if err != nil {
		return 0, err
	}

	tx, err := loyaltyDB.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin customer sync: %w", err)
	}
	defer tx.Rollback()

	upsert := `
		INSERT INTO customers (card_no, c_name, c_contact, created_by_user_id)
		VALUES (:card_no, :c_name, :c_contact, :created_by_user_id)
		ON CONFLICT (card_no) DO UPDATE
		SET c_name = EXCLUDED.c_name, c_contact = EXCLUDED.c_contact,
		    created_by_user_id = EXCLUDED.created_by_user_id`

	var affected int64
	seen := make([]string, 0, len(customers))
	for _, c := range customers {
		row := map[string]interface{}{
			"card_no":            c.CardNo,
			"c_name":             stringOr(c.Name, c.CardNo),
			"c_contact":          c.Contact,
			"created_by_user_id": nil,
		}
		if _, err := tx.NamedExecContext(ctx, upsert, row); err != nil {
			return 0, fmt.Errorf("failed to upsert customer %s: %w", c.CardNo, err)
		}
		affected++
		seen = append(seen, c.CardNo)
	}

	if len(seen) > 0 {
		prune, args, err := sqlx.In(`DELETE FROM customers WHERE card_no NOT IN (?)`, seen)
		if err != nil {
			return 0, fmt.Errorf("failed to build customer prune query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(prune), args...); err != nil {
			return 0, fmt.Errorf("failed to prune customers: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit customer sync: %w", err)
	}
	return affected, nil
}

// SyncStaffInto mirrors the distinct billing handlers into the loyalty
// staff roster.
func (r *BillingRepository) SyncStaffInto(ctx context.Context, loyaltyDB *sqlx.DB) (int64, error) {
	var names []string
	query := `
		SELECT DISTINCT created_by_user_id
		FROM billing_entry
		WHERE COALESCE(created_by_user_id, '') != ''`
	if err := r.db.SelectContext(ctx, &names, query); err != nil {
		return 0, fmt.Errorf("failed to read billing staff: %w", err)
	}

	tx, err := loyaltyDB.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin staff sync: %w", err)
	}
	defer tx.Rollback()

	var affected int64
	for _, name := range names {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO staff (staff_name) VALUES ($1) ON CONFLICT (staff_name) DO NOTHING`, name)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert staff %s: %w", name, err)
		}
		if rows, err := res.RowsAffected(); err == nil {
			affected += rows
		}
	}

	if len(names) > 0 {
		prune, args, err := sqlx.In(`DELETE FROM staff WHERE staff_name NOT IN (?)`, names)
		if err != nil {
			return 0, fmt.Errorf("failed to build staff prune query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(prune), args...); err != nil {
			return 0, fmt.Errorf("failed to prune staff: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit staff sync: %w", err)
	}
	return affected, nil
}

func (r *BillingRepository) allCustomers(ctx context.Context) ([]models.BillingCustomer, error) {
	var customers []models.BillingCustomer
	query := `
		SELECT card_no, c_name, c_contact, points
		FROM customer_entry
		WHERE card_no IS NOT NULL AND card_no != ''`
	if err := r.db.SelectContext(ctx, &customers, query); err != nil {
		return nil, fmt.Errorf("failed to read billing customers: %w", err)
	}
	return customers, nil
}

func stringOr(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}
