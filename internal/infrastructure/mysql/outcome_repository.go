package mysql

import (
	"context"
	"database/sql"

	"auction-keeper/internal/domain"

	_ "github.com/go-sql-driver/mysql"
)

type MySQLOutcomeRepository struct {
	db *sql.DB
}

func NewMySQLOutcomeRepository(db *sql.DB) *MySQLOutcomeRepository {
	return &MySQLOutcomeRepository{db: db}
}

func (r *MySQLOutcomeRepository) SaveOutcome(ctx context.Context, outcome *domain.Outcome) error {
	query := `
        INSERT INTO outcomes (id, kind, lot_id, bid, quantity, buying_token, selling_token, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		outcome.ID, string(outcome.Kind), outcome.LotID,
		outcome.Bid.String(), outcome.Quantity.String(),
		outcome.BuyingToken, outcome.SellingToken, outcome.Timestamp)
	return err
}

func (r *MySQLOutcomeRepository) GetOutcomeHistory(ctx context.Context, lotID string) ([]*domain.Outcome, error) {
	query := `
        SELECT id, kind, lot_id, bid, quantity, buying_token, selling_token, created_at
        FROM outcomes WHERE lot_id = ? ORDER BY created_at DESC
    `

	rows, err := r.db.QueryContext(ctx, query, lotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanOutcomes(rows)
}

func (r *MySQLOutcomeRepository) GetRecentOutcomes(ctx context.Context, limit int) ([]*domain.Outcome, error) {
	query := `
        SELECT id, kind, lot_id, bid, quantity, buying_token, selling_token, created_at
        FROM outcomes ORDER BY created_at DESC LIMIT ?
    `

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanOutcomes(rows)
}

func scanOutcomes(rows *sql.Rows) ([]*domain.Outcome, error) {
	var outcomes []*domain.Outcome
	for rows.Next() {
		var outcome domain.Outcome
		var kind, bid, quantity string

		err := rows.Scan(&outcome.ID, &kind, &outcome.LotID, &bid, &quantity,
			&outcome.BuyingToken, &outcome.SellingToken, &outcome.Timestamp)
		if err != nil {
			return nil, err
		}

		outcome.Kind = domain.OutcomeKind(kind)
		if outcome.Bid, err = domain.AmountFromString(bid); err != nil {
			return nil, err
		}
		if outcome.Quantity, err = domain.AmountFromString(quantity); err != nil {
			return nil, err
		}

		outcomes = append(outcomes, &outcome)
	}

	return outcomes, rows.Err()
}
