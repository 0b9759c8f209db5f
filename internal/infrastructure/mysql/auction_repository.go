package mysql

import (
	"context"
	"database/sql"
	"time"

	"auction-keeper/internal/domain"

	_ "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
)

type MySQLAuctionRepository struct {
	db *sql.DB
}

func NewMySQLAuctionRepository(db *sql.DB) *MySQLAuctionRepository {
	return &MySQLAuctionRepository{db: db}
}

func (r *MySQLAuctionRepository) RegisterAuction(ctx context.Context, record *domain.AuctionRecord) error {
	query := `
        INSERT INTO auctions (id, selling_token, buying_token, min_increase, status, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.SellingToken, record.BuyingToken,
		record.MinIncrease.String(), int(record.Status),
		record.CreatedAt, record.UpdatedAt)
	return err
}

func (r *MySQLAuctionRepository) GetAuction(ctx context.Context, auctionID string) (*domain.AuctionRecord, error) {
	query := `
        SELECT id, selling_token, buying_token, min_increase, status, created_at, updated_at
        FROM auctions WHERE id = ?
    `

	var record domain.AuctionRecord
	var minIncrease string
	var status int

	err := r.db.QueryRowContext(ctx, query, auctionID).Scan(
		&record.ID, &record.SellingToken, &record.BuyingToken,
		&minIncrease, &status, &record.CreatedAt, &record.UpdatedAt)

	if err != nil {
		return nil, err
	}

	if record.MinIncrease, err = decimal.NewFromString(minIncrease); err != nil {
		return nil, err
	}
	record.Status = domain.AuctionStatus(status)
	return &record, nil
}

func (r *MySQLAuctionRepository) GetWatchedAuctions(ctx context.Context) ([]*domain.AuctionRecord, error) {
	query := `
        SELECT id, selling_token, buying_token, min_increase, status, created_at, updated_at
        FROM auctions WHERE status IN (?, ?)
    `

	rows, err := r.db.QueryContext(ctx, query, int(domain.AuctionWatched), int(domain.AuctionActive))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.AuctionRecord
	for rows.Next() {
		var record domain.AuctionRecord
		var minIncrease string
		var status int

		err := rows.Scan(&record.ID, &record.SellingToken, &record.BuyingToken,
			&minIncrease, &status, &record.CreatedAt, &record.UpdatedAt)
		if err != nil {
			return nil, err
		}

		if record.MinIncrease, err = decimal.NewFromString(minIncrease); err != nil {
			return nil, err
		}
		record.Status = domain.AuctionStatus(status)
		records = append(records, &record)
	}

	return records, rows.Err()
}

func (r *MySQLAuctionRepository) UpdateAuctionStatus(ctx context.Context, auctionID string, status domain.AuctionStatus) error {
	query := `UPDATE auctions SET status = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, int(status), time.Now(), auctionID)
	return err
}
