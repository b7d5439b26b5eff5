package receipt

import (
	"context"
	"errors"
	"fmt"
	"time"

	catalogerrors "github.com/abgdnv/storefront/internal/catalog/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	insertReceipt = `INSERT INTO receipts (id, total, failed_product_id, failed_product_name, failed_quantity, failure_kind, failure_message)
VALUES ($1, $2::numeric, $3, $4, $5, $6, $7)
RETURNING created_at`

	insertLine = `INSERT INTO receipt_lines (receipt_id, position, product_id, product_name, quantity, charge)
VALUES ($1, $2, $3, $4, $5, $6::numeric)`

	selectReceipts = `SELECT id, total::text, failed_product_id, failed_product_name, failed_quantity, failure_kind, failure_message, created_at
FROM receipts
ORDER BY created_at DESC, id
LIMIT $1 OFFSET $2`

	selectLines = `SELECT receipt_id, product_id, product_name, quantity, charge::text
FROM receipt_lines
WHERE receipt_id = ANY($1)
ORDER BY receipt_id, position`
)

type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of Store using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

func (p *PgStore) Save(ctx context.Context, r Receipt) (*Receipt, error) {
	r.ID = uuid.New()

	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		var failedID *uuid.UUID
		var failedName, failureKind, failureMessage *string
		var failedQuantity *int
		if f := r.Failure; f != nil {
			failedID, failedName, failedQuantity = &f.ProductID, &f.Name, &f.Quantity
			failureKind, failureMessage = &f.Kind, &f.Message
		}

		err := tx.QueryRow(ctx, insertReceipt,
			r.ID, r.Total.StringFixed(2), failedID, failedName, failedQuantity, failureKind, failureMessage,
		).Scan(&r.CreatedAt)
		if err != nil {
			return fmt.Errorf("%w: %w", catalogerrors.ErrSaveReceipt, err)
		}

		for i, line := range r.Lines {
			_, err = tx.Exec(ctx, insertLine, r.ID, i, line.ProductID, line.Name, line.Quantity, line.Charge.StringFixed(2))
			if err != nil {
				return fmt.Errorf("%w: line %d: %w", catalogerrors.ErrSaveReceipt, i+1, err)
			}
		}
		return nil
	})

	if txErr != nil {
		return nil, txErr
	}

	return &r, nil
}

func (p *PgStore) FindAll(ctx context.Context, offset, limit int32) ([]Receipt, error) {
	var receipts []Receipt

	// receipts and their lines are read from the same snapshot
	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		receipts, err = findReceipts(ctx, tx, offset, limit)
		if err != nil {
			return err
		}
		return attachLines(ctx, tx, receipts)
	})

	if txErr != nil {
		return nil, txErr
	}

	return receipts, nil
}

func findReceipts(ctx context.Context, tx pgx.Tx, offset, limit int32) ([]Receipt, error) {
	rows, err := tx.Query(ctx, selectReceipts, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", catalogerrors.ErrFindReceipts, err)
	}
	defer rows.Close()

	receipts := make([]Receipt, 0, limit)
	for rows.Next() {
		var (
			r              Receipt
			total          string
			failedID       *uuid.UUID
			failedName     *string
			failedQuantity *int
			failureKind    *string
			failureMessage *string
			createdAt      time.Time
		)
		if err := rows.Scan(&r.ID, &total, &failedID, &failedName, &failedQuantity, &failureKind, &failureMessage, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: %w", catalogerrors.ErrFindReceipts, err)
		}
		if r.Total, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("%w: total of %s: %w", catalogerrors.ErrFindReceipts, r.ID, err)
		}
		if failedID != nil {
			r.Failure = &Failure{
				ProductID: *failedID,
				Name:      deref(failedName),
				Quantity:  deref(failedQuantity),
				Kind:      deref(failureKind),
				Message:   deref(failureMessage),
			}
		}
		r.CreatedAt = createdAt.UTC()
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", catalogerrors.ErrFindReceipts, err)
	}
	return receipts, nil
}

func attachLines(ctx context.Context, tx pgx.Tx, receipts []Receipt) error {
	if len(receipts) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(receipts))
	byID := make(map[uuid.UUID]int, len(receipts))
	for i, r := range receipts {
		ids[i] = r.ID
		byID[r.ID] = i
	}

	rows, err := tx.Query(ctx, selectLines, ids)
	if err != nil {
		return fmt.Errorf("%w: %w", catalogerrors.ErrFindReceipts, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			receiptID uuid.UUID
			line      Line
			charge    string
		)
		if err := rows.Scan(&receiptID, &line.ProductID, &line.Name, &line.Quantity, &charge); err != nil {
			return fmt.Errorf("%w: %w", catalogerrors.ErrFindReceipts, err)
		}
		if line.Charge, err = decimal.NewFromString(charge); err != nil {
			return fmt.Errorf("%w: charge on %s: %w", catalogerrors.ErrFindReceipts, receiptID, err)
		}
		i := byID[receiptID]
		receipts[i].Lines = append(receipts[i].Lines, line)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %w", catalogerrors.ErrFindReceipts, err)
	}
	return nil
}

func (p *PgStore) withTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return catalogerrors.ErrTransactionBegin
	}

	err = fn(tx)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return catalogerrors.ErrTransactionRollback
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return catalogerrors.ErrTransactionCommit
	}

	return nil
}

func deref[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}
