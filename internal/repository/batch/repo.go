package batch

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"

	"github.com/kimsangwoo/bizmsg/internal/model"
)

var ErrBatchNotFound = errors.New("batch not found")

// Repository provides access to the dispatch_batches table. The draft and
// the aggregated result are stored as JSON.
type Repository struct {
	db *dbpg.DB
}

func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// CreateBatch inserts a new dispatch batch and returns its ID.
func (r *Repository) CreateBatch(ctx context.Context, b model.Batch) (uuid.UUID, error) {
	query := `
		INSERT INTO dispatch_batches (
		    channel, status, send_at, draft
		) VALUES ($1, $2, $3, $4)
		RETURNING id;
    `

	draft, err := json.Marshal(b.Draft)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal draft: %w", err)
	}

	err = r.db.Master.QueryRowContext(ctx, query, b.Channel, b.Status, b.SendAt, draft).Scan(&b.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create batch: %w", err)
	}

	return b.ID, nil
}

// GetBatchByID retrieves one batch.
func (r *Repository) GetBatchByID(ctx context.Context, id uuid.UUID) (model.Batch, error) {
	query := `
		SELECT id, channel, status, send_at, draft, created_at, updated_at
		FROM dispatch_batches
		WHERE id = $1;
    `

	var (
		b     model.Batch
		draft []byte
	)

	err := r.db.Master.QueryRowContext(ctx, query, id).Scan(
		&b.ID, &b.Channel, &b.Status, &b.SendAt, &draft, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Batch{}, ErrBatchNotFound
		}

		return model.Batch{}, fmt.Errorf("failed to get batch: %w", err)
	}

	if err := json.Unmarshal(draft, &b.Draft); err != nil {
		return model.Batch{}, fmt.Errorf("failed to unmarshal draft: %w", err)
	}

	return b, nil
}

// GetBatchStatusByID retrieves only the status of a batch.
func (r *Repository) GetBatchStatusByID(ctx context.Context, id uuid.UUID) (string, error) {
	query := `
		SELECT status
		FROM dispatch_batches
		WHERE id = $1;
    `

	var status string
	err := r.db.Master.QueryRowContext(ctx, query, id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrBatchNotFound
		}

		return "", fmt.Errorf("failed to get batch status: %w", err)
	}

	return status, nil
}

// UpdateStatus updates the status of a batch by its ID.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `
		UPDATE dispatch_batches
		SET status = $1, updated_at = now()
		WHERE id = $2;
    `

	res, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update batch: %w", err)
	}

	rows, _ := res.RowsAffected()

	if rows == 0 {
		return ErrBatchNotFound
	}

	return nil
}

// SaveResult stores the aggregated dispatch result of a batch.
func (r *Repository) SaveResult(ctx context.Context, id uuid.UUID, result model.DispatchResult) error {
	query := `
		UPDATE dispatch_batches
		SET result = $1, updated_at = now()
		WHERE id = $2;
    `

	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, body, id)
	if err != nil {
		return fmt.Errorf("failed to save batch result: %w", err)
	}

	rows, _ := res.RowsAffected()

	if rows == 0 {
		return ErrBatchNotFound
	}

	return nil
}
