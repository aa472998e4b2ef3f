package template

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

var ErrTemplateNotFound = errors.New("template not found")

// Repository provides access to the templates table. Button lists are
// stored as JSON.
type Repository struct {
	db *dbpg.DB
}

func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// CreateTemplate inserts a new template and returns its ID.
func (r *Repository) CreateTemplate(ctx context.Context, t model.Template) (uuid.UUID, error) {
	query := `
		INSERT INTO templates (
		    account_id, channel, code, name, body, buttons, image_url, category, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id;
    `

	buttons, err := json.Marshal(t.Buttons)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal buttons: %w", err)
	}

	err = r.db.Master.QueryRowContext(
		ctx, query,
		t.AccountID, t.Channel, t.Code, t.Name, t.Body, buttons, t.ImageURL, t.Category, t.Status,
	).Scan(&t.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create template: %w", err)
	}

	return t.ID, nil
}

// GetTemplateByID retrieves one template.
func (r *Repository) GetTemplateByID(ctx context.Context, id uuid.UUID) (model.Template, error) {
	query := `
		SELECT id, account_id, channel, code, name, body, buttons, image_url, category, status, reject_reason, created_at, updated_at
		FROM templates
		WHERE id = $1;
    `

	var (
		t       model.Template
		buttons []byte
	)

	err := r.db.Master.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.AccountID, &t.Channel, &t.Code, &t.Name, &t.Body,
		&buttons, &t.ImageURL, &t.Category, &t.Status, &t.RejectReason,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Template{}, ErrTemplateNotFound
		}

		return model.Template{}, fmt.Errorf("failed to get template: %w", err)
	}

	if len(buttons) > 0 {
		if err := json.Unmarshal(buttons, &t.Buttons); err != nil {
			return model.Template{}, fmt.Errorf("failed to unmarshal buttons: %w", err)
		}
	}

	return t, nil
}

// ExistsByCode reports whether the account already has a template with this
// code on the channel.
func (r *Repository) ExistsByCode(ctx context.Context, accountID uuid.UUID, ch model.Channel, code string) (bool, error) {
	query := `
		SELECT EXISTS (
		    SELECT 1 FROM templates
		    WHERE account_id = $1 AND channel = $2 AND code = $3
		);
    `

	var exists bool
	if err := r.db.Master.QueryRowContext(ctx, query, accountID, ch, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check template code: %w", err)
	}

	return exists, nil
}

// UpdateStatus updates the lifecycle status of a template.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.TemplateStatus, rejectReason string) error {
	query := `
		UPDATE templates
		SET status = $1, reject_reason = $2, updated_at = now()
		WHERE id = $3;
    `

	res, err := r.db.ExecContext(ctx, query, status, rejectReason, id)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}

	rows, _ := res.RowsAffected()

	if rows == 0 {
		return ErrTemplateNotFound
	}

	return nil
}

// DeleteTemplate removes a template.
func (r *Repository) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM templates
		WHERE id = $1;
    `

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	rows, _ := res.RowsAffected()

	if rows == 0 {
		return ErrTemplateNotFound
	}

	return nil
}

// ListTemplates retrieves every template of an account, newest first.
func (r *Repository) ListTemplates(ctx context.Context, accountID uuid.UUID) ([]model.Template, error) {
	query := `
		SELECT id, account_id, channel, code, name, body, buttons, image_url, category, status, reject_reason, created_at, updated_at
		FROM templates
		WHERE account_id = $1
		ORDER BY created_at DESC;
    `

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []model.Template
	for rows.Next() {
		var (
			t       model.Template
			buttons []byte
		)

		if err := rows.Scan(
			&t.ID, &t.AccountID, &t.Channel, &t.Code, &t.Name, &t.Body,
			&buttons, &t.ImageURL, &t.Category, &t.Status, &t.RejectReason,
			&t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}

		if len(buttons) > 0 {
			if err := json.Unmarshal(buttons, &t.Buttons); err != nil {
				return nil, fmt.Errorf("failed to unmarshal buttons: %w", err)
			}
		}

		templates = append(templates, t)
	}

	return templates, nil
}
