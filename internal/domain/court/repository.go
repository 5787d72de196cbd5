package court

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines court data access
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Court, error)
	GetByIDTx(ctx context.Context, tx *sqlx.Tx, id int64) (*Court, error)
	ListByVenue(ctx context.Context, venueID int64) ([]*Court, error)
	UpdateHourlyPrice(ctx context.Context, id int64, ownerID uuid.UUID, pricePaisa int64) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates court repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const courtWithVenueQuery = `
	SELECT c.id, c.venue_id, c.owner_id, c.name, c.sport,
	       c.open_hour, c.close_hour, c.price_per_hour_paisa, c.currency,
	       c.created_at, c.updated_at,
	       v.status AS venue_status
	FROM courts c
	JOIN venues v ON v.id = c.venue_id
	WHERE c.id = $1
`

func (r *repository) GetByID(ctx context.Context, id int64) (*Court, error) {
	var c Court
	err := r.db.GetContext(ctx, &c, courtWithVenueQuery, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCourtNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetByIDTx reads a court inside an open transaction. The reservation
// transaction uses this so venue approval and pricing are read under the
// same isolation as the conflict check.
func (r *repository) GetByIDTx(ctx context.Context, tx *sqlx.Tx, id int64) (*Court, error) {
	var c Court
	err := tx.GetContext(ctx, &c, courtWithVenueQuery, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCourtNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) ListByVenue(ctx context.Context, venueID int64) ([]*Court, error) {
	query := `
		SELECT c.id, c.venue_id, c.owner_id, c.name, c.sport,
		       c.open_hour, c.close_hour, c.price_per_hour_paisa, c.currency,
		       c.created_at, c.updated_at,
		       v.status AS venue_status
		FROM courts c
		JOIN venues v ON v.id = c.venue_id
		WHERE c.venue_id = $1
		ORDER BY c.name
	`
	var courts []*Court
	err := r.db.SelectContext(ctx, &courts, query, venueID)
	return courts, err
}

func (r *repository) UpdateHourlyPrice(ctx context.Context, id int64, ownerID uuid.UUID, pricePaisa int64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE courts SET price_per_hour_paisa = $3, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID, pricePaisa)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM courts WHERE id = $1)`, id); err != nil {
			return err
		}
		if !exists {
			return ErrCourtNotFound
		}
		return ErrNotCourtOwner
	}
	return nil
}
