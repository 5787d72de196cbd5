package court

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Service handles court business logic
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetCourt(ctx context.Context, id int64) (*Court, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByVenue(ctx context.Context, venueID int64) ([]*Court, error) {
	return s.repo.ListByVenue(ctx, venueID)
}

// UpdateHourlyPrice changes the advertised rate. Existing bookings keep the
// price they were created with; only future reservations see the new rate.
func (s *Service) UpdateHourlyPrice(ctx context.Context, id int64, ownerID uuid.UUID, pricePaisa int64) (*Court, error) {
	if err := s.repo.UpdateHourlyPrice(ctx, id, ownerID, pricePaisa); err != nil {
		return nil, err
	}

	log.Info().
		Int64("court_id", id).
		Int64("price_per_hour_paisa", pricePaisa).
		Str("owner_id", ownerID.String()).
		Msg("court hourly price updated")

	return s.repo.GetByID(ctx, id)
}
