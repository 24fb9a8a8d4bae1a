package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samsepassi/portfolio-backend/internal/db"
)

// Offsets of the three nurture emails from the moment a lead is captured.
// Fixed, not configurable per contact — there is exactly one business use
// case (lead nurturing after a portfolio contact).
const (
	ThreeDayOffset = 3 * 24 * time.Hour
	SevenDayOffset = 7 * 24 * time.Hour
)

// CreateFollowUpSequence inserts the full nurture sequence for a freshly
// captured contact in a single transaction:
//
//	welcome           scheduled at now
//	follow_up_3_days  scheduled at now + 72h
//	follow_up_7_days  scheduled at now + 168h
//
// All three rows commit or none do — a partially scheduled sequence would
// silently drop emails with no operator-visible trace. The returned slice is
// ordered by scheduled_for ascending.
func (s *Store) CreateFollowUpSequence(ctx context.Context, contactID uuid.UUID, now time.Time) ([]db.FollowUp, error) {
	drafts := []db.CreateFollowUpParams{
		{ContactID: contactID, Kind: db.KindWelcome, ScheduledFor: now},
		{ContactID: contactID, Kind: db.KindFollowUp3Day, ScheduledFor: now.Add(ThreeDayOffset)},
		{ContactID: contactID, Kind: db.KindFollowUp7Day, ScheduledFor: now.Add(SevenDayOffset)},
	}

	out := make([]db.FollowUp, 0, len(drafts))
	err := s.withTx(ctx, func(ctx context.Context, q db.Querier) error {
		for _, d := range drafts {
			f, err := q.CreateFollowUp(ctx, d)
			if err != nil {
				return fmt.Errorf("CreateFollowUpSequence: insert %s: %w", d.Kind, err)
			}
			out = append(out, f)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
