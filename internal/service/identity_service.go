package service

import (
	"context"
	"fmt"
	"strings"

	"roombook/internal/domain"
	"roombook/internal/events"
	"roombook/internal/metrics"
	"roombook/internal/models"
	"roombook/internal/phone"

	"github.com/rs/zerolog"
)

type MergeRequest struct {
	SourceUserID    string
	TargetUserID    string
	TargetUserName  string
	TargetUserPhone string
}

// IdentityService rewrites client attribution on stored bookings and
// cancellations. Neither operation is atomic across the batch; both are
// safe to re-run after a failure.
type IdentityService struct {
	store    domain.BookingStore
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewIdentityService(store domain.BookingStore, eventBus domain.EventPublisher, logger *zerolog.Logger) *IdentityService {
	return &IdentityService{
		store:    store,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Merge moves every booking and cancellation of the source client to the
// target identity and returns the number of rows rewritten.
//
// Conflict rules are not re-checked: the operator is expected to have
// verified that the merged client has no overlapping bookings.
func (s *IdentityService) Merge(ctx context.Context, req MergeRequest) (int64, error) {
	if req.SourceUserID == "" || req.TargetUserID == "" {
		return 0, fmt.Errorf("%w: source and target user ids are required", domain.ErrInvalidRequest)
	}

	target := models.Identity{
		UserID:    req.TargetUserID,
		UserName:  req.TargetUserName,
		UserPhone: phone.Normalize(req.TargetUserPhone),
	}

	bookings, err := s.store.ReassignBookings(ctx, req.SourceUserID, target)
	if err != nil {
		return 0, err
	}
	cancellations, err := s.store.ReassignCancellations(ctx, req.SourceUserID, target)
	total := bookings + cancellations
	metrics.AddReconciled("merge", total)
	if err != nil {
		return total, err
	}

	s.logger.Info().
		Str("source_user_id", req.SourceUserID).
		Str("target_user_id", req.TargetUserID).
		Int64("bookings", bookings).
		Int64("cancellations", cancellations).
		Msg("clients merged")

	s.publish(events.EventClientsMerged, events.MergeEventPayload{
		SourceUserID:  req.SourceUserID,
		TargetUserID:  req.TargetUserID,
		Bookings:      bookings,
		Cancellations: cancellations,
	})

	return total, nil
}

// Dedup collapses walk-in clients that share a name onto one canonical
// identity and normalizes stored phones. A second run performs no updates.
func (s *IdentityService) Dedup(ctx context.Context) (int64, error) {
	var updated int64
	defer func() { metrics.AddReconciled("dedup", updated) }()

	bookings, err := s.store.ListBookings(ctx)
	if err != nil {
		return 0, err
	}

	groups := groupWalkIns(bookings, func(b *models.Booking) (string, string) { return b.UserID, b.UserName })
	canonical := make(map[string]models.Identity, len(groups.order))

	for _, key := range groups.order {
		members := groups.members[key]
		canon := pickCanonical(members, func(i int) models.Identity { return bookings[i].Identity() })
		canonical[key] = canon
		if len(members) < 2 {
			continue
		}
		for _, i := range members {
			b := bookings[i]
			if b.Identity() == canon {
				continue
			}
			if err := s.store.UpdateBookingIdentity(ctx, b.ID, canon); err != nil {
				return updated, err
			}
			b.SetIdentity(canon)
			updated++
		}
	}

	for _, b := range bookings {
		normalized := phone.Normalize(b.UserPhone)
		if normalized == b.UserPhone {
			continue
		}
		id := b.Identity()
		id.UserPhone = normalized
		if err := s.store.UpdateBookingIdentity(ctx, b.ID, id); err != nil {
			return updated, err
		}
		b.SetIdentity(id)
		updated++
	}

	cancellations, err := s.store.ListCancellations(ctx, "")
	if err != nil {
		return updated, err
	}

	cgroups := groupWalkIns(cancellations, func(c *models.Cancellation) (string, string) { return c.UserID, c.UserName })
	for _, key := range cgroups.order {
		members := cgroups.members[key]
		canon, ok := canonical[key]
		if !ok {
			if len(members) < 2 {
				continue
			}
			canon = pickCanonical(members, func(i int) models.Identity { return cancellations[i].Identity() })
		}
		for _, i := range members {
			c := cancellations[i]
			if c.Identity() == canon {
				continue
			}
			if err := s.store.UpdateCancellationIdentity(ctx, c.ID, canon); err != nil {
				return updated, err
			}
			updated++
		}
	}

	s.logger.Info().Int64("updated", updated).Int("groups", len(groups.order)).Msg("walk-in clients deduplicated")
	s.publish(events.EventClientsDeduplicated, events.DedupEventPayload{Rewritten: updated})

	return updated, nil
}

func (s *IdentityService) publish(eventType string, payload interface{}) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
	}
}

// nameGroups keeps walk-in rows grouped by name key in first-seen order.
type nameGroups struct {
	order   []string
	members map[string][]int
}

// groupWalkIns partitions walk-in rows by trimmed lower-case name. Blank
// names form a group of their own like any other key.
func groupWalkIns[T any](rows []T, attr func(T) (userID, name string)) nameGroups {
	g := nameGroups{members: make(map[string][]int)}
	for i, row := range rows {
		userID, name := attr(row)
		if !models.IsWalkIn(userID) {
			continue
		}
		key := nameKey(name)
		if _, seen := g.members[key]; !seen {
			g.order = append(g.order, key)
		}
		g.members[key] = append(g.members[key], i)
	}
	return g
}

// pickCanonical prefers the first member with a phone, else the first member.
func pickCanonical(members []int, identityOf func(int) models.Identity) models.Identity {
	chosen := identityOf(members[0])
	for _, i := range members {
		if id := identityOf(i); id.UserPhone != "" {
			chosen = id
			break
		}
	}
	chosen.UserPhone = phone.Normalize(chosen.UserPhone)
	return chosen
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
