package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/starford/biblioteca/internal/apperr"
	"github.com/starford/biblioteca/internal/journal"
	"github.com/starford/biblioteca/internal/models"
)

// RecoveryReport summarizes a RecoverMoves pass. Each slice holds record ids.
type RecoveryReport struct {
	// Resolved moves had already reached their destination.
	Resolved []string `json:"resolved"`
	// Restored records were written back to their origin category.
	Restored []string `json:"restored"`
	// Stuck markers could not be settled and are kept for the next pass.
	Stuck []string `json:"stuck"`
}

// Empty reports whether no marker was found.
func (r RecoveryReport) Empty() bool {
	return len(r.Resolved)+len(r.Restored)+len(r.Stuck) == 0
}

// RecoverMoves settles every pending-move marker left by an interrupted or
// refused move. A record already in its destination, or still unchanged in
// its origin, clears the marker; a record found in neither store is
// restored to its origin. A marker whose id was reused in the origin by
// another record is kept and reported as stuck.
func (s *Service) RecoverMoves(ctx context.Context) (RecoveryReport, error) {
	var report RecoveryReport
	if s.journal == nil {
		return report, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.store.Lock()
	if err != nil {
		return report, err
	}
	defer unlock()

	pending, err := s.journal.PendingMoves(ctx)
	if err != nil {
		return report, err
	}
	if len(pending) == 0 {
		return report, nil
	}

	for _, m := range pending {
		log := s.logger.With(
			slog.String("marker", m.ID),
			slog.String("record_id", m.RecordID),
			slog.String("from", m.Origin),
			slog.String("to", m.Destination))

		outcome, err := s.settle(m)
		if err != nil {
			log.Error("recover: marker kept", slog.String("error", err.Error()))
			report.Stuck = append(report.Stuck, m.RecordID)
			continue
		}
		if outcome == settledStuck {
			log.Warn("recover: origin id now holds another record, marker kept")
			report.Stuck = append(report.Stuck, m.RecordID)
			continue
		}
		if err := s.journal.CompleteMove(ctx, m.ID); err != nil {
			log.Error("recover: marker not cleared", slog.String("error", err.Error()))
			report.Stuck = append(report.Stuck, m.RecordID)
			continue
		}
		switch outcome {
		case settledRestored:
			log.Warn("recover: record restored to origin")
			report.Restored = append(report.Restored, m.RecordID)
			s.record(ctx, journal.Event{Kind: journal.KindMoveRecovered, Category: m.Origin, RecordID: m.RecordID,
				Detail: "restored after failed move to " + m.Destination})
		default:
			log.Info("recover: move already applied")
			report.Resolved = append(report.Resolved, m.RecordID)
		}
	}

	s.rebuild(ctx)
	return report, nil
}

type settleOutcome int

const (
	settledResolved settleOutcome = iota
	settledRestored
	settledStuck
)

func (s *Service) settle(m journal.PendingMove) (settleOutcome, error) {
	if !models.IsCategory(m.Origin) || !models.IsCategory(m.Destination) {
		return 0, fmt.Errorf("%w: marker names unknown category", apperr.ErrValidation)
	}
	dest, err := s.store.Load(m.Destination)
	if err != nil {
		return 0, err
	}
	if i := dest.Index(m.RecordID); i >= 0 && slices.Equal(dest.Records[i].Row(), m.Record.Row()) {
		return settledResolved, nil
	}

	origin, err := s.store.Load(m.Origin)
	if err != nil {
		return 0, err
	}
	if i := origin.Index(m.RecordID); i >= 0 {
		if slices.Equal(origin.Records[i].Row(), m.Original.Row()) {
			// The origin rewrite never happened.
			return settledResolved, nil
		}
		// The id was reallocated after the record left; the marker holds
		// the only copy.
		return settledStuck, nil
	}
	rec := m.Record
	rec.Category = m.Origin
	if err := s.store.Save(m.Origin, append(origin.Records, rec)); err != nil {
		return 0, err
	}
	return settledRestored, nil
}
