package matching

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/reclaim-dev/reclaim/internal/model"
	"github.com/reclaim-dev/reclaim/internal/store"
)

// Notifier receives match-created events. Delivery failures never affect the
// matching pass.
type Notifier interface {
	MatchCreated(ctx context.Context, match *model.Match, lost *model.LostItem, found *model.FoundItem)
}

// Ledger runs the matching pass for new reports. Scoring runs over a snapshot
// of the active pool without locks; only match creation serializes, through
// the conditional status updates inside store.CreateMatch.
type Ledger struct {
	DB     *sql.DB
	Notify Notifier
}

// RunForLost scores a new lost report against all active found items and
// creates matches for qualifying candidates. Candidates that lose the item
// lock to a concurrent pass are skipped; they are not errors.
func (l *Ledger) RunForLost(ctx context.Context, lost *model.LostItem) ([]model.Match, error) {
	pool, err := store.ListFoundItems(ctx, l.DB, model.ItemStatusActive)
	if err != nil {
		return nil, fmt.Errorf("fetching candidate pool: %w", err)
	}

	type candidate struct {
		found model.FoundItem
		score Score
	}
	var candidates []candidate
	for _, f := range pool {
		s := ScoreMatch(lost, &f)
		if s.Confidence >= Threshold {
			candidates = append(candidates, candidate{found: f, score: s})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score.Confidence > candidates[j].score.Confidence
	})

	var created []model.Match
	for _, c := range candidates {
		m, err := store.CreateMatch(ctx, l.DB, lost.ID, c.found.ID, c.score.Confidence, c.score.Details)
		if errors.Is(err, model.ErrRaceLost) {
			slog.Debug("match candidate lost lock race",
				"lost_item", lost.ID, "found_item", c.found.ID)
			continue
		}
		if err != nil {
			return created, fmt.Errorf("creating match (lost %d, found %d): %w", lost.ID, c.found.ID, err)
		}
		created = append(created, *m)
		if l.Notify != nil {
			l.Notify.MatchCreated(ctx, m, lost, &c.found)
		}
	}
	return created, nil
}

// RunForFound is the mirror pass for a new found report.
func (l *Ledger) RunForFound(ctx context.Context, found *model.FoundItem) ([]model.Match, error) {
	pool, err := store.ListLostItems(ctx, l.DB, model.ItemStatusActive)
	if err != nil {
		return nil, fmt.Errorf("fetching candidate pool: %w", err)
	}

	type candidate struct {
		lost  model.LostItem
		score Score
	}
	var candidates []candidate
	for _, lost := range pool {
		s := ScoreMatch(&lost, found)
		if s.Confidence >= Threshold {
			candidates = append(candidates, candidate{lost: lost, score: s})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score.Confidence > candidates[j].score.Confidence
	})

	var created []model.Match
	for _, c := range candidates {
		m, err := store.CreateMatch(ctx, l.DB, c.lost.ID, found.ID, c.score.Confidence, c.score.Details)
		if errors.Is(err, model.ErrRaceLost) {
			slog.Debug("match candidate lost lock race",
				"lost_item", c.lost.ID, "found_item", found.ID)
			continue
		}
		if err != nil {
			return created, fmt.Errorf("creating match (lost %d, found %d): %w", c.lost.ID, found.ID, err)
		}
		created = append(created, *m)
		if l.Notify != nil {
			l.Notify.MatchCreated(ctx, m, &c.lost, found)
		}
	}
	return created, nil
}
