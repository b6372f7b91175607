// Package facts implements the community facts database: adding, random
// lookup, search and the confirmed delete flow.
package facts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"neubott/internal/metrics"
	"neubott/internal/model"
	"neubott/internal/storage"
)

var (
	// ErrEmptySearch is returned when a search term is required but missing.
	ErrEmptySearch = errors.New("empty search term")
	// ErrEmptyContent is returned when adding a fact without any text.
	ErrEmptyContent = errors.New("empty content")
)

// DefaultConfirmTimeout bounds how long a delete waits for the requester.
const DefaultConfirmTimeout = 60 * time.Second

// Service is the fact store used by the chat commands.
type Service struct {
	store          storage.Facts
	log            *slog.Logger
	pick           func(n int) int
	confirmTimeout time.Duration
}

// NewService creates a Service over the given storage.
func NewService(store storage.Facts, log *slog.Logger) *Service {
	return &Service{
		store:          store,
		log:            log,
		pick:           rand.IntN,
		confirmTimeout: DefaultConfirmTimeout,
	}
}

// SetConfirmTimeout overrides the default 60-second confirmation wait.
func (s *Service) SetConfirmTimeout(d time.Duration) {
	s.confirmTimeout = d
}

// AddFact stores a new fact. Content is trimmed; identical content already
// present anywhere yields storage.ErrDuplicateContent.
func (s *Service) AddFact(ctx context.Context, content, authorID, guildID string, global bool) (*model.Fact, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	f := &model.Fact{
		Content: content,
		GuildID: guildID,
		Global:  global,
		AddedBy: authorID,
	}
	err := s.store.CreateFact(ctx, f)
	metrics.ObserveFacts("add", err)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateContent) {
			return nil, err
		}
		return nil, fmt.Errorf("create fact: %w", err)
	}

	s.log.Info("fact added", "id", f.ID, "guild", guildID, "global", global, "added_by", authorID)
	return f, nil
}

// RandomFact picks one visible fact uniformly at random. A non-empty
// searchTerm restricts the candidates to facts whose content equals it.
func (s *Service) RandomFact(ctx context.Context, guildID, searchTerm string) (*model.Fact, error) {
	var (
		candidates []model.Fact
		err        error
	)
	if searchTerm != "" {
		candidates, err = s.store.FindFactsByContent(ctx, guildID, searchTerm)
	} else {
		candidates, err = s.store.ListVisibleFacts(ctx, guildID)
	}
	metrics.ObserveFacts("random", err)
	if err != nil {
		return nil, fmt.Errorf("list facts: %w", err)
	}
	if len(candidates) == 0 {
		return nil, storage.ErrNotFound
	}

	f := candidates[s.pick(len(candidates))]
	return &f, nil
}

// SearchFacts returns the visible facts containing substring (case-sensitive).
func (s *Service) SearchFacts(ctx context.Context, guildID, substring string) ([]model.Fact, error) {
	if substring == "" {
		return nil, ErrEmptySearch
	}
	found, err := s.store.SearchFacts(ctx, guildID, substring)
	metrics.ObserveFacts("search", err)
	if err != nil {
		return nil, fmt.Errorf("search facts: %w", err)
	}
	return found, nil
}

// DeleteLast removes the most recently added fact regardless of guild.
func (s *Service) DeleteLast(ctx context.Context, guildID string) (*model.Fact, error) {
	last, err := s.store.LatestFact(ctx)
	if err != nil {
		metrics.ObserveFacts("undo", err)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("latest fact: %w", err)
	}

	_, err = s.store.DeleteFacts(ctx, []int64{last.ID})
	metrics.ObserveFacts("undo", err)
	if err != nil {
		return nil, fmt.Errorf("delete fact: %w", err)
	}

	s.log.Info("fact undone", "id", last.ID, "requested_in", guildID)
	return last, nil
}

// DeleteConfirmed deletes exactly the given facts and returns how many were removed.
func (s *Service) DeleteConfirmed(ctx context.Context, candidates []model.Fact) (int, error) {
	ids := make([]int64, len(candidates))
	for i, f := range candidates {
		ids[i] = f.ID
	}
	n, err := s.store.DeleteFacts(ctx, ids)
	metrics.ObserveFacts("delete", err)
	if err != nil {
		return 0, fmt.Errorf("delete facts: %w", err)
	}
	return int(n), nil
}

// CountFacts returns how many facts are stored in total.
func (s *Service) CountFacts(ctx context.Context) (int64, error) {
	return s.store.CountFacts(ctx)
}
