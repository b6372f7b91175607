package facts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	"neubott/internal/model"
	"neubott/internal/storage"
)

// countingStore wraps a storage and counts calls that would touch the table.
type countingStore struct {
	storage.Facts
	searches int
}

func (c *countingStore) SearchFacts(ctx context.Context, guildID, substring string) ([]model.Fact, error) {
	c.searches++
	return c.Facts.SearchFacts(ctx, guildID, substring)
}

func newTestService(t *testing.T) (*Service, *storage.SQLite) {
	t.Helper()
	store, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil))), store
}

func seedFact(t *testing.T, s *Service, content, guild string, global bool) *model.Fact {
	t.Helper()
	f, err := s.AddFact(context.Background(), content, "author", guild, global)
	if err != nil {
		t.Fatalf("seed fact %q: %v", content, err)
	}
	return f
}

func factIDs(facts []model.Fact) []int64 {
	var ids []int64
	for _, f := range facts {
		ids = append(ids, f.ID)
	}
	return ids
}

func TestAddFact(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns id and trims", func(t *testing.T) {
		s, _ := newTestService(t)
		f, err := s.AddFact(ctx, "  Inklings can swim in ink  ", "u1", "G1", false)
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if f.ID == 0 {
			t.Fatal("expected id")
		}
		want := model.Fact{ID: f.ID, Content: "Inklings can swim in ink", GuildID: "G1", AddedBy: "u1", CreatedAt: f.CreatedAt}
		if diff := cmp.Diff(want, *f); diff != "" {
			t.Errorf("fact mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty content", func(t *testing.T) {
		s, _ := newTestService(t)
		if _, err := s.AddFact(ctx, "   ", "u1", "G1", false); !errors.Is(err, ErrEmptyContent) {
			t.Fatalf("expected ErrEmptyContent, got %v", err)
		}
	})

	t.Run("duplicate content creates no row", func(t *testing.T) {
		s, _ := newTestService(t)
		seedFact(t, s, "A", "G1", false)

		_, err := s.AddFact(ctx, "A", "u2", "G2", true)
		if !errors.Is(err, storage.ErrDuplicateContent) {
			t.Fatalf("expected ErrDuplicateContent, got %v", err)
		}
		n, _ := s.CountFacts(ctx)
		if diff := cmp.Diff(int64(1), n); diff != "" {
			t.Errorf("count (-want +got):\n%s", diff)
		}
	})
}

func TestRandomFactVisibility(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	a := seedFact(t, s, "A", "G0", true)
	b := seedFact(t, s, "B", "G1", false)

	seen := map[int64]bool{}
	// Force pick order to walk every candidate.
	next := 0
	s.pick = func(n int) int {
		i := next % n
		next++
		return i
	}

	for range 4 {
		f, err := s.RandomFact(ctx, "G2", "")
		if err != nil {
			t.Fatalf("random G2: %v", err)
		}
		if diff := cmp.Diff(a.ID, f.ID); diff != "" {
			t.Errorf("G2 must only see the global fact (-want +got):\n%s", diff)
		}
	}

	for range 4 {
		f, err := s.RandomFact(ctx, "G1", "")
		if err != nil {
			t.Fatalf("random G1: %v", err)
		}
		seen[f.ID] = true
	}
	if diff := cmp.Diff(map[int64]bool{a.ID: true, b.ID: true}, seen); diff != "" {
		t.Errorf("G1 candidates (-want +got):\n%s", diff)
	}
}

func TestRandomFactSearch(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	seedFact(t, s, "squid", "G1", false)
	seedFact(t, s, "squid kid", "G1", false)

	tests := []struct {
		name    string
		guild   string
		term    string
		want    string
		wantErr error
	}{
		{name: "exact match", guild: "G1", term: "squid", want: "squid"},
		{name: "substring is not enough", guild: "G1", term: "kid", wantErr: storage.ErrNotFound},
		{name: "other guild", guild: "G2", term: "squid", wantErr: storage.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := s.RandomFact(ctx, tt.guild, tt.term)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, f.Content); diff != "" {
				t.Errorf("content (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRandomFactEmpty(t *testing.T) {
	s, _ := newTestService(t)
	if _, err := s.RandomFact(context.Background(), "G1", ""); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchFacts(t *testing.T) {
	ctx := context.Background()
	s, store := newTestService(t)
	g := seedFact(t, s, "Global squid", "G0", true)
	l := seedFact(t, s, "Local squid", "G1", false)
	seedFact(t, s, "Remote squid", "G2", false)

	got, err := s.SearchFacts(ctx, "G1", "squid")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if diff := cmp.Diff([]int64{g.ID, l.ID}, factIDs(got)); diff != "" {
		t.Errorf("ids (-want +got):\n%s", diff)
	}

	t.Run("empty term never touches the store", func(t *testing.T) {
		counting := &countingStore{Facts: store}
		svc := NewService(counting, s.log)
		if _, err := svc.SearchFacts(ctx, "G1", ""); !errors.Is(err, ErrEmptySearch) {
			t.Fatalf("expected ErrEmptySearch, got %v", err)
		}
		if diff := cmp.Diff(0, counting.searches); diff != "" {
			t.Errorf("store searches (-want +got):\n%s", diff)
		}
	})
}

func TestDeleteLast(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	if _, err := s.DeleteLast(ctx, "G1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	seedFact(t, s, "first", "G1", false)
	last := seedFact(t, s, "second", "G2", false)

	// Undo ignores guild scoping.
	got, err := s.DeleteLast(ctx, "G1")
	if err != nil {
		t.Fatalf("delete last: %v", err)
	}
	if diff := cmp.Diff(last.ID, got.ID); diff != "" {
		t.Errorf("deleted id (-want +got):\n%s", diff)
	}
	n, _ := s.CountFacts(ctx)
	if diff := cmp.Diff(int64(1), n); diff != "" {
		t.Errorf("remaining (-want +got):\n%s", diff)
	}
}

func TestDeleteConfirmed(t *testing.T) {
	ctx := context.Background()
	s, store := newTestService(t)
	a := seedFact(t, s, "a", "G1", false)
	seedFact(t, s, "b", "G1", false)
	c := seedFact(t, s, "c", "G1", false)

	n, err := s.DeleteConfirmed(ctx, []model.Fact{*a, *c})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if diff := cmp.Diff(2, n); diff != "" {
		t.Errorf("deleted (-want +got):\n%s", diff)
	}
	left, _ := store.ListVisibleFacts(ctx, "G1")
	if diff := cmp.Diff(1, len(left)); diff != "" {
		t.Errorf("remaining (-want +got):\n%s", diff)
	}
}
