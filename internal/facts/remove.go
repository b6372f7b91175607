package facts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"neubott/internal/model"
)

// ErrResponseTooLarge is returned by a ConfirmSink that cannot display the prompt.
var ErrResponseTooLarge = errors.New("response too large")

// Decision is the requester's answer to a delete prompt.
type Decision int

// Possible decisions.
const (
	Confirm Decision = iota + 1
	Cancel
)

// State is a terminal state of the delete flow.
type State string

// Terminal states.
const (
	StateNotFound  State = "not_found"
	StateTooLarge  State = "too_large"
	StateDeleted   State = "deleted"
	StateCancelled State = "cancelled"
)

// Reaction is a single answer delivered by the chat transport.
type Reaction struct {
	UserID   string
	Decision Decision
}

// Prompt describes what the requester is asked to confirm.
type Prompt struct {
	GuildID     string
	RequesterID string
	Candidates  []model.Fact
}

// Outcome is the result of one delete interaction.
type Outcome struct {
	State      State
	Candidates []model.Fact
	Deleted    int
	TimedOut   bool
}

// Pending is a prompt that has been shown and is waiting for an answer.
type Pending interface {
	// Reactions delivers answers from any user; the flow filters them.
	Reactions() <-chan Reaction
	// Finish is called exactly once when the flow reached a terminal state.
	Finish(o Outcome)
}

// ConfirmSink renders delete prompts.
type ConfirmSink interface {
	Ask(ctx context.Context, p Prompt) (Pending, error)
}

// RemoveRequest is a "facts remove <search>" invocation.
type RemoveRequest struct {
	GuildID     string
	RequesterID string
	Search      string
}

// RemoveMatching runs the delete flow: search, ask, then delete or cancel.
//
// Only reactions from the requester count. When no answer arrives within
// the confirm timeout the flow cancels and nothing is deleted.
func (s *Service) RemoveMatching(ctx context.Context, req RemoveRequest, sink ConfirmSink) (Outcome, error) {
	candidates, err := s.SearchFacts(ctx, req.GuildID, req.Search)
	if err != nil {
		return Outcome{}, err
	}
	if len(candidates) == 0 {
		return Outcome{State: StateNotFound}, nil
	}

	pending, err := sink.Ask(ctx, Prompt{
		GuildID:     req.GuildID,
		RequesterID: req.RequesterID,
		Candidates:  candidates,
	})
	if errors.Is(err, ErrResponseTooLarge) {
		return Outcome{State: StateTooLarge, Candidates: candidates}, nil
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("ask confirmation: %w", err)
	}

	out := Outcome{State: StateCancelled, Candidates: candidates}
	decision, err := s.await(ctx, pending, req.RequesterID)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		out.TimedOut = true
	case err != nil:
		pending.Finish(out)
		return out, err
	case decision == Confirm:
		n, err := s.DeleteConfirmed(ctx, candidates)
		if err != nil {
			pending.Finish(out)
			return out, err
		}
		out.State = StateDeleted
		out.Deleted = n
	}

	s.log.Info("delete flow finished",
		"guild", req.GuildID,
		"requester", req.RequesterID,
		"state", out.State,
		"candidates", len(candidates),
		"timed_out", out.TimedOut,
	)
	pending.Finish(out)
	return out, nil
}

// await blocks until the requester answers. It returns
// context.DeadlineExceeded when the confirm timeout elapses and ctx.Err()
// when the caller's context ends first. A closed reaction channel counts as
// a cancel.
func (s *Service) await(ctx context.Context, pending Pending, requesterID string) (Decision, error) {
	timer := time.NewTimer(s.confirmTimeout)
	defer timer.Stop()

	reactions := pending.Reactions()
	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-timer.C:
			return 0, context.DeadlineExceeded
		case r, ok := <-reactions:
			if !ok {
				return Cancel, nil
			}
			if r.UserID != requesterID {
				continue
			}
			if r.Decision == Confirm || r.Decision == Cancel {
				return r.Decision, nil
			}
		}
	}
}
