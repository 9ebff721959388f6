package session

import (
	"errors"
	"fmt"

	"github.com/phrazzld/brainace/internal/domain"
)

var (
	// ErrInvalidTransition is returned when a transition is not allowed in
	// the session's current phase. The session is left unchanged.
	ErrInvalidTransition = errors.New("invalid session transition")

	// ErrCollaboratorFailed is returned when the item source, the scheduler
	// or storage fails. The session is left unchanged so the same transition
	// can be retried.
	ErrCollaboratorFailed = errors.New("session collaborator failed")
)

// Phase is the coarse state of a session.
type Phase int

const (
	// PhaseHidden presents the current item with its back hidden.
	PhaseHidden Phase = iota
	// PhaseRevealed presents the current item with its back shown.
	PhaseRevealed
	// PhaseCompleted means every item has been rated or skipped.
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseHidden:
		return "hidden"
	case PhaseRevealed:
		return "revealed"
	case PhaseCompleted:
		return "completed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Transition is a user action applied to a session. The set of transitions
// is closed: Reveal, Skip, Rate and Restart.
type Transition interface {
	// Name identifies the transition in errors and logs.
	Name() string
	transition()
}

// Reveal shows the back of the current item.
type Reveal struct{}

// Skip moves past the current item without rating it.
type Skip struct{}

// Rate grades the revealed item and reschedules its card.
type Rate struct {
	Rating domain.Rating
}

// Restart recomputes the session's items and starts over.
type Restart struct{}

func (Reveal) Name() string  { return "reveal" }
func (Skip) Name() string    { return "skip" }
func (Rate) Name() string    { return "rate" }
func (Restart) Name() string { return "restart" }

func (Reveal) transition()  {}
func (Skip) transition()    {}
func (Rate) transition()    {}
func (Restart) transition() {}

// ParseTransition builds a transition from its name. rating is only read for
// "rate".
func ParseTransition(name string, rating domain.Rating) (Transition, error) {
	switch name {
	case "reveal":
		return Reveal{}, nil
	case "skip":
		return Skip{}, nil
	case "rate":
		if !rating.IsValid() {
			return nil, fmt.Errorf("%w: %d", domain.ErrInvalidRating, int(rating))
		}
		return Rate{Rating: rating}, nil
	case "restart":
		return Restart{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown transition %q", domain.ErrValidation, name)
	}
}

// TransitionError reports a transition that is not allowed from the
// session's current phase.
type TransitionError struct {
	From       Phase
	Transition Transition
}

func (e *TransitionError) Error() string {
	name := "<nil>"
	if e.Transition != nil {
		name = e.Transition.Name()
	}
	return fmt.Sprintf("%s: cannot %s while %s", ErrInvalidTransition, name, e.From)
}

// Unwrap returns ErrInvalidTransition.
func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
