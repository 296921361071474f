package intake

import (
	"errors"

	"github.com/ashureev/briefbot/internal/wizard"
)

var (
	// ErrUnknownStep means the graph does not define a step the session points at.
	ErrUnknownStep = wizard.ErrUnknownStep
	// ErrStaleInteraction means a button from an earlier prompt was pressed.
	ErrStaleInteraction = errors.New("stale interaction")
	// ErrIncompleteSelection means "done" was pressed with nothing selected.
	ErrIncompleteSelection = errors.New("at least one option must be selected")
	// ErrAnswerRequired means "next" was pressed on an unanswered step.
	ErrAnswerRequired = errors.New("answer required before moving on")
	// ErrInvalidContact means the contact is neither an email nor a phone.
	ErrInvalidContact = wizard.ErrInvalidContact
	// ErrUnexpectedInput means text arrived where a button press was expected.
	ErrUnexpectedInput = errors.New("unexpected input for step")
	// ErrNoSession means the user has no wizard in progress.
	ErrNoSession = errors.New("no session in progress")
	// ErrEditUnavailable means the edit window is closed or was never opened.
	ErrEditUnavailable = errors.New("edit window closed")
	// ErrDeliveryFailure wraps operator channel delivery errors. It is logged,
	// never returned to callers.
	ErrDeliveryFailure = errors.New("brief delivery failed")
)

var userErrors = []error{
	ErrStaleInteraction,
	ErrIncompleteSelection,
	ErrAnswerRequired,
	ErrInvalidContact,
	ErrUnexpectedInput,
	ErrNoSession,
	ErrEditUnavailable,
}

// IsUserError reports whether err is a user-correctable outcome that was
// already answered with a re-prompt.
func IsUserError(err error) bool {
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func alertFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrIncompleteSelection):
		return msgSelectAtLeastOne
	case errors.Is(err, ErrAnswerRequired):
		return msgAnswerFirst
	case errors.Is(err, ErrStaleInteraction):
		return msgStaleButton
	case IsUserError(err):
		return ""
	default:
		return msgSomethingWrong
	}
}
