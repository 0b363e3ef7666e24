// Package intake implements the six-step lead form as a pure state machine.
// It has no Telegram or storage dependencies: callers feed it the current
// state, the collected draft and the next message text.
package intake

import (
	"errors"
	"strings"

	"github.com/m3rciful/schoolbot/internal/leads"
)

// State is a conversation step. The string values double as session states.
type State string

const (
	Idle               State = "idle"
	AwaitingName       State = "awaiting_name"
	AwaitingAgeGroup   State = "awaiting_age_group"
	AwaitingLevel      State = "awaiting_level"
	AwaitingGoal       State = "awaiting_goal"
	AwaitingSchedule   State = "awaiting_schedule"
	AwaitingContact    State = "awaiting_contact"
	AwaitingAIQuestion State = "awaiting_ai_question"
)

// ErrNotInIntake is returned by Advance for states outside the form.
var ErrNotInIntake = errors.New("intake: state is not an intake step")

// Steps lists the form states in order.
var Steps = []State{
	AwaitingName,
	AwaitingAgeGroup,
	AwaitingLevel,
	AwaitingGoal,
	AwaitingSchedule,
	AwaitingContact,
}

// Draft accumulates answers collected so far.
type Draft struct {
	Name     string
	AgeGroup string
	Level    string
	Goal     string
	Schedule string
}

// Transition is the result of feeding one message to the machine.
type Transition struct {
	// Advanced is false when the input was ignored and nothing changed.
	Advanced bool
	Next     State
	Draft    Draft
	// Complete is set on the final step; Lead is then fully populated except TgID.
	Complete bool
	Lead     leads.Lead
}

// IsStep reports whether st belongs to the form.
func IsStep(st State) bool {
	return indexOf(st) >= 0
}

func indexOf(st State) int {
	for i, s := range Steps {
		if s == st {
			return i
		}
	}
	return -1
}

// Begin enters the form at step at with an empty draft.
func Begin(at State) (Transition, error) {
	if !IsStep(at) {
		return Transition{}, ErrNotInIntake
	}
	return Transition{Advanced: true, Next: at}, nil
}

// Advance records text as the answer for cur and moves to the next step.
// Whitespace-only text leaves everything unchanged.
func Advance(cur State, draft Draft, text string) (Transition, error) {
	i := indexOf(cur)
	if i < 0 {
		return Transition{}, ErrNotInIntake
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Transition{Advanced: false, Next: cur, Draft: draft}, nil
	}

	switch cur {
	case AwaitingName:
		draft.Name = text
	case AwaitingAgeGroup:
		draft.AgeGroup = text
	case AwaitingLevel:
		draft.Level = text
	case AwaitingGoal:
		draft.Goal = text
	case AwaitingSchedule:
		draft.Schedule = text
	case AwaitingContact:
		return Transition{
			Advanced: true,
			Next:     Idle,
			Complete: true,
			Lead: leads.Lead{
				Name:     draft.Name,
				AgeGroup: draft.AgeGroup,
				Level:    draft.Level,
				Goal:     draft.Goal,
				Schedule: draft.Schedule,
				Contact:  text,
			},
		}, nil
	}
	return Transition{Advanced: true, Next: Steps[i+1], Draft: draft}, nil
}
