package domain

import "time"

// User represents a learner account
type User struct {
	UserID     int64
	Authorized bool
	CreatedAt  time.Time
}

// UserState represents user's current interaction state in the bot
type UserState string

const (
	StateIdle            UserState = "idle"
	StateWaitingPassword UserState = "waiting_password"
	StateReviewing       UserState = "reviewing"
	StateConfirmReset    UserState = "confirm_reset"
)

// StateData holds temporary data for user's current state
type StateData struct {
	State      UserState
	Word       Word // card on screen while reviewing
	ShownAt    time.Time
	RevealedAt time.Time
}

// ResponseTime is how long the learner looked at the card before revealing it
func (s StateData) ResponseTime() time.Duration {
	if s.ShownAt.IsZero() || s.RevealedAt.Before(s.ShownAt) {
		return 0
	}
	return s.RevealedAt.Sub(s.ShownAt)
}
