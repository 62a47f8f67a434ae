package session

// State is a copy of the session record
type State struct {
	IsAuthenticated bool
	UserID          string
	Email           string
	Token           string
	HasToken        bool
	EmailVerified   bool
}

// IsAuth reports whether the session is signed in with a verified email
func (s State) IsAuth() bool {
	return s.IsAuthenticated && s.EmailVerified
}

// Phase is a position in the session lifecycle
type Phase int

const (
	SignedOut Phase = iota
	SignedInUnverified
	SignedInVerified
)

func (p Phase) String() string {
	switch p {
	case SignedInUnverified:
		return "signed-in (unverified)"
	case SignedInVerified:
		return "signed-in (verified)"
	default:
		return "signed-out"
	}
}

// Phase derives the lifecycle position from the record
func (s State) Phase() Phase {
	switch {
	case !s.IsAuthenticated:
		return SignedOut
	case s.EmailVerified:
		return SignedInVerified
	default:
		return SignedInUnverified
	}
}
