package identity

// MessageCategory classifies the user-facing message attached to an Outcome.
type MessageCategory string

const (
	MessageInfo    MessageCategory = "info"
	MessageWarning MessageCategory = "warning"
	MessageSuccess MessageCategory = "success"
	MessageError   MessageCategory = "error"
)

// Outcome is what every controller operation hands back to the route layer:
// a success flag plus a user-facing message category. Invalid credentials,
// expired tokens, and duplicate emails are all modeled here, never as errors
// thrown at the caller.
type Outcome struct {
	OK       bool
	Category MessageCategory
	Message  string
	// SessionToken carries the signed session JWT after login/register.
	SessionToken string
	// User is set when the operation resolved an account (omitted on
	// failures so callers cannot leak identity data by accident).
	User *User
}

func successOutcome(message string) Outcome {
	return Outcome{OK: true, Category: MessageSuccess, Message: message}
}

func infoOutcome(message string) Outcome {
	return Outcome{OK: true, Category: MessageInfo, Message: message}
}

func errorOutcome(message string) Outcome {
	return Outcome{Category: MessageError, Message: message}
}
