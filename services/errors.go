package services

import "errors"

// Shared sentinel errors, grouped by how the HTTP layer reports them.
var (
	// Not found
	ErrNotFound             = errors.New("requested resource not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrTeamNotFound         = errors.New("team not found")
	ErrMatchNotFound        = errors.New("match not found")
	ErrMatchRequestNotFound = errors.New("match request not found")
	ErrRequestNotFound      = errors.New("request not found")
	ErrNotificationNotFound = errors.New("notification not found")

	// Validation and business rules
	ErrValidationFailed    = errors.New("validation failed")
	ErrTeamNameRequired    = errors.New("team name is required")
	ErrVenueRequired       = errors.New("match venue is required")
	ErrMatchTimeRequired   = errors.New("match date and time are required")
	ErrInvalidMatchFormat  = errors.New("match format must be 2-halves or 4-quarters")
	ErrInvalidRequestType  = errors.New("request type must be application or recruitment")
	ErrSelfChallenge       = errors.New("a team cannot challenge itself")
	ErrNegativeScore       = errors.New("score values must not be negative")
	ErrScorerCountInvalid  = errors.New("scorer goal counts must be positive")
	ErrResultGoalsMismatch = errors.New("scorer goals do not add up to the final score")
	ErrUserAlreadyInTeam   = errors.New("user already belongs to a team")
	ErrUserNotInTeam       = errors.New("user does not belong to a team")
	ErrManagerCannotLeave  = errors.New("managers cannot leave their own team")
	ErrInvalidNotification = errors.New("invalid notification type")

	// Conflicts
	ErrMatchRequestPending = errors.New("a pending match request already exists between these teams")
	ErrRequestPending      = errors.New("a pending request already exists")

	// Preconditions (state advanced concurrently; caller may refetch and retry)
	ErrMatchNotConfirmable    = errors.New("match has no submitted result awaiting confirmation")
	ErrMatchRequestNotPending = errors.New("match request is no longer pending")
	ErrRequestNotPending      = errors.New("request is no longer pending")
	ErrMatchAlreadySettled    = errors.New("match result has already been settled")

	// Authorization
	ErrManagerActionForbidden = errors.New("only the team manager can perform this action")
	ErrRecipientForbidden     = errors.New("only the request recipient can perform this action")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")

	// Transient store failures, already retried a bounded number of times
	ErrStoreContention = errors.New("store contention, please retry")
)
