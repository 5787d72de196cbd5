package court

import "errors"

var (
	ErrCourtNotFound = errors.New("court not found")
	ErrNotCourtOwner = errors.New("you can only manage your own courts")
)
