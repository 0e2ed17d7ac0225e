package properties

import "errors"

var (
	ErrValidation       = errors.New("Invalid property input")
	ErrPropertyNotFound = errors.New("Property not found")
	ErrNotOwner         = errors.New("Only the owner can delete a property")
	ErrAlreadyPurchased = errors.New("Property already purchased")
	ErrOwnPurchase      = errors.New("Owner cannot buy their own property")
	ErrSigning          = errors.New("Failed to sign transaction")
	ErrSubmission       = errors.New("Failed to submit transaction")
)
