// Package common: errors.go defines the sentinel errors shared by every
// feature of the bot. Handlers match on these to turn failures into short
// user-visible messages instead of stack traces in the chat.
package common

import "errors"

// Ledger input errors (bad arguments from the user)
var (
	// ErrInvalidDistance: distance is negative or implausibly large
	ErrInvalidDistance = errors.New("distance must be between 0 and 10000 miles")
	// ErrInvalidPayment: payment amount is zero or negative
	ErrInvalidPayment = errors.New("payment amount must be positive")
	// ErrInvalidPrice: gas price is zero or negative
	ErrInvalidPrice = errors.New("gas price must be positive")
	// ErrInvalidName: preferred name is empty or too long
	ErrInvalidName = errors.New("name must be 1-32 characters")
)

// Lookup errors
var (
	// ErrCarNotFound: the named car is not part of the fleet
	ErrCarNotFound = errors.New("car not found")
	// ErrLocationNotFound: no location shortcut with that name
	ErrLocationNotFound = errors.New("location not found")
	// ErrUserNotFound: user has no record in the database
	ErrUserNotFound = errors.New("user not found")
)

// Interactive prompt errors
var (
	// ErrNotYourPrompt: someone other than the invoker tapped the keyboard
	ErrNotYourPrompt = errors.New("this prompt belongs to someone else")
	// ErrPromptExpired: the car prompt timed out or was already used
	ErrPromptExpired = errors.New("prompt expired")
)
