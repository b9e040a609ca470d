package domain

import "errors"

var (
	// ErrValidation signals malformed caller input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrPostNotFound signals a missing post.
	ErrPostNotFound = errors.New("post not found")
	// ErrForbidden signals an action the caller may not perform.
	ErrForbidden = errors.New("forbidden")
	// ErrSelfVote signals a user voting on their own post.
	ErrSelfVote = errors.New("cannot vote on your own post")
	// ErrProviderUnavailable signals an embedding or generative provider failure.
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	// ErrVectorDimMismatch signals comparing vectors of different dimensionality.
	// Never occurs with a single consistent provider version; never coerced.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
)
