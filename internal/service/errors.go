package service

import "errors"

var (
	// ErrNeedsOnboarding signals that the viewer has no college yet and
	// must complete the select-college step before using the feed.
	ErrNeedsOnboarding = errors.New("college not selected yet")

	// ErrFeedUnavailable is the single page-level failure for the feed
	// pipeline; partial fetch success is not surfaced.
	ErrFeedUnavailable = errors.New("feed unavailable")

	ErrNotSignedIn  = errors.New("sign in required")
	ErrEmptyContent = errors.New("content must not be empty")
	ErrUploadFailed = errors.New("image upload failed")
)
