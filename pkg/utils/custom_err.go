package utils

import "errors"

var (
	// Validation
	ErrInvalidPlaceURL = errors.New("could not extract a place id from the url")

	// Auth / ownership
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrNotOwner           = errors.New("place does not belong to this account")

	// Entitlement
	ErrPlaceLimitExceeded   = errors.New("place limit exceeded")
	ErrChangeCooldown       = errors.New("place change cooldown active")
	ErrSubscriptionRequired = errors.New("paid subscription required")
	ErrNoChangesLeft        = errors.New("no place changes left this period")
	ErrNoRefreshesLeft      = errors.New("no refreshes left today")

	// Lifecycle
	ErrPlaceNotFound     = errors.New("place not found")
	ErrAlreadyProcessing = errors.New("place is already processing")
	ErrPlaceNotReady     = errors.New("place analysis has not completed yet")

	// Upstream / infra
	ErrCrawlFailed            = errors.New("crawl provider call failed")
	ErrAnalysisDispatchFailed = errors.New("analysis dispatch failed")
	ErrCopyGenerationFailed   = errors.New("copy generation failed")
	ErrPlanNotFound           = errors.New("plan not found")
	ErrDatabaseError          = errors.New("database error")
)
