package domain

import "errors"

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrNoCurrentSession = errors.New("no session selected")
	ErrNoImages         = errors.New("session has no images attached")
	ErrNoConfig         = errors.New("session has no configuration")
	ErrRunNotFound      = errors.New("run not found in current session")
	ErrFavoriteNotFound = errors.New("favorite config not found")
	ErrQuotaExceeded    = errors.New("storage quota exceeded")
	ErrStoreUnavailable = errors.New("storage backend unavailable")
	ErrInvalidImport    = errors.New("invalid import document")
	ErrAnalysisInFlight = errors.New("an analysis is already running")
)
