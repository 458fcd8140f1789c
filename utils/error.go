package utils

import "errors"

var (
	ErrInvalidCredentials       = errors.New("invalid username or password")
	ErrCredentialsNotConfigured = errors.New("login is not configured")
	ErrSessionNotFound          = errors.New("session not found")
	ErrMissingUploads           = errors.New("Please upload both job and asset files.")
	ErrUnknownCampGroup         = errors.New("unknown camp group")
	ErrReportNotFound           = errors.New("report not found")
)
