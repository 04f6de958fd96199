package service

import "errors"

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrNotAuthorized       = errors.New("not authorized")
	ErrUserNotFound        = errors.New("user not found")
	ErrUsernameTaken       = errors.New("username already exists")
	ErrEmailTaken          = errors.New("email already exists")
	ErrUserExists          = errors.New("user already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidToken        = errors.New("invalid token")

	// ErrInvalidImport wraps the first record-level failure of a batch import
	ErrInvalidImport = errors.New("invalid import data")

	// ErrDuplicateImport means another writer stored one of the batch's import hashes first
	ErrDuplicateImport = errors.New("transaction already imported")
)
