package files

import "errors"

var (
	ErrUploadInProgress   = errors.New("upload already in progress")
	ErrNotFound           = errors.New("file not found")
	ErrSigningUnsupported = errors.New("storage does not support signed urls")
)
