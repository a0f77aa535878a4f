package errs

import "errors"

// Sentinel errors for the pipeline. Callers classify failures with errors.Is
// after any amount of wrapping.
var (
	// ErrConfiguration marks a missing or unusable credential/config value.
	// Fatal for the operation, never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrUnsupportedFormat marks a file whose media type no extractor handles.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrScrapeFailed marks a URL fetch or parse failure.
	ErrScrapeFailed = errors.New("failed to scrape url")

	// ErrProvider marks an embedding/generation/vector-store call failure.
	ErrProvider = errors.New("provider error")

	// ErrNotFound marks a missing document or tenant.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks a request missing required fields.
	ErrValidation = errors.New("validation error")

	// ErrOverloaded marks a request rejected because a bounded queue is
	// full. Safe to retry after a backoff.
	ErrOverloaded = errors.New("overloaded")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
