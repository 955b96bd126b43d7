package datastore

import (
	"github.com/tphakala/wildlife-alert/internal/errors"
)

const componentName = "datastore"

var (
	// ErrAlertNotFound is returned when no row matches an image path.
	ErrAlertNotFound = errors.NewStd("alert not found")
	// ErrNotOpen is returned by operations on a closed Store.
	ErrNotOpen = errors.NewStd("database connection is not initialized")
)

// dbError creates a database error with operation context. Extra context
// is given as key/value pairs.
func dbError(err error, operation, priority string, context ...any) error {
	builder := errors.New(err).
		Component(componentName).
		Category(errors.CategoryDatabase).
		Context("operation", operation)

	if priority != "" {
		builder = builder.Priority(priority)
	}

	for i := 0; i < len(context)-1; i += 2 {
		if key, ok := context[i].(string); ok {
			builder = builder.Context(key, context[i+1])
		}
	}

	return builder.Build()
}

// notFoundError wraps ErrAlertNotFound so both errors.Is and
// errors.IsNotFound match.
func notFoundError(imagePath string) error {
	return errors.New(ErrAlertNotFound).
		Component(componentName).
		Category(errors.CategoryNotFound).
		Priority(errors.PriorityLow).
		Context("image_path", imagePath).
		Build()
}
