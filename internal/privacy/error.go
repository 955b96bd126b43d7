package privacy

// SanitizedError keeps the original error for errors.Is and errors.As while
// Error() returns a scrubbed message.
type SanitizedError struct {
	original     error
	sanitizedMsg string
}

func (e *SanitizedError) Error() string {
	return e.sanitizedMsg
}

func (e *SanitizedError) Unwrap() error {
	return e.original
}

// WrapError scrubs err with ScrubMessage and any extra secrets. Returns nil
// for a nil err.
//
//	resp, err := client.Do(req)
//	if err != nil {
//	    return privacy.WrapError(err, botToken)
//	}
func WrapError(err error, secrets ...string) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	for _, s := range secrets {
		msg = ScrubSecret(msg, s)
	}
	return &SanitizedError{original: err, sanitizedMsg: ScrubMessage(msg)}
}
