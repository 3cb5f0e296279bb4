package services

// ValidationError reports missing or malformed client input. It is raised
// before any provider call.
type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

// ProviderError wraps a failed provider call. Error returns the provider's
// message unchanged so it can be passed through to the caller.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string { return e.Err.Error() }

func (e *ProviderError) Unwrap() error { return e.Err }
