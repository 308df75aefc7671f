package retrieval

import "fmt"

// ProviderError wraps a failure from a search provider with enough
// context to report which provider and query failed. The underlying
// vendor error is reachable via errors.As / errors.Unwrap.
type ProviderError struct {
	Provider string
	Query    string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("retrieval provider %s failed for query %q: %v", e.Provider, e.Query, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
