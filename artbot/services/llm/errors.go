package llm

import "fmt"

// ConfigError means the provider credential is missing; the request was never
// attempted and retrying without fixing configuration is pointless.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return e.Reason
}

// TransportError is a failed HTTP exchange with the provider: a connection
// that never established (Status 0) or a non-2xx status with whatever error
// detail the provider reported.
type TransportError struct {
	Status int
	Detail string
}

func (e *TransportError) Error() string {
	detail := e.Detail
	if detail == "" {
		detail = "Unknown error"
	}
	if e.Status == 0 {
		return fmt.Sprintf("Network error: %s", detail)
	}
	return fmt.Sprintf("API Error: %d - %s", e.Status, detail)
}
