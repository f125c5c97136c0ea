package explorer

import "fmt"

// GatewayError is the single failure type the explorer client surfaces once
// retries and key rotation are exhausted.
type GatewayError struct {
	Operation  string
	StatusCode int
	Message    string
	Err        error
}

func (e *GatewayError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("explorer %s: %s: %v", e.Operation, e.Message, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("explorer %s: HTTP %d: %s", e.Operation, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("explorer %s: %s", e.Operation, e.Message)
	}
}

func (e *GatewayError) Unwrap() error { return e.Err }
