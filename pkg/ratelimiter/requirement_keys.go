package ratelimiter

import "fmt"

// buildRPMKey formats the requests-per-window limit key for a service/target pair.
func buildRPMKey(service, target string) string {
	return fmt.Sprintf("%s:%s:rpm", service, target)
}

// buildTPMKey formats the tokens-per-window limit key for a service/target pair.
func buildTPMKey(service, target string) string {
	return fmt.Sprintf("%s:%s:tpm", service, target)
}

// buildConcurrencyKey formats the concurrency limit key for a service/target pair.
func buildConcurrencyKey(service, target string) string {
	return fmt.Sprintf("%s:%s:concurrency", service, target)
}
