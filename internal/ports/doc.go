// Package ports defines interfaces between layers. Health ports are
// implemented by platform components (the outbound HTTP client, the health
// registry) and consumed by the readiness endpoint.
package ports
