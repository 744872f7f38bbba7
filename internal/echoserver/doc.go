// Package echoserver implements the WebSocket echo endpoint used by
// "wstask serve" and by integration tests.
//
// Routes:
//
//	GET /ws       WebSocket upgrade; every text or binary frame is echoed back
//	GET /healthz  liveness probe
//	GET /metrics  Prometheus metrics
//
// Upgrades are rate limited with a token bucket; requests over the limit
// receive 429 Too Many Requests with a Retry-After header.
package echoserver
