package proxy

import "github.com/VictoriaMetrics/metrics"

var (
	overrideRequests = metrics.NewCounter(`localresolve_proxy_requests_total{kind="override"}`)
	forwardRequests  = metrics.NewCounter(`localresolve_proxy_requests_total{kind="forward"}`)
	failedRequests   = metrics.NewCounter(`localresolve_proxy_requests_total{kind="failed"}`)

	refreshSuccess = metrics.NewCounter(`localresolve_proxy_refresh_total{outcome="succeeded"}`)
	refreshFailure = metrics.NewCounter(`localresolve_proxy_refresh_total{outcome="failed"}`)
)
