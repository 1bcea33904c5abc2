// Package httpapi serves the pipeline over HTTP.
//
// Uploads are raw delimited text posted to /v1/uploads; reads go through
// the query service and therefore share its cache with every other
// surface. Prometheus metrics are exposed on /metrics.
package httpapi
