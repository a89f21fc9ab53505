// Package forecast defines the solar generation forecasting interface
// consumed by the dispatch pipeline, together with the built-in providers:
// a deterministic stub, a naive linear projection over recent observations,
// and a remote tabular prediction endpoint. Providers are registered on a
// factory registry and selected by configuration.
package forecast
