/*
Package observability turns engine lifecycle hooks into Prometheus metrics and structured logs.

Both producers return domain.LifecycleHooks, so they compose with Merge and plug into
tlisp.WithLifecycleHooks.
*/
package observability
