/*
Package observability turns prism lifecycle hooks into Prometheus metrics and an
in-memory event journal.

Both expose a Hooks method returning domain.LifecycleHooks; combine them with
domain.MergeHooks and pass the result to prism.WithLifecycleHooks.
*/
package observability
