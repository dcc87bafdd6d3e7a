// Package registry provides the central "glue" for the module system.
//
// The Registry composes the three explicit objects the pump and the
// modules share: the command Binder, the service provider registry,
// and the named command catalog mapping manifest-declared command
// names to Go factories. Modules register factories, bindings, and
// providers into it at startup; manifests populate the declarative
// side; validation then ensures the Go code and the public-facing
// manifests are perfectly in sync, preventing a wide class of runtime
// errors before the first tick.
package registry
