// Package app assembles and runs one framewire engine instance. It
// builds the module registry, loads and validates the manifest catalog,
// and drives the pump's tick loop at the configured frame rate,
// decoupled from any specific entrypoint like a CLI or host engine.
package app
