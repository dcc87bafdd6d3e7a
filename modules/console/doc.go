// Package console connects the engine to a developer console over
// Socket.IO. The console dispatches catalog commands into the pump and
// receives an event for every accepted, rejected and executed command.
package console
