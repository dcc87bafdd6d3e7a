// Package pump implements the tick-driven command scheduler at the
// heart of framewire.
//
// Commands enter through two families of entry points. The Dispatch
// family resolves a command's service dependencies first and refuses
// to enqueue when resolution fails; the Push family enqueues the
// command as-is. Entries carry either a frame delay, decremented once
// per Tick, or a wall-clock delay matured against the injected clock.
// On each Tick every due entry executes synchronously, in global
// submission order. The ready set is snapshotted before execution
// starts, so a command enqueued by an executing command always lands
// on a later tick, keeping per-tick work bounded.
//
// The pump owns no callbacks of its own: execution fires the Binder
// for the command's variant, or hands control to the command itself
// when it implements command.Runner.
package pump
