package options

// ApplyCommand carries a full settings record through the pump. The
// manager's own binding stores and persists the record; subsystem
// modules bind their own callbacks to push the new values into their
// ports. Callback registration order decides nothing here — every
// callback receives the same immutable record.
type ApplyCommand struct {
	Options Options
}
