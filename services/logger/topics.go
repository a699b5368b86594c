package logger

import "wstl-go/bus"

// Topics published by the App.
var (
	TopicFlags  = bus.T("logger", "flags")  // retained types.Flags
	TopicState  = bus.T("logger", "state")  // retained session.State
	TopicSample = bus.T("logger", "sample") // types.Sample per logging tick
)
