package config

// NewHandlerForTest exposes the log handler construction
var NewHandlerForTest = newHandler
