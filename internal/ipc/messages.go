package ipc

import (
	"magda/internal/plugin"
)

// Message type tags. The coordinator sends SCNO and QUIT; the subprocess
// replies with zero or more PLUG, at most one ERR, then exactly one DONE.
const (
	TypeScanOne      = "SCNO"
	TypePluginFound  = "PLUG"
	TypeError        = "ERR"
	TypeScanComplete = "DONE"
	TypeQuit         = "QUIT"
)

// Message is the single frame exchanged over the channel: a type tag plus the
// fields that tag uses.
type Message struct {
	Type         string             `json:"type"`
	FormatName   string             `json:"formatName,omitempty"`
	PluginPath   string             `json:"pluginPath,omitempty"`
	ErrorMessage string             `json:"errorMessage,omitempty"`
	Plugin       *plugin.Descriptor `json:"plugin,omitempty"`
}

// ScanOne builds the command instructing the subprocess to probe one file.
func ScanOne(formatName, pluginPath string) Message {
	return Message{Type: TypeScanOne, FormatName: formatName, PluginPath: pluginPath}
}

// PluginFound wraps one descriptor read out of the current file.
func PluginFound(desc plugin.Descriptor) Message {
	return Message{Type: TypePluginFound, Plugin: &desc}
}

// Error reports a probing failure for the current file.
func Error(pluginPath, errorMessage string) Message {
	return Message{Type: TypeError, PluginPath: pluginPath, ErrorMessage: errorMessage}
}

// ScanComplete terminates the reply sequence for the current file.
func ScanComplete() Message {
	return Message{Type: TypeScanComplete}
}

// Quit asks the subprocess to exit cleanly.
func Quit() Message {
	return Message{Type: TypeQuit}
}
