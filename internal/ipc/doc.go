// Package ipc defines the wire protocol spoken between the scan coordinator
// and its scanner subprocesses.
//
// It owns the message vocabulary (scan command, found/error/complete replies,
// quit) and a newline-delimited JSON codec over plain io.Reader/io.Writer
// pairs. The package carries no transport: the coordinator binds
// the codec to subprocess pipes, tests bind it to in-memory pipes, and both
// sides get identical framing.
//
// Any new message kind needs a tag constant here plus a constructor, so the
// worker and subprocess loops can keep exhaustive switches over Type.
package ipc
