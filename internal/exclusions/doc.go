// Package exclusions persists the set of plugin paths known to fail
// scanning.
//
// The on-disk format is one tab-delimited line per plugin: path, reason, and
// an ISO-8601 timestamp. Loading is tolerant: legacy
// pipe-delimited lines and bare paths are accepted, and when the current file
// is missing the older blacklist filename is read instead so upgrades keep
// their history.
//
// Entries are unique per path and the first recorded reason sticks; a plugin
// leaves the list only through an explicit clear.
package exclusions
