// Package lineio connects the profile package to files and terminals: it
// resolves corpus paths and glob patterns, opens them as line sources, and
// writes generated lines to the console or atomically to disk.
package lineio
