// Package logging configures the structured slog logger used by the
// rustpress-search commands. Logs go to stderr by default; --log-file adds a
// size-rotated JSON log file, and the MCP serve command writes only to that
// file so stdout stays reserved for the protocol stream.
package logging
