// Package logging builds the slog loggers used across cinematch.
//
// Console output is one line per record with the component, file and stage
// lifted into the prefix; JSON output is slog's JSON handler with a UTC "ts".
// A configured log file is rotated with lumberjack. WithContext stamps run,
// file and stage fields carried on the context by the services package.
package logging
