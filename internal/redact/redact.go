// Package redact strips sensitive values out of data before it is
// logged, guarding the spawn argv/env the Async Controller logs at
// startup.
package redact

import "strings"

// sensitiveEnvKeys lists environment variable names whose values are
// replaced with a placeholder before the spawn environment is logged.
var sensitiveEnvKeys = map[string]bool{
	"GDB_API_TOKEN": true,
	"AUTH_TOKEN":    true,
	"PASSWORD":      true,
}

// Env returns a copy of env ("KEY=value" entries, the os/exec.Cmd.Env
// shape) with sensitive values replaced by "***redacted***", safe to
// include in a log line.
func Env(env []string) []string {
	out := make([]string, len(env))
	for i, entry := range env {
		key, _, found := strings.Cut(entry, "=")
		if found && sensitiveEnvKeys[key] {
			out[i] = key + "=***redacted***"
			continue
		}
		out[i] = entry
	}
	return out
}

// Argv returns a copy of argv with any "--password=..." or
// "--token=..."-shaped argument redacted, for safe inclusion in a
// startup log line.
func Argv(argv []string) []string {
	out := make([]string, len(argv))
	for i, arg := range argv {
		lower := strings.ToLower(arg)
		if strings.Contains(lower, "password=") || strings.Contains(lower, "token=") {
			if k, _, found := strings.Cut(arg, "="); found {
				out[i] = k + "=***redacted***"
				continue
			}
		}
		out[i] = arg
	}
	return out
}
