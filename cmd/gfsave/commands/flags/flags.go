// Package flags provides shared flag accessors for CLI commands.
// This package exists to avoid import cycles between the root command
// and noun subpackages (backup).
package flags

// assumeYes holds the value of the -y/--yes flag.
var assumeYes bool

// AssumeYes reports whether confirmation prompts should be skipped.
func AssumeYes() bool {
	return assumeYes
}

// SetAssumeYes sets the -y/--yes flag value.
// This is used by the root command after parsing and by tests.
func SetAssumeYes(v bool) {
	assumeYes = v
}

// AssumeYesVar returns the variable the root command binds -y/--yes to.
func AssumeYesVar() *bool {
	return &assumeYes
}
