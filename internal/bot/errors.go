// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package bot

import "github.com/samber/oops"

// Error codes for whispered bot commands.
const (
	codeUnknownCommand  = "UNKNOWN_BOT_COMMAND"
	codeMissingArgument = "MISSING_COMMAND_ARGUMENT"
	codeBadToggle       = "BAD_TOGGLE_ARGUMENT"
)

func errUnknownCommand(cmd string) error {
	return oops.
		Code(codeUnknownCommand).
		With("command", cmd).
		Errorf("unknown command %q", cmd)
}

func errMissingArgument(cmd string) error {
	return oops.
		Code(codeMissingArgument).
		With("command", cmd).
		Errorf("command %q needs an argument", cmd)
}

func errBadToggle(arg string) error {
	return oops.
		Code(codeBadToggle).
		With("argument", arg).
		Errorf("expected on or off, got %q", arg)
}
