// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package interact

import (
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Error codes for the interaction state machine.
const (
	CodeIllegalInteraction = "ILLEGAL_INTERACTION"
	CodeIllegalMenuAction  = "ILLEGAL_MENU_ACTION"
)

// ErrIllegalInteraction creates an error for an interaction attempt
// that is invalid in the object's current state (out of range, user
// busy elsewhere, unknown option code).
func ErrIllegalInteraction(contextID ulid.ULID, reason string) error {
	return oops.Code(CodeIllegalInteraction).
		With("context_id", contextID.String()).
		With("reason", reason).
		Errorf("illegal interaction with %s: %s", contextID, reason)
}

// ErrIllegalMenuAction creates an error for malformed arguments or a
// business-rule violation. It always carries a localizable message key
// plus optional format arguments for the client.
func ErrIllegalMenuAction(key string, args ...string) error {
	return oops.Code(CodeIllegalMenuAction).
		With("message_key", key).
		With("message_args", args).
		Errorf("menu action rejected: %s", key)
}

// MessageKey extracts the user-facing message key and arguments from an
// IllegalMenuAction error. Returns ok=false for other errors.
func MessageKey(err error) (key string, args []string, ok bool) {
	oopsErr, isOops := oops.AsOops(err)
	if !isOops {
		return "", nil, false
	}
	if oopsErr.Code() != CodeIllegalMenuAction {
		return "", nil, false
	}
	ctx := oopsErr.Context()
	key, _ = ctx["message_key"].(string)
	args, _ = ctx["message_args"].([]string)
	return key, args, key != ""
}
