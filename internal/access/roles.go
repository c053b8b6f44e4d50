// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

// Package access provides role assignment and permission resolution for
// the context tree. Roles are granted per context; a permission check
// at a context is satisfied by any role held there or at any ancestor,
// so permissions are inherited downward through the tree, never upward.
package access

// Role is a named permission bundle with a rank ordering.
type Role uint8

// Roles, ordered by rank. Owner outranks everything.
const (
	RoleMember Role = iota + 1
	RoleBot
	RoleRoomOwner
	RoleModerator
	RoleAdministrator
	RoleOwner
)

// String returns the lowercase role name.
func (r Role) String() string {
	switch r {
	case RoleMember:
		return "member"
	case RoleBot:
		return "bot"
	case RoleRoomOwner:
		return "room-owner"
	case RoleModerator:
		return "moderator"
	case RoleAdministrator:
		return "administrator"
	case RoleOwner:
		return "owner"
	default:
		return "unknown"
	}
}

// Outranks reports whether r is strictly above other in the ordering.
func (r Role) Outranks(other Role) bool {
	return r > other
}

// Permissions checked throughout the server. Patterns in role bundles
// are glob-compiled with ':' as separator.
const (
	PermChatText      = "chat:text"
	PermChatVoice     = "chat:voice"
	PermInteract      = "interact:use"
	PermRoomCreate    = "room:create"
	PermRoomManage    = "room:manage"
	PermRoomAdmit     = "room:admit"
	PermAreaReserve   = "area:reserve"
	PermAreaManage    = "area:manage"
	PermUserKick      = "user:kick"
	PermUserBan       = "user:ban"
	PermUserMute      = "user:mute"
	PermRoleAssign    = "role:assign"
	PermWorldManage   = "world:manage"
	PermBotManage     = "bot:manage"
	PermStreamControl = "stream:control"
)

var memberPowers = []string{
	PermChatText,
	PermChatVoice,
	PermInteract,
	PermRoomCreate,
	PermAreaReserve,
}

var botPowers = []string{
	PermChatText,
	PermChatVoice,
	PermInteract,
}

var roomOwnerPowers = []string{
	PermRoomManage,
	PermRoomAdmit,
	PermUserMute,
	PermStreamControl,
}

var moderatorPowers = []string{
	PermUserKick,
	PermUserMute,
	PermRoomAdmit,
	"area:*",
}

var administratorPowers = []string{
	"user:*",
	"room:*",
	"area:*",
	"role:assign",
	"bot:manage",
	"stream:*",
}

var ownerPowers = []string{
	"**",
}

// DefaultRoles returns the default role bundles. Bundles compose the
// power lists explicitly; there is no bundle inheritance.
func DefaultRoles() map[Role][]string {
	return map[Role][]string{
		RoleMember:        memberPowers,
		RoleBot:           botPowers,
		RoleRoomOwner:     compose(memberPowers, roomOwnerPowers),
		RoleModerator:     compose(memberPowers, moderatorPowers),
		RoleAdministrator: compose(memberPowers, moderatorPowers, administratorPowers),
		RoleOwner:         ownerPowers,
	}
}

// compose merges multiple permission slices into one.
func compose(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
