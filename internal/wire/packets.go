// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package wire

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// ProfileActionKind selects a profile operation.
type ProfileActionKind uint8

// Profile actions.
const (
	ProfileRegister ProfileActionKind = iota + 1
	ProfileLogin
	ProfileLogout
	ProfileChangePassword
	ProfileChangeAvatar
	ProfileDelete
)

// WorldActionKind selects a world operation.
type WorldActionKind uint8

// World actions.
const (
	WorldJoin WorldActionKind = iota + 1
	WorldLeave
	WorldCreateRoom
	WorldRemoveRoom
	WorldRenameRoom
)

// ManageAction selects an administrative action on a user.
type ManageAction uint8

// Administrative actions.
const (
	ManageKick ManageAction = iota + 1
	ManageBan
	ManageMute
	ManageUnmute
	ManageReport
	ManageAssignModerator
	ManageWithdrawModerator
)

// ChatType classifies a user chat message.
type ChatType uint8

// Chat message types.
const (
	ChatSay ChatType = iota + 1
	ChatWhisper
	ChatShout
)

// UserInfoAction classifies an OutUserInfo update.
type UserInfoAction uint8

// User info actions.
const (
	UserInfoAdd UserInfoAction = iota + 1
	UserInfoUpdate
	UserInfoRemove
)

// UserInfo flag bits.
const (
	UserFlagFriend uint32 = 1 << iota
	UserFlagIgnored
	UserFlagReported
	UserFlagBot
)

// Hello opens a connection: the client announces its protocol version.
type Hello struct {
	Version string
}

// Kind implements Packet.
func (*Hello) Kind() Kind { return KindHello }

func (p *Hello) encode(w *Writer) {
	w.String(p.Version)
}

func (p *Hello) decode(r *Reader) {
	p.Version = r.String()
}

// HelloResponse accepts or rejects the client's protocol version.
type HelloResponse struct {
	ServerVersion string
	Message       *string
	Success       bool
}

// Kind implements Packet.
func (*HelloResponse) Kind() Kind { return KindHelloResponse }

func (p *HelloResponse) encode(w *Writer) {
	w.String(p.ServerVersion)
	w.OptString(p.Message)
	w.Bool(p.Success)
}

func (p *HelloResponse) decode(r *Reader) {
	p.ServerVersion = r.String()
	p.Message = r.OptString()
	p.Success = r.Bool()
}

// ProfileAction is a client request to operate on its account.
type ProfileAction struct {
	Action      ProfileActionKind
	Name        *string
	Password    *string
	NewPassword *string
	Avatar      *string
}

// Kind implements Packet.
func (*ProfileAction) Kind() Kind { return KindProfileAction }

func (p *ProfileAction) encode(w *Writer) {
	w.Uint8(uint8(p.Action))
	w.OptString(p.Name)
	w.OptString(p.Password)
	w.OptString(p.NewPassword)
	w.OptString(p.Avatar)
}

func (p *ProfileAction) decode(r *Reader) {
	p.Action = ProfileActionKind(r.Uint8())
	p.Name = r.OptString()
	p.Password = r.OptString()
	p.NewPassword = r.OptString()
	p.Avatar = r.OptString()
}

// ProfileActionResponse echoes the originating action with an outcome.
type ProfileActionResponse struct {
	Action  ProfileActionKind
	Message *string
	Success bool
}

// Kind implements Packet.
func (*ProfileActionResponse) Kind() Kind { return KindProfileActionResponse }

func (p *ProfileActionResponse) encode(w *Writer) {
	w.Uint8(uint8(p.Action))
	w.OptString(p.Message)
	w.Bool(p.Success)
}

func (p *ProfileActionResponse) decode(r *Reader) {
	p.Action = ProfileActionKind(r.Uint8())
	p.Message = r.OptString()
	p.Success = r.Bool()
}

// WorldAction is a client request to operate on a world or room.
type WorldAction struct {
	Action    WorldActionKind
	ContextID *ulid.ULID
	Map       *string
	Name      *string
}

// Kind implements Packet.
func (*WorldAction) Kind() Kind { return KindWorldAction }

func (p *WorldAction) encode(w *Writer) {
	w.Uint8(uint8(p.Action))
	w.OptULID(p.ContextID)
	w.OptString(p.Map)
	w.OptString(p.Name)
}

func (p *WorldAction) decode(r *Reader) {
	p.Action = WorldActionKind(r.Uint8())
	p.ContextID = r.OptULID()
	p.Map = r.OptString()
	p.Name = r.OptString()
}

// WorldActionResponse echoes the originating action with an outcome.
type WorldActionResponse struct {
	Action    WorldActionKind
	ContextID *ulid.ULID
	Message   *string
	Success   bool
}

// Kind implements Packet.
func (*WorldActionResponse) Kind() Kind { return KindWorldActionResponse }

func (p *WorldActionResponse) encode(w *Writer) {
	w.Uint8(uint8(p.Action))
	w.OptULID(p.ContextID)
	w.OptString(p.Message)
	w.Bool(p.Success)
}

func (p *WorldActionResponse) decode(r *Reader) {
	p.Action = WorldActionKind(r.Uint8())
	p.ContextID = r.OptULID()
	p.Message = r.OptString()
	p.Success = r.Bool()
}

// ContextInteract begins an interaction with an object context.
type ContextInteract struct {
	ContextID ulid.ULID
}

// Kind implements Packet.
func (*ContextInteract) Kind() Kind { return KindContextInteract }

func (p *ContextInteract) encode(w *Writer) {
	w.ULID(p.ContextID)
}

func (p *ContextInteract) decode(r *Reader) {
	p.ContextID = r.ULID()
}

// MenuOption executes one labeled action of an object's menu.
type MenuOption struct {
	ContextID ulid.ULID
	Arguments []string
	Option    int32
}

// Kind implements Packet.
func (*MenuOption) Kind() Kind { return KindMenuOption }

func (p *MenuOption) encode(w *Writer) {
	w.ULID(p.ContextID)
	w.StringSlice(p.Arguments)
	w.Int32(p.Option)
}

func (p *MenuOption) decode(r *Reader) {
	p.ContextID = r.ULID()
	p.Arguments = r.StringSlice()
	p.Option = r.Int32()
}

// MenuOptionResponse wraps the originating option with an outcome.
type MenuOptionResponse struct {
	ContextID ulid.ULID
	Arguments []string
	Option    int32
	Message   *string
	Success   bool
}

// Kind implements Packet.
func (*MenuOptionResponse) Kind() Kind { return KindMenuOptionResponse }

func (p *MenuOptionResponse) encode(w *Writer) {
	w.ULID(p.ContextID)
	w.StringSlice(p.Arguments)
	w.Int32(p.Option)
	w.OptString(p.Message)
	w.Bool(p.Success)
}

func (p *MenuOptionResponse) decode(r *Reader) {
	p.ContextID = r.ULID()
	p.Arguments = r.StringSlice()
	p.Option = r.Int32()
	p.Message = r.OptString()
	p.Success = r.Bool()
}

// UserMove is symmetric: a client sends its target position; the server
// broadcasts a user's new position with the populated optional fields.
type UserMove struct {
	UserID    *ulid.ULID
	X         float64
	Y         float64
	Direction *uint8
}

// Kind implements Packet.
func (*UserMove) Kind() Kind { return KindUserMove }

func (p *UserMove) encode(w *Writer) {
	w.OptULID(p.UserID)
	w.Float64(p.X)
	w.Float64(p.Y)
	w.OptUint8(p.Direction)
}

func (p *UserMove) decode(r *Reader) {
	p.UserID = r.OptULID()
	p.X = r.Float64()
	p.Y = r.Float64()
	p.Direction = r.OptUint8()
}

// UserManage is an administrative action on another user.
type UserManage struct {
	UserID  ulid.ULID
	Action  ManageAction
	Message *string
}

// Kind implements Packet.
func (*UserManage) Kind() Kind { return KindUserManage }

func (p *UserManage) encode(w *Writer) {
	w.ULID(p.UserID)
	w.Uint8(uint8(p.Action))
	w.OptString(p.Message)
}

func (p *UserManage) decode(r *Reader) {
	p.UserID = r.ULID()
	p.Action = ManageAction(r.Uint8())
	p.Message = r.OptString()
}

// NotificationReply resolves a pending notification.
type NotificationReply struct {
	NotificationID ulid.ULID
	Accept         bool
}

// Kind implements Packet.
func (*NotificationReply) Kind() Kind { return KindNotificationReply }

func (p *NotificationReply) encode(w *Writer) {
	w.ULID(p.NotificationID)
	w.Bool(p.Accept)
}

func (p *NotificationReply) decode(r *Reader) {
	p.NotificationID = r.ULID()
	p.Accept = r.Bool()
}

// ContextJoin tells the client it entered or left a context. A present
// map means "join"; an absent map means "leave".
type ContextJoin struct {
	ContextID ulid.ULID
	Map       *string
}

// Kind implements Packet.
func (*ContextJoin) Kind() Kind { return KindContextJoin }

func (p *ContextJoin) encode(w *Writer) {
	w.ULID(p.ContextID)
	w.OptString(p.Map)
}

func (p *ContextJoin) decode(r *Reader) {
	p.ContextID = r.ULID()
	p.Map = r.OptString()
}

// ContextInfo updates the client's view of a context.
type ContextInfo struct {
	ContextID    ulid.ULID
	Music        *string
	MutedUserIDs []ulid.ULID
}

// Kind implements Packet.
func (*ContextInfo) Kind() Kind { return KindContextInfo }

func (p *ContextInfo) encode(w *Writer) {
	w.ULID(p.ContextID)
	w.OptString(p.Music)
	w.ULIDSlice(p.MutedUserIDs)
}

func (p *ContextInfo) decode(r *Reader) {
	p.ContextID = r.ULID()
	p.Music = r.OptString()
	p.MutedUserIDs = r.ULIDSlice()
}

// UserInfo updates the client's view of a user.
type UserInfo struct {
	ContextID    *ulid.ULID
	UserID       ulid.ULID
	Action       UserInfoAction
	Name         *string
	Avatar       *string
	Status       *uint8
	Teleportable bool
	Flags        uint32
}

// Kind implements Packet.
func (*UserInfo) Kind() Kind { return KindUserInfo }

func (p *UserInfo) encode(w *Writer) {
	w.OptULID(p.ContextID)
	w.ULID(p.UserID)
	w.Uint8(uint8(p.Action))
	w.OptString(p.Name)
	w.OptString(p.Avatar)
	w.OptUint8(p.Status)
	w.Bool(p.Teleportable)
	w.Uint32(p.Flags)
}

func (p *UserInfo) decode(r *Reader) {
	p.ContextID = r.OptULID()
	p.UserID = r.ULID()
	p.Action = UserInfoAction(r.Uint8())
	p.Name = r.OptString()
	p.Avatar = r.OptString()
	p.Status = r.OptUint8()
	p.Teleportable = r.Bool()
	p.Flags = r.Uint32()
}

// NotificationOut delivers a notification to its receiver.
type NotificationOut struct {
	ID          ulid.ULID
	ContextID   ulid.ULID
	MessageKey  string
	MessageArgs []string
	Timestamp   time.Time
	IsRequest   bool
}

// Kind implements Packet.
func (*NotificationOut) Kind() Kind { return KindNotificationOut }

func (p *NotificationOut) encode(w *Writer) {
	w.ULID(p.ID)
	w.ULID(p.ContextID)
	w.String(p.MessageKey)
	w.StringSlice(p.MessageArgs)
	w.Time(p.Timestamp)
	w.Bool(p.IsRequest)
}

func (p *NotificationOut) decode(r *Reader) {
	p.ID = r.ULID()
	p.ContextID = r.ULID()
	p.MessageKey = r.String()
	p.MessageArgs = r.StringSlice()
	p.Timestamp = r.Time()
	p.IsRequest = r.Bool()
}

// ChatInfo is a localizable system message.
type ChatInfo struct {
	MessageKey  string
	MessageArgs []string
	Timestamp   time.Time
}

// Kind implements Packet.
func (*ChatInfo) Kind() Kind { return KindChatInfo }

func (p *ChatInfo) encode(w *Writer) {
	w.String(p.MessageKey)
	w.StringSlice(p.MessageArgs)
	w.Time(p.Timestamp)
}

func (p *ChatInfo) decode(r *Reader) {
	p.MessageKey = r.String()
	p.MessageArgs = r.StringSlice()
	p.Timestamp = r.Time()
}

// ChatUser is a chat message authored by a user. The sender id is
// absent client→server and populated by the server on delivery.
type ChatUser struct {
	Type      ChatType
	SenderID  *ulid.ULID
	Text      string
	Timestamp time.Time
}

// Kind implements Packet.
func (*ChatUser) Kind() Kind { return KindChatUser }

func (p *ChatUser) encode(w *Writer) {
	w.Uint8(uint8(p.Type))
	w.OptULID(p.SenderID)
	w.String(p.Text)
	w.Time(p.Timestamp)
}

func (p *ChatUser) decode(r *Reader) {
	p.Type = ChatType(r.Uint8())
	p.SenderID = r.OptULID()
	p.Text = r.String()
	p.Timestamp = r.Time()
}

// AudioMessage carries one audio chunk. Position and distance are
// populated only server→client for spatial playback; senderless chunks
// are object-originated (music streamers).
type AudioMessage struct {
	SenderID  *ulid.ULID
	Timestamp *time.Time
	Payload   []byte
	PosX      *float64
	PosY      *float64
	Distance  *float64
}

// Kind implements Packet.
func (*AudioMessage) Kind() Kind { return KindAudioMessage }

func (p *AudioMessage) encode(w *Writer) {
	w.OptULID(p.SenderID)
	w.OptTime(p.Timestamp)
	w.Bytes32(p.Payload)
	w.OptFloat64(p.PosX)
	w.OptFloat64(p.PosY)
	w.OptFloat64(p.Distance)
}

func (p *AudioMessage) decode(r *Reader) {
	p.SenderID = r.OptULID()
	p.Timestamp = r.OptTime()
	p.Payload = r.Bytes32()
	p.PosX = r.OptFloat64()
	p.PosY = r.OptFloat64()
	p.Distance = r.OptFloat64()
}

// MenuOpen tells the client to open an object's menu.
type MenuOpen struct {
	ContextID ulid.ULID
	MenuID    int32
}

// Kind implements Packet.
func (*MenuOpen) Kind() Kind { return KindMenuOpen }

func (p *MenuOpen) encode(w *Writer) {
	w.ULID(p.ContextID)
	w.Int32(p.MenuID)
}

func (p *MenuOpen) decode(r *Reader) {
	p.ContextID = r.ULID()
	p.MenuID = r.Int32()
}

// MenuClose tells the client to close an object's menu.
type MenuClose struct {
	ContextID ulid.ULID
}

// Kind implements Packet.
func (*MenuClose) Kind() Kind { return KindMenuClose }

func (p *MenuClose) encode(w *Writer) {
	w.ULID(p.ContextID)
}

func (p *MenuClose) decode(r *Reader) {
	p.ContextID = r.ULID()
}

// UserTyping signals that a user started typing. The sender id is
// absent client→server and populated on rebroadcast.
type UserTyping struct {
	SenderID *ulid.ULID
}

// Kind implements Packet.
func (*UserTyping) Kind() Kind { return KindUserTyping }

func (p *UserTyping) encode(w *Writer) {
	w.OptULID(p.SenderID)
}

func (p *UserTyping) decode(r *Reader) {
	p.SenderID = r.OptULID()
}
