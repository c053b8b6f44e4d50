// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

// Package wire defines the binary packet protocol exchanged between
// clients and the server. Each packet is a fixed-schema record: a kind
// byte followed by its fields in declared order. Optional fields carry
// a presence byte, so an absent value is never conflated with a present
// zero value.
//
// Delivery is a single type switch in the receiving component; the
// registry below only maps kind bytes to fresh instances for decoding.
package wire

import (
	"github.com/samber/oops"
)

// Kind tags a packet record type on the wire.
type Kind uint8

// Packet kinds. Wire-stable: never renumber.
const (
	KindHello Kind = iota + 1
	KindHelloResponse
	KindProfileAction
	KindProfileActionResponse
	KindWorldAction
	KindWorldActionResponse
	KindContextInteract
	KindMenuOption
	KindMenuOptionResponse
	KindUserMove
	KindUserManage
	KindNotificationReply
	KindContextJoin
	KindContextInfo
	KindUserInfo
	KindNotificationOut
	KindChatInfo
	KindChatUser
	KindAudioMessage
	KindUserTyping
	KindMenuOpen
	KindMenuClose
)

// Error codes for wire failures.
const (
	CodeTruncatedPacket = "TRUNCATED_PACKET"
	CodeUnknownKind     = "UNKNOWN_PACKET_KIND"
	CodeEmptyPacket     = "EMPTY_PACKET"
	CodeTrailingBytes   = "TRAILING_BYTES"
	CodeOversizeField   = "OVERSIZE_FIELD"
)

// Packet is one wire record. The unexported codec methods seal the
// packet set to this package.
type Packet interface {
	Kind() Kind
	encode(w *Writer)
	decode(r *Reader)
}

// factories maps kind bytes to fresh packet instances for decoding.
var factories = map[Kind]func() Packet{
	KindHello:                 func() Packet { return &Hello{} },
	KindHelloResponse:         func() Packet { return &HelloResponse{} },
	KindProfileAction:         func() Packet { return &ProfileAction{} },
	KindProfileActionResponse: func() Packet { return &ProfileActionResponse{} },
	KindWorldAction:           func() Packet { return &WorldAction{} },
	KindWorldActionResponse:   func() Packet { return &WorldActionResponse{} },
	KindContextInteract:       func() Packet { return &ContextInteract{} },
	KindMenuOption:            func() Packet { return &MenuOption{} },
	KindMenuOptionResponse:    func() Packet { return &MenuOptionResponse{} },
	KindUserMove:              func() Packet { return &UserMove{} },
	KindUserManage:            func() Packet { return &UserManage{} },
	KindNotificationReply:     func() Packet { return &NotificationReply{} },
	KindContextJoin:           func() Packet { return &ContextJoin{} },
	KindContextInfo:           func() Packet { return &ContextInfo{} },
	KindUserInfo:              func() Packet { return &UserInfo{} },
	KindNotificationOut:       func() Packet { return &NotificationOut{} },
	KindChatInfo:              func() Packet { return &ChatInfo{} },
	KindChatUser:              func() Packet { return &ChatUser{} },
	KindAudioMessage:          func() Packet { return &AudioMessage{} },
	KindUserTyping:            func() Packet { return &UserTyping{} },
	KindMenuOpen:              func() Packet { return &MenuOpen{} },
	KindMenuClose:             func() Packet { return &MenuClose{} },
}

// Encode serializes a packet to its wire form: kind byte + fields. A
// field exceeding the wire limits fails the whole packet, so every
// frame Encode produces decodes back field-for-field.
func Encode(p Packet) ([]byte, error) {
	var w Writer
	w.Uint8(uint8(p.Kind()))
	p.encode(&w)
	if err := w.Err(); err != nil {
		return nil, oops.With("kind", uint8(p.Kind())).Wrap(err)
	}
	return w.Bytes(), nil
}

// Decode parses one wire frame back into a typed packet. The frame
// must contain exactly one packet; trailing bytes are an error.
func Decode(frame []byte) (Packet, error) {
	if len(frame) == 0 {
		return nil, oops.Code(CodeEmptyPacket).Errorf("empty packet frame")
	}
	kind := Kind(frame[0])
	factory, ok := factories[kind]
	if !ok {
		return nil, oops.Code(CodeUnknownKind).
			With("kind", uint8(kind)).
			Errorf("unknown packet kind %d", kind)
	}
	p := factory()
	r := NewReader(frame[1:])
	p.decode(r)
	if err := r.Err(); err != nil {
		return nil, oops.With("kind", uint8(kind)).Wrap(err)
	}
	if r.Remaining() != 0 {
		return nil, oops.Code(CodeTrailingBytes).
			With("kind", uint8(kind)).
			With("remaining", r.Remaining()).
			Errorf("%d trailing bytes after packet", r.Remaining())
	}
	return p, nil
}
