// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package wire

import (
	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
)

// ProtocolVersion is the protocol version this server speaks. Clients
// with the same major version are accepted.
const ProtocolVersion = "2.1.0"

// CodeIncompatibleVersion is the error code for a rejected handshake.
const CodeIncompatibleVersion = "INCOMPATIBLE_PROTOCOL_VERSION"

// CheckVersion validates a client's announced protocol version against
// the server's. Only a matching major version is compatible.
func CheckVersion(clientVersion string) error {
	server := semver.MustParse(ProtocolVersion)
	client, err := semver.NewVersion(clientVersion)
	if err != nil {
		return oops.Code(CodeIncompatibleVersion).
			With("client_version", clientVersion).
			Wrapf(err, "unparseable protocol version %q", clientVersion)
	}
	if client.Major() != server.Major() {
		return oops.Code(CodeIncompatibleVersion).
			With("client_version", clientVersion).
			With("server_version", ProtocolVersion).
			Errorf("protocol version %s is incompatible with server %s", clientVersion, ProtocolVersion)
	}
	return nil
}
