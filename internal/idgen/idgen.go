// Package idgen generates short, URL-safe identifiers for refresh tasks,
// navigator sessions and archived snapshots.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for the identifier kinds handed out by the client.
const (
	RefreshPrefix  = "rf-"
	SessionPrefix  = "ss-"
	SnapshotPrefix = "sn-"
)

// Alphabet defines the character set used for the random portion of the ID.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 10

// Refresh returns an ID for a scheduled view refresh.
func Refresh() string { return mustGenerate(RefreshPrefix) }

// Session returns an ID for a navigator session.
func Session() string { return mustGenerate(SessionPrefix) }

// Snapshot returns an ID for an archived graph snapshot.
func Snapshot() string { return mustGenerate(SnapshotPrefix) }

// GenerateWithPrefix returns a new unique ID with the given prefix.
func GenerateWithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}

// mustGenerate panics only if the system random source fails.
func mustGenerate(prefix string) string {
	id, err := GenerateWithPrefix(prefix)
	if err != nil {
		panic(err)
	}
	return id
}
