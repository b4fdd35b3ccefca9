// Package ident derives item identifiers from creation content.
//
// Identifiers are deterministic: the same title and creation timestamp
// always produce the same id, so two runs of the same script build
// byte-identical stores.
package ident

import (
	"crypto/sha256"
	"encoding/base32"
	"strconv"
	"time"
)

// Prefix marks Engram identifiers so external tools can recognize them.
const Prefix = "eg-"

// encoding is lowercase base32 with no padding. Eight hash bytes encode to
// 13 characters.
var encoding = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// New derives an id from a title and creation timestamp: "eg-" plus the
// base32 form of the first 64 bits of SHA-256 over "title|createdAtMillis".
func New(title string, createdAt time.Time) string {
	sum := sha256.Sum256([]byte(title + "|" + strconv.FormatInt(createdAt.UnixMilli(), 10)))
	return Prefix + encoding.EncodeToString(sum[:8])
}

// NewUnique derives an id, perturbing the creation timestamp by +1ms while
// exists reports a collision. It returns the id and the timestamp it was
// derived from; the caller must stamp the item with that timestamp so the
// id stays derivable from the record.
func NewUnique(title string, createdAt time.Time, exists func(id string) bool) (string, time.Time) {
	for {
		id := New(title, createdAt)
		if !exists(id) {
			return id, createdAt
		}
		createdAt = createdAt.Add(time.Millisecond)
	}
}
