/*
github.com/tcrain/nakxfer - Reliable bulk data transfer over UDP.
Copyright (C) 2020 The project authors - tcrain

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.

*/

package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// DigestType is the hash used for the end to end payload comparison.
type DigestType int

const (
	SHA256  DigestType = iota // output matches sha256sum
	BLAKE2B                   // blake2b-256
)

// AllDigestTypes is the list of supported digests.
var AllDigestTypes = []DigestType{SHA256, BLAKE2B}

func (dt DigestType) String() string {
	switch dt {
	case SHA256:
		return "sha256"
	case BLAKE2B:
		return "blake2b"
	default:
		return fmt.Sprintf("DigestType%d", dt)
	}
}

// IsValid returns true if dt is a supported digest.
func (dt DigestType) IsValid() bool {
	return dt == SHA256 || dt == BLAKE2B
}

// ParseDigestType converts the output of DigestType.String back to a DigestType.
func ParseDigestType(s string) (DigestType, error) {
	for _, dt := range AllDigestTypes {
		if strings.EqualFold(s, dt.String()) {
			return dt, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDigestType, s)
}

// MarshalText stores the digest type by name in the options files.
func (dt DigestType) MarshalText() ([]byte, error) {
	if !dt.IsValid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDigestType, int(dt))
	}
	return []byte(dt.String()), nil
}

// UnmarshalText parses the digest type name.
func (dt *DigestType) UnmarshalText(text []byte) (err error) {
	*dt, err = ParseDigestType(string(text))
	return
}

// GetNewHash returns a new hash object of type dt.
func (dt DigestType) GetNewHash() hash.Hash {
	switch dt {
	case BLAKE2B:
		h, err := blake2b.New256(nil)
		if err != nil {
			panic(err)
		}
		return h
	case SHA256:
		return sha256.New()
	default:
		panic(dt)
	}
}

// Digest returns the hex encoded hash of v.
func (dt DigestType) Digest(v []byte) string {
	h := dt.GetNewHash()
	h.Write(v)
	return hex.EncodeToString(h.Sum(nil))
}
