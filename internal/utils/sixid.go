package utils

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// SixID is a 6-byte entity ID, stored in MongoDB as BinData with custom
// subtype 0x80 and rendered as 10 characters of Crockford Base32.
type SixID [6]byte

// SixIDHookFunc lets tests override NewSixID to force collisions.
type SixIDHookFunc func() (id SixID, override bool)

// NewSixIDHook is consulted by NewSixID when set. Tests only.
var NewSixIDHook SixIDHookFunc

// NewSixID returns a random SixID.
func NewSixID() SixID {
	if NewSixIDHook != nil {
		if id, override := NewSixIDHook(); override {
			return id
		}
	}
	var id SixID
	if _, err := rand.Read(id[:]); err != nil {
		// A zero ID will collide on insert and be retried by db.Try.
		return SixID{}
	}
	return id
}

const crockfordAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var crockfordDecodeMap map[byte]byte

func init() {
	crockfordDecodeMap = make(map[byte]byte, 40)
	for i := range crockfordAlphabet {
		crockfordDecodeMap[crockfordAlphabet[i]] = byte(i)
	}
	lower := strings.ToLower(crockfordAlphabet)
	for i := range lower {
		if i >= 10 {
			crockfordDecodeMap[lower[i]] = byte(i)
		}
	}
	// Commonly confused characters.
	crockfordDecodeMap['o'] = crockfordDecodeMap['O']
	crockfordDecodeMap['i'] = crockfordDecodeMap['1']
	crockfordDecodeMap['l'] = crockfordDecodeMap['1']
}

// String returns the Crockford Base32 (uppercase) form of the ID.
func (u SixID) String() string {
	// 48 bits packs into 10 base32 characters.
	result := make([]byte, 0, 10)
	var bits, offset uint
	for i := 0; i < 6; i++ {
		bits |= uint(u[i]) << offset
		offset += 8
		for offset >= 5 {
			result = append(result, crockfordAlphabet[bits&0x1F])
			bits >>= 5
			offset -= 5
		}
	}
	if offset > 0 {
		result = append(result, crockfordAlphabet[bits&0x1F])
	}
	return string(result)
}

// ParseSixID decodes a Crockford Base32 string into a SixID. Hyphens and
// spaces are tolerated; the empty string parses to the zero ID.
func ParseSixID(s string) (SixID, error) {
	if s == "" {
		return SixID{}, nil
	}
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	if len(s) != 10 {
		return SixID{}, errors.New("invalid SixID: string length must be 10")
	}

	var bits uint64
	var offset uint
	var out SixID
	byteIndex := 0
	for i := 0; i < 10; i++ {
		val, ok := crockfordDecodeMap[s[i]]
		if !ok {
			return SixID{}, errors.New("invalid character in SixID")
		}
		bits |= uint64(val) << offset
		offset += 5
		for offset >= 8 && byteIndex < 6 {
			out[byteIndex] = byte(bits & 0xFF)
			byteIndex++
			bits >>= 8
			offset -= 8
		}
	}
	if byteIndex != 6 {
		return SixID{}, errors.New("invalid SixID: could not decode 6 bytes")
	}
	return out, nil
}

// MarshalBSONValue stores the ID as BinData subtype 0x80.
func (u SixID) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(primitive.Binary{Subtype: 0x80, Data: u[:]})
}

// UnmarshalBSONValue accepts BinData subtype 0x80 of length 6.
func (u *SixID) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t == bsontype.Null {
		*u = SixID{}
		return nil
	}
	if t != bsontype.Binary {
		return errors.New("invalid BSON type for SixID: expected binary")
	}
	subtype, bs, _, ok := bsoncore.ReadBinary(data)
	if !ok || subtype != 0x80 || len(bs) != 6 {
		return errors.New("invalid BSON binary data for SixID")
	}
	copy((*u)[:], bs)
	return nil
}

// MarshalJSON renders the ID as its Crockford Base32 string.
func (u SixID) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// UnmarshalJSON parses the Crockford Base32 string form.
func (u *SixID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseSixID(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
