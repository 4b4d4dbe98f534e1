// Package identity models the keys that identify board members.
//
// A member key is either confirmed (the subject issued by the token oracle) or
// provisional (derived from the email of someone invited before they ever signed in).
// Provisional keys are persisted in their legacy string form, so the encoding below is
// an external contract and must not change.
package identity

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// ProvisionalPrefix tags every provisional key.
	ProvisionalPrefix = "temp_"

	atMarker  = "_at_"
	dotMarker = "_dot_"
)

var (
	ErrInvalidEmail = errors.New("invalid email address")
	ErrInvalidKey   = errors.New("invalid identity key")
)

var validate = validator.New()

// Kind distinguishes confirmed and provisional keys.
type Kind uint8

const (
	KindConfirmed Kind = iota + 1
	KindProvisional
)

func (k Kind) String() string {
	switch k {
	case KindConfirmed:
		return "confirmed"
	case KindProvisional:
		return "provisional"
	default:
		return "unknown"
	}
}

// Key is a member key. The zero value is not a valid key.
type Key struct {
	kind Kind
	// subject for confirmed keys, email for provisional keys
	value string
}

// Confirmed builds a key from a subject issued by the token oracle.
func Confirmed(subject string) (Key, error) {
	if subject == "" || strings.HasPrefix(subject, ProvisionalPrefix) {
		return Key{}, ErrInvalidKey
	}
	return Key{kind: KindConfirmed, value: subject}, nil
}

// Provisional builds a key for an email that has no confirmed identity yet.
func Provisional(email string) (Key, error) {
	if err := ValidateEmail(email); err != nil {
		return Key{}, err
	}
	return Key{kind: KindProvisional, value: email}, nil
}

// Parse reads a key from its persisted form.
func Parse(wire string) (Key, error) {
	if strings.HasPrefix(wire, ProvisionalPrefix) {
		email, err := DecodeEmail(wire)
		if err != nil {
			return Key{}, err
		}
		return Key{kind: KindProvisional, value: email}, nil
	}
	return Confirmed(wire)
}

// MustParse is Parse for keys already known to be well formed.
func MustParse(wire string) Key {
	k, err := Parse(wire)
	if err != nil {
		panic(err)
	}
	return k
}

func (k Key) Kind() Kind { return k.kind }

func (k Key) IsZero() bool { return k.kind == 0 }

func (k Key) IsProvisional() bool { return k.kind == KindProvisional }

// Email returns the email a provisional key was derived from.
func (k Key) Email() (string, bool) {
	if k.kind != KindProvisional {
		return "", false
	}
	return k.value, true
}

// Subject returns the oracle subject of a confirmed key.
func (k Key) Subject() (string, bool) {
	if k.kind != KindConfirmed {
		return "", false
	}
	return k.value, true
}

// String returns the persisted form of the key.
func (k Key) String() string {
	switch k.kind {
	case KindConfirmed:
		return k.value
	case KindProvisional:
		return EncodeEmail(k.value)
	default:
		return ""
	}
}

// EncodeEmail derives the provisional key string for an email.
func EncodeEmail(email string) string {
	encoded := strings.ReplaceAll(email, "@", atMarker)
	encoded = strings.ReplaceAll(encoded, ".", dotMarker)
	return ProvisionalPrefix + encoded
}

// DecodeEmail inverts EncodeEmail. Keys that would not re-encode to themselves are
// rejected so that decoding is an exact inverse.
func DecodeEmail(key string) (string, error) {
	if !strings.HasPrefix(key, ProvisionalPrefix) {
		return "", ErrInvalidKey
	}
	decoded := strings.TrimPrefix(key, ProvisionalPrefix)
	decoded = strings.ReplaceAll(decoded, dotMarker, ".")
	decoded = strings.ReplaceAll(decoded, atMarker, "@")
	if decoded == "" || EncodeEmail(decoded) != key {
		return "", ErrInvalidKey
	}
	if err := validate.Var(decoded, "required,email"); err != nil {
		return "", ErrInvalidKey
	}
	return decoded, nil
}

// ValidateEmail accepts well-formed addresses whose provisional encoding round-trips.
// Addresses containing the marker sequences would collide with other addresses once
// encoded and are refused.
func ValidateEmail(email string) error {
	if email == "" || strings.TrimSpace(email) != email {
		return ErrInvalidEmail
	}
	if err := validate.Var(email, "required,email"); err != nil {
		return ErrInvalidEmail
	}
	if decoded, err := DecodeEmail(EncodeEmail(email)); err != nil || decoded != email {
		return ErrInvalidEmail
	}
	return nil
}

// NormalizeEmail trims and lowercases an address before it is turned into a key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
