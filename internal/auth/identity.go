package auth

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Kind distinguishes patient and doctor principals.
type Kind string

const (
	KindUser   Kind = "user"
	KindDoctor Kind = "doctor"
)

const doctorSubjectPrefix = "doctor_"

// Identity is an authenticated caller.
type Identity struct {
	Kind Kind
	ID   int64
}

// IsUser reports whether the identity is a patient account.
func (i Identity) IsUser() bool { return i.Kind == KindUser && i.ID > 0 }

// IsDoctor reports whether the identity is a doctor account.
func (i Identity) IsDoctor() bool { return i.Kind == KindDoctor && i.ID > 0 }

// UserKey is the string key used by per-user chat state and transcripts.
func (i Identity) UserKey() string {
	return strconv.FormatInt(i.ID, 10)
}

// Subject encodes the identity as a token subject.
func (i Identity) Subject() string {
	if i.Kind == KindDoctor {
		return fmt.Sprintf("%s%d", doctorSubjectPrefix, i.ID)
	}
	return strconv.FormatInt(i.ID, 10)
}

// ParseSubject decodes a token subject produced by Identity.Subject.
func ParseSubject(sub string) (Identity, error) {
	kind := KindUser
	raw := sub
	if strings.HasPrefix(sub, doctorSubjectPrefix) {
		kind = KindDoctor
		raw = strings.TrimPrefix(sub, doctorSubjectPrefix)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return Identity{}, ErrInvalidToken
	}
	return Identity{Kind: kind, ID: id}, nil
}

type contextKey string

const identityKey contextKey = "telehealth.identity"

// WithIdentity stores an authenticated identity on the context.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the identity set by the auth middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}
