// Package identity generates throwaway credentials for upstream account
// registration. Generation is pure: no I/O, safe to call any number of times.
package identity

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"
)

const (
	localPartRandomLen = 8
	passwordLen        = 12
	nameLen            = 6
)

const base36 = "abcdefghijklmnopqrstuvwxyz0123456789"

// Identity is a synthetic account used for a single registration attempt.
// It is never persisted past the attempt that created it.
type Identity struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Generator produces identities whose mailbox addresses belong to one of a
// fixed set of disposable-mail domains.
type Generator struct {
	domains []string
}

// NewGenerator creates a generator over the given mailbox domains.
func NewGenerator(domains []string) *Generator {
	return &Generator{domains: domains}
}

// Generate mints a fresh identity. The email local part combines a random
// base-36 fragment with a millisecond timestamp, which keeps collisions
// statistically negligible without global coordination.
func (g *Generator) Generate() Identity {
	local := randomString(localPartRandomLen) + strconv.FormatInt(time.Now().UnixMilli(), 10)
	domain := g.domains[rand.Intn(len(g.domains))]

	return Identity{
		Email:     fmt.Sprintf("%s@%s", local, domain),
		Password:  randomString(passwordLen),
		FirstName: randomString(nameLen),
		LastName:  randomString(nameLen),
	}
}

func randomString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = base36[rand.Intn(len(base36))]
	}
	return string(b)
}
