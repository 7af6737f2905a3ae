package opower

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/skortchmar/livewire/auth"
	interrors "github.com/skortchmar/livewire/internal/errors"
)

// Utility describes one opower-backed utility company and owns its login
// exchange, since every utility fronts opower with its own identity provider.
type Utility interface {
	// Name is the distinct recognizable name of the utility.
	Name() string

	// Subdomain is the opower.com subdomain serving the data API.
	Subdomain() string

	// Timezone is the IANA timezone the utility reports intervals in.
	Timezone() string

	// LoginDomain hosts the utility's login endpoints.
	LoginDomain() string

	// Login performs the utility's credential exchange and returns an opower
	// access token. prompt is invoked if and when the identity provider
	// demands a second factor.
	Login(ctx context.Context, t *Transport, username, password string, prompt auth.MFAPrompt) (string, error)
}

var (
	utilitiesMu sync.RWMutex
	utilities   = map[string]Utility{}
)

// RegisterUtility adds a utility under its lookup key (e.g. "coned").
func RegisterUtility(key string, u Utility) {
	utilitiesMu.Lock()
	defer utilitiesMu.Unlock()
	utilities[key] = u
}

// SelectUtility returns the registered utility for key.
func SelectUtility(key string) (Utility, error) {
	utilitiesMu.RLock()
	defer utilitiesMu.RUnlock()
	u, ok := utilities[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)",
			interrors.ErrUnknownUtility, key, strings.Join(supportedNamesLocked(), ", "))
	}
	return u, nil
}

// SupportedUtilityNames lists registered utility keys, sorted.
func SupportedUtilityNames() []string {
	utilitiesMu.RLock()
	defer utilitiesMu.RUnlock()
	return supportedNamesLocked()
}

func supportedNamesLocked() []string {
	names := make([]string, 0, len(utilities))
	for key := range utilities {
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}
