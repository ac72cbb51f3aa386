package config

import (
	"errors"
	"strings"
)

const kioskSeparator = "/hr_attendance/"

// ErrMalformedURL is returned for kiosk URLs without the /hr_attendance/
// separator. Networking stays halted until the URL is fixed.
var ErrMalformedURL = errors.New("invalid kiosk URL format")

// Endpoint is what a kiosk URL resolves to. It is always replaced as a
// whole so a base URL is never paired with another URL's token.
type Endpoint struct {
	BaseURL string
	Token   string
}

// Valid reports whether the endpoint was produced by a successful resolve.
func (e Endpoint) Valid() bool {
	return e.BaseURL != "" || e.Token != ""
}

// ResolveKioskURL splits <base>[/en]/hr_attendance/<token> on the first
// separator. Trailing slashes and the first "/en" are removed from the
// base; the token is taken verbatim.
func ResolveKioskURL(kioskURL string) (Endpoint, error) {
	base, token, found := strings.Cut(kioskURL, kioskSeparator)
	if !found {
		return Endpoint{}, ErrMalformedURL
	}
	base = strings.TrimRight(base, "/")
	// Removes the first "/en" anywhere, not only a locale segment.
	base = strings.Replace(base, "/en", "", 1)
	base = strings.TrimRight(base, "/")
	return Endpoint{BaseURL: base, Token: token}, nil
}
