// Package origin canonicalizes user-entered URLs and derives web origins.
package origin

import (
	"errors"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"

	"github.com/sitewrap/sitewrap/internal/shared/types"
)

// Errors returned by Normalize. They are wrapped in an InvalidInput error.
var (
	ErrEmpty         = errors.New("Please enter a URL")
	ErrInvalid       = errors.New("Please enter a valid URL")
	ErrUnsupported   = errors.New("Only http and https URLs are supported")
	ErrMissingHost   = errors.New("The URL must include a host")
	errOriginUnknown = errors.New("URL has no origin")
)

var hostProfile = idna.New(
	idna.MapForLookup(),
	idna.StrictDomainName(false),
	idna.BidiRule(),
)

// Opaque is the serialization of an origin that has no scheme/host/port
// tuple, such as mailto:, data: or file: URLs. It never equals another origin.
const Opaque = "null"

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// tupleSchemes have a scheme/host/port origin
var tupleSchemes = map[string]string{
	"http":  "80",
	"https": "443",
	"ws":    "80",
	"wss":   "443",
	"ftp":   "21",
}

// Normalize turns user input into an absolute http(s) URL.
//
// Input without an http:// or https:// prefix gets https:// prepended. The
// host is converted to lowercase ASCII and an empty path becomes "/".
func Normalize(input string) (*url.URL, error) {
	const op = "origin.normalize"

	raw := strings.TrimSpace(input)
	if raw == "" {
		return nil, &types.Error{Kind: types.KindInvalidInput, Op: op, Field: "url", Err: ErrEmpty}
	}

	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		if hasForeignScheme(lower) {
			return nil, &types.Error{Kind: types.KindInvalidInput, Op: op, Field: "url", Err: ErrUnsupported}
		}
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, &types.Error{Kind: types.KindInvalidInput, Op: op, Field: "url", Err: ErrInvalid}
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if _, ok := defaultPorts[u.Scheme]; !ok {
		return nil, &types.Error{Kind: types.KindInvalidInput, Op: op, Field: "url", Err: ErrUnsupported}
	}

	host, err := canonicalHost(u.Hostname())
	if err != nil {
		return nil, &types.Error{Kind: types.KindInvalidInput, Op: op, Field: "url", Err: ErrInvalid}
	}
	if host == "" {
		return nil, &types.Error{Kind: types.KindInvalidInput, Op: op, Field: "url", Err: ErrMissingHost}
	}

	port := u.Port()
	if port == defaultPorts[u.Scheme] {
		port = ""
	}
	u.Host = joinHost(host, port)

	if u.Path == "" && u.Opaque == "" {
		u.Path = "/"
	}
	return u, nil
}

// Of returns the ASCII serialization of the URL's origin:
// scheme://host with the port omitted when it is the scheme default.
// URLs without a host, or with a scheme other than http, https, ws, wss
// or ftp, have an Opaque origin.
func Of(u *url.URL) string {
	if u == nil {
		return ""
	}
	scheme := strings.ToLower(u.Scheme)
	defaultPort, ok := tupleSchemes[scheme]
	if !ok || u.Hostname() == "" {
		return Opaque
	}
	host, err := canonicalHost(u.Hostname())
	if err != nil {
		host = strings.ToLower(u.Hostname())
	}
	port := u.Port()
	if port == defaultPort {
		port = ""
	}
	return scheme + "://" + joinHost(host, port)
}

// OfString parses raw and returns its origin. Relative references have no
// origin and return an error; absolute URLs without a host are Opaque.
func OfString(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if u.Scheme == "" {
		return "", errOriginUnknown
	}
	return Of(u), nil
}

// ParseOriginInput parses text typed into an origin field. Text that does not
// parse as an absolute URL is retried with https:// prepended.
func ParseOriginInput(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &types.Error{Kind: types.KindInvalidInput, Op: "origin.parse", Field: "origin", Err: ErrEmpty}
	}
	if o, err := OfString(text); err == nil && o != Opaque {
		return o, nil
	}
	o, err := OfString("https://" + text)
	if err != nil || o == Opaque {
		return "", &types.Error{Kind: types.KindInvalidInput, Op: "origin.parse", Field: "origin", Err: ErrInvalid}
	}
	return o, nil
}

// hasForeignScheme reports an explicit scheme://, such as ftp:// or file://
func hasForeignScheme(lower string) bool {
	i := strings.Index(lower, "://")
	if i <= 0 {
		return false
	}
	for j, r := range lower[:i] {
		switch {
		case r >= 'a' && r <= 'z':
		case j > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

func canonicalHost(host string) (string, error) {
	if host == "" {
		return "", nil
	}
	if ip := net.ParseIP(host); ip != nil {
		return strings.ToLower(host), nil
	}
	ascii, err := hostProfile.ToASCII(host)
	if err != nil {
		return "", err
	}
	return strings.ToLower(ascii), nil
}

func joinHost(host, port string) string {
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port == "" {
		return host
	}
	return host + ":" + port
}
