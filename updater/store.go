package updater

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrUnknownPlatform = errors.New("unknown platform")

// Platform selects which store answers the lookup
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

// ParsePlatform accepts "ios" or "android" in any case
func ParsePlatform(s string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case PlatformIOS:
		return PlatformIOS, nil
	case PlatformAndroid:
		return PlatformAndroid, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
}

// StoreRelease is the latest published build a store reports. ReleaseDate is
// empty when the store does not expose one.
type StoreRelease struct {
	Version     string
	ReleaseDate string
}

// Store looks up the latest release for a bundle identifier. Implementations
// log their failures and return nil instead of an error, leaving the retry
// decision to the Gate.
type Store interface {
	LatestRelease(ctx context.Context, bundleID string) *StoreRelease
}

const userAgent = "versiongate/1.0"

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func get(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error calling store: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}
	return resp, nil
}

// withQuery adds q to the query already present on base, if any
func withQuery(base string, q url.Values) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid store url %q: %w", base, err)
	}
	merged := u.Query()
	for k, vals := range q {
		merged[k] = vals
	}
	u.RawQuery = merged.Encode()
	return u.String(), nil
}
