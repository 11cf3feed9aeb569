package updater

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/waldirborbajr/versiongate/logger"
	"golang.org/x/net/html"
)

const maxListingBytes = 4 << 20

// The listing page embeds the current version as [[["X.Y.Z"]]] inside one of
// its data callback scripts.
var listingVersionRe = regexp.MustCompile(`\[\[\["(\d+(?:\.\d+)+)"\]\]\]`)

// PlayStore scrapes the Google Play listing page for Android builds
type PlayStore struct {
	BaseURL string
	Client  *http.Client
	Log     zerolog.Logger
}

// NewPlayStore builds an Android adapter against baseURL (the details page)
func NewPlayStore(baseURL string, timeout time.Duration) *PlayStore {
	return &PlayStore{
		BaseURL: baseURL,
		Client:  newHTTPClient(timeout),
		Log:     logger.GetLogger(),
	}
}

// LatestRelease returns the first version token found on the listing page.
// Play does not publish a release date, so ReleaseDate stays empty.
func (s *PlayStore) LatestRelease(ctx context.Context, bundleID string) *StoreRelease {
	q := url.Values{}
	q.Set("id", bundleID)
	q.Set("hl", "en")
	listingURL, err := withQuery(s.BaseURL, q)
	if err != nil {
		s.Log.Warn().Err(err).Str("bundle_id", bundleID).Msg("Play Store lookup failed")
		return nil
	}

	resp, err := get(ctx, s.Client, listingURL)
	if err != nil {
		s.Log.Warn().Err(err).Str("bundle_id", bundleID).Msg("Play Store lookup failed")
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxListingBytes))
	if err != nil {
		s.Log.Warn().Err(err).Str("bundle_id", bundleID).Msg("Error reading Play Store listing")
		return nil
	}

	version := extractListingVersion(body)
	if version == "" {
		s.Log.Warn().Str("bundle_id", bundleID).Msg("No version found on Play Store listing")
		return nil
	}

	s.Log.Debug().Str("bundle_id", bundleID).Str("version", version).Msg("Play Store release retrieved")
	return &StoreRelease{Version: version}
}

// extractListingVersion looks in <script> bodies first and falls back to the
// raw document when the markup cannot be walked.
func extractListingVersion(body []byte) string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err == nil {
		var found string
		var traverse func(*html.Node)
		traverse = func(n *html.Node) {
			if found != "" {
				return
			}
			if n.Type == html.ElementNode && n.Data == "script" {
				if m := listingVersionRe.FindStringSubmatch(scriptText(n)); m != nil {
					found = m[1]
					return
				}
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				traverse(c)
			}
		}
		traverse(doc)
		if found != "" {
			return found
		}
	}

	if m := listingVersionRe.FindSubmatch(body); m != nil {
		return string(m[1])
	}
	return ""
}

func scriptText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}
