package updater

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/waldirborbajr/versiongate/logger"
)

// AppStore queries the iTunes lookup API for iOS builds
type AppStore struct {
	BaseURL string
	Country string
	Client  *http.Client
	Log     zerolog.Logger
}

// NewAppStore builds an iOS adapter against baseURL (the lookup endpoint)
func NewAppStore(baseURL, country string, timeout time.Duration) *AppStore {
	return &AppStore{
		BaseURL: baseURL,
		Country: country,
		Client:  newHTTPClient(timeout),
		Log:     logger.GetLogger(),
	}
}

// Minimal struct to decode fields we need
type lookupResponse struct {
	ResultCount int `json:"resultCount"`
	Results     []struct {
		Version                   string `json:"version"`
		CurrentVersionReleaseDate string `json:"currentVersionReleaseDate"`
	} `json:"results"`
}

// LatestRelease returns the version and release date of the first lookup match
func (s *AppStore) LatestRelease(ctx context.Context, bundleID string) *StoreRelease {
	q := url.Values{}
	q.Set("bundleId", bundleID)
	if s.Country != "" {
		q.Set("country", s.Country)
	}
	lookupURL, err := withQuery(s.BaseURL, q)
	if err != nil {
		s.Log.Warn().Err(err).Str("bundle_id", bundleID).Msg("App Store lookup failed")
		return nil
	}

	resp, err := get(ctx, s.Client, lookupURL)
	if err != nil {
		s.Log.Warn().Err(err).Str("bundle_id", bundleID).Msg("App Store lookup failed")
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		s.Log.Warn().Err(err).Str("bundle_id", bundleID).Msg("Error decoding App Store lookup")
		return nil
	}
	if body.ResultCount == 0 || len(body.Results) == 0 {
		s.Log.Warn().Str("bundle_id", bundleID).Msg("App Store lookup returned no results")
		return nil
	}

	first := body.Results[0]
	if strings.TrimSpace(first.Version) == "" {
		s.Log.Warn().Str("bundle_id", bundleID).Msg("App Store result has no version")
		return nil
	}

	s.Log.Debug().
		Str("bundle_id", bundleID).
		Str("version", first.Version).
		Str("release_date", first.CurrentVersionReleaseDate).
		Msg("App Store release retrieved")
	return &StoreRelease{
		Version:     first.Version,
		ReleaseDate: first.CurrentVersionReleaseDate,
	}
}
