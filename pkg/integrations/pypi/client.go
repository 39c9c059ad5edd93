package pypi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/reqgraph/pkg/cache"
	"github.com/matzehuels/reqgraph/pkg/integrations"
)

// DefaultBaseURL is the PyPI JSON API root.
const DefaultBaseURL = "https://pypi.org/pypi"

// PackageInfo holds metadata for a Python package from PyPI.
//
// Name and Dependencies are PEP 503 normalized. Dependencies keep the order
// of requires_dist with duplicates and self-references removed.
type PackageInfo struct {
	Name         string   `json:"name"`
	DisplayName  string   `json:"display_name,omitempty"`
	Version      string   `json:"version,omitempty"`
	Summary      string   `json:"summary,omitempty"`
	License      string   `json:"license,omitempty"`
	HomePage     string   `json:"home_page,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// Options tunes dependency extraction.
type Options struct {
	// RuntimeOnly drops requirements gated behind an extra marker
	// (e.g. `pytest; extra == "test"`). By default every requirement is kept.
	RuntimeOnly bool
}

// Client provides access to the PyPI JSON API.
// All methods are safe for concurrent use.
type Client struct {
	*integrations.Client
	baseURL string
	opts    Options
}

// NewClient creates a PyPI client caching responses in backend for
// cacheTTL. Pass nil to disable caching.
func NewClient(backend cache.Cache, cacheTTL time.Duration, opts Options, clientOpts ...integrations.ClientOption) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "pypi", cacheTTL, nil, clientOpts...),
		baseURL: DefaultBaseURL,
		opts:    opts,
	}
}

// WithBaseURL points the client at another PyPI-compatible index.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

// FetchPackage retrieves metadata for a Python package.
//
// The name is normalized before lookup. If refresh is true the cached
// response is ignored.
//
// Returns [integrations.ErrNotFound] if the package does not exist and
// [integrations.ErrNetwork] for transport failures.
func (c *Client) FetchPackage(ctx context.Context, pkg string, refresh bool) (*PackageInfo, error) {
	pkg = integrations.NormalizePkgName(pkg)
	if pkg == "" {
		return nil, fmt.Errorf("%w: empty package name", integrations.ErrNotFound)
	}
	key := pkg
	if c.opts.RuntimeOnly {
		key += ":runtime"
	}

	var info PackageInfo
	err := c.Cached(ctx, key, refresh, &info, func() error {
		return c.fetch(ctx, pkg, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) fetch(ctx context.Context, pkg string, info *PackageInfo) error {
	var data apiResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/%s/json", c.baseURL, pkg), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: pypi package %s", err, pkg)
		}
		return err
	}

	*info = PackageInfo{
		Name:         pkg,
		DisplayName:  data.Info.Name,
		Version:      data.Info.Version,
		Summary:      data.Info.Summary,
		License:      extractLicenseType(data.Info.License, data.Info.Classifiers),
		HomePage:     data.Info.HomePage,
		Dependencies: ExtractDependencies(pkg, data.Info.RequiresDist, c.opts),
	}
	return nil
}

// ExtractDependencies turns requires_dist entries into normalized,
// de-duplicated dependency names. Entries that yield no valid name are
// skipped, as is any entry naming pkg itself.
func ExtractDependencies(pkg string, requires []string, opts Options) []string {
	self := integrations.NormalizePkgName(pkg)
	seen := make(map[string]bool)
	var deps []string
	for _, raw := range requires {
		req, ok := ParseRequirement(raw)
		if !ok {
			continue
		}
		if opts.RuntimeOnly && req.HasExtraMarker() {
			continue
		}
		if req.Name == self || seen[req.Name] {
			continue
		}
		seen[req.Name] = true
		deps = append(deps, req.Name)
	}
	return deps
}

type apiResponse struct {
	Info apiInfo `json:"info"`
}

type apiInfo struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Summary      string   `json:"summary"`
	License      string   `json:"license"`
	Classifiers  []string `json:"classifiers"`
	RequiresDist []string `json:"requires_dist"`
	HomePage     string   `json:"home_page"`
}

// extractLicenseType prefers the trove classifier
// ("License :: OSI Approved :: MIT License" -> "MIT License") and falls back
// to the first short line of the license field.
func extractLicenseType(license string, classifiers []string) string {
	for _, c := range classifiers {
		if strings.HasPrefix(c, "License :: ") {
			parts := strings.Split(c, " :: ")
			if len(parts) >= 3 {
				return parts[len(parts)-1]
			}
		}
	}
	if license != "" && len(license) < 100 && !strings.Contains(license, "\n") {
		return strings.TrimSpace(license)
	}
	if license != "" {
		first := strings.TrimSpace(strings.Split(license, "\n")[0])
		if len(first) < 50 {
			return first
		}
	}
	return ""
}
