package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-version"

	"github.com/nulzo/oneai-gateway/internal/cli"
)

// AppVersion is overridden at build time with -ldflags.
var AppVersion = "v0.1.0"

const ReleasesURL = "https://api.github.com/repos/nulzo/oneai-gateway/releases/latest"

type GitHubRelease struct {
	TagName string `json:"tag_name"`
}

// UpdateInfo compares the running build with the latest published release.
type UpdateInfo struct {
	Current  string
	Latest   string
	Outdated bool
}

// CheckForUpdates asks the release endpoint for the newest tag.
func CheckForUpdates(ctx context.Context, client *http.Client, releasesURL, current string) (*UpdateInfo, error) {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, releasesURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release lookup returned %d", resp.StatusCode)
	}

	var release GitHubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("decode release: %w", err)
	}

	currentVer, err := version.NewVersion(current)
	if err != nil {
		return nil, fmt.Errorf("parse current version %q: %w", current, err)
	}
	latestVer, err := version.NewVersion(release.TagName)
	if err != nil {
		return nil, fmt.Errorf("parse release tag %q: %w", release.TagName, err)
	}

	return &UpdateInfo{
		Current:  current,
		Latest:   release.TagName,
		Outdated: currentVer.LessThan(latestVer),
	}, nil
}

// UpdateNotice renders the banner printed when a newer release exists.
func UpdateNotice(info *UpdateInfo) string {
	if info == nil || !info.Outdated {
		return ""
	}
	rule := strings.Repeat("-", 57)
	return strings.Join([]string{
		rule,
		fmt.Sprintf("%s You are running an outdated version (%s).", cli.WarningSign(), info.Current),
		fmt.Sprintf("  The latest version is %s.", cli.Style(info.Latest, cli.Bold)),
		"  Please pull the latest image.",
		rule,
	}, "\n")
}
