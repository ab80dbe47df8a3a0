package update

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/creativeprojects/go-selfupdate"

	"github.com/kcaldas/synopsis/pkg/version"
)

const (
	// GitHub repository for releases
	GitHubOwner = "kcaldas"
	GitHubRepo  = "synopsis"
)

// ErrNoReleases is returned when the repository has no published release
// for this platform.
var ErrNoReleases = errors.New("no releases found")

// Release describes the newest published build.
type Release struct {
	Version      string
	ReleaseNotes string
	AssetURL     string
}

// Info compares the running build with the newest release.
type Info struct {
	CurrentVersion string
	LatestVersion  string
	ReleaseNotes   string
	DownloadURL    string
	UpdateNeeded   bool
}

type releaseSource interface {
	Latest(ctx context.Context) (*Release, error)
	Apply(ctx context.Context) error
}

// Updater checks GitHub releases and replaces the running executable.
type Updater struct {
	source  releaseSource
	current string
}

// NewUpdater creates an updater for the kcaldas/synopsis releases, validated
// against the published checksums.
func NewUpdater() (*Updater, error) {
	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub source: %w", err)
	}

	updater, err := selfupdate.NewUpdater(selfupdate.Config{
		Source:    source,
		Validator: &selfupdate.ChecksumValidator{UniqueFilename: "checksums.txt"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create updater: %w", err)
	}

	return &Updater{
		source: &githubSource{
			updater:    updater,
			repository: selfupdate.NewRepositorySlug(GitHubOwner, GitHubRepo),
		},
		current: version.GetVersion(),
	}, nil
}

// Check reports whether a newer release than the running build exists.
func (u *Updater) Check(ctx context.Context) (*Info, error) {
	latest, err := u.source.Latest(ctx)
	if err != nil {
		return nil, err
	}

	needed, err := NeedsUpdate(u.current, latest.Version)
	if err != nil {
		return nil, err
	}

	return &Info{
		CurrentVersion: u.current,
		LatestVersion:  latest.Version,
		ReleaseNotes:   latest.ReleaseNotes,
		DownloadURL:    latest.AssetURL,
		UpdateNeeded:   needed,
	}, nil
}

// Update installs the latest release unless the running build is already
// current. force reinstalls regardless.
func (u *Updater) Update(ctx context.Context, force bool) (*Info, error) {
	info, err := u.Check(ctx)
	if err != nil {
		return nil, err
	}
	if !info.UpdateNeeded && !force {
		return info, nil
	}
	if err := u.source.Apply(ctx); err != nil {
		return info, err
	}
	return info, nil
}

// NeedsUpdate compares semantic versions. Development builds and versions
// that do not parse always need an update.
func NeedsUpdate(current, latest string) (bool, error) {
	latestVersion, err := semver.NewVersion(latest)
	if err != nil {
		return false, fmt.Errorf("invalid latest version %s: %w", latest, err)
	}

	switch current {
	case "", "dev", "development":
		return true, nil
	}
	currentVersion, err := semver.NewVersion(current)
	if err != nil {
		return true, nil
	}
	return latestVersion.GreaterThan(currentVersion), nil
}

type githubSource struct {
	updater    *selfupdate.Updater
	repository selfupdate.Repository
}

func (g *githubSource) detect(ctx context.Context) (*selfupdate.Release, error) {
	latest, found, err := g.updater.DetectLatest(ctx, g.repository)
	if err != nil {
		return nil, fmt.Errorf("failed to detect latest version: %w", err)
	}
	if !found {
		return nil, ErrNoReleases
	}
	return latest, nil
}

func (g *githubSource) Latest(ctx context.Context) (*Release, error) {
	latest, err := g.detect(ctx)
	if err != nil {
		return nil, err
	}
	return &Release{
		Version:      latest.Version(),
		ReleaseNotes: latest.ReleaseNotes,
		AssetURL:     latest.AssetURL,
	}, nil
}

func (g *githubSource) Apply(ctx context.Context) error {
	latest, err := g.detect(ctx)
	if err != nil {
		return err
	}
	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}
	if err := g.updater.UpdateTo(ctx, latest, exe); err != nil {
		return fmt.Errorf("update to %s failed: %w", latest.Version(), err)
	}
	return nil
}
