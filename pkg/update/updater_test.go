package update

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	release  *Release
	err      error
	applyErr error
	applied  int
}

func (f *fakeSource) Latest(context.Context) (*Release, error) {
	return f.release, f.err
}

func (f *fakeSource) Apply(context.Context) error {
	f.applied++
	return f.applyErr
}

func TestNeedsUpdate(t *testing.T) {
	tests := []struct {
		current string
		latest  string
		want    bool
	}{
		{current: "dev", latest: "1.0.0", want: true},
		{current: "", latest: "1.0.0", want: true},
		{current: "not-a-version", latest: "1.0.0", want: true},
		{current: "1.0.0", latest: "1.0.1", want: true},
		{current: "v1.2.0", latest: "1.2.0", want: false},
		{current: "2.0.0", latest: "1.9.9", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.current+"->"+tt.latest, func(t *testing.T) {
			got, err := NeedsUpdate(tt.current, tt.latest)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := NeedsUpdate("1.0.0", "latest")
	assert.Error(t, err)
}

func TestUpdater_Check(t *testing.T) {
	source := &fakeSource{release: &Release{Version: "1.3.0", ReleaseNotes: "faster rounds"}}
	u := &Updater{source: source, current: "1.2.0"}

	info, err := u.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, info.UpdateNeeded)
	assert.Equal(t, "1.2.0", info.CurrentVersion)
	assert.Equal(t, "1.3.0", info.LatestVersion)
	assert.Equal(t, "faster rounds", info.ReleaseNotes)
	assert.Zero(t, source.applied)
}

func TestUpdater_Update(t *testing.T) {
	t.Run("current build is left alone", func(t *testing.T) {
		source := &fakeSource{release: &Release{Version: "1.2.0"}}
		u := &Updater{source: source, current: "1.2.0"}

		info, err := u.Update(context.Background(), false)
		require.NoError(t, err)
		assert.False(t, info.UpdateNeeded)
		assert.Zero(t, source.applied)
	})

	t.Run("force reinstalls", func(t *testing.T) {
		source := &fakeSource{release: &Release{Version: "1.2.0"}}
		u := &Updater{source: source, current: "1.2.0"}

		_, err := u.Update(context.Background(), true)
		require.NoError(t, err)
		assert.Equal(t, 1, source.applied)
	})

	t.Run("apply failure is returned", func(t *testing.T) {
		boom := errors.New("checksum mismatch")
		source := &fakeSource{release: &Release{Version: "2.0.0"}, applyErr: boom}
		u := &Updater{source: source, current: "1.0.0"}

		_, err := u.Update(context.Background(), false)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("missing release", func(t *testing.T) {
		u := &Updater{source: &fakeSource{err: ErrNoReleases}, current: "1.0.0"}
		_, err := u.Update(context.Background(), false)
		assert.ErrorIs(t, err, ErrNoReleases)
	})
}
