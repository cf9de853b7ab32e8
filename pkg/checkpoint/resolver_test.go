package checkpoint

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"energystats/pkg/logger"
	"energystats/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func london(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	return loc
}

// recordingListing wraps a Listing and remembers which directories were listed.
type recordingListing struct {
	storage.Listing
	dirs []string
	err  error
}

func (r *recordingListing) List(dir string) ([]string, error) {
	r.dirs = append(r.dirs, dir)
	if r.err != nil {
		return nil, r.err
	}
	return r.Listing.List(dir)
}

func newResolver(files map[string]string) (*Resolver, *recordingListing) {
	listing := &recordingListing{Listing: storage.NewMemoryStore(files)}
	return NewResolver(listing, logger.NewTestLogger()), listing
}

func TestResolveRecentCheckpoint(t *testing.T) {
	loc := london(t)
	resolver, listing := newResolver(map[string]string{
		"2023/11/29/23-30": "",
		"2023/11/30/23-30": "",
		"2023/12/01/20-00": "",
	})

	got, ok, err := resolver.Resolve(time.Date(2023, 12, 3, 3, 0, 0, 0, time.UTC), loc)
	require.NoError(t, err)
	require.True(t, ok)

	want := time.Date(2023, 12, 1, 20, 0, 0, 0, loc)
	assert.True(t, want.Equal(got), "got %s, want %s", got, want)
	assert.Equal(t, loc, got.Location())
	assert.Equal(t, []string{"2023/12/03", "2023/12/02", "2023/12/01"}, listing.dirs)
}

func TestResolveNoFiles(t *testing.T) {
	resolver, listing := newResolver(map[string]string{})

	got, ok, err := resolver.Resolve(time.Date(2023, 12, 3, 3, 0, 0, 0, time.UTC), london(t))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, got.IsZero())
	assert.Len(t, listing.dirs, 365)
}

func TestResolveLookbackBound(t *testing.T) {
	loc := london(t)
	// 2024-03-01 minus one year is 2023-03-01; the window is 2023-03-02..2024-03-01
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("leap year window scans 366 days", func(t *testing.T) {
		resolver, listing := newResolver(map[string]string{})
		_, ok, err := resolver.Resolve(now, loc)
		require.NoError(t, err)
		assert.False(t, ok)
		require.Len(t, listing.dirs, 366)
		assert.Equal(t, "2024/03/01", listing.dirs[0])
		assert.Equal(t, "2023/03/02", listing.dirs[len(listing.dirs)-1])
	})

	t.Run("entry exactly one year back is outside the window", func(t *testing.T) {
		resolver, _ := newResolver(map[string]string{"2023/03/01/23-30": ""})
		_, ok, err := resolver.Resolve(now, loc)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("entry on the oldest day in the window is found", func(t *testing.T) {
		resolver, _ := newResolver(map[string]string{"2023/03/02/00-30": ""})
		got, ok, err := resolver.Resolve(now, loc)
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, time.Date(2023, 3, 2, 0, 30, 0, 0, loc).Equal(got))
	})
}

func TestResolveStopsAtFirstUsableDay(t *testing.T) {
	loc := london(t)
	resolver, listing := newResolver(map[string]string{
		"2023/12/02/not-a-time": "",
		"2023/12/01/22-00":      "",
		"2023/11/30/23-30":      "",
	})

	got, ok, err := resolver.Resolve(time.Date(2023, 12, 2, 9, 0, 0, 0, time.UTC), loc)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, time.Date(2023, 12, 1, 22, 0, 0, 0, loc).Equal(got))
	// the unparsable-only day is skipped just like an empty one
	assert.Equal(t, []string{"2023/12/02", "2023/12/01"}, listing.dirs)
}

func TestResolveIsIdempotent(t *testing.T) {
	loc := london(t)
	resolver, _ := newResolver(map[string]string{"2023/12/01/20-00": "", "2023/12/01/21-30": ""})
	now := time.Date(2023, 12, 3, 3, 0, 0, 0, time.UTC)

	first, ok1, err1 := resolver.Resolve(now, loc)
	second, ok2, err2 := resolver.Resolve(now, loc)

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, ok1, ok2)
	assert.True(t, first.Equal(second))
}

func TestResolveUsesUTCDate(t *testing.T) {
	resolver, listing := newResolver(map[string]string{})
	// 00:30 on the 4th in Paris is still the 3rd in UTC
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	_, _, err = resolver.Resolve(time.Date(2023, 12, 4, 0, 30, 0, 0, paris), paris)
	require.NoError(t, err)
	assert.Equal(t, "2023/12/03", listing.dirs[0])
}

func TestResolvePropagatesListingErrors(t *testing.T) {
	boom := errors.New("disk on fire")
	listing := &recordingListing{Listing: storage.NewMemoryStore(nil), err: boom}
	resolver := NewResolver(listing, logger.NewTestLogger())

	_, ok, err := resolver.Resolve(time.Date(2023, 12, 3, 3, 0, 0, 0, time.UTC), london(t))
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, listing.dirs, 1, "no retries after a listing failure")
}

func TestLatestProcessed(t *testing.T) {
	loc := london(t)
	day := time.Date(2023, 12, 21, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		files  map[string]string
		want   time.Time
		wantOK bool
	}{
		{
			name:   "empty partition",
			files:  map[string]string{"2023/12/20/23-30": ""},
			wantOK: false,
		},
		{
			name:   "picks the latest entry",
			files:  map[string]string{"2023/12/21/21-00": "", "2023/12/21/23-30": ""},
			want:   time.Date(2023, 12, 21, 23, 30, 0, 0, loc),
			wantOK: true,
		},
		{
			name:   "only unparsable entries",
			files:  map[string]string{"2023/12/21/garbage": "", "2023/12/21/23-30.tmp": ""},
			wantOK: false,
		},
		{
			name: "unparsable entries never win",
			files: map[string]string{
				"2023/12/21/garbage": "",
				"2023/12/21/06-15":   "",
				"2023/12/21/99-99":   "",
			},
			want:   time.Date(2023, 12, 21, 6, 15, 0, 0, loc),
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver, _ := newResolver(tt.files)
			got, ok, err := resolver.LatestProcessed(day, loc)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
			} else {
				assert.True(t, got.IsZero())
			}
		})
	}
}

func TestLatestProcessedLogsUnparsableEntries(t *testing.T) {
	log := logger.NewTestLogger()
	resolver := NewResolver(storage.NewMemoryStore(map[string]string{"2023/12/21/garbage": ""}), log)

	_, ok, err := resolver.LatestProcessed(time.Date(2023, 12, 21, 0, 0, 0, 0, time.UTC), london(t))
	require.NoError(t, err)
	assert.False(t, ok)

	warnings := log.GetMessagesByLevel("WARN")
	require.Len(t, warnings, 1)
	assert.Equal(t, "2023/12/21/garbage", warnings[0].Fields["entry"])
}

func TestLatestProcessedFromFileStore(t *testing.T) {
	loc := london(t)
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Write("2023/12/21/21-00", []byte("[]")))
	require.NoError(t, store.Write("2023/12/21/23-30", []byte("[]")))

	resolver := NewResolver(store, logger.NewTestLogger())
	got, ok, err := resolver.LatestProcessed(time.Date(2023, 12, 21, 0, 0, 0, 0, time.UTC), loc)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, time.Date(2023, 12, 21, 23, 30, 0, 0, loc).Equal(got))
}

func TestLayout(t *testing.T) {
	loc := london(t)
	ts := time.Date(2024, 1, 2, 7, 5, 0, 0, loc)

	assert.Equal(t, "2024/01/02", DirKey(ts))
	assert.Equal(t, "2024/01/02/07-05", EntryName(ts))

	parsed, err := ParseEntry("2024/01/02/07-05", loc)
	require.NoError(t, err)
	assert.True(t, ts.Equal(parsed))

	_, err = ParseEntry("2024/1/2/7-5", loc)
	assert.Error(t, err)
}
