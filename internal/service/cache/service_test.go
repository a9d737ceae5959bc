package cache

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/oshokin/tunestash/internal/client/upstream"
	mock_upstream "github.com/oshokin/tunestash/internal/client/upstream/mocks"
	"github.com/oshokin/tunestash/internal/config"
	"github.com/oshokin/tunestash/internal/storage"
)

// testServiceSetup encapsulates common test dependencies.
type testServiceSetup struct {
	mockClient *mock_upstream.MockClient
	service    *ServiceImpl
	config     *config.Config
	origin     *httptest.Server
}

// newTestServiceSetup creates a service over a temporary storage root and a file origin
// that serves the request path as the body.
func newTestServiceSetup(t *testing.T, configOverrides ...func(*config.Config)) *testServiceSetup {
	t.Helper()

	ctrl := gomock.NewController(t)
	mockClient := mock_upstream.NewMockClient(ctrl)

	cfg := config.Default()
	cfg.StoragePath = t.TempDir()
	cfg.RetryAttemptsCount = 1
	cfg.RetryBackoffBase = "1ms"
	cfg.DownloadTimeout = "5s"

	for _, override := range configOverrides {
		override(cfg)
	}

	require.NoError(t, config.ValidateConfig(cfg))

	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fail") != "" {
			w.WriteHeader(http.StatusNotFound)

			return
		}

		_, _ = fmt.Fprintf(w, "bytes of %s", r.URL.Path)
	}))

	service := NewService(cfg, mockClient, nil)

	t.Cleanup(func() {
		service.Close()
		origin.Close()
	})

	return &testServiceSetup{
		mockClient: mockClient,
		service:    service,
		config:     cfg,
		origin:     origin,
	}
}

func (s *testServiceSetup) songPath(info *upstream.SongInfo, quality string, kind storage.Kind) string {
	return s.service.resolver.Path(songKey("netease", info, "", quality), kind)
}

func testSongInfo(name string) *upstream.SongInfo {
	return &upstream.SongInfo{Name: name, Artist: "Artist", Album: "Album"}
}

func readString(t *testing.T, path string) string {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(content)
}

// TestService_Play_CacheHit tests that a cached song is served from disk without resolving upstream.
func TestService_Play_CacheHit(t *testing.T) {
	t.Parallel()

	setup := newTestServiceSetup(t)
	info := testSongInfo("Song")

	path := setup.songPath(info, "320k", storage.KindAudio)
	writeTree(t, filepath.Dir(path), map[string]string{filepath.Base(path): "cached audio"})

	setup.mockClient.EXPECT().GetSongInfo(gomock.Any(), "netease", "1").Return(info, nil)

	request := httptest.NewRequest(http.MethodGet, "/api/proxy/url?source=netease&id=1", http.NoBody)
	response := httptest.NewRecorder()

	err := setup.service.Play(context.Background(), response, request, PlayRequest{Source: "netease", ID: "1"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, response.Code)
	assert.Equal(t, "cached audio", response.Body.String())
	assert.Empty(t, setup.service.Tasks(), "A cache hit does not create a task")
}

// TestService_Play_StreamAndPersist tests a cache miss: the stream is relayed and the song lands in the cache.
func TestService_Play_StreamAndPersist(t *testing.T) {
	t.Parallel()

	setup := newTestServiceSetup(t)
	info := testSongInfo("Song")

	setup.mockClient.EXPECT().GetSongInfo(gomock.Any(), "netease", "1").Return(info, nil)
	setup.mockClient.EXPECT().
		ResolveURL(gomock.Any(), "netease", "1", upstream.ResolveAudio, "flac").
		Return(&upstream.Resolution{Location: setup.origin.URL + "/song.flac", SourceSwitch: "kuwo"}, nil)

	request := httptest.NewRequest(http.MethodGet, "/api/proxy/url", http.NoBody)
	response := httptest.NewRecorder()

	err := setup.service.Play(context.Background(), response, request,
		PlayRequest{Source: "netease", ID: "1", Quality: "flac"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, response.Code)
	assert.Equal(t, "bytes of /song.flac", response.Body.String())
	assert.Equal(t, "kuwo", response.Header().Get(SourceSwitchHeader))

	taskID := TaskID("netease", "1", "flac")

	require.Eventually(t, func() bool {
		task, ok := setup.service.registry.Get(taskID)

		return ok && task.Status == StatusCompleted
	}, 5*time.Second, 5*time.Millisecond)

	task, _ := setup.service.registry.Get(taskID)
	assert.Equal(t, "Song", task.Name)
	assert.Equal(t, "Artist", task.Artist)
	assert.InDelta(t, 100.0, task.Progress, 0.001)

	assert.Equal(t, "bytes of /song.flac", readString(t, setup.songPath(info, "flac", storage.KindAudio)))
}

// TestService_Play_Errors tests request validation and resolution failures.
func TestService_Play_Errors(t *testing.T) {
	t.Parallel()

	errResolve := errors.New("resolve failed")

	tests := []struct {
		name          string
		request       PlayRequest
		setupMocks    func(client *mock_upstream.MockClient)
		expectedErr   error
		expectedPhase string
	}{
		{
			name:        "missing id",
			request:     PlayRequest{Source: "netease"},
			setupMocks:  func(*mock_upstream.MockClient) {},
			expectedErr: ErrInvalidRequest,
		},
		{
			name:    "resolve failure without song info",
			request: PlayRequest{Source: "netease", ID: "1"},
			setupMocks: func(client *mock_upstream.MockClient) {
				client.EXPECT().GetSongInfo(gomock.Any(), "netease", "1").
					Return(nil, upstream.ErrSongInfoUnavailable)
				client.EXPECT().ResolveURL(gomock.Any(), "netease", "1", upstream.ResolveAudio, "320k").
					Return(nil, errResolve)
			},
			expectedErr:   errResolve,
			expectedPhase: PhaseResolve,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			setup := newTestServiceSetup(t)
			tt.setupMocks(setup.mockClient)

			request := httptest.NewRequest(http.MethodGet, "/api/proxy/url", http.NoBody)
			response := httptest.NewRecorder()

			err := setup.service.Play(context.Background(), response, request, tt.request)
			require.ErrorIs(t, err, tt.expectedErr)

			if tt.expectedPhase != "" {
				var taskErr *TaskError
				require.ErrorAs(t, err, &taskErr)
				assert.Equal(t, tt.expectedPhase, taskErr.Phase)
				assert.Equal(t, TaskID("netease", "1", "320k"), taskErr.TaskID)
			}

			assert.False(t, response.Flushed)
			assert.Zero(t, response.Body.Len(), "Nothing is written on early failures")
		})
	}
}

// TestService_Lyrics tests that lyrics are fetched once and then served from disk.
func TestService_Lyrics(t *testing.T) {
	t.Parallel()

	setup := newTestServiceSetup(t)
	info := testSongInfo("Song")
	lyrics := "[00:01.00]hello"

	setup.mockClient.EXPECT().GetSongInfo(gomock.Any(), "netease", "1").Return(info, nil).Times(2)
	setup.mockClient.EXPECT().GetLyrics(gomock.Any(), "netease", "1").Return(lyrics, nil).Times(1)

	first, err := setup.service.Lyrics(context.Background(), "netease", "1")
	require.NoError(t, err)
	assert.Equal(t, lyrics, first)

	assert.Equal(t, lyrics, readString(t, setup.songPath(info, "", storage.KindLyrics)))

	second, err := setup.service.Lyrics(context.Background(), "netease", "1")
	require.NoError(t, err)
	assert.Equal(t, lyrics, second)
}

// TestService_Lyrics_Unavailable tests that upstream failures are reported.
func TestService_Lyrics_Unavailable(t *testing.T) {
	t.Parallel()

	setup := newTestServiceSetup(t)

	setup.mockClient.EXPECT().GetSongInfo(gomock.Any(), "netease", "1").Return(testSongInfo("Song"), nil)
	setup.mockClient.EXPECT().GetLyrics(gomock.Any(), "netease", "1").
		Return("", upstream.ErrUnexpectedHTTPStatus)

	_, err := setup.service.Lyrics(context.Background(), "netease", "1")
	require.ErrorIs(t, err, upstream.ErrUnexpectedHTTPStatus)

	var taskErr *TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.Equal(t, PhaseLyrics, taskErr.Phase)
}

// TestService_Cover tests that a missing cover redirects upstream while it is cached in the background.
func TestService_Cover(t *testing.T) {
	t.Parallel()

	setup := newTestServiceSetup(t)
	info := testSongInfo("Song")
	coverURL := setup.origin.URL + "/cover.jpg"

	setup.mockClient.EXPECT().GetSongInfo(gomock.Any(), "netease", "1").Return(info, nil).Times(2)
	setup.mockClient.EXPECT().ResolveURL(gomock.Any(), "netease", "1", upstream.ResolveCover, "").
		Return(&upstream.Resolution{Location: coverURL}, nil).Times(1)

	result, err := setup.service.Cover(context.Background(), "netease", "1")
	require.NoError(t, err)
	assert.Equal(t, &CoverResult{RedirectURL: coverURL}, result)

	coverPath := setup.songPath(info, "", storage.KindCover)

	require.Eventually(t, func() bool {
		_, statErr := os.Stat(coverPath)

		return statErr == nil
	}, 5*time.Second, 5*time.Millisecond)

	result, err = setup.service.Cover(context.Background(), "netease", "1")
	require.NoError(t, err)
	assert.Equal(t, &CoverResult{LocalPath: coverPath}, result)
}

// TestService_SaveAll tests a bulk save with cached, new and failing songs.
func TestService_SaveAll(t *testing.T) {
	t.Parallel()

	setup := newTestServiceSetup(t)

	cached := testSongInfo("Cached")
	fresh := testSongInfo("Fresh")
	quality := storage.QualityFLAC24Bit

	cachedPath := setup.songPath(cached, quality, storage.KindAudio)
	writeTree(t, filepath.Dir(cachedPath), map[string]string{filepath.Base(cachedPath): "old"})

	setup.mockClient.EXPECT().GetSongInfo(gomock.Any(), "netease", "1").Return(cached, nil)
	setup.mockClient.EXPECT().GetSongInfo(gomock.Any(), "netease", "2").Return(fresh, nil)
	setup.mockClient.EXPECT().GetSongInfo(gomock.Any(), "netease", "3").
		Return(nil, upstream.ErrSongInfoUnavailable)
	setup.mockClient.EXPECT().ResolveURL(gomock.Any(), "netease", "2", upstream.ResolveAudio, quality).
		Return(&upstream.Resolution{Location: setup.origin.URL + "/fresh.flac"}, nil)
	setup.mockClient.EXPECT().GetLyrics(gomock.Any(), "netease", "2").Return("", nil)

	var (
		mu   sync.Mutex
		done []string
	)

	result, err := setup.service.SaveAll(context.Background(), SaveAllRequest{
		Source: "netease",
		Songs: []SongRef{
			{ID: "1", Name: "Cached", Artist: "Artist"},
			{ID: "2", Name: "Fresh", Artist: "Artist"},
			{ID: "3", Name: "Broken", Artist: "Artist"},
		},
		OnSongDone: func(detail SaveDetail) {
			mu.Lock()
			defer mu.Unlock()

			done = append(done, detail.ID)
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Success)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Details, 3)

	assert.Equal(t, SaveDetail{ID: "1", Name: "Cached", Status: SaveStatusExists}, result.Details[0])
	assert.Equal(t, SaveDetail{ID: "2", Name: "Fresh", Status: SaveStatusSaved}, result.Details[1])
	assert.Equal(t, "3", result.Details[2].ID)
	assert.Equal(t, "Broken", result.Details[2].Name)
	assert.Equal(t, SaveStatusFailed, result.Details[2].Status)
	assert.Contains(t, result.Details[2].Error, upstream.ErrSongInfoUnavailable.Error())

	assert.ElementsMatch(t, []string{"1", "2", "3"}, done)

	assert.Equal(t, "old", readString(t, cachedPath), "Cached songs are never rewritten")
	assert.Equal(t, "bytes of /fresh.flac", readString(t, setup.songPath(fresh, quality, storage.KindAudio)))

	statuses := make(map[string]Status)
	for _, task := range setup.service.Tasks() {
		statuses[task.ID] = task.Status
	}

	assert.Equal(t, map[string]Status{
		TaskID("netease", "1", quality): StatusCompleted,
		TaskID("netease", "2", quality): StatusCompleted,
		TaskID("netease", "3", quality): StatusFailed,
	}, statuses)
}

// TestService_SaveAll_DownloadFailure tests that a failed download is recorded once as failed.
func TestService_SaveAll_DownloadFailure(t *testing.T) {
	t.Parallel()

	setup := newTestServiceSetup(t)
	info := testSongInfo("Song")

	setup.mockClient.EXPECT().GetSongInfo(gomock.Any(), "netease", "1").Return(info, nil)
	setup.mockClient.EXPECT().ResolveURL(gomock.Any(), "netease", "1", upstream.ResolveAudio, "320k").
		Return(&upstream.Resolution{Location: setup.origin.URL + "/song.mp3?fail=1"}, nil)

	result, err := setup.service.SaveAll(context.Background(), SaveAllRequest{
		Source:  "netease",
		Quality: "320k",
		Songs:   []SongRef{{ID: "1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)

	task, ok := setup.service.registry.Get(TaskID("netease", "1", "320k"))
	require.True(t, ok)
	assert.Equal(t, StatusFailed, task.Status)
	assert.Contains(t, task.Error, ErrUpstreamStatus.Error())
	assert.NoFileExists(t, setup.songPath(info, "320k", storage.KindAudio))
}

// TestService_SaveAll_Validation tests rejected bulk requests.
func TestService_SaveAll_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		request     SaveAllRequest
		expectedErr error
	}{
		{
			name:        "missing source",
			request:     SaveAllRequest{Songs: []SongRef{{ID: "1"}}},
			expectedErr: ErrInvalidRequest,
		},
		{
			name:        "no songs",
			request:     SaveAllRequest{Source: "netease"},
			expectedErr: ErrInvalidRequest,
		},
		{
			name: "too many songs",
			request: SaveAllRequest{
				Source: "netease",
				Songs:  []SongRef{{ID: "1"}, {ID: "2"}, {ID: "3"}},
			},
			expectedErr: ErrTooManySongs,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			setup := newTestServiceSetup(t, func(cfg *config.Config) {
				cfg.MaxPlaylistSongs = 2
			})

			_, err := setup.service.SaveAll(context.Background(), tt.request)
			require.ErrorIs(t, err, tt.expectedErr)
			assert.Empty(t, setup.service.Tasks())
		})
	}
}

// TestService_EnsureCached tests the asset-level download entry point.
func TestService_EnsureCached(t *testing.T) {
	t.Parallel()

	setup := newTestServiceSetup(t)
	key := storage.AssetKey{Platform: "kuwo", Artist: "A", Album: "B", Title: "C", Quality: "flac"}

	path, hit, err := setup.service.ResolveAndProbe(key, storage.KindAudio)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, filepath.Join(setup.config.StoragePath, "kuwo", "A", "B", "C", "C.flac"), path)

	recorder := new(eventRecorder)
	require.NoError(t, setup.service.EnsureCached(context.Background(), key, storage.KindAudio,
		setup.origin.URL+"/c.flac", recorder))

	_, hit, err = setup.service.ResolveAndProbe(key, storage.KindAudio)
	require.NoError(t, err)
	assert.True(t, hit)

	err = setup.service.EnsureCached(context.Background(),
		storage.AssetKey{Platform: "kuwo", Title: "missing"}, storage.KindAudio,
		setup.origin.URL+"/missing.mp3?fail=1", nil)
	require.ErrorIs(t, err, ErrUpstreamStatus)

	var taskErr *TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.Equal(t, "kuwo/unknown/unknown/missing/missing.mp3", taskErr.TaskID)
	assert.Equal(t, setup.config.StoragePath, setup.service.StorageRoot())
}
