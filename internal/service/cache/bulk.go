package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/oshokin/tunestash/internal/client/upstream"
	"github.com/oshokin/tunestash/internal/constants"
	"github.com/oshokin/tunestash/internal/logger"
	"github.com/oshokin/tunestash/internal/storage"
)

// DefaultBulkQuality is the quality of a bulk save that names none.
const DefaultBulkQuality = storage.QualityFLAC24Bit

// Per-song outcomes of a bulk save.
const (
	SaveStatusExists = "exists"
	SaveStatusSaved  = "saved"
	SaveStatusFailed = "failed"
)

// SongRef is one song of a bulk save request.
type SongRef struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Artist string `json:"artist,omitempty"`
}

// SaveAllRequest asks to cache a list of songs from one platform.
type SaveAllRequest struct {
	Source  string    `json:"source"`
	Quality string    `json:"quality,omitempty"`
	Songs   []SongRef `json:"songs"`
	// OnSongDone is called once per song as soon as it is finished.
	OnSongDone func(detail SaveDetail) `json:"-"`
}

// SaveDetail is the outcome for one song.
type SaveDetail struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// SaveAllResult summarizes a bulk save. Details follow the request order.
type SaveAllResult struct {
	Total   int          `json:"total"`
	Success int          `json:"success"`
	Failed  int          `json:"failed"`
	Details []SaveDetail `json:"details"`
}

// SaveAll caches every song with a bounded number of songs in flight.
// Failures of single songs are reported in the result, not as an error.
func (s *ServiceImpl) SaveAll(ctx context.Context, req SaveAllRequest) (*SaveAllResult, error) {
	if req.Source == "" || len(req.Songs) == 0 {
		return nil, fmt.Errorf("%w: source and songs are required", ErrInvalidRequest)
	}

	if int64(len(req.Songs)) > s.cfg.MaxPlaylistSongs {
		return nil, fmt.Errorf("%w: %d requested, at most %d allowed", ErrTooManySongs,
			len(req.Songs), s.cfg.MaxPlaylistSongs)
	}

	quality := req.Quality
	if quality == "" {
		quality = DefaultBulkQuality
	}

	// Register every song up front so pollers see the whole batch.
	for _, song := range req.Songs {
		taskID := TaskID(req.Source, song.ID, quality)
		if _, ok := s.registry.Get(taskID); !ok {
			s.registry.Upsert(taskID, pendingUpdate(orUnknown(song.Name), orUnknown(song.Artist)))
		}
	}

	var (
		result = &SaveAllResult{Total: len(req.Songs), Details: make([]SaveDetail, len(req.Songs))}
		mu     sync.Mutex
		g      errgroup.Group
	)

	g.SetLimit(int(s.cfg.MaxConcurrentSaves))

	for i, song := range req.Songs {
		g.Go(func() error {
			detail := s.saveSong(ctx, req.Source, quality, song)

			mu.Lock()

			result.Details[i] = detail

			if detail.Status == SaveStatusFailed {
				result.Failed++
			} else {
				result.Success++
			}

			mu.Unlock()

			if req.OnSongDone != nil {
				req.OnSongDone(detail)
			}

			return nil
		})
	}

	_ = g.Wait()

	logger.Infof(ctx, "Bulk save finished: %d saved, %d failed", result.Success, result.Failed)

	return result, nil
}

func (s *ServiceImpl) saveSong(ctx context.Context, source, quality string, song SongRef) SaveDetail {
	taskID := TaskID(source, song.ID, quality)
	ctx = logger.WithKV(ctx, "task", taskID)

	name, status, err := s.saveSongAssets(ctx, source, quality, song, taskID)
	if err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			s.registry.Upsert(taskID, failedUpdate(err))
		}

		logger.Warnf(ctx, "Failed to save song: %v", err)

		return SaveDetail{ID: song.ID, Name: orUnknown(name), Status: SaveStatusFailed, Error: err.Error()}
	}

	return SaveDetail{ID: song.ID, Name: name, Status: status}
}

// reportedError marks failures the coordinator has already recorded for the task.
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error {
	return e.error
}

func (s *ServiceImpl) saveSongAssets(
	ctx context.Context,
	source, quality string,
	song SongRef,
	taskID string,
) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return song.Name, "", err
	}

	info, err := s.client.GetSongInfo(ctx, source, song.ID)
	if err != nil {
		return song.Name, "", newTaskError(taskID, PhaseSongInfo, err)
	}

	key := songKey(source, info, song.Name, quality)
	name := key.Title

	_, hit, err := s.ResolveAndProbe(key, storage.KindAudio)
	if err != nil {
		return name, "", newTaskError(taskID, PhaseDownload, err)
	}

	if hit {
		s.registry.Upsert(taskID, completedEvent(0).TaskUpdate())

		return orUnknown(name), SaveStatusExists, nil
	}

	resolution, err := s.client.ResolveURL(ctx, source, song.ID, upstream.ResolveAudio, quality)
	if err != nil {
		return name, "", newTaskError(taskID, PhaseResolve, err)
	}

	s.registry.Upsert(taskID, pendingUpdate(orUnknown(name), orUnknown(info.Artist)))

	if err = s.EnsureCached(ctx, key, storage.KindAudio, resolution.Location, s.taskObserver(taskID)); err != nil {
		if ctx.Err() != nil {
			return name, "", err
		}

		return name, "", reportedError{err}
	}

	s.saveExtras(ctx, source, song.ID, key, info)

	return orUnknown(name), SaveStatusSaved, nil
}

// saveExtras caches lyrics and the cover of a saved song. Failures are only logged.
func (s *ServiceImpl) saveExtras(ctx context.Context, source, id string, key storage.AssetKey, info *upstream.SongInfo) {
	if _, ok := s.localLyrics(ctx, key); !ok {
		text, err := s.client.GetLyrics(ctx, source, id)

		switch {
		case err != nil:
			logger.Warnf(ctx, "Failed to fetch lyrics: %v", err)
		case text != "":
			if err = s.saveLyrics(key, text); err != nil {
				logger.Warnf(ctx, "Failed to save lyrics: %v", err)
			}
		}
	}

	if info.Pic == "" {
		return
	}

	resolution, err := s.client.ResolveURL(ctx, source, id, upstream.ResolveCover, "")
	if err != nil {
		logger.Warnf(ctx, "Failed to resolve cover: %v", err)

		return
	}

	if err = s.EnsureCached(ctx, key, storage.KindCover, resolution.Location, nil); err != nil {
		logger.Warnf(ctx, "Failed to save cover: %v", err)
	}
}

func orUnknown(value string) string {
	if value == "" {
		return constants.UnknownPlaceholder
	}

	return value
}
