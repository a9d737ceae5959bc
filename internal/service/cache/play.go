package cache

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/tunestash/internal/client/upstream"
	"github.com/oshokin/tunestash/internal/constants"
	"github.com/oshokin/tunestash/internal/logger"
	"github.com/oshokin/tunestash/internal/storage"
)

// SourceSwitchHeader tells the client that the upstream served another platform.
const SourceSwitchHeader = "X-Source-Switch"

// PlayRequest identifies the song to play.
type PlayRequest struct {
	Source  string
	ID      string
	Quality string
}

// CoverResult locates a cover image: a cached file or the upstream URL.
type CoverResult struct {
	LocalPath   string
	RedirectURL string
}

// Play serves a song from the cache, or streams it from upstream while a
// background download fills the cache and reports progress to the registry.
// When it returns an error, nothing has been written to w unless the error
// comes from the proxy, which answers with 502 itself.
func (s *ServiceImpl) Play(ctx context.Context, w http.ResponseWriter, r *http.Request, req PlayRequest) error {
	if req.Source == "" || req.ID == "" {
		return fmt.Errorf("%w: source and id are required", ErrInvalidRequest)
	}

	quality := s.quality(req.Quality)
	taskID := TaskID(req.Source, req.ID, quality)
	ctx = logger.WithKV(ctx, "task", taskID)

	var key storage.AssetKey

	info := s.songInfo(ctx, req.Source, req.ID)
	if info != nil {
		key = songKey(req.Source, info, "", quality)

		path, hit, err := s.ResolveAndProbe(key, storage.KindAudio)
		if err != nil {
			logger.Warnf(ctx, "Cache probe failed: %v", err)
		} else if hit {
			logger.Debugf(ctx, "Serving '%s' from cache", path)
			http.ServeFile(w, r, path)

			return nil
		}
	}

	resolution, err := s.client.ResolveURL(ctx, req.Source, req.ID, upstream.ResolveAudio, quality)
	if err != nil {
		return newTaskError(taskID, PhaseResolve, err)
	}

	if resolution.SourceSwitch != "" {
		w.Header().Set(SourceSwitchHeader, resolution.SourceSwitch)
	}

	var persist *PersistRequest

	if info != nil && !IsPartialRange(r.Header.Get("Range")) {
		dest, resolveErr := s.resolver.Resolve(key, storage.KindAudio)
		if resolveErr != nil {
			logger.Warnf(ctx, "Not caching the stream: %v", resolveErr)
		} else {
			s.registry.Upsert(taskID, pendingUpdate(info.Name, info.Artist))

			persist = &PersistRequest{Dest: dest, Observer: s.taskObserver(taskID)}
		}
	}

	if err = s.proxy.Serve(w, r.WithContext(ctx), resolution.Location, persist); err != nil {
		return newTaskError(taskID, PhaseProxy, err)
	}

	return nil
}

// Lyrics returns the lyrics of a song. Cached lyrics are read from disk,
// otherwise they are fetched from upstream and saved once.
func (s *ServiceImpl) Lyrics(ctx context.Context, source, id string) (string, error) {
	if source == "" || id == "" {
		return "", fmt.Errorf("%w: source and id are required", ErrInvalidRequest)
	}

	var (
		key  storage.AssetKey
		info = s.songInfo(ctx, source, id)
	)

	if info != nil {
		key = songKey(source, info, "", "")

		text, ok := s.localLyrics(ctx, key)
		if ok {
			return text, nil
		}
	}

	text, err := s.client.GetLyrics(ctx, source, id)
	if err != nil {
		return "", newTaskError(source+"_"+id, PhaseLyrics, err)
	}

	if info != nil && strings.TrimSpace(text) != "" {
		if err = s.saveLyrics(key, text); err != nil {
			logger.Warnf(ctx, "Failed to save lyrics: %v", err)
		}
	}

	return text, nil
}

// Cover returns the cached cover of a song, or its upstream URL while a
// background download caches it.
func (s *ServiceImpl) Cover(ctx context.Context, source, id string) (*CoverResult, error) {
	if source == "" || id == "" {
		return nil, fmt.Errorf("%w: source and id are required", ErrInvalidRequest)
	}

	var (
		key  storage.AssetKey
		info = s.songInfo(ctx, source, id)
	)

	if info != nil {
		key = songKey(source, info, "", "")

		path, hit, err := s.ResolveAndProbe(key, storage.KindCover)
		if err == nil && hit {
			return &CoverResult{LocalPath: path}, nil
		}
	}

	resolution, err := s.client.ResolveURL(ctx, source, id, upstream.ResolveCover, "")
	if err != nil {
		return nil, newTaskError(source+"_"+id, PhaseCover, err)
	}

	if info != nil {
		dest, resolveErr := s.resolver.Resolve(key, storage.KindCover)
		if resolveErr == nil {
			resolveErr = s.coordinator.Persist(dest, resolution.Location, nil)
		}

		if resolveErr != nil {
			logger.Warnf(ctx, "Not caching the cover: %v", resolveErr)
		}
	}

	return &CoverResult{RedirectURL: resolution.Location}, nil
}

func (s *ServiceImpl) localLyrics(ctx context.Context, key storage.AssetKey) (string, bool) {
	path, hit, err := s.ResolveAndProbe(key, storage.KindLyrics)
	if err != nil || !hit {
		return "", false
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		logger.Warnf(ctx, "Failed to read cached lyrics '%s': %v", path, err)

		return "", false
	}

	return string(data), true
}

// saveLyrics writes lyrics once. An existing file is kept.
func (s *ServiceImpl) saveLyrics(key storage.AssetKey, text string) error {
	dest, err := s.resolver.Resolve(key, storage.KindLyrics)
	if err != nil {
		return err
	}

	return writeFileOnce(dest, []byte(text))
}

// writeFileOnce publishes data at dest through a temporary file unless dest exists.
func writeFileOnce(dest string, data []byte) error {
	temp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*"+constants.ExtensionTemp)
	if err != nil {
		return classifyError(err)
	}

	tempPath := temp.Name()

	writeErr := temp.Chmod(constants.DefaultFilePermissions)
	if writeErr == nil {
		_, writeErr = temp.Write(data)
	}

	closeErr := temp.Close()

	if err = errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(tempPath)

		return classifyError(err)
	}

	published, err := publish(tempPath, dest)
	if !published {
		_ = os.Remove(tempPath)
	}

	return err
}

func (s *ServiceImpl) quality(requested string) string {
	if quality := strings.TrimSpace(requested); quality != "" {
		return quality
	}

	if s.cfg.DefaultQuality != "" {
		return s.cfg.DefaultQuality
	}

	return storage.QualityDefault
}
