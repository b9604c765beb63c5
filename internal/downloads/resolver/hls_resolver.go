package resolver

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/grafov/m3u8"
	"github.com/pkg/errors"

	"github.com/streampull/stream-downloader/internal/config"
	"github.com/streampull/stream-downloader/internal/downloads"
	"github.com/streampull/stream-downloader/internal/models"
	"github.com/streampull/stream-downloader/pkg/logger"
)

const defaultResolveTimeout = 30 * time.Second

type hlsResolver struct {
	client *http.Client
	cfg    *config.Config
	logger logger.Logger
}

// NewHLSResolver builds a resolver for HLS (m3u8) playlist references.
func NewHLSResolver(cfg *config.Config, client *http.Client, log logger.Logger) downloads.Resolver {
	if client == nil {
		client = &http.Client{Timeout: defaultResolveTimeout}
	}
	return &hlsResolver{
		client: client,
		cfg:    cfg,
		logger: log,
	}
}

func (r *hlsResolver) Resolve(ctx context.Context, sourceRef string) ([]*models.SegmentTask, error) {
	base, err := url.Parse(sourceRef)
	if err != nil || !base.IsAbs() {
		return nil, &downloads.ResolutionError{Err: fmt.Errorf("invalid playlist reference %q", sourceRef)}
	}

	playlist, listType, err := r.load(ctx, base)
	if err != nil {
		return nil, &downloads.ResolutionError{Err: err}
	}

	if listType == m3u8.MASTER {
		master := playlist.(*m3u8.MasterPlaylist)
		variantURL, err := r.pickVariant(base, master)
		if err != nil {
			return nil, &downloads.ResolutionError{Err: err}
		}
		r.logger.Infof("Resolve - selected variant playlist %s", variantURL)
		base = variantURL
		playlist, listType, err = r.load(ctx, base)
		if err != nil {
			return nil, &downloads.ResolutionError{Err: err}
		}
	}

	if listType != m3u8.MEDIA {
		return nil, &downloads.ResolutionError{Err: fmt.Errorf("reference %q is not a media playlist", sourceRef)}
	}

	media := playlist.(*m3u8.MediaPlaylist)
	tasks := make([]*models.SegmentTask, 0, int(media.Count()))
	for _, seg := range media.Segments {
		if seg == nil {
			continue
		}
		segURL, err := url.Parse(seg.URI)
		if err != nil {
			return nil, &downloads.ResolutionError{Err: errors.Wrapf(err, "segment uri %q", seg.URI)}
		}
		tasks = append(tasks, &models.SegmentTask{
			Index:   len(tasks),
			Locator: base.ResolveReference(segURL).String(),
			State:   models.SegmentQueued,
		})
	}

	if len(tasks) == 0 {
		return nil, &downloads.ResolutionError{Err: fmt.Errorf("playlist %q contains no segments", sourceRef)}
	}
	return tasks, nil
}

// pickVariant selects the highest-bandwidth variant of a master playlist.
func (r *hlsResolver) pickVariant(base *url.URL, master *m3u8.MasterPlaylist) (*url.URL, error) {
	var best *m3u8.Variant
	for _, v := range master.Variants {
		if v == nil {
			continue
		}
		if best == nil || v.Bandwidth > best.Bandwidth {
			best = v
		}
	}
	if best == nil {
		return nil, fmt.Errorf("master playlist has no variants")
	}
	variantURL, err := url.Parse(best.URI)
	if err != nil {
		return nil, errors.Wrapf(err, "variant uri %q", best.URI)
	}
	return base.ResolveReference(variantURL), nil
}

func (r *hlsResolver) load(ctx context.Context, u *url.URL) (m3u8.Playlist, m3u8.ListType, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, 0, errors.Wrap(err, "create playlist request")
	}
	if r.cfg.Downloader.UserAgent != "" {
		req.Header.Set("User-Agent", r.cfg.Downloader.UserAgent)
	}
	if r.cfg.Downloader.Referer != "" {
		req.Header.Set("Referer", r.cfg.Downloader.Referer)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "fetch playlist %s", u)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, 0, fmt.Errorf("fetch playlist %s: unexpected status %s", u, resp.Status)
	}

	playlist, listType, err := m3u8.DecodeFrom(resp.Body, true)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "decode playlist %s", u)
	}
	return playlist, listType, nil
}
