// Package scraper drives the harvest pipeline for each configured account:
// resolve the account, walk its media timeline page by page, download each
// page's media under the concurrency limit, and keep the catalog current so
// re-runs skip completed work.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"txd/internal/downloader"
	"txd/pkg/config"
	"txd/pkg/logger"
	"txd/pkg/storage"
	"txd/pkg/twitter"
)

// Scraper orchestrates the media harvest for all configured accounts.
type Scraper struct {
	cfg     *config.Config
	catalog Catalog
	logger  logger.Logger

	// newClient builds the per-account API client; tests swap it out.
	newClient func(screenName string) TwitterClient
}

// New creates a Scraper. The catalog is shared by all accounts.
func New(cfg *config.Config, catalog Catalog, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}

	s := &Scraper{
		cfg:     cfg,
		catalog: catalog,
		logger:  log,
	}
	s.newClient = func(screenName string) TwitterClient {
		return twitter.NewClient(twitter.Options{
			BaseURL:           cfg.APIBaseURL,
			AuthToken:         cfg.AuthToken,
			CSRFToken:         cfg.CT0,
			ScreenName:        screenName,
			Timeout:           cfg.DownloadTimeout.Std(),
			RequestsPerMinute: cfg.RequestsPerMinute,
			Logger:            log,
		})
	}

	return s
}

// Run processes every configured account sequentially. A fatal error aborts
// only that account; the others still run. The joined error reports every
// failed account with its cause.
func (s *Scraper) Run(ctx context.Context) error {
	var errs []error

	for _, acct := range s.cfg.Accounts {
		if err := s.runAccount(ctx, acct); err != nil {
			s.logger.ErrorWithFields("account harvest failed", map[string]interface{}{
				"account": acct.ScreenName,
				"error":   err.Error(),
			})
			errs = append(errs, fmt.Errorf("account %s: %w", acct.ScreenName, err))
		}
	}

	return errors.Join(errs...)
}

// runAccount harvests a single account to completion.
func (s *Scraper) runAccount(ctx context.Context, acct config.AccountConfig) error {
	log := s.logger.WithField("account", acct.ScreenName)
	client := s.newClient(acct.ScreenName)

	account, err := client.ResolveUser(ctx, acct.ScreenName)
	if err != nil {
		return fmt.Errorf("failed to resolve user: %w", err)
	}

	saveDir := acct.SavePath
	if saveDir == "" {
		saveDir = filepath.Join("downloads", account.ScreenName)
	}

	mgr, err := storage.NewManager(saveDir)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	log.InfoWithFields("starting harvest", map[string]interface{}{
		"user_id":     account.ID,
		"name":        account.Name,
		"media_count": account.MediaCount,
		"save_dir":    saveDir,
		"concurrency": s.cfg.ConcurrentDownloads,
	})

	pool := downloader.NewWorkerPool(
		s.cfg.ConcurrentDownloads,
		client,
		mgr,
		&catalogChecker{catalog: s.catalog, baseDir: saveDir},
		log,
	)
	pool.Start()

	var (
		downloaded atomic.Int64
		skipped    atomic.Int64
		failed     atomic.Int64
		inflight   sync.WaitGroup
		procWG     sync.WaitGroup
	)

	procWG.Add(1)
	go func() {
		defer procWG.Done()
		for result := range pool.Results() {
			s.handleResult(ctx, log, result, &downloaded, &skipped, &failed)
			inflight.Done()
		}
	}()

	cursor := ""
	pageNum := 0
	var pageErr error

	for {
		pageNum++
		page, err := client.FetchMediaPage(ctx, account.ID, cursor)
		if err != nil {
			pageErr = fmt.Errorf("failed to fetch page %d: %w", pageNum, err)
			break
		}

		if len(page.Tweets) == 0 {
			log.InfoWithFields("no more media items", map[string]interface{}{
				"page": pageNum,
			})
			break
		}

		queued, err := s.queuePage(ctx, account, page, pool, &inflight)
		if err != nil {
			pageErr = err
			break
		}

		// Drain page N before requesting page N+1.
		inflight.Wait()

		log.InfoWithFields("page complete", map[string]interface{}{
			"page":   pageNum,
			"queued": queued,
		})

		if page.NextCursor == "" {
			log.Info("no more pages")
			break
		}
		cursor = page.NextCursor
	}

	pool.Stop()
	procWG.Wait()

	log.InfoWithFields("harvest complete", map[string]interface{}{
		"pages":      pageNum,
		"downloaded": downloaded.Load(),
		"skipped":    skipped.Load(),
		"failed":     failed.Load(),
	})

	return pageErr
}

// queuePage records the page's tweets and media in the catalog and submits
// every media reference to the pool. Returns the number of submitted jobs.
func (s *Scraper) queuePage(
	ctx context.Context,
	account *twitter.Account,
	page *twitter.Page,
	pool *downloader.WorkerPool,
	inflight *sync.WaitGroup,
) (int, error) {
	queued := 0

	for _, tweet := range page.Tweets {
		err := s.catalog.UpsertTweet(ctx, tweet.ID, account.ScreenName,
			tweet.PostedAt.Format(time.RFC3339), tweet.Text)
		if err != nil {
			return queued, err
		}

		for _, item := range tweet.Media {
			filename := storage.Filename(item)
			if err := s.catalog.UpsertMedia(ctx, tweet.ID, item.URL, filename); err != nil {
				return queued, err
			}

			inflight.Add(1)
			err := pool.Submit(downloader.Job{
				TweetID:  tweet.ID,
				Media:    item,
				Filename: filename,
			})
			if err != nil {
				inflight.Done()
				return queued, fmt.Errorf("failed to submit download job: %w", err)
			}
			queued++
		}
	}

	return queued, nil
}

// handleResult logs one download outcome and records the content hash for
// fresh downloads. The hash lands in the catalog before the item counts as
// done.
func (s *Scraper) handleResult(
	ctx context.Context,
	log logger.Logger,
	result downloader.Result,
	downloaded, skipped, failed *atomic.Int64,
) {
	switch {
	case result.Success && result.Skipped:
		skipped.Add(1)
	case result.Success:
		if err := s.catalog.RecordHash(ctx, result.Job.Media.URL, result.Hash); err != nil {
			log.WithError(err).WithField("url", result.Job.Media.URL).
				Warn("failed to record content hash")
		}
		downloaded.Add(1)
		log.InfoWithFields("downloaded", map[string]interface{}{
			"url":      result.Job.Media.URL,
			"filename": result.Job.Filename,
			"size":     result.Size,
			"outcome":  "success",
		})
	default:
		failed.Add(1)
		log.WarnWithFields("download failed", map[string]interface{}{
			"url":     result.Job.Media.URL,
			"error":   result.Err.Error(),
			"outcome": "failure",
		})
	}
}

// catalogChecker adapts the catalog's verification predicate to the pool's
// redownload decision: any file that no longer verifies (hash mismatch, or
// never indexed) is fetched again.
type catalogChecker struct {
	catalog Catalog
	baseDir string
}

func (c *catalogChecker) ShouldRedownload(ctx context.Context, mediaURL string) bool {
	return !c.catalog.Verify(ctx, mediaURL, c.baseDir)
}
