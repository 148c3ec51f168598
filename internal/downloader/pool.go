// Package downloader runs media fetches under a bounded worker pool. One bad
// URL never blocks or aborts the rest of its page: failures are contained in
// per-item results.
package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"txd/pkg/logger"
	"txd/pkg/twitter"
)

// Job is a single media download task. The filename is computed by the
// submitter so the same reference always lands on the same path.
type Job struct {
	TweetID  string
	Media    twitter.MediaItem
	Filename string
}

// Result is the outcome of one Job. Skipped means the destination file
// already existed and no network request was made.
type Result struct {
	Job      Job
	Success  bool
	Skipped  bool
	Hash     string
	Size     int64
	Err      error
	Duration time.Duration
}

// MediaFetcher fetches media bytes.
type MediaFetcher interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// MediaStorage persists media bytes under deterministic names.
type MediaStorage interface {
	Exists(name string) bool
	Save(name string, r io.Reader) (hash string, size int64, err error)
}

// IntegrityChecker lets the pipeline driver decide whether an existing file
// should be fetched again (recorded hash no longer matches the bytes on
// disk). The pool itself never touches the catalog.
type IntegrityChecker interface {
	ShouldRedownload(ctx context.Context, mediaURL string) bool
}

// WorkerPool manages concurrent download workers.
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	client      MediaFetcher
	storage     MediaStorage
	integrity   IntegrityChecker
	logger      logger.Logger
}

// NewWorkerPool creates a download worker pool with the given concurrency
// limit. integrity may be nil, in which case existing files are always
// trusted.
func NewWorkerPool(
	numWorkers int,
	client MediaFetcher,
	storage MediaStorage,
	integrity IntegrityChecker,
	log logger.Logger,
) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		client:      client,
		storage:     storage,
		integrity:   integrity,
		logger:      log,
	}
}

// Start launches the workers.
func (wp *WorkerPool) Start() {
	wp.logger.DebugWithFields("starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the job queue, waits for in-flight jobs to finish and closes
// the result channel.
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug("worker pool stopped")
}

// Submit adds a new download job to the queue.
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Results returns the result channel for consuming download results.
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			return
		default:
		}

		result := wp.processJob(job, id)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

// fetchURL is the URL actually requested: images ask for the original
// resolution rendition, video URLs are already fully resolved.
func fetchURL(item twitter.MediaItem) string {
	if item.Kind == twitter.KindImage {
		return item.URL + "?name=orig"
	}
	return item.URL
}

// processJob handles a single download job.
func (wp *WorkerPool) processJob(job Job, workerID int) Result {
	start := time.Now()
	result := Result{Job: job}

	log := wp.logger.WithFields(map[string]interface{}{
		"worker_id": workerID,
		"url":       job.Media.URL,
		"filename":  job.Filename,
	})

	// A completed file is skipped unless its recorded hash no longer matches
	// the bytes on disk.
	if wp.storage.Exists(job.Filename) {
		if wp.integrity == nil || !wp.integrity.ShouldRedownload(wp.ctx, job.Media.URL) {
			log.Debug("file already exists, skipping")
			result.Success = true
			result.Skipped = true
			result.Duration = time.Since(start)
			return result
		}
		log.Warn("existing file failed verification, downloading again")
	}

	data, err := wp.client.Download(wp.ctx, fetchURL(job.Media))
	if err != nil {
		result.Err = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	hash, size, err := wp.storage.Save(job.Filename, bytes.NewReader(data))
	if err != nil {
		result.Err = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Success = true
	result.Hash = hash
	result.Size = size
	result.Duration = time.Since(start)

	log.DebugWithFields("download completed", map[string]interface{}{
		"size":     size,
		"duration": result.Duration,
	})

	return result
}
