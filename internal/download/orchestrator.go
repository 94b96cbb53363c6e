package download

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"

	"github.com/pavelc4/gatekeeper-dl-bot/internal/apperr"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/catalog"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/pending"
	"github.com/pavelc4/gatekeeper-dl-bot/pkg/logger"
	"github.com/pavelc4/gatekeeper-dl-bot/pkg/worker"
)

const (
	ResubmitMessage  = "⌛ I no longer have your link. Please send it again."
	BusyMessage      = "⏳ Your previous download is still running. Please wait for it to finish."
	PreparingMessage = "⏳ Preparing your file... please wait."
	DoneMessage      = "✅ File sent!"
	ReadyCaption     = "✅ Your file is ready!"
	DroppedMessage   = "⚠️ The bot is restarting and your download was cancelled. Please send the link again."
)

// dropNoticeTimeout bounds the notice sent for a job dropped at shutdown.
const dropNoticeTimeout = 10 * time.Second

// ErrDropped is the cause of a job that never started because the worker
// pool shut down first.
var ErrDropped = errors.New("job dropped at shutdown")

type FetchRequest struct {
	URL    string
	Spec   catalog.FormatSpec
	Dir    string
	Output string
}

// Artifact is a file the fetch tool produced on local disk.
type Artifact struct {
	Path  string
	Title string
}

type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (Artifact, error)
}

// Transcoder converts input according to spec and returns the output path,
// which is derived from input.
type Transcoder interface {
	Transcode(ctx context.Context, input string, spec catalog.FormatSpec) (string, error)
}

type File struct {
	Path    string
	Name    string
	Caption string
	Size    int64
	Audio   bool
}

// Conversation is the chat a job reports to. Implementations must stay usable
// after the event that created them has been handled.
type Conversation interface {
	// Status reports progress. Later calls replace earlier ones.
	Status(ctx context.Context, text string) error
	// Finish reports the job's outcome. It is called once, last.
	Finish(ctx context.Context, text string) error
	SendFile(ctx context.Context, f File) error
}

type Result struct {
	JobID   string
	OwnerID int64
	Quality catalog.Quality
	State   State
	Size    int64
	Elapsed time.Duration
	Err     error
}

func (r Result) Success() bool {
	return r.State == Done && r.Err == nil
}

func (r Result) ErrorDetail() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

type Config struct {
	WorkDir          string
	FetchTimeout     time.Duration
	TranscodeTimeout time.Duration
	MaxUploadSize    int64
}

type Orchestrator struct {
	cfg        Config
	store      *pending.Store
	pool       *worker.Pool
	fetcher    Fetcher
	transcoder Transcoder
	busy       sync.Map // owner -> job id
	onFinish   func(Result)
}

func NewOrchestrator(cfg Config, store *pending.Store, pool *worker.Pool, f Fetcher, t Transcoder) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		store:      store,
		pool:       pool,
		fetcher:    f,
		transcoder: t,
	}
}

// SetFinishHook registers a callback invoked once per finished job.
func (o *Orchestrator) SetFinishHook(fn func(Result)) {
	o.onFinish = fn
}

// Remember records a validated link for owner, replacing any earlier one. Jobs
// already running keep the link they started with.
func (o *Orchestrator) Remember(owner int64, url string) pending.Request {
	return o.store.Put(owner, url)
}

func (o *Orchestrator) Pending(owner int64) (pending.Request, bool) {
	return o.store.Get(owner)
}

// Select starts a job for the owner's pending link. Validation failures are
// returned synchronously and nothing is fetched. On success the job runs on
// the worker pool and its Result arrives on the returned channel, which is
// then closed. A job the pool drops at shutdown still yields an Errored
// Result wrapping ErrDropped.
func (o *Orchestrator) Select(owner int64, q catalog.Quality, conv Conversation) (<-chan Result, error) {
	req, ok := o.store.Get(owner)
	if !ok {
		logger.Info("Selection without pending link", "owner", owner, "quality", q, "state", Errored)
		return nil, apperr.Validation("download.select", ResubmitMessage)
	}

	job := newJob(o.cfg.WorkDir, owner, req.URL, q)
	if prev, loaded := o.busy.LoadOrStore(owner, job.ID); loaded {
		logger.Info("Owner already has a job in flight", "owner", owner, "job", prev)
		return nil, apperr.Validation("download.select", BusyMessage)
	}

	results := make(chan Result, 1)
	complete := func(res Result) {
		o.busy.Delete(owner)
		if o.onFinish != nil {
			o.onFinish(res)
		}
		results <- res
		close(results)
	}
	submitted := o.pool.SubmitOrDrop(func(ctx context.Context) {
		complete(o.run(ctx, job, conv))
	}, func() {
		complete(o.dropped(job, conv))
	})
	if !submitted {
		o.busy.Delete(owner)
		return nil, apperr.Internal("download.select", errors.New("worker pool stopped"))
	}

	logger.Info("Job queued", "job", job.ID, "owner", owner, "quality", q, "url", req.URL)
	return results, nil
}

func (o *Orchestrator) run(ctx context.Context, job *Job, conv Conversation) (res Result) {
	start := time.Now()
	res = Result{JobID: job.ID, OwnerID: job.OwnerID, Quality: job.Quality}
	log := logger.With("job", job.ID, "owner", job.OwnerID)

	defer job.Cleanup()
	defer func() {
		if r := recover(); r != nil {
			res.Err = apperr.Internal("download.run", errors.Errorf("panic: %v", r))
			job.enter(Errored)
			log.Error("Job panicked", "error", r)
			o.finish(ctx, conv, log, apperr.UserMessage(res.Err))
		}
		res.State = job.State()
		res.Elapsed = time.Since(start)
	}()

	o.notify(ctx, conv, log, PreparingMessage)
	file, err := o.execute(ctx, job, log)
	if err == nil {
		err = o.deliver(ctx, job, conv, file)
	}
	if err != nil {
		job.enter(Errored)
		res.Err = err
		log.Error("Job failed", "kind", apperr.KindOf(err), "url", job.URL, "error", err,
			"duration", time.Since(start).Round(time.Millisecond))
		o.finish(ctx, conv, log, apperr.UserMessage(err))
		return res
	}

	job.enter(Done)
	res.Size = file.Size
	log.Info("Job completed", "quality", job.Quality, "size", file.Size,
		"duration", time.Since(start).Round(time.Millisecond))
	o.finish(ctx, conv, log, DoneMessage)
	return res
}

// dropped reports a job that never ran. The pool's context is already
// cancelled, so the notice gets its own short deadline.
func (o *Orchestrator) dropped(job *Job, conv Conversation) Result {
	job.enter(Errored)
	job.Cleanup()
	log := logger.With("job", job.ID, "owner", job.OwnerID)
	log.Warn("Job dropped before it started", "quality", job.Quality, "url", job.URL)

	ctx, cancel := context.WithTimeout(context.Background(), dropNoticeTimeout)
	defer cancel()
	o.finish(ctx, conv, log, DroppedMessage)

	return Result{
		JobID:   job.ID,
		OwnerID: job.OwnerID,
		Quality: job.Quality,
		State:   job.State(),
		Err:     apperr.Internal("download.run", ErrDropped),
	}
}

func (o *Orchestrator) execute(ctx context.Context, job *Job, log *slog.Logger) (File, error) {
	if err := os.MkdirAll(job.Dir, 0o755); err != nil {
		return File{}, apperr.Internal("download.prepare", errors.Wrap(err, "create job dir"))
	}

	job.enter(Fetching)
	fetchCtx, cancel := withTimeout(ctx, o.cfg.FetchTimeout)
	art, err := o.fetcher.Fetch(fetchCtx, FetchRequest{
		URL:    job.URL,
		Spec:   job.Spec,
		Dir:    job.Dir,
		Output: job.OutputTemplate(),
	})
	cancel()
	if err != nil {
		return File{}, classify(err, apperr.KindFetch, "download.fetch")
	}
	job.track(art.Path)
	log.Info("Fetched", "path", art.Path, "title", art.Title)

	job.enter(PostProcessing)
	path := art.Path
	if needsTranscode(job.Spec, path) {
		tcCtx, cancel := withTimeout(ctx, o.cfg.TranscodeTimeout)
		out, err := o.transcoder.Transcode(tcCtx, path, job.Spec)
		cancel()
		if err != nil {
			return File{}, classify(err, apperr.KindTranscode, "download.transcode")
		}
		job.track(out)
		path = out
	}

	info, err := os.Stat(path)
	if err != nil {
		return File{}, apperr.Transcode("download.stat", errors.Wrap(err, "locate output"))
	}

	title := art.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(art.Path), filepath.Ext(art.Path))
	}
	return File{
		Path:    path,
		Name:    title + filepath.Ext(path),
		Caption: ReadyCaption + "\n" + title,
		Size:    info.Size(),
		Audio:   job.Spec.ExtractAudio,
	}, nil
}

func (o *Orchestrator) deliver(ctx context.Context, job *Job, conv Conversation, f File) error {
	job.enter(Delivering)
	if o.cfg.MaxUploadSize > 0 && f.Size > o.cfg.MaxUploadSize {
		return apperr.Delivery("download.deliver",
			errors.Errorf("file is %d bytes, limit is %d", f.Size, o.cfg.MaxUploadSize))
	}
	if err := conv.SendFile(ctx, f); err != nil {
		return classify(err, apperr.KindDelivery, "download.deliver")
	}
	return nil
}

func (o *Orchestrator) notify(ctx context.Context, conv Conversation, log *slog.Logger, text string) {
	if text == "" {
		return
	}
	if err := conv.Status(ctx, text); err != nil {
		log.Warn("Failed to notify user", "error", err)
	}
}

func (o *Orchestrator) finish(ctx context.Context, conv Conversation, log *slog.Logger, text string) {
	if err := conv.Finish(ctx, text); err != nil {
		log.Warn("Failed to report job outcome", "error", err)
	}
}

// needsTranscode is true for audio extraction and for fetched files whose
// container differs from the requested one.
func needsTranscode(spec catalog.FormatSpec, path string) bool {
	if spec.ExtractAudio {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return spec.Container != "" && ext != spec.Container
}

// classify keeps an existing classification and otherwise files err under kind.
func classify(err error, kind apperr.Kind, op string) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.New(kind, op, "", err)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
