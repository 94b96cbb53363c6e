package download

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pavelc4/gatekeeper-dl-bot/internal/catalog"
	"github.com/pavelc4/gatekeeper-dl-bot/pkg/logger"
)

const (
	jobDirPrefix   = "job-"
	outputTemplate = "%(title).100B.%(ext)s"
)

// Job is one fetch-to-delivery attempt. It owns Dir exclusively; nothing
// outside the job reads or writes there.
type Job struct {
	ID        string
	OwnerID   int64
	URL       string
	Quality   catalog.Quality
	Spec      catalog.FormatSpec
	Dir       string
	CreatedAt time.Time

	mu      sync.Mutex
	state   State
	history []State
	files   []string
	once    sync.Once
}

func newJob(workDir string, owner int64, url string, q catalog.Quality) *Job {
	id := uuid.NewString()
	return &Job{
		ID:        id,
		OwnerID:   owner,
		URL:       url,
		Quality:   q,
		Spec:      catalog.Resolve(q),
		Dir:       filepath.Join(workDir, fmt.Sprintf("%s%d-%s", jobDirPrefix, owner, id)),
		CreatedAt: time.Now(),
		state:     AwaitingSelection,
		history:   []State{AwaitingSelection},
	}
}

// OutputTemplate is the fetch tool's output path, scoped to the job directory.
func (j *Job) OutputTemplate() string {
	return filepath.Join(j.Dir, outputTemplate)
}

func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

func (j *Job) History() []State {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]State, len(j.history))
	copy(out, j.history)
	return out
}

func (j *Job) enter(to State) {
	j.mu.Lock()
	from := j.state
	if !canMove(from, to) {
		j.mu.Unlock()
		logger.Warn("Ignoring illegal job transition", "job", j.ID, "from", from, "to", to)
		return
	}
	j.state = to
	j.history = append(j.history, to)
	j.mu.Unlock()

	logger.Debug("Job transition", "job", j.ID, "owner", j.OwnerID, "from", from, "to", to)
}

func (j *Job) track(path string) {
	if path == "" {
		return
	}
	j.mu.Lock()
	j.files = append(j.files, path)
	j.mu.Unlock()
}

// Cleanup removes every file the job produced and its directory. Only the
// first call does any work.
func (j *Job) Cleanup() {
	j.once.Do(func() {
		j.mu.Lock()
		files := append([]string(nil), j.files...)
		j.mu.Unlock()

		for _, f := range files {
			if err := RemovePath(f); err != nil {
				logger.Warn("Failed to remove job file", "job", j.ID, "path", f, "error", err)
			}
		}
		if err := RemovePath(j.Dir); err != nil {
			logger.Warn("Failed to remove job directory", "job", j.ID, "dir", j.Dir, "error", err)
		}
	})
}

// RemovePath deletes a file or directory tree. A path that is already gone is
// not an error.
func RemovePath(path string) error {
	if path == "" {
		return nil
	}
	if err := os.RemoveAll(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
