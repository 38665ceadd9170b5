package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Upload pipeline states. TypeRejected and ServerRejected are terminal until
// a new file is selected; ServerAccepted is terminal for the pipeline run.
const (
	StateIdle           = "idle"
	StateFileSelected   = "file_selected"
	StateTypeRejected   = "type_rejected"
	StateUploading      = "uploading"
	StateServerAccepted = "server_accepted"
	StateServerRejected = "server_rejected"
)

const csvMIMEType = "text/csv"

// compensator undoes a project creation whose ingestion was rejected.
type compensator interface {
	RollbackCreate(ctx context.Context, projectID int64)
}

// UploadPipeline carries a single selected file through MIME gating, a
// client-side progress ramp and server-side ingestion. Progress only ever
// moves forward within one run.
type UploadPipeline struct {
	collab   Collaborator
	notifier Notifier
	comp     compensator

	interval time.Duration
	step     int

	mu        sync.Mutex
	state     string
	progress  int
	filename  string
	file      []byte
	projectID int64
	fresh     bool
	lastError string
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewUploadPipeline builds an idle pipeline. The default pacing advances the
// progress ramp by 20% every 500ms before the request is sent.
func NewUploadPipeline(collab Collaborator, notifier Notifier, comp compensator) *UploadPipeline {
	return &UploadPipeline{
		collab:   collab,
		notifier: notifier,
		comp:     comp,
		interval: 500 * time.Millisecond,
		step:     20,
		state:    StateIdle,
	}
}

// SetPacing overrides the progress ramp interval and step size. Tests use a
// short interval so a run completes quickly.
func (p *UploadPipeline) SetPacing(interval time.Duration, step int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if interval > 0 {
		p.interval = interval
	}
	if step > 0 {
		p.step = step
	}
}

// State returns the current pipeline state.
func (p *UploadPipeline) State() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Progress returns the ramp position from 0 to 100.
func (p *UploadPipeline) Progress() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progress
}

// LastError returns the sticky server message from the last rejection.
func (p *UploadPipeline) LastError() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastError
}

// FileSelected reports whether a file is staged for upload.
func (p *UploadPipeline) FileSelected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.file != nil
}

// Done returns a channel closed when the current run reaches a terminal
// state, nil when no run has started.
func (p *UploadPipeline) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Select stages a file for upload. Exactly one file is held at a time; a
// non-CSV MIME type discards the file and moves the pipeline to
// TypeRejected. Selecting during an active run is refused.
func (p *UploadPipeline) Select(filename, mimeType string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateUploading {
		return errors.New("an upload is already in progress")
	}
	if mimeType != csvMIMEType {
		p.state = StateTypeRejected
		p.file = nil
		p.filename = ""
		p.progress = 0
		p.notifier.Notify(Notice{Severity: SeverityError, Summary: "Error", Detail: "only CSV files are allowed"})
		return fmt.Errorf("unsupported file type %q", mimeType)
	}

	p.state = StateFileSelected
	p.filename = filename
	p.file = data
	p.progress = 0
	p.lastError = ""
	return nil
}

// Start begins a run for the staged file against the given project. When
// fresh is true the project was created moments ago and a rejection triggers
// the compensating delete. The run is asynchronous; callers observe it via
// State, Progress and Done.
func (p *UploadPipeline) Start(ctx context.Context, projectID int64, fresh bool) error {
	p.mu.Lock()
	if p.state != StateFileSelected || p.file == nil {
		p.mu.Unlock()
		return errors.New("no file selected")
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.state = StateUploading
	p.progress = 0
	p.projectID = projectID
	p.fresh = fresh
	p.cancel = cancel
	done := make(chan struct{})
	p.done = done
	p.mu.Unlock()

	go p.run(runCtx, done)
	return nil
}

// Abort cancels the active run and resets the pipeline to Idle. A run
// cancelled after its project was freshly created still performs the
// compensating delete.
func (p *UploadPipeline) Abort(ctx context.Context) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	fresh := p.fresh && p.state == StateUploading
	projectID := p.projectID
	p.state = StateIdle
	p.file = nil
	p.filename = ""
	p.progress = 0
	p.fresh = false
	p.projectID = 0
	p.mu.Unlock()

	if fresh && projectID != 0 {
		p.comp.RollbackCreate(ctx, projectID)
	}
}

func (p *UploadPipeline) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.rampInterval())
	defer ticker.Stop()

	for p.Progress() < 100 {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.advance()
		}
	}

	p.mu.Lock()
	projectID := p.projectID
	filename := p.filename
	file := p.file
	fresh := p.fresh
	p.mu.Unlock()

	err := p.collab.UploadDataset(ctx, projectID, filename, file)
	if err == nil {
		p.mu.Lock()
		p.state = StateServerAccepted
		p.file = nil
		p.filename = ""
		p.lastError = ""
		p.mu.Unlock()
		p.notifier.Notify(Notice{Severity: SeveritySuccess, Summary: "Success", Detail: "file uploaded and validated successfully"})
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}

	var rejection *IngestRejection
	if errors.As(err, &rejection) {
		p.reject(rejection.Message)
		for _, re := range rejection.RowErrors {
			p.notifier.Notify(Notice{
				Severity: SeverityError,
				Summary:  "Validation error",
				Detail:   fmt.Sprintf("row %d, field %q, value %q: %s", re.RowIndex, re.Field, re.Value, re.Message),
			})
		}
		if len(rejection.ExpectedFields) > 0 {
			p.notifier.Notify(Notice{
				Severity: SeverityWarn,
				Summary:  "Expected fields",
				Detail:   strings.Join(rejection.ExpectedFields, ", "),
			})
		}
	} else {
		p.reject("error uploading the file")
	}

	if fresh {
		p.comp.RollbackCreate(ctx, projectID)
	}
}

func (p *UploadPipeline) reject(message string) {
	p.mu.Lock()
	p.state = StateServerRejected
	p.lastError = message
	p.mu.Unlock()
	p.notifier.Notify(Notice{Severity: SeverityError, Summary: "Error", Detail: message})
}

func (p *UploadPipeline) advance() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.progress+p.step >= 100 {
		p.progress = 100
		return
	}
	p.progress += p.step
}

func (p *UploadPipeline) rampInterval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}
