package cancel

import (
	"io"
	"os"
	"os/signal"
	"sync"

	"github.com/pkg/errors"

	"github.com/customeros/mailchecker/interfaces"
	"github.com/customeros/mailchecker/internal/logger"
)

// Watcher turns a single keystroke or an OS signal into a cancellation
// signal. The signal is set at most once and never reset.
type Watcher struct {
	in     io.Reader
	logger logger.Logger

	once   sync.Once
	done   chan struct{}
	mu     sync.Mutex
	reason string
}

var _ interfaces.CancellationSignal = (*Watcher)(nil)

func NewWatcher(in io.Reader, log logger.Logger) *Watcher {
	return &Watcher{
		in:     in,
		logger: log,
		done:   make(chan struct{}),
	}
}

// Start runs AwaitUserInput in its own goroutine.
func (w *Watcher) Start() {
	go w.AwaitUserInput()
}

// AwaitUserInput blocks until one byte arrives and then cancels. End of
// input does not cancel, so a detached process keeps running.
func (w *Watcher) AwaitUserInput() {
	buf := make([]byte, 1)
	for {
		n, err := w.in.Read(buf)
		if n > 0 {
			w.Cancel("key pressed")
			return
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				w.logger.Info("Input closed, keystroke cancellation disabled")
			} else {
				w.logger.Warnf("Reading input failed, keystroke cancellation disabled: %v", err)
			}
			return
		}
	}
}

// WatchSignals cancels on the first of sigs. The returned func stops watching.
func (w *Watcher) WatchSignals(sigs ...os.Signal) func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)

	stopped := make(chan struct{})
	var stopOnce sync.Once

	go func() {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			w.Cancel(sig.String())
		case <-w.done:
		case <-stopped:
		}
	}()

	return func() {
		stopOnce.Do(func() { close(stopped) })
	}
}

func (w *Watcher) Cancel(reason string) {
	w.once.Do(func() {
		w.mu.Lock()
		w.reason = reason
		w.mu.Unlock()
		close(w.done)
		w.logger.Infof("Cancellation requested: %s", reason)
	})
}

func (w *Watcher) IsCancelled() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) Reason() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reason
}
