package framework

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/golang/glog"
)

// ErrForcedExit is returned by Runner.Wait when a second stop signal
// arrives before all Runnables stopped.
var ErrForcedExit = errors.New("forced exit")

// RunError reports the Runnable which stopped with an error.
type RunError struct {
	Name string
	Err  error
}

// Error implements error.
func (e *RunError) Error() string {
	return e.Name + ": " + e.Err.Error()
}

// Unwrap returns the error of the Runnable.
func (e *RunError) Unwrap() error {
	return e.Err
}

type namedRunnable struct {
	Runnable
	name string
}

func (r *namedRunnable) Name() string {
	return r.name
}

// NamedRun attaches a name to a Runnable for logging.
func NamedRun(name string, runnable Runnable) Runnable {
	return &namedRunnable{name: name, Runnable: runnable}
}

// Runner starts Runnables on their own goroutines. Transport readers feed
// a single link, so the first one failing cancels the others.
type Runner struct {
	Context context.Context
	Runners []Runnable

	cancel  context.CancelFunc
	results chan error
	forced  chan struct{}
}

// NewRunner creates a Runner with a background context.
func NewRunner() *Runner {
	return NewRunnerWith(context.Background())
}

// NewRunnerWith creates a Runner derived from ctx.
func NewRunnerWith(ctx context.Context) *Runner {
	ctx, cancel := context.WithCancel(ctx)
	return &Runner{
		Context: ctx,
		cancel:  cancel,
		results: make(chan error),
		forced:  make(chan struct{}),
	}
}

// HandleSignals stops the Runnables on Ctrl-C or SIGTERM. A second signal
// makes Wait return immediately.
func (r *Runner) HandleSignals() *Runner {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		glog.Info("stop requested")
		r.cancel()
		<-sigCh
		glog.Error("stop requested again, force exit")
		close(r.forced)
	}()
	return r
}

// Done is closed when the Runner is stopping.
func (r *Runner) Done() <-chan struct{} {
	return r.Context.Done()
}

// Stop cancels all Runnables.
func (r *Runner) Stop() {
	r.cancel()
}

// Go starts Runnables.
func (r *Runner) Go(runners ...Runnable) *Runner {
	for _, runner := range runners {
		name := fmt.Sprintf("#%d", len(r.Runners))
		if named, ok := runner.(Named); ok {
			name = named.Name()
		}
		r.Runners = append(r.Runners, runner)
		go r.run(runner, name)
	}
	return r
}

func (r *Runner) run(runner Runnable, name string) {
	glog.V(4).Infof("%s started", name)
	err := runner.Run(r.Context)
	if err != nil && !errors.Is(err, context.Canceled) {
		glog.Errorf("%s stopped: %v", name, err)
		err = &RunError{Name: name, Err: err}
		r.cancel()
	} else {
		glog.V(4).Infof("%s stopped", name)
		err = nil
	}
	select {
	case r.results <- err:
	case <-r.forced:
	}
}

// Wait blocks until all Runnables stopped and returns their failures.
// It must be called once.
func (r *Runner) Wait() error {
	defer r.cancel()
	var errs AggregatedError
	for range r.Runners {
		select {
		case <-r.forced:
			return ErrForcedExit
		case err := <-r.results:
			errs.Add(err)
		}
	}
	return errs.Aggregate()
}

// RunWithContextCancel runs fn which doesn't take a context. onCancel is
// invoked when ctx is done and is expected to unblock fn.
func RunWithContextCancel(ctx context.Context, onCancel func(), fn func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()
	select {
	case <-ctx.Done():
		if onCancel != nil {
			onCancel()
		}
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// RunWithContextCloser runs fn reading from closer, which is closed exactly
// once, either to unblock fn on cancel or after fn returns.
func RunWithContextCloser(ctx context.Context, closer io.Closer, fn func() error) error {
	var once sync.Once
	closeOnce := func() {
		once.Do(func() { closer.Close() })
	}
	defer closeOnce()
	return RunWithContextCancel(ctx, closeOnce, fn)
}
