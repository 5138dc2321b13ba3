// Package profiling wires the --profile-* flags to runtime/pprof and
// runtime/trace.
package profiling

import (
	"errors"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	docerrors "github.com/Aman-CERP/livedoc/internal/errors"
)

// Options names the output file of each profile. Empty disables it.
type Options struct {
	CPU   string
	Mem   string
	Trace string
}

// Enabled reports whether any profile was requested.
func (o Options) Enabled() bool {
	return o.CPU != "" || o.Mem != "" || o.Trace != ""
}

// Profiler manages the profiles of one command run.
type Profiler struct {
	opts      Options
	logger    *slog.Logger
	cpuFile   *os.File
	traceFile *os.File
}

// Start begins CPU profiling and tracing as requested. The heap profile is
// written by Stop, so it reflects the state at the end of the command.
func Start(opts Options, logger *slog.Logger) (*Profiler, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := &Profiler{opts: opts, logger: logger}

	if opts.CPU != "" {
		f, err := create(opts.CPU)
		if err != nil {
			return nil, err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, docerrors.InternalError("failed to start CPU profile", err)
		}
		p.cpuFile = f
		logger.Debug("cpu profiling started", slog.String("path", opts.CPU))
	}

	if opts.Trace != "" {
		f, err := create(opts.Trace)
		if err != nil {
			p.stopCPU()
			return nil, err
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			p.stopCPU()
			return nil, docerrors.InternalError("failed to start trace", err)
		}
		p.traceFile = f
		logger.Debug("tracing started", slog.String("path", opts.Trace))
	}

	return p, nil
}

// Stop ends every running profile and writes the heap profile. It is safe
// to call more than once.
func (p *Profiler) Stop() error {
	var errs []error
	if p.traceFile != nil {
		trace.Stop()
		errs = append(errs, p.traceFile.Close())
		p.traceFile = nil
	}
	errs = append(errs, p.stopCPU())
	if p.opts.Mem != "" {
		errs = append(errs, WriteHeap(p.opts.Mem))
		p.logger.Debug("heap profile written", slog.String("path", p.opts.Mem))
		p.opts.Mem = ""
	}
	return errors.Join(errs...)
}

func (p *Profiler) stopCPU() error {
	if p.cpuFile == nil {
		return nil
	}
	pprof.StopCPUProfile()
	err := p.cpuFile.Close()
	p.cpuFile = nil
	return err
}

// WriteHeap writes a heap profile to path after a forced GC.
func WriteHeap(path string) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return docerrors.New(docerrors.ErrCodeWriteFailed, "failed to write heap profile", err).WithDetail("path", path)
	}
	return nil
}

func create(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, docerrors.New(docerrors.ErrCodeWriteFailed, "cannot create profile file", err).
			WithDetail("path", path)
	}
	return f, nil
}
