package preflight

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/Aman-CERP/livedoc/internal/logging"
)

// MinFileDescriptors is the recommended file descriptor limit.
const MinFileDescriptors = 1024

// inotifyWatchesPath is where Linux exposes the per-user watch limit.
var inotifyWatchesPath = "/proc/sys/fs/inotify/max_user_watches"

// CheckFileDescriptors checks if the file descriptor limit leaves room for
// parallel extraction and the watcher.
func (c *Checker) CheckFileDescriptors() CheckResult {
	result := CheckResult{
		Name: "file_descriptors",
	}

	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("failed to check file descriptor limit: %v", err)
		return result
	}

	result.Message = fmt.Sprintf("%d (recommended: %d)", rLimit.Cur, MinFileDescriptors)
	if rLimit.Cur < MinFileDescriptors {
		result.Status = StatusWarn
		result.Details = "Run 'ulimit -n 10240' to increase the limit"
		return result
	}
	result.Status = StatusPass
	return result
}

// CheckInotifyWatches compares the Linux inotify watch limit with the number
// of watched directories. Other platforms pass.
func (c *Checker) CheckInotifyWatches(dirs int) CheckResult {
	result := CheckResult{
		Name: "inotify_watches",
	}

	data, err := os.ReadFile(inotifyWatchesPath)
	if err != nil {
		result.Status = StatusPass
		result.Message = "not applicable"
		return result
	}
	limit, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		result.Status = StatusWarn
		result.Message = "cannot parse " + inotifyWatchesPath
		return result
	}

	result.Message = fmt.Sprintf("%d (needed: about %d)", limit, dirs)
	if limit < dirs {
		result.Status = StatusWarn
		result.Details = "The watcher will fall back to polling; raise fs.inotify.max_user_watches"
		return result
	}
	result.Status = StatusPass
	return result
}

// CheckPort checks that the HTTP live view can bind host:port.
func (c *Checker) CheckPort(host string, port int) CheckResult {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	result := CheckResult{
		Name:    "http_port",
		Message: addr + " is free",
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		result.Status = StatusWarn
		result.Message = addr + " is not available"
		result.Details = "Use 'livedoc serve --port' or set server.port"
		return result
	}
	_ = ln.Close()
	result.Status = StatusPass
	return result
}

// CheckLogDir checks that debug and MCP logs can be written.
func (c *Checker) CheckLogDir() CheckResult {
	dir := logging.DefaultLogDir()
	result := CheckResult{
		Name:    "log_dir",
		Message: dir,
	}

	if err := logging.EnsureLogDir(); err != nil {
		result.Status = StatusWarn
		result.Details = err.Error()
		return result
	}
	probe := filepath.Join(dir, ".livedoc-preflight")
	f, err := os.Create(probe)
	if err != nil {
		result.Status = StatusWarn
		result.Details = fmt.Sprintf("not writable: %v", err)
		return result
	}
	_ = f.Close()
	_ = os.Remove(probe)

	result.Status = StatusPass
	return result
}
