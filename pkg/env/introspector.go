// Package env probes the host for capabilities that influence how browser
// contexts should be launched: display availability, GPU presence, memory,
// and the client's project directory.
package env

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/driftlock/browsermux/pkg/logging"
)

// Capabilities describes what the introspector found on the host.
type Capabilities struct {
	// Displays lists detected display identifiers (e.g. ":0"). Empty means
	// the host cannot show a browser window.
	Displays []string

	// GPU describes a detected render device, empty if none.
	GPU string

	// ProjectDir is the first declared root that looks like a project
	// checkout, empty if none qualifies.
	ProjectDir string

	// MemoryMB is total system memory in megabytes, 0 if unknown.
	MemoryMB int
}

// LaunchOptions are the introspector's recommended browser launch settings.
type LaunchOptions struct {
	Headless bool

	// RecordVideo suggests enabling context video capture so headless
	// sessions still leave a reviewable trail.
	RecordVideo bool

	Env  map[string]string
	Args []string
}

// Introspector inspects declared filesystem roots and derives launch
// recommendations. Results are cached until the root set changes.
type Introspector struct {
	mu    sync.Mutex
	roots []string
	caps  *Capabilities

	// probe points are swappable for tests
	procMeminfo string
	driDir      string
	x11SockDir  string
	lookupEnv   func(string) (string, bool)
}

// NewIntrospector returns an introspector probing the real host.
func NewIntrospector() *Introspector {
	return &Introspector{
		procMeminfo: "/proc/meminfo",
		driDir:      "/dev/dri",
		x11SockDir:  "/tmp/.X11-unix",
		lookupEnv:   os.LookupEnv,
	}
}

// UpdateRoots declares the filesystem roots the client has exposed.
// Changing the set (order-insensitive) invalidates the cached capabilities.
func (in *Introspector) UpdateRoots(roots []string) {
	normalized := append([]string(nil), roots...)
	sort.Strings(normalized)

	in.mu.Lock()
	defer in.mu.Unlock()

	if slicesEqual(in.roots, normalized) {
		return
	}
	in.roots = normalized
	in.caps = nil
	logging.For("env").Debug("roots changed, capability cache invalidated", "roots", len(normalized))
}

// Capabilities returns the probed host capabilities, computing them on first
// use and after every root change.
func (in *Introspector) Capabilities() Capabilities {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.caps == nil {
		caps := in.probe()
		in.caps = &caps
	}
	return *in.caps
}

// RecommendedBrowserOptions derives launch options from the capabilities:
// headless plus a video-recording suggestion when no display is reachable,
// software-rendering args when no GPU was found, and a DISPLAY entry for
// the first detected display.
func (in *Introspector) RecommendedBrowserOptions() LaunchOptions {
	caps := in.Capabilities()

	opts := LaunchOptions{
		Headless:    len(caps.Displays) == 0,
		RecordVideo: len(caps.Displays) == 0,
		Env:         map[string]string{},
	}
	if len(caps.Displays) > 0 {
		opts.Env["DISPLAY"] = caps.Displays[0]
	}
	if caps.GPU == "" {
		opts.Args = append(opts.Args, "--disable-gpu", "--use-gl=swiftshader")
	}
	if caps.MemoryMB > 0 && caps.MemoryMB < 2048 {
		opts.Args = append(opts.Args, "--disable-dev-shm-usage")
	}
	return opts
}

// Summary renders the capabilities as a short human-readable report.
func (in *Introspector) Summary() string {
	caps := in.Capabilities()

	var b strings.Builder
	if len(caps.Displays) > 0 {
		fmt.Fprintf(&b, "Displays: %s\n", strings.Join(caps.Displays, ", "))
	} else {
		b.WriteString("Displays: none (headless)\n")
	}
	if caps.GPU != "" {
		fmt.Fprintf(&b, "GPU: %s\n", caps.GPU)
	} else {
		b.WriteString("GPU: none detected\n")
	}
	if caps.MemoryMB > 0 {
		fmt.Fprintf(&b, "Memory: %d MB\n", caps.MemoryMB)
	}
	if caps.ProjectDir != "" {
		fmt.Fprintf(&b, "Project directory: %s\n", caps.ProjectDir)
	}
	return b.String()
}

func (in *Introspector) probe() Capabilities {
	caps := Capabilities{
		Displays:   in.probeDisplays(),
		GPU:        in.probeGPU(),
		MemoryMB:   in.probeMemoryMB(),
		ProjectDir: in.probeProjectDir(),
	}
	logging.For("env").Debug("host probed",
		"displays", len(caps.Displays), "gpu", caps.GPU != "", "memoryMB", caps.MemoryMB)
	return caps
}

func (in *Introspector) probeDisplays() []string {
	var displays []string

	if v, ok := in.lookupEnv("DISPLAY"); ok && v != "" {
		displays = append(displays, v)
	}

	// X sockets are named X<n> under the socket dir.
	entries, err := os.ReadDir(in.x11SockDir)
	if err == nil {
		for _, e := range entries {
			name := e.Name()
			if !strings.HasPrefix(name, "X") {
				continue
			}
			display := ":" + strings.TrimPrefix(name, "X")
			if !contains(displays, display) {
				displays = append(displays, display)
			}
		}
	}
	return displays
}

func (in *Introspector) probeGPU() string {
	entries, err := os.ReadDir(in.driDir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "renderD") {
			return filepath.Join(in.driDir, e.Name())
		}
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "card") {
			return filepath.Join(in.driDir, e.Name())
		}
	}
	return ""
}

func (in *Introspector) probeMemoryMB() int {
	data, err := os.ReadFile(in.procMeminfo)
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.Atoi(fields[1])
		if err != nil {
			return 0
		}
		return kb / 1024
	}
	return 0
}

// projectMarkers identify a root as a project checkout.
var projectMarkers = []string{".git", "go.mod", "package.json", "pyproject.toml"}

func (in *Introspector) probeProjectDir() string {
	for _, root := range in.roots {
		for _, marker := range projectMarkers {
			if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
				return root
			}
		}
	}
	return ""
}

func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
