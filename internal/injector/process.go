// Package injector implements the ptrace-based shellcode injection engine
// used by the standalone CLI to bootstrap the agent into a running
// process: attach, locate libc, inject a small architecture-specific
// trampoline, and use it to dlopen the agent's shared library.
package injector

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/oriys/probe/internal/perr"
)

// Process is a handle to a traceable target identified by PID.
type Process struct {
	pid int
}

// NewProcess wraps an existing PID.
func NewProcess(pid int) *Process { return &Process{pid: pid} }

// Current returns a Process handle for the calling process.
func Current() *Process { return &Process{pid: os.Getpid()} }

// Pid returns the process' PID.
func (p *Process) Pid() int { return p.pid }

func (p *Process) String() string { return strconv.Itoa(p.pid) }

// ThreadIDs returns every task ID (kernel thread) belonging to the
// process, read from /proc/<pid>/task.
func (p *Process) ThreadIDs() ([]int, error) {
	entries, err := os.ReadDir(fmt.Sprintf("/proc/%d/task", p.pid))
	if err != nil {
		return nil, perr.Wrap(perr.CodeInjectionError, "process.thread_ids", "reading /proc/<pid>/task", err)
	}
	ids := make([]int, 0, len(entries))
	for _, e := range entries {
		tid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		ids = append(ids, tid)
	}
	return ids, nil
}

// mapsFields splits one /proc/<pid>/maps line into its whitespace
// separated fields: addr-range, perms, offset, dev, inode, pathname.
func mapsFields(line string) []string {
	return strings.Fields(line)
}

// mapping is one line of /proc/<pid>/maps.
type mapping struct {
	start, end uintptr
	perms      string
	pathname   string
}

func (p *Process) readMaps() ([]mapping, error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", p.pid))
	if err != nil {
		return nil, perr.Wrap(perr.CodeInjectionError, "process.maps", "opening /proc/<pid>/maps", err)
	}
	defer f.Close()

	var maps []mapping
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := mapsFields(scanner.Text())
		if len(fields) < 5 {
			continue
		}
		addrs := strings.SplitN(fields[0], "-", 2)
		if len(addrs) != 2 {
			continue
		}
		start, err1 := strconv.ParseUint(addrs[0], 16, 64)
		end, err2 := strconv.ParseUint(addrs[1], 16, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		m := mapping{start: uintptr(start), end: uintptr(end), perms: fields[1]}
		if len(fields) >= 6 {
			m.pathname = fields[5]
		}
		maps = append(maps, m)
	}
	return maps, scanner.Err()
}

// libraryBase returns the lowest mapped address of the first shared
// object whose path contains needle (e.g. "libc.so", "libdl.so"), plus
// its full path for symbol resolution.
func (p *Process) libraryBase(needle string) (uintptr, string, error) {
	maps, err := p.readMaps()
	if err != nil {
		return 0, "", err
	}
	for _, m := range maps {
		if strings.Contains(m.pathname, needle) {
			return m.start, m.pathname, nil
		}
	}
	return 0, "", perr.New(perr.CodeInjectionError, "process.library_base", "no mapping matching "+needle)
}

// LibcAddress returns libc's load base and path in this process.
func (p *Process) LibcAddress() (uintptr, string, error) {
	return p.libraryBase("libc.so")
}

// LibdlAddress returns libdl's load base and path, if separately mapped
// (glibc >= 2.34 folds libdl into libc, so this may legitimately fail).
func (p *Process) LibdlAddress() (uintptr, string, error) {
	return p.libraryBase("libdl.so")
}

// FindExecutableSpace returns the start address of a mapped, executable
// region in the target large enough to hold injected shellcode. The
// process' own text segment always qualifies.
func (p *Process) FindExecutableSpace() (uintptr, error) {
	maps, err := p.readMaps()
	if err != nil {
		return 0, err
	}
	for _, m := range maps {
		if strings.Contains(m.perms, "x") && m.end-m.start >= 16 {
			return m.start, nil
		}
	}
	return 0, perr.New(perr.CodeInjectionError, "process.find_executable_space", "no executable region found")
}
