package injector

import (
	"debug/elf"

	"github.com/oriys/probe/internal/perr"
)

// LibcAddrs holds the absolute addresses, within a specific process, of
// the libc (and, if needed, libdl) functions the injector calls through
// its shellcode trampoline.
type LibcAddrs struct {
	UseLibdl bool
	Malloc   uintptr
	Dlopen   uintptr
	Free     uintptr
	Putenv   uintptr
	Setenv   uintptr
	Getenv   uintptr
	Printf   uintptr
}

var wantedSymbols = []string{"malloc", "free", "putenv", "setenv", "getenv", "printf"}

// symbolOffsets opens the ELF shared object at path and returns each
// requested dynamic symbol's virtual address, relative to the object's
// lowest PT_LOAD segment (i.e. the offset to add to the object's mapped
// load base to get an absolute runtime address).
func symbolOffsets(path string, names []string) (map[string]uint64, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, perr.Wrap(perr.CodeInjectionError, "libcaddrs.symbol_offsets", "opening "+path, err)
	}
	defer f.Close()

	var minLoadVaddr uint64
	first := true
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		if first || prog.Vaddr < minLoadVaddr {
			minLoadVaddr = prog.Vaddr
			first = false
		}
	}

	syms, err := f.DynamicSymbols()
	if err != nil {
		return nil, perr.Wrap(perr.CodeInjectionError, "libcaddrs.symbol_offsets", "reading dynsym of "+path, err)
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	out := make(map[string]uint64, len(names))
	for _, s := range syms {
		if want[s.Name] && s.Value != 0 {
			out[s.Name] = s.Value - minLoadVaddr
		}
	}
	return out, nil
}

// resolveLocal resolves libc/libdl function offsets by reading the ELF
// files mapped into the calling process, mirroring a dlopen-and-dlsym
// approach without invoking cgo.
func resolveLocal() (offsets map[string]uint64, dlopenFromLibdl bool, libdlOffsets map[string]uint64, err error) {
	cur := Current()
	_, libcPath, err := cur.LibcAddress()
	if err != nil {
		return nil, false, nil, err
	}

	names := append(append([]string(nil), wantedSymbols...), "___dlopen", "dlopen")
	offsets, err = symbolOffsets(libcPath, names)
	if err != nil {
		return nil, false, nil, err
	}

	if _, ok := offsets["___dlopen"]; ok {
		return offsets, false, nil, nil
	}
	if _, ok := offsets["dlopen"]; ok {
		return offsets, false, nil, nil
	}

	_, libdlPath, err := cur.LibdlAddress()
	if err != nil {
		return nil, false, nil, perr.New(perr.CodeInjectionError, "libcaddrs.resolve_local",
			"dlopen not found in libc and no separate libdl mapping")
	}
	libdlOffsets, err = symbolOffsets(libdlPath, []string{"dlopen"})
	if err != nil {
		return nil, false, nil, err
	}
	if _, ok := libdlOffsets["dlopen"]; !ok {
		return nil, false, nil, perr.New(perr.CodeInjectionError, "libcaddrs.resolve_local", "dlopen not found in libdl either")
	}
	return offsets, true, libdlOffsets, nil
}

// ForProcess computes LibcAddrs for proc by resolving our own libc/libdl
// symbol offsets once, then adding each target's own load base — this
// avoids the "change_base" translation the CLI-injector original needs
// when it can only introspect its own process's symbol addresses; here
// we read the ELF directly so we already have base-independent offsets.
func ForProcess(proc *Process) (LibcAddrs, error) {
	offsets, useLibdl, libdlOffsets, err := resolveLocal()
	if err != nil {
		return LibcAddrs{}, err
	}

	theirLibcBase, _, err := proc.LibcAddress()
	if err != nil {
		return LibcAddrs{}, perr.Wrap(perr.CodeInjectionError, "libcaddrs.for_process", "target libc base", err)
	}

	addrs := LibcAddrs{
		UseLibdl: useLibdl,
		Malloc:   uintptr(theirLibcBase) + uintptr(offsets["malloc"]),
		Free:     uintptr(theirLibcBase) + uintptr(offsets["free"]),
		Putenv:   uintptr(theirLibcBase) + uintptr(offsets["putenv"]),
		Setenv:   uintptr(theirLibcBase) + uintptr(offsets["setenv"]),
		Getenv:   uintptr(theirLibcBase) + uintptr(offsets["getenv"]),
		Printf:   uintptr(theirLibcBase) + uintptr(offsets["printf"]),
	}

	if useLibdl {
		theirLibdlBase, _, err := proc.LibdlAddress()
		if err != nil {
			return LibcAddrs{}, perr.Wrap(perr.CodeInjectionError, "libcaddrs.for_process", "target libdl base", err)
		}
		addrs.Dlopen = uintptr(theirLibdlBase) + uintptr(libdlOffsets["dlopen"])
	} else {
		if off, ok := offsets["___dlopen"]; ok {
			addrs.Dlopen = uintptr(theirLibcBase) + uintptr(off)
		} else {
			addrs.Dlopen = uintptr(theirLibcBase) + uintptr(offsets["dlopen"])
		}
	}

	return addrs, nil
}
