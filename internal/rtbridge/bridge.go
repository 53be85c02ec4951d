package rtbridge

import (
	"os"
	"sync"

	"github.com/dop251/goja"

	"github.com/oriys/probe/internal/perr"
	"github.com/oriys/probe/internal/unwind"
)

// Bridge owns the embedded managed-runtime VM, the loaded extension
// objects, and the registration of unwind.ManagedFrameCollector that lets
// backtrace() reach into it.
type Bridge struct {
	mu               sync.Mutex
	version          Version
	vm               *goja.Runtime
	extensions       map[string]*goja.Object
	crashHandlerPath string
}

// New builds a Bridge targeting the given managed-runtime layout version
// and registers it as the process-wide managed frame collector for the
// stack unwinder.
func New(version Version) *Bridge {
	b := &Bridge{
		version:    version,
		vm:         goja.New(),
		extensions: make(map[string]*goja.Object),
	}
	unwind.ManagedFrameCollector = b.collectFrames
	return b
}

// VM exposes the underlying goja runtime for callers that need to bind
// host functions into it (e.g. the control plane exposing probe state).
func (b *Bridge) VM() *goja.Runtime { return b.vm }

func (b *Bridge) collectFrames(tid int32) []unwind.CallFrame {
	b.mu.Lock()
	defer b.mu.Unlock()
	walker, ok := walkersByVersion[b.version]
	if !ok {
		return nil
	}
	return walker(b.vm)
}

// InstallMonitoring evaluates a user-supplied script in the managed
// runtime to install monitoring hooks. Failure fails the whole operation;
// a script that throws at run time keeps the effects of the statements
// that ran before the throw.
func (b *Bridge) InstallMonitoring(scriptPath string) error {
	src, err := os.ReadFile(scriptPath)
	if err != nil {
		return perr.Wrap(perr.CodePluginError, "rtbridge.install_monitoring", "reading monitoring script", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.vm.RunString(string(src)); err != nil {
		return perr.Wrap(perr.CodePluginError, "rtbridge.install_monitoring", "evaluating monitoring script", err)
	}
	return nil
}

// LoadExtension evaluates source, expects it to produce an object with
// init() and deinit() methods, calls init(), and registers the object
// under name for a later Unload to call deinit() on.
func (b *Bridge) LoadExtension(name, source string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.extensions[name]; exists {
		return perr.New(perr.CodeInvalidRequest, "rtbridge.load_extension", "extension already loaded: "+name)
	}

	val, err := b.vm.RunString(source)
	if err != nil {
		return perr.Wrap(perr.CodePluginError, "rtbridge.load_extension", "evaluating extension source", err)
	}
	obj := val.ToObject(b.vm)
	initFn, ok := goja.AssertFunction(obj.Get("init"))
	if !ok {
		return perr.New(perr.CodePluginError, "rtbridge.load_extension", "extension object has no init()")
	}
	if _, err := initFn(goja.Undefined()); err != nil {
		return perr.Wrap(perr.CodePluginError, "rtbridge.load_extension", "extension init() failed", err)
	}
	b.extensions[name] = obj
	return nil
}

// UnloadExtension calls deinit() on a previously loaded extension object
// and forgets it.
func (b *Bridge) UnloadExtension(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	obj, ok := b.extensions[name]
	if !ok {
		return perr.New(perr.CodeInvalidRequest, "rtbridge.unload_extension", "no such extension: "+name)
	}
	if deinitFn, ok := goja.AssertFunction(obj.Get("deinit")); ok {
		if _, err := deinitFn(goja.Undefined()); err != nil {
			return perr.Wrap(perr.CodePluginError, "rtbridge.unload_extension", "extension deinit() failed", err)
		}
	}
	delete(b.extensions, name)
	return nil
}

// LoadedExtensions lists the currently registered extension names.
func (b *Bridge) LoadedExtensions() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.extensions))
	for name := range b.extensions {
		names = append(names, name)
	}
	return names
}
