package luaembed

// LoaderFunc resolves a trimmed, non-empty require() name to a byte buffer
// holding Lua source or precompiled bytecode.
type LoaderFunc func(name string) ([]byte, error)

// MemoryHook is consulted at three points: before a native callable's
// return value is pushed, before user-data is allocated for an object
// reference, and before a name is added to the require() loaded-library
// set. Returning an error denies the allocation and surfaces as a
// MemoryError. Allocations the Lua runtime makes on its own (compiling and
// running chunks, script-created tables and strings) and scalar arguments
// passed to Script.Call are not charged.
type MemoryHook func(n int) error

// Configuration configures a Script's memory hook, require() loader, and
// built-in library preloads. Build one with NewConfiguration and the
// With* options below.
type Configuration struct {
	memoryHook   MemoryHook
	loader       LoaderFunc
	libraries    librarySet
	registryMax  int
	growStep     int
}

type librarySet struct {
	json    bool
	re      bool
	url     bool
	http    bool
	xmlpath bool
}

// Option configures a Configuration at construction time.
type Option func(*Configuration)

func defaultConfiguration() Configuration {
	return Configuration{
		registryMax: 0,
		growStep:    0,
	}
}

// NewConfiguration builds a Configuration from the given options.
func NewConfiguration(opts ...Option) *Configuration {
	cfg := defaultConfiguration()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithMemoryHook installs the hook consulted at the points listed on
// MemoryHook. This is the supported resource-limiting mechanism; global
// allocator interposition is not part of the contract.
func WithMemoryHook(hook MemoryHook) Option {
	return func(c *Configuration) { c.memoryHook = hook }
}

// WithLoader installs the require() fetcher used by the loader gate.
func WithLoader(loader LoaderFunc) Option {
	return func(c *Configuration) { c.loader = loader }
}

// WithRegistryLimit bounds the underlying Lua registry's growth, the
// runtime-level analogue of a memory ceiling.
func WithRegistryLimit(max, growStep int) Option {
	return func(c *Configuration) {
		c.registryMax = max
		c.growStep = growStep
	}
}

// WithLibraryJSON preloads the "json" built-in module (backed by
// layeh.com/gopher-json) into every script built with this configuration.
func WithLibraryJSON() Option {
	return func(c *Configuration) { c.libraries.json = true }
}

// WithLibraryRegexp preloads the "re" built-in module (backed by
// github.com/yuin/gluare).
func WithLibraryRegexp() Option {
	return func(c *Configuration) { c.libraries.re = true }
}

// WithLibraryURL preloads the "url" built-in module (backed by
// github.com/cjoudrey/gluaurl).
func WithLibraryURL() Option {
	return func(c *Configuration) { c.libraries.url = true }
}

// WithLibraryHTTP preloads the "http" built-in module (backed by
// github.com/ciaos/gluahttp). Off by default: sandboxes must not get
// free network access without an explicit opt-in.
func WithLibraryHTTP() Option {
	return func(c *Configuration) { c.libraries.http = true }
}

// WithLibraryXMLPath preloads the "xmlpath" built-in module (backed by
// github.com/ailncode/gluaxmlpath).
func WithLibraryXMLPath() Option {
	return func(c *Configuration) { c.libraries.xmlpath = true }
}

func (c *Configuration) charge(n int) error {
	if c == nil || c.memoryHook == nil {
		return nil
	}
	return c.memoryHook(n)
}
