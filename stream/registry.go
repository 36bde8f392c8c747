package stream

import "fmt"

// Factory opens a driver from its config file path (may be empty for
// drivers that need no config, e.g. memory).
type Factory func(configPath string) (Stream, error)

var registry = map[string]Factory{}

// Register is called from each driver's init() or from main.
func Register(name string, f Factory) {
	registry[name] = f
}

// Open returns a connected driver by name ("kafka", "postgres", "memory").
func Open(name, configPath string) (Stream, error) {
	if f, ok := registry[name]; ok {
		return f(configPath)
	}
	return nil, fmt.Errorf("stream: unsupported driver %q", name)
}
