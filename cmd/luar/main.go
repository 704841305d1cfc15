// luar runs a script, or a chunk image produced by luarc.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"

	"github.com/chazu/luar/compiler"
	"github.com/chazu/luar/manifest"
	"github.com/chazu/luar/pkg/bytecode"
	"github.com/chazu/luar/pkg/cache"
	"github.com/chazu/luar/vm"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("luar", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: luar <script>\n\n")
		fmt.Fprintf(stderr, "Compiles and runs a script. A file produced by luarc is run without recompiling.\n")
		fmt.Fprintf(stderr, "Settings are read from the nearest luar.toml above the script.\n")
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	path := fs.Arg(0)

	m, err := manifest.FindOrDefault(filepath.Dir(path))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	commonlog.Configure(m.Log.Verbosity, m.LogFile())

	chunk, err := loadChunk(ctx, path, m)
	if err != nil {
		fmt.Fprintf(stderr, "luar: %s: %v\n", path, err)
		return 1
	}

	state := vm.New(vm.DefaultRegistry(), vm.WithStdout(stdout), vm.WithTrace(m.Runtime.Trace))
	if err := state.Execute(chunk); err != nil {
		fmt.Fprintf(stderr, "luar: %s: %v\n", path, err)
		return 1
	}
	return 0
}

// loadChunk reads path and returns its chunk: decoded if the file is an
// image, otherwise compiled, going through the cache when it is enabled.
func loadChunk(ctx context.Context, path string, m *manifest.Manifest) (*bytecode.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if bytecode.IsImage(data) {
		return bytecode.UnmarshalChunk(data)
	}
	if !m.Cache.Enabled {
		return compiler.Compile(string(data))
	}

	log := commonlog.GetLogger("luar")
	c, err := cache.Open(ctx, m.CachePath())
	if err != nil {
		log.Warningf("chunk cache unavailable: %s", err)
		return compiler.Compile(string(data))
	}
	defer c.Close()

	chunk, err := c.Get(ctx, data)
	if err == nil {
		return chunk, nil
	}
	if !errors.Is(err, cache.ErrNotFound) {
		log.Warningf("chunk cache lookup failed: %s", err)
	}

	chunk, err = compiler.Compile(string(data))
	if err != nil {
		return nil, err
	}
	if err := c.Put(ctx, data, chunk); err != nil {
		log.Warningf("chunk cache store failed: %s", err)
	}
	return chunk, nil
}
