// luarc compiles a script to a chunk image that luar can run directly.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"

	"github.com/chazu/luar/compiler"
	"github.com/chazu/luar/pkg/bytecode"

	_ "github.com/tliron/commonlog/simple"
)

const defaultOutput = "luac.out"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("luarc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	output := fs.String("o", defaultOutput, "Write the chunk image to `file`")
	list := fs.Bool("l", false, "Print a listing of the compiled chunk")
	parseOnly := fs.Bool("p", false, "Parse only; do not write an image")
	verbose := fs.Bool("v", false, "Verbose output")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: luarc [options] <script>\n\n")
		fmt.Fprintf(stderr, "Compiles a script to a chunk image.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  luarc hello.lua            # Write luac.out\n")
		fmt.Fprintf(stderr, "  luarc -l -p hello.lua      # List bytecode without writing\n")
		fmt.Fprintf(stderr, "  luarc -o hello.luac hello.lua\n")
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

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "luarc: %v\n", err)
		return 1
	}

	chunk, err := compiler.Compile(string(src))
	if err != nil {
		fmt.Fprintf(stderr, "luarc: %s: %v\n", path, err)
		return 1
	}

	if *list {
		fmt.Fprint(stdout, chunk.DisassembleWithName(path))
	}
	if *parseOnly {
		return 0
	}

	image, err := bytecode.MarshalChunk(chunk)
	if err != nil {
		fmt.Fprintf(stderr, "luarc: %v\n", err)
		return 1
	}
	if err := os.WriteFile(*output, image, 0644); err != nil {
		fmt.Fprintf(stderr, "luarc: %v\n", err)
		return 1
	}
	return 0
}
