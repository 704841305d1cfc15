// luar-lsp is a language server for luar scripts, speaking LSP over stdio.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"github.com/chazu/luar/server"
	"github.com/chazu/luar/vm"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	verbosity := flag.Int("verbosity", 0, "Log verbosity (-4 silent, 2 debug)")
	logFile := flag.String("log", "", "Log to `file` instead of stderr")
	flag.Parse()

	var path *string
	if *logFile != "" {
		path = logFile
	}
	commonlog.Configure(*verbosity, path)

	if err := server.NewLSP(vm.DefaultRegistry()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
