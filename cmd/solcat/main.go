// Command solcat inspects and rewrites Local Shared Object (.sol) files.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/ssungk/amfcodec/pkg/amf"
)

func main() {
	strict := flag.Bool("strict", true, "fail on LSO header/padding inconsistencies instead of tolerating them")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		usage()
		os.Exit(2)
	}

	opts := amf.DefaultOptions()
	opts.Strict = *strict

	switch args[0] {
	case "dump":
		runDump(args[1], opts)
	case "touch":
		runTouch(args[1], opts)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: solcat dump <file.sol>")
	fmt.Fprintln(os.Stderr, "       solcat touch <file.sol>   (round-trip: load then re-save)")
	flag.PrintDefaults()
}

func runDump(path string, opts amf.CodecOptions) {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("read failed", "path", path, "error", err)
		os.Exit(1)
	}

	sol, err := amf.DecodeSOL(data, opts)
	if err != nil {
		slog.Error("decode failed", "path", path, "error", err)
		os.Exit(1)
	}

	fmt.Printf("root: %s (encoding=%d)\n", sol.Name, sol.Encoding)
	for _, k := range sol.Keys() {
		v, _ := sol.Get(k)
		fmt.Printf("  %s = %#v\n", k, v)
	}
}

func runTouch(path string, opts amf.CodecOptions) {
	sol, err := amf.LoadSOL(path, opts)
	if err != nil {
		slog.Error("load failed", "path", path, "error", err)
		os.Exit(1)
	}

	if err := amf.SaveSOL(sol, path, opts); err != nil {
		slog.Error("save failed", "path", path, "error", err)
		os.Exit(1)
	}

	slog.Info("round-tripped", "path", path, "root", sol.Name, "entries", len(sol.Keys()))
}
