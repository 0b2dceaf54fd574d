package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/openqda/qdex"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	sub := os.Args[1]
	switch sub {
	case "tojson":
		tojsonCmd(os.Args[2:])
	case "toxml":
		toxmlCmd(os.Args[2:])
	case "validate":
		validateCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "qdex CLI\n\nUsage:\n  qdex tojson [-o out.json] [-v] file.qde\n  qdex toxml [-o out.qde] [-v] file.{json,yaml}\n  qdex validate [-v] file.{qde,json,yaml}")
}

func newLogger(verbose bool) zerolog.Logger {
	if !verbose {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

func tojsonCmd(args []string) {
	fs := flag.NewFlagSet("tojson", flag.ExitOnError)
	var out string
	var verbose bool
	fs.StringVar(&out, "o", "", "output filename (default stdout)")
	fs.BoolVar(&verbose, "v", false, "enable verbose logs")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}
	log := newLogger(verbose)

	data := readInput(fs.Arg(0))
	start := time.Now()
	v, err := qdex.ParseDocument(string(data))
	if err != nil {
		reportIssues(err)
	}
	log.Info().Dur("took", time.Since(start)).Int("bytes", len(data)).Msg("parsed document")

	enc, err := gojson.MarshalIndent(v, "", "  ")
	if err != nil {
		fatalf("encode: %v", err)
	}
	writeOutput(out, append(enc, '\n'))
}

func toxmlCmd(args []string) {
	fs := flag.NewFlagSet("toxml", flag.ExitOnError)
	var out string
	var verbose bool
	fs.StringVar(&out, "o", "", "output filename (default stdout)")
	fs.BoolVar(&verbose, "v", false, "enable verbose logs")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}
	log := newLogger(verbose)

	in := fs.Arg(0)
	data := readInput(in)
	start := time.Now()
	var text string
	var err error
	if isYAML(in) {
		text, err = qdex.BuildDocumentYAML(data)
	} else {
		text, err = qdex.BuildDocumentJSON(data)
	}
	if err != nil {
		reportIssues(err)
	}
	log.Info().Dur("took", time.Since(start)).Int("bytes", len(text)).Msg("built document")

	writeOutput(out, []byte(text+"\n"))
}

func validateCmd(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	var verbose bool
	fs.BoolVar(&verbose, "v", false, "enable verbose logs")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}
	log := newLogger(verbose)

	in := fs.Arg(0)
	data := readInput(in)
	start := time.Now()
	var err error
	switch {
	case isXML(in):
		_, err = qdex.ParseDocument(string(data))
	case isYAML(in):
		_, err = qdex.BuildDocumentYAML(data)
	default:
		_, err = qdex.BuildDocumentJSON(data)
	}
	if err != nil {
		reportIssues(err)
	}
	log.Info().Dur("took", time.Since(start)).Msg("document is valid")
	fmt.Println("ok")
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

func isXML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".qde" || ext == ".xml"
}

func readInput(name string) []byte {
	data, err := os.ReadFile(name)
	if err != nil {
		fatalf("read: %v", err)
	}
	return data
}

func writeOutput(out string, data []byte) {
	if out == "" {
		_, _ = os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		fatalf("write: %v", err)
	}
}

// reportIssues prints one line per issue and exits non-zero.
func reportIssues(err error) {
	if iss, ok := qdex.AsIssues(err); ok {
		for _, it := range iss {
			line := fmt.Sprintf("%s at %s: %s", it.Code, it.Path, it.Message)
			if it.Hint != "" {
				line += " (" + it.Hint + ")"
			}
			fmt.Fprintln(os.Stderr, line)
		}
		os.Exit(1)
	}
	fatalf("%v", err)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
