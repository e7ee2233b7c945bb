package util

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Options holds the parsed command line configuration. The target fields
// are plain strings rather than enum constants because they flow straight
// into codegen.Options, which hands them to LLVM's target-triple lookup
// (llvm.GetTargetFromTriple) — that API already takes strings, so an
// intermediate enum would only add a translation step with no benefit.
type Options struct {
	Src     string // Path to source file.
	Out     string // Path to output file.
	Threads int    // Thread count.
	Verbose bool   // Set true if compiler should log statistical data to stdout.
	Emit    string // "ir" or "obj": what EmitObject/dump path to take.

	TargetArch string // Output target architecture, e.g. "x86_64".
	TargetVnd  string // Output target vendor, e.g. "pc". "" = unknown.
	TargetOS   string // Output target operating system, e.g. "linux".
}

// ---------------------
// ----- Constants -----
// ---------------------

const maxThreads = 64 // Maximum threads allowed executing in parallel.
const appVersion = "tplc compiler 1.0"

var validArch = map[string]bool{"x86_64": true, "x86_32": true, "aarch64": true, "riscv64": true, "riscv32": true}
var validOS = map[string]bool{"linux": true, "windows": true, "mac": true}
var validVendor = map[string]bool{"pc": true, "apple": true, "ibm": true}
var validEmit = map[string]bool{"ir": true, "obj": true}

// ---------------------
// ----- functions -----
// ---------------------

// ParseArgs parses command line arguments.
func ParseArgs() (Options, error) {
	opt := Options{Emit: "obj"}
	if len(os.Args) < 2 {
		return opt, nil
	}
	args := os.Args[1:]
	for i1 := 0; i1 < len(args)-1; i1++ {
		switch args[i1] {
		case "-h", "--h", "-help", "--help":
			// Help and usage.
			printHelp()
			os.Exit(0)
		case "-o", "-t", "-emit":
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i1])
			}
			if strings.HasPrefix(args[i1+1], "-") {
				return opt, fmt.Errorf("expected argument, got new flag %s", args[i1+1])
			}
			switch args[i1] {
			case "-o":
				// Output file.
				opt.Out = args[i1+1]
			case "-t":
				// Thread count.
				if t, err := strconv.Atoi(args[i1+1]); err == nil {
					if t > 0 && t <= maxThreads {
						opt.Threads = t
					} else {
						return opt, fmt.Errorf("thread count must be integer in range [1, %d]", maxThreads)
					}
				} else {
					return opt, fmt.Errorf("expected integer thread count, got: %s", args[i1+1])
				}
			case "-emit":
				if !validEmit[args[i1+1]] {
					return opt, fmt.Errorf("unexpected -emit value: %s (want ir or obj)", args[i1+1])
				}
				opt.Emit = args[i1+1]
			}
			i1++
		case "-arch":
			// Output architecture.
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i1])
			}
			if !validArch[args[i1+1]] {
				return opt, fmt.Errorf("unexpected architecture identifier: %s", args[i1+1])
			}
			opt.TargetArch = args[i1+1]
			i1++
		case "-os":
			// Output operating system type.
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i1])
			}
			if !validOS[args[i1+1]] {
				return opt, fmt.Errorf("unexpected operating system identifier: %s", args[i1+1])
			}
			opt.TargetOS = args[i1+1]
			i1++
		case "-vendor":
			// Output vendor type.
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i1])
			}
			if !validVendor[args[i1+1]] {
				return opt, fmt.Errorf("unexpected vendor identifier: %s", args[i1+1])
			}
			opt.TargetVnd = args[i1+1]
			i1++
		case "-v", "--v", "-version", "--version":
			// Application version.
			fmt.Println(appVersion)
			os.Exit(0)
		case "-vb":
			// Verbose mode.
			opt.Verbose = true
		default:
			return opt, fmt.Errorf("unexpected flag: %s", args[i1])
		}
	}
	if len(args) > 0 {
		last := args[len(args)-1]
		if !strings.HasPrefix(last, "-") {
			opt.Src = last
		}
	}
	return opt, nil
}

// printHelp prints a helpful usage message to stdout.
func printHelp() {
	w := tabwriter.NewWriter(os.Stdout, 6, 1, 1, 0, 0)
	_, _ = fmt.Fprintln(w, "-h, -help\tPrints this help message and exits the application.")
	_, _ = fmt.Fprintln(w, "--h, --help")
	_, _ = fmt.Fprintln(w, "-o\tPath and name of the output file.")
	_, _ = fmt.Fprintf(w, "-t\tNumber of threads to run in parallel. Must be in range [1, %d].\n", maxThreads)
	_, _ = fmt.Fprintln(w, "-emit\tWhat to emit: 'ir' (textual LLVM IR) or 'obj' (native object file). Defaults to 'obj'.")
	_, _ = fmt.Fprintln(w, "-arch\tTarget architecture: 'x86_64', 'x86_32', 'aarch64', 'riscv64' or 'riscv32'.")
	_, _ = fmt.Fprintln(w, "-os\tTarget operating system: 'linux', 'windows' or 'mac'.")
	_, _ = fmt.Fprintln(w, "-vendor\tTarget vendor: 'pc', 'apple' or 'ibm'.")
	_, _ = fmt.Fprintln(w, "-v, -version\tPrints application version and exits the application.")
	_, _ = fmt.Fprintln(w, "--v, --version")
	_, _ = fmt.Fprintln(w, "-vb\tVerbose mode: print compiler statistics to stdout.")
	_ = w.Flush()
}
