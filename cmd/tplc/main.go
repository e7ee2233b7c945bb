// Command tplc is the compiler's entry point: parse a source file, run
// C1-C10 over it, and emit either textual LLVM IR or a native object
// file. Linking that object against the bundled runtime (C11, package
// runtimec) is left to an external C toolchain invocation (§1).
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"tplc/src/codegen"
	"tplc/src/diag"
	"tplc/src/frontend"
	"tplc/src/runtimec"
	"tplc/src/types"
	"tplc/src/util"
)

// run drives one compilation. Behaviour is defined by the util.Options
// structure, mirroring the teacher's run(opt util.Options) error shape.
func run(opt util.Options) error {
	src, err := os.ReadFile(opt.Src)
	if err != nil {
		return fmt.Errorf("could not read source file: %s", err)
	}

	prog, err := frontend.Parse(string(src))
	if err != nil {
		return fmt.Errorf("parse error: %s", err)
	}

	reg := types.NewRegistry()
	ops := types.NewOpRegistry(reg)
	sink := diag.NewSink()

	gen := codegen.NewGenerator(opt.Src, reg, ops, sink)
	defer gen.Dispose()

	genOpt := codegen.Options{
		SourceName: opt.Src,
		Out:        opt.Out,
		Threads:    opt.Threads,
		Verbose:    opt.Verbose,
		TargetArch: opt.TargetArch,
		TargetOS:   opt.TargetOS,
		TargetVnd:  opt.TargetVnd,
	}

	if err := gen.Generate(prog, genOpt); err != nil {
		return fmt.Errorf("codegen error: %s", err)
	}
	if sink.Len() > 0 {
		for _, d := range sink.All() {
			color.Red("%s", d.String())
		}
		if sink.HasTypeErrors() {
			return fmt.Errorf("compilation failed with %d diagnostic(s)", sink.Len())
		}
	}

	switch opt.Emit {
	case "ir":
		ir := gen.Mod.String()
		if opt.Out == "" {
			fmt.Print(ir)
			return nil
		}
		return os.WriteFile(opt.Out, []byte(ir), 0644)
	default:
		obj, err := gen.EmitObject(genOpt)
		if err != nil {
			return fmt.Errorf("error emitting object code: %s", err)
		}
		out := opt.Out
		if out == "" {
			out = "a.out"
		}
		if err := os.WriteFile(out, obj, 0644); err != nil {
			return fmt.Errorf("could not write output file: %s", err)
		}
		if opt.Verbose {
			color.Green("wrote %s (%d bytes); link against the %d runtime symbols in runtimec.Source to produce an executable",
				out, len(obj), len(runtimec.Symbols))
		}
		return nil
	}
}

func main() {
	opt, err := util.ParseArgs()
	if err != nil {
		color.Red("command line argument error: %s", err)
		os.Exit(1)
	}
	if opt.Src == "" {
		color.Red("no source file given")
		os.Exit(1)
	}

	if err := run(opt); err != nil {
		color.Red("error: %s", err)
		os.Exit(1)
	}
}
