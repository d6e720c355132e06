// Command occ is the driver for the compiler core: it wires the parser,
// optimizer, code generator, and dumper together behind the CLI surface
// a standalone C compiler exposes, walking argv by hand rather than
// through the flag package.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"sort"
	"strings"

	"github.com/google/pprof/profile"
	"golang.org/x/term"

	"occ/internal/codegen"
	"occ/internal/diag"
	"occ/internal/dump"
	"occ/internal/ir"
	"occ/internal/optimize"
	"occ/internal/parser"
	"occ/internal/symtab"
	"occ/internal/types"
)

type config struct {
	ctx            *diag.Context
	optLevel       optimize.Level
	inputPath      string
	outputPath     string
	includes       []string
	defines        map[string]string
	dumpSyms       bool
	dumpTypes      bool
	doCompile      bool // -c
	doAssemble     bool // -S
	preprocessOnly bool // -E
	verboseCount   int
}

func main() {
	cfg, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "occ: "+err.Error())
		os.Exit(1)
	}
	os.Exit(run(cfg))
}

// parseArgs walks argv by hand, matching every flag in the CLI surface
// table: -E -S -c -o <file> -I <dir> -D NAME[=VAL] -fPIC/-fno-PIC
// -O0..-O3 -std=c89|c99|c11 -v -w --dump-symbols --dump-types.
func parseArgs(args []string) (*config, error) {
	cfg := &config{ctx: diag.NewContext(), defines: map[string]string{}}
	i := 0
	for i < len(args) {
		a := args[i]
		switch {
		case a == "-E":
			cfg.preprocessOnly = true
		case a == "-S":
			cfg.doAssemble = true
		case a == "-c":
			cfg.doCompile = true
		case a == "-o":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("-o requires an argument")
			}
			cfg.outputPath = args[i]
		case a == "-I":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("-I requires an argument")
			}
			cfg.includes = append(cfg.includes, args[i])
		case strings.HasPrefix(a, "-I") && len(a) > 2:
			cfg.includes = append(cfg.includes, a[2:])
		case a == "-D":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("-D requires an argument")
			}
			defineMacro(cfg, args[i])
		case strings.HasPrefix(a, "-D") && len(a) > 2:
			defineMacro(cfg, a[2:])
		case a == "-fPIC":
			cfg.ctx.PIC = true
		case a == "-fno-PIC":
			cfg.ctx.PIC = false
		case strings.HasPrefix(a, "-O"):
			lvl, err := setOptimizationLevel(a)
			if err != nil {
				return nil, err
			}
			cfg.optLevel = lvl
		case strings.HasPrefix(a, "-std="):
			std, err := setCStd(a[len("-std="):])
			if err != nil {
				return nil, err
			}
			cfg.ctx.Standard = std
		case a == "-v":
			cfg.verboseCount++
			cfg.ctx.Verbose = cfg.verboseCount
		case a == "-w":
			cfg.ctx.SuppressWarnings = true
		case a == "--dump-symbols":
			cfg.dumpSyms = true
		case a == "--dump-types":
			cfg.dumpTypes = true
		case strings.HasPrefix(a, "-"):
			return nil, fmt.Errorf("unrecognized option '%s'", a)
		default:
			cfg.inputPath = a
		}
		i++
	}
	if cfg.inputPath == "" {
		return nil, fmt.Errorf("no input file")
	}
	switch {
	case cfg.doCompile:
		cfg.ctx.Target = diag.TargetX64ELF
	case cfg.doAssemble:
		cfg.ctx.Target = diag.TargetX64Asm
	}
	return cfg, nil
}

func defineMacro(cfg *config, spec string) {
	if eq := strings.IndexByte(spec, '='); eq >= 0 {
		cfg.defines[spec[:eq]] = spec[eq+1:]
	} else {
		cfg.defines[spec] = "1"
	}
}

func setOptimizationLevel(flag string) (optimize.Level, error) {
	if len(flag) != 3 {
		return optimize.O0, fmt.Errorf("invalid optimization flag '%s'", flag)
	}
	switch flag[2] {
	case '0':
		return optimize.O0, nil
	case '1':
		return optimize.O1, nil
	case '2':
		return optimize.O2, nil
	case '3':
		return optimize.O3, nil
	}
	return optimize.O0, fmt.Errorf("invalid optimization level '%s'", flag)
}

func setCStd(name string) (diag.Std, error) {
	switch name {
	case "c89":
		return diag.StdC89, nil
	case "c99":
		return diag.StdC99, nil
	case "c11":
		return diag.StdC11, nil
	}
	return diag.StdC89, fmt.Errorf("unrecognized C standard '%s'", name)
}

// useColor decides whether the driver's own error lines get ANSI color:
// only when stderr is actually a terminal, same question golang.org/x/term
// answers for an interactive console.
func useColor() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func colorize(code, s string) string {
	if !useColor() {
		return s
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

func run(cfg *config) int {
	src, err := os.ReadFile(cfg.inputPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, colorize("31", "occ: "+err.Error()))
		return 1
	}

	if cfg.verboseCount >= 2 {
		return runProfiled(cfg, string(src))
	}
	compileOne(cfg, string(src))
	return cfg.ctx.Errors
}

// runProfiled wraps compilation in a CPU profile and prints the top-5
// self-time samples to stderr, for -v -v ("double verbose").
func runProfiled(cfg *config, src string) int {
	profPath, err := os.CreateTemp("", "occ-profile-*.pprof")
	if err != nil {
		compileOne(cfg, src)
		return cfg.ctx.Errors
	}
	defer os.Remove(profPath.Name())

	pprof.StartCPUProfile(profPath)
	compileOne(cfg, src)
	pprof.StopCPUProfile()
	profPath.Close()

	if f, err := os.Open(profPath.Name()); err == nil {
		defer f.Close()
		if p, err := profile.Parse(f); err == nil {
			printTopSamples(p)
		}
	}
	return cfg.ctx.Errors
}

func printTopSamples(p *profile.Profile) {
	type row struct {
		name string
		val  int64
	}
	totals := map[string]int64{}
	for _, s := range p.Sample {
		if len(s.Location) == 0 || len(s.Value) == 0 {
			continue
		}
		loc := s.Location[0]
		name := "?"
		if len(loc.Line) > 0 && loc.Line[0].Function != nil {
			name = loc.Line[0].Function.Name
		}
		totals[name] += s.Value[0]
	}
	var rows []row
	for k, v := range totals {
		rows = append(rows, row{k, v})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].val > rows[j].val })
	fmt.Fprintln(os.Stderr, "occ: top self-time samples:")
	for i, r := range rows {
		if i >= 5 {
			break
		}
		fmt.Fprintf(os.Stderr, "  %8d  %s\n", r.val, r.name)
	}
}

// compileOne runs the whole pipeline over one translation unit: push the
// two namespace scopes, register nothing builtin (this subset needs none),
// parse every definition, optimize and hand it to the selected target,
// drain pending tentative declarations, and report the error count.
func compileOne(cfg *config, src string) {
	repo := types.NewRepo()
	syms := symtab.NewTable(repo)
	p := parser.New(repo, syms, cfg.ctx)

	if cfg.preprocessOnly {
		fmt.Print(src)
		return
	}

	defs, err := p.ParseTranslationUnit(src)
	for _, def := range defs {
		optimize.Run(repo, def, cfg.optLevel)
	}
	if err != nil {
		var fatal *diag.FatalError
		if errors.As(err, &fatal) {
			// Fatal construction errors were already counted when raised.
			fmt.Fprintln(os.Stderr, colorize("31", "occ: fatal: "+fatal.Error()))
		} else {
			cfg.ctx.Errorf("parser", "%s", err.Error())
		}
	}

	if cfg.dumpSyms {
		dumpSymbols(defs)
	}
	if cfg.dumpTypes {
		dumpDefinitionTypes(repo, defs)
	}

	out := selectOutput(cfg)
	defer closeOutput(out)

	switch cfg.ctx.Target {
	case diag.TargetIRDot:
		for _, def := range defs {
			dump.FDotGen(out, repo, def)
		}
	case diag.TargetX64Asm:
		emitAssembly(out, defs)
	case diag.TargetX64ELF:
		emitELF(out, defs)
	case diag.TargetNone:
	}

	for sym := syms.YieldDeclaration(); sym != nil; sym = syms.YieldDeclaration() {
		cfg.ctx.Warnf("linker", "'%s' declared but never defined", sym.Name)
	}
}

func selectOutput(cfg *config) io.Writer {
	if cfg.outputPath == "" || cfg.outputPath == "-" {
		return os.Stdout
	}
	f, err := os.Create(cfg.outputPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, colorize("31", "occ: "+err.Error()))
		return os.Stdout
	}
	return f
}

func closeOutput(w io.Writer) {
	if w == os.Stdout {
		return
	}
	if c, ok := w.(io.Closer); ok {
		c.Close()
	}
}

func emitAssembly(w io.Writer, defs []*ir.Definition) {
	var e codegen.AsmEmitter
	for _, def := range defs {
		e.EmitFunction(def)
	}
	fmt.Fprint(w, e.String())
}

func emitELF(w io.Writer, defs []*ir.Definition) {
	var obj codegen.ObjectWriter
	text := codegen.DemoFunctionBody(uint32(len(defs)))
	obj.AddText(text)
	obj.AddNote(".note.gnu.build-id", codegen.BuildID(text, nil))
	w.Write(obj.Bytes())
}

func linkageName(l symtab.Linkage) string {
	switch l {
	case symtab.LinkInternal:
		return "internal"
	case symtab.LinkExternal:
		return "external"
	}
	return "none"
}

func dumpSymbols(defs []*ir.Definition) {
	for _, def := range defs {
		if def.Symbol == nil {
			continue
		}
		fmt.Fprintf(os.Stderr, "function %s, linkage %s\n", def.Symbol.Name, linkageName(def.Symbol.Linkage))
		for _, p := range def.Params {
			fmt.Fprintf(os.Stderr, "  param %s\n", p.Name)
		}
		for _, l := range def.Locals {
			fmt.Fprintf(os.Stderr, "  local %s\n", l.Name)
		}
	}
}

// typeString renders a type handle for the --dump-types listing: the
// scalar kind name, with a trailing '*' for the embedded pointer layer or
// a repository pointer entry.
func typeString(repo *types.Repo, t types.Type) string {
	if types.IsPointer(t) {
		return typeString(repo, repo.Deref(t)) + " *"
	}
	if tag := repo.Tag(t); tag != nil {
		return fmt.Sprintf("%s %s", t.Kind, tag.SymbolName())
	}
	return t.Kind.String()
}

func dumpDefinitionTypes(repo *types.Repo, defs []*ir.Definition) {
	for _, def := range defs {
		if def.Symbol == nil {
			continue
		}
		fn := def.Symbol.Type
		fmt.Fprintf(os.Stderr, "%s %s(", typeString(repo, repo.Next(fn)), def.Symbol.Name)
		for i := 0; i < repo.NMembers(fn); i++ {
			if i > 0 {
				fmt.Fprint(os.Stderr, ", ")
			}
			fmt.Fprint(os.Stderr, typeString(repo, repo.Member(fn, i).Type))
		}
		fmt.Fprintln(os.Stderr, ")")
	}
}
