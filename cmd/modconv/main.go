// modconv converts 3D models between the Colobot binary (.mod), Colobot
// text (.txt) and Wavefront OBJ/MTL formats.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/Faultbox/modconv/internal/config"
	"github.com/Faultbox/modconv/internal/convert"
	"github.com/Faultbox/modconv/internal/logger"
	"github.com/Faultbox/modconv/pkg/formats"
	"github.com/Faultbox/modconv/pkg/geometry"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "convert", "c":
		cmdConvert(args)
	case "batch", "b":
		cmdBatch(args)
	case "info":
		cmdInfo(args)
	case "formats":
		cmdFormats()
	case "extensions":
		cmdExtensions()
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`modconv - Colobot model converter

Usage:
  modconv <command> [options]

Commands:
  convert [options] <in> <out>       Convert one model
  batch [options] <entry>...         Convert entries "in" or "in:out"
  info [options] <file>              Show triangles, materials and states
  formats                            List model formats
  extensions                         List file extensions
  config [-save | -save-to <path>]   Print or save the effective config

Options:
  -i <format>        Input format (default "default", picks by extension)
  -o <format>        Output format (default "default")
  -ip key[=value]    Input parameter, repeatable
  -op key[=value]    Output parameter, repeatable
  -list <file>       Batch entries, one per line ("-" reads stdin)
  -config <path>     Config file
  -workers <n>       Batch entries converted concurrently
  -debug             Debug logging
  -log-file <path>   Also log to a rotating file

Parameters:
  old/colobot   dirt=<n>, charset=<name>
  new_txt       version=1|2, dirt=<texture>
  obj           flipX, flipY, flipZ
  all           directory=<path>

Examples:
  modconv convert -i old -o obj ship.mod ship.obj
  modconv convert -op flipZ ship.mod ship.obj
  modconv batch -o new_txt -ip directory=models a.mod b.mod:b_v1.txt
  modconv info ship.mod`)
}

// command holds what every converting subcommand sets up.
type command struct {
	fs        *flag.FlagSet
	flags     *config.Flags
	inParams  paramFlag
	outParams paramFlag
	cfg       *config.Config
	registry  *formats.Registry
}

func newCommand(name string) *command {
	c := &command{
		fs:        flag.NewFlagSet(name, flag.ExitOnError),
		inParams:  paramFlag{},
		outParams: paramFlag{},
		registry:  formats.NewDefaultRegistry(),
	}
	c.flags = config.BindFlags(c.fs)
	c.fs.Var(c.inParams, "ip", "Input parameter key[=value], repeatable")
	c.fs.Var(c.outParams, "op", "Output parameter key[=value], repeatable")
	return c
}

// parse parses args, loads the config and installs the logger.
func (c *command) parse(args []string) {
	c.fs.Parse(args)

	cfg, err := config.Load(c.flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	c.cfg = cfg

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// params returns configured parameters overridden by the command line.
func (c *command) params() (in, out formats.Params) {
	in = c.cfg.CodecParams(c.cfg.Convert.InputFormat, c.cfg.Convert.InputDir).Merge(formats.Params(c.inParams))
	out = c.cfg.CodecParams(c.cfg.Convert.OutputFormat, c.cfg.Convert.OutputDir).Merge(formats.Params(c.outParams))
	return in, out
}

func (c *command) converter() *convert.Converter {
	return convert.New(c.registry, logger.Log, convert.WithWorkers(c.cfg.Convert.Workers))
}

func cmdConvert(args []string) {
	c := newCommand("convert")
	c.parse(args)
	defer logger.Sync()

	if c.fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Usage: modconv convert [options] <in> <out>")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	inParams, outParams := c.params()
	err := c.converter().Convert(ctx, convert.Job{
		InFormat:  c.cfg.Convert.InputFormat,
		InFile:    c.fs.Arg(0),
		InParams:  inParams,
		OutFormat: c.cfg.Convert.OutputFormat,
		OutFile:   c.fs.Arg(1),
		OutParams: outParams,
	})
	if err != nil {
		logger.Sync()
		os.Exit(1)
	}
}

func cmdBatch(args []string) {
	c := newCommand("batch")
	listFile := c.fs.String("list", "", "Read entries from file, one per line (- for stdin)")
	c.parse(args)
	defer logger.Sync()

	entries := c.fs.Args()
	if *listFile != "" {
		listed, err := readEntries(*listFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		entries = append(entries, listed...)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	inParams, outParams := c.params()
	results, err := c.converter().ConvertList(ctx, entries, convert.BatchSpec{
		InFormat:  c.cfg.Convert.InputFormat,
		InParams:  inParams,
		OutFormat: c.cfg.Convert.OutputFormat,
		OutParams: outParams,
	})

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if len(results) > 0 {
		logger.Sugar.Infof("Converted %d of %d files", len(results)-failed, len(results))
	}

	if err != nil {
		logger.Sync()
		os.Exit(1)
	}
}

// readEntries reads non-empty, non-comment lines from path or stdin.
func readEntries(path string) ([]string, error) {
	f := os.Stdin
	if path != "-" {
		var err error
		if f, err = os.Open(path); err != nil {
			return nil, err
		}
		defer f.Close()
	}

	var entries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	return entries, scanner.Err()
}

func cmdInfo(args []string) {
	c := newCommand("info")
	c.parse(args)
	defer logger.Sync()

	if c.fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: modconv info [options] <file>")
		os.Exit(1)
	}
	path := c.fs.Arg(0)

	codec, ok := c.registry.Lookup(c.cfg.Convert.InputFormat)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: %v: %s\n", formats.ErrUnknownFormat, c.cfg.Convert.InputFormat)
		os.Exit(1)
	}

	inParams, _ := c.params()
	model := geometry.NewModel()
	if err := codec.Read(path, model, inParams); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	materials := model.Materials()
	uses := make(map[*geometry.Material]int, len(materials))
	for _, t := range model.Triangles {
		uses[t.Material]++
	}

	fmt.Printf("Model:     %s\n", path)
	if model.Version != 0 {
		fmt.Printf("Version:   %d\n", model.Version)
	}
	fmt.Printf("Triangles: %d\n", len(model.Triangles))
	fmt.Printf("Materials: %d\n", len(materials))

	for i, mat := range materials {
		fmt.Println()
		fmt.Printf("Material %d (%d triangles)\n", i+1, uses[mat])
		if mat.Texture1 != "" {
			fmt.Printf("  texture:   %s\n", mat.Texture1)
		}
		if mat.Texture2 != "" {
			fmt.Printf("  texture2:  %s\n", mat.Texture2)
		}
		fmt.Printf("  diffuse:   %v\n", mat.Diffuse)
		fmt.Printf("  ambient:   %v\n", mat.Ambient)
		fmt.Printf("  specular:  %v\n", mat.Specular)
		fmt.Printf("  state:     %s (%d)\n", geometry.DecodeState(mat.State), uint32(mat.State))
		if mat.LOD != 0 {
			fmt.Printf("  lod_level: %d\n", mat.LOD)
		}
	}
}

func cmdFormats() {
	for _, f := range formats.NewDefaultRegistry().Formats() {
		fmt.Printf("%-16s%s\n", f.Name, f.Description)
	}
}

func cmdExtensions() {
	for _, e := range formats.NewDefaultRegistry().Extensions() {
		fmt.Printf("%-8s%s\n", e.Extension, e.Description)
	}
}

func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	flags := config.BindFlags(fs)
	save := fs.Bool("save", false, "Save to the user config directory")
	saveTo := fs.String("save-to", "", "Save to this path")
	fs.Parse(args)

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *saveTo != "":
		if err := cfg.SaveTo(*saveTo); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Saved %s\n", *saveTo)
	case *save:
		path, err := cfg.Save()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Saved %s\n", path)
	default:
		data, err := cfg.Marshal()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Stdout.Write(data)
	}
}
