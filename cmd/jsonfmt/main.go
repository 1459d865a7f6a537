package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"seqjson"
)

type config struct {
	file        string
	segmentSize int
	debug       bool
	settings    *seqjson.Settings
}

func main() {
	cfg := config{settings: seqjson.DefaultSettings()}
	cfg.settings.Format = seqjson.FormatIndented

	app := kingpin.New("jsonfmt", "Reformat a JSON document.")
	app.Flag("format", "Output format: none, whitespace or indented.").Default("indented").SetValue(&cfg.settings.Format)
	app.Flag("indent", "Spaces per level for the indented format.").Default("2").IntVar(&cfg.settings.IndentSize)
	app.Flag("max-depth", "Maximum nesting depth.").Default("64").IntVar(&cfg.settings.MaxDepth)
	app.Flag("segment-size", "Split the input into segments of this many bytes.").Default("4096").IntVar(&cfg.segmentSize)
	app.Flag("debug", "Log buffer activity to stderr.").BoolVar(&cfg.debug)
	app.Arg("file", "Input file; standard input when omitted.").StringVar(&cfg.file)
	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	if cfg.debug {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}
	seqjson.SetLogger(logger)
	seqjson.WarmupPools()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		level.Error(logger).Log("msg", "jsonfmt failed", "err", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, out io.Writer) error {
	if err := cfg.settings.Validate(); err != nil {
		return err
	}

	var data []byte
	var err error
	if cfg.file == "" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(cfg.file)
	}
	if err != nil {
		return err
	}

	r := seqjson.NewReader(seqjson.ChunkSequence(data, cfg.segmentSize), cfg.settings)
	stream := seqjson.NewStreamBuffer(out, cfg.segmentSize)
	w := seqjson.NewAsyncWriter(ctx, stream, cfg.settings)

	if err := seqjson.Transcode(&w.Writer, r); err != nil {
		stream.Discard()
		return err
	}
	if _, err := r.Peek(); err != nil {
		stream.Discard()
		return err
	}
	if err := w.Flush(); err != nil {
		stream.Discard()
		return err
	}
	if _, err := fmt.Fprintln(out); err != nil {
		return err
	}
	return stream.Release()
}
