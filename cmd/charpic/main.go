package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/codegangsta/cli"
	"github.com/wbrown/charpic"
	"github.com/wbrown/charpic/bot"
	"github.com/wbrown/charpic/message"
)

func main() {
	app := cli.NewApp()
	app.Version = "1.0.0"
	app.Name = "charpic"
	app.Usage = "Turn images and animations into character art."
	app.UsageText = "charpic [options] LOCATOR...\n" +
		"   LOCATOR is an http(s) URL, a file:// URL or a local path; prefix with reply: to quote it"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config,c",
			Usage: "YAML configuration `FILE`",
		},
		cli.StringFlag{
			Name:  "font,f",
			Usage: "TrueType font `PATH`, or \"builtin\" for the embedded Go Mono",
		},
		cli.StringFlag{
			Name:  "output,o",
			Usage: "write the image to `FILE` (default charpic.png or charpic.gif)",
		},
		cli.DurationFlag{
			Name:  "timeout,t",
			Usage: "download `TIMEOUT`, e.g. 30s",
		},
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "log per-frame diagnostics",
		},
	}
	app.Action = run
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	level := slog.LevelInfo
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	charpic.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if c.NArg() == 0 {
		cli.ShowAppHelp(c)
		return fmt.Errorf("no image locator given")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx := context.Background()
	plugin := bot.New(cfg)
	if err := plugin.Initialize(ctx); err != nil {
		return err
	}
	defer plugin.Terminate()

	ev := bot.Event{Sender: "cli", Chain: message.ParseChain(c.Args())}
	var produced bool
	for _, reply := range plugin.Handle(ctx, ev) {
		if !reply.IsImage() {
			fmt.Println(reply.Text)
			continue
		}
		out := c.String("output")
		if out == "" {
			out = "charpic" + reply.Ext
		}
		if err := writeFileAtomic(out, reply.Image); err != nil {
			return err
		}
		fmt.Printf("Output written to %s\n", out)
		produced = true
	}
	if !produced {
		return fmt.Errorf("no image produced")
	}
	return nil
}

func loadConfig(c *cli.Context) (charpic.Config, error) {
	cfg := charpic.DefaultConfig()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = charpic.LoadConfig(path); err != nil {
			return cfg, err
		}
	}
	if c.IsSet("font") {
		cfg.FontPath = c.String("font")
	}
	if c.IsSet("timeout") {
		cfg.FetchTimeout = c.Duration("timeout")
	}
	return cfg, cfg.Validate()
}

// writeFileAtomic writes data next to path and renames it into place, so
// readers never see a partial image.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".charpic-*")
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
