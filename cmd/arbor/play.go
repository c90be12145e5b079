package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/phanxgames/arbor"
	"github.com/phanxgames/arbor/ebitenhost"
	"github.com/spf13/cobra"
)

// watchDebounce groups the writes an editor makes when saving.
const watchDebounce = 100 * time.Millisecond

type playOptions struct {
	frames int
	watch  bool
	window bool
	debug  bool
}

func newPlayCmd(c *cli) *cobra.Command {
	var opts playOptions
	cmd := &cobra.Command{
		Use:   "play <script>",
		Short: "Play a mutation script and print its trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if opts.window {
				return c.playWindow(path, opts)
			}
			if err := c.play(cmd.OutOrStdout(), path, opts); err != nil {
				if !opts.watch {
					return err
				}
				arbor.Logger().Error("play failed", "script", path, "err", err)
			}
			if opts.watch {
				return c.watch(cmd.Context(), cmd.OutOrStdout(), path, opts)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.frames, "frames", 0, "stop after this many host frames (0 plays the whole script)")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "replay the script whenever the file changes")
	cmd.Flags().BoolVar(&opts.window, "window", false, "play the script in a window")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "log per-tick loop statistics")
	cmd.Flags().String("frameloop", "", "override the script's frameloop (always, demand, never)")
	_ = c.v.BindPFlag("frameloop", cmd.Flags().Lookup("frameloop"))
	return cmd
}

func (c *cli) load(path string) (*arbor.Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	script, err := arbor.ParseScript(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if script.Name == "" {
		script.Name = filepath.Base(path)
	}
	c.applyConfig(&script.Config)
	return script, nil
}

// play runs the script headlessly and writes the trace to w.
func (c *cli) play(w io.Writer, path string, opts playOptions) error {
	script, err := c.load(path)
	if err != nil {
		return err
	}
	host := arbor.NewManualHost()
	runner := arbor.NewScriptRunner(script, host)
	runner.Loop().SetDebugMode(opts.debug)

	if opts.frames > 0 {
		err = runFrames(runner, host, opts.frames)
	} else {
		err = runner.Run()
	}
	fmt.Fprintf(w, "# %s\n", script.Name)
	io.WriteString(w, runner.Trace())
	return err
}

// runFrames plays the script for at most n host frames.
func runFrames(runner *arbor.ScriptRunner, host *arbor.ManualHost, n int) error {
	for range n {
		host.Step(arbor.FrameInterval)
		done, err := runner.Tick()
		if err != nil {
			return err
		}
		if done {
			break
		}
	}
	host.Flush()
	return nil
}

// watch replays the script after every change to it until ctx is done.
func (c *cli) watch(ctx context.Context, w io.Writer, path string, opts playOptions) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	// Saving may replace the file; watch its directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	target := filepath.Clean(path)

	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			timer = time.After(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			arbor.Logger().Warn("watch", "err", err)
		case <-timer:
			timer = nil
			if err := c.play(w, path, opts); err != nil {
				arbor.Logger().Error("play failed", "script", path, "err", err)
			}
		}
	}
}

// playWindow plays the script in an ebiten window with the wireframe view.
func (c *cli) playWindow(path string, opts playOptions) error {
	script, err := c.load(path)
	if err != nil {
		return err
	}
	host := arbor.NewManualHost()
	runner := arbor.NewScriptRunner(script, host)
	runner.Loop().SetDebugMode(opts.debug)
	game := ebitenhost.NewScriptGame(runner, host, ebitenhost.Options{
		Title:   "arbor: " + script.Name,
		ShowFPS: true,
	})
	return ebitenhost.Run(game)
}
