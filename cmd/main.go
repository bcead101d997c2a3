package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/0xlemi/notedrill/internal/audio"
	"github.com/0xlemi/notedrill/internal/engine"
	"github.com/0xlemi/notedrill/internal/pitch"
	"github.com/0xlemi/notedrill/internal/session"
	"github.com/0xlemi/notedrill/internal/ui"
)

const channels = 1

// logger is the process-wide structured logger; initLogger replaces it
// before anything interesting runs.
var logger = slog.Default()

// initLogger configures slog and routes the stdlib log package through the
// same handler.
func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

var (
	flagLength    int
	flagTolerance float64
	flagClarity   float64
	flagFrames    int
	flagGateFloor float64
	flagAmplify   float32
	flagHints     bool
	flagDebug     bool
)

var rootCmd = &cobra.Command{
	Use:   "notedrill",
	Short: "Practice note-to-fingering mappings by ear",
	Long: `notedrill listens to the microphone and tests you on a random
sequence of notes: play the shown note cleanly and steadily and the
session advances to the next one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		initLogger(flagDebug)
		return run()
	},
}

func init() {
	rootCmd.Flags().IntVarP(&flagLength, "length", "n", 3, "notes per practice round (1-5)")
	rootCmd.Flags().Float64Var(&flagTolerance, "tolerance", pitch.DefaultToleranceCents, "on-pitch tolerance in cents")
	rootCmd.Flags().Float64Var(&flagClarity, "clarity", pitch.DefaultMinClarity, "minimum pitch clarity to count a frame")
	rootCmd.Flags().IntVar(&flagFrames, "frames", session.DefaultRequiredFrames, "consecutive on-pitch frames to confirm a match")
	rootCmd.Flags().Float64Var(&flagGateFloor, "gate", pitch.DefaultGateFloor, "noise gate RMS floor")
	rootCmd.Flags().Float32Var(&flagAmplify, "amplify", 1.0, "input gain applied to captured samples")
	rootCmd.Flags().BoolVar(&flagHints, "hints", true, "show fingering hints")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "verbose logging")
}

func run() error {
	cfg := engine.DefaultConfig()
	cfg.Logger = logger
	cfg.Gate = pitch.NoiseGate{Floor: flagGateFloor}
	cfg.Judge = pitch.Judge{ToleranceCents: flagTolerance, MinClarity: flagClarity}
	cfg.RequiredFrames = flagFrames

	catalog := pitch.DefaultCatalog()
	chart, err := ui.NewFingeringChart(catalog)
	if err != nil {
		return fmt.Errorf("fingering chart: %w", err)
	}

	capturer, err := audio.NewPortAudioCapturer(cfg.FrameSize, cfg.SampleRate, channels)
	if err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	capturer.SetAmplification(flagAmplify)

	practice := session.NewPractice(catalog)
	estimator := pitch.NewChain(cfg.FrameSize, cfg.SampleRate)

	model := ui.NewModel(practice, chart, flagLength, flagTolerance, flagHints, logger)
	program := tea.NewProgram(model, tea.WithAltScreen())

	feed := ui.NewFeed(program, flagLength)
	practice.OnTargetChanged(feed.HandleTarget)
	practice.OnCompleted(feed.HandleCompleted)

	loop := engine.New(cfg, capturer, estimator, practice, feed.HandleUpdate)

	// The first round starts from the model's Init command: session callbacks
	// Send into the program, which blocks until its event loop is running.

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return loop.Run(ctx)
	})
	g.Go(func() error {
		_, err := program.Run()
		cancel() // UI quit stops the capture loop
		return err
	})

	return g.Wait()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
