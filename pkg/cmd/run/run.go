package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/mpapenbr/quizrace/log"
	"github.com/mpapenbr/quizrace/pkg/config"
	"github.com/mpapenbr/quizrace/pkg/publish"
	"github.com/mpapenbr/quizrace/pkg/sim/race"
	"github.com/mpapenbr/quizrace/pkg/sim/track"
	"github.com/mpapenbr/quizrace/pkg/utils/broadcast"
)

var (
	playerAnswerInterval float64
	playerAccuracy       float64
	interactive          bool
)

var errRestart = errors.New("restart requested")

func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run a race",
		Long: `Runs a race until the player finished or the time limit is reached.
With --interactive the player is controlled from stdin:
  c  correct answer    x  wrong answer
  l  lane to the left  r  lane to the right`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRaces(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&config.Realtime,
		"realtime",
		true,
		"run in real time, otherwise as fast as possible")
	cmd.Flags().Float64Var(&config.MaxTime,
		"max-time",
		0,
		"stop after this many simulated seconds (0: no limit)")
	cmd.Flags().BoolVar(&config.Watch,
		"watch",
		false,
		"restart the race when the race config or track file changes")
	cmd.Flags().StringVar(&config.NatsURL,
		"nats-url",
		"",
		"publish snapshots and events to this nats server")
	cmd.Flags().IntVar(&config.SnapshotEvery,
		"snapshot-every",
		1,
		"publish every n-th snapshot")
	cmd.Flags().StringVar(&config.WaitForServices,
		"wait-for-services",
		"15s",
		"Duration to wait for other services to be ready")
	cmd.Flags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	cmd.Flags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data (stdout for console)")
	cmd.Flags().Float64Var(&playerAnswerInterval,
		"player-answer-interval",
		4,
		"seconds between automatic player answers (0: off)")
	cmd.Flags().Float64Var(&playerAccuracy,
		"player-accuracy",
		0.75,
		"probability of a correct automatic player answer")
	cmd.Flags().BoolVar(&interactive,
		"interactive",
		false,
		"read player commands from stdin")
	return cmd
}

//nolint:funlen // by design
func runRaces(ctx context.Context, in io.Reader, out io.Writer) error {
	logger := log.GetFromContext(ctx).Named("run")
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.EnableTelemetry {
		logger.Info("Enabling telemetry")
		if telemetry, err := config.SetupTelemetry(ctx); err == nil {
			defer telemetry.Shutdown()
		} else {
			logger.Warn("Could not setup telemetry", log.ErrorField(err))
		}
		err := otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
		if err != nil {
			logger.Warn("Could not start runtime metrics", log.ErrorField(err))
		}
	}

	var conn *nats.Conn
	if config.NatsURL != "" {
		timeout, err := time.ParseDuration(config.WaitForServices)
		if err != nil {
			logger.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
			timeout = 60 * time.Second
		}
		if conn, err = publish.Connect(ctx, config.NatsURL, "quizrace", timeout); err != nil {
			return fmt.Errorf("nats not ready: %w", err)
		}
		defer conn.Close()
	}

	tracks := track.NewCache(0)
	r := &runner{
		tracks: tracks,
		conn:   conn,
		out:    out,
		log:    logger,
	}
	if interactive {
		r.commands = make(chan command)
		go readCommands(ctx, in, r.commands)
	}
	for {
		raceCtx, cancel := context.WithCancelCause(ctx)
		if config.Watch {
			go r.watch(raceCtx, cancel)
		}
		err := r.runOnce(raceCtx)
		restart := errors.Is(context.Cause(raceCtx), errRestart)
		cancel(nil)
		switch {
		case restart:
			logger.Info("restarting race")
			tracks.InvalidateAll(ctx)
			continue
		case config.Watch && ctx.Err() == nil:
			if err != nil {
				logger.Error("race failed", log.ErrorField(err))
			}
			logger.Info("waiting for changes")
			if !r.waitForChange(ctx) {
				return nil
			}
			tracks.InvalidateAll(ctx)
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
}

type runner struct {
	tracks   *track.Cache
	conn     *nats.Conn
	out      io.Writer
	log      *log.Logger
	commands chan command
}

func (r *runner) watchFiles() []string {
	files := []string{}
	if config.RaceConfigFile == "" {
		return files
	}
	files = append(files, config.RaceConfigFile)
	if cfg, err := config.LoadRaceConfig(config.RaceConfigFile); err == nil && cfg.Track.File != "" {
		files = append(files, resolve(config.BaseDir(config.RaceConfigFile), cfg.Track.File))
	}
	return files
}

func (r *runner) watch(ctx context.Context, cancel context.CancelCauseFunc) {
	files := r.watchFiles()
	if len(files) == 0 {
		r.log.Warn("nothing to watch without a race config file")
		return
	}
	var once sync.Once
	err := config.WatchFiles(ctx, func(string) {
		once.Do(func() { cancel(errRestart) })
	}, files...)
	if err != nil {
		r.log.Error("could not watch files", log.ErrorField(err))
	}
}

func (r *runner) waitForChange(ctx context.Context) bool {
	waitCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	go r.watch(waitCtx, cancel)
	<-waitCtx.Done()
	return errors.Is(context.Cause(waitCtx), errRestart)
}

//nolint:funlen // by design
func (r *runner) runOnce(ctx context.Context) error {
	cfg, err := config.LoadRaceConfig(config.RaceConfigFile)
	if err != nil {
		return err
	}
	tr, err := r.tracks.Get(ctx, cfg.Track, config.BaseDir(config.RaceConfigFile))
	if err != nil {
		return err
	}
	info := tr.Info()
	r.log.Info("track loaded",
		log.String("name", info.Name),
		log.Float64("length", info.Length),
		log.Int("lanes", info.Lanes))

	var listenerOpts []publish.ChannelListenerOption
	if !config.Realtime {
		listenerOpts = append(listenerOpts, publish.Blocking())
	}
	frames := publish.NewChannelListener(256, listenerOpts...)
	rc, err := race.NewRace(cfg, tr, race.WithListener(frames))
	if err != nil {
		return err
	}
	if playerAnswerInterval > 0 && !interactive {
		rc.AddListener(race.NewAutoAnswer(rc, rc.State().PlayerIndex(),
			playerAnswerInterval, playerAccuracy, cfg.Seed))
	}

	bcstOpts := []broadcast.Option[publish.Frame]{
		broadcast.WithTelemetry[publish.Frame](rc.ID()),
		broadcast.WithBufferSize[publish.Frame](64),
	}
	if !config.Realtime {
		// no frame rate to keep up with, subscribers may take their time
		bcstOpts = append(bcstOpts, broadcast.WithSendTimeout[publish.Frame](time.Second))
	}
	bcst := broadcast.NewBroadcastServer("frames", frames.C(), bcstOpts...)
	var wg sync.WaitGroup
	if r.conn != nil {
		feed := publish.NewFeed(r.conn, rc.ID(), publish.WithSnapshotEvery(config.SnapshotEvery))
		sub := bcst.Subscribe()
		wg.Add(1)
		go func() {
			defer wg.Done()
			feed.Run(context.Background(), sub)
		}()
	}
	progress := bcst.Subscribe()
	wg.Add(1)
	go func() {
		defer wg.Done()
		printLaps(r.out, rc.State(), progress)
	}()

	inputCtx, stopInput := context.WithCancel(ctx)
	defer stopInput()
	if r.commands != nil {
		go applyCommands(inputCtx, rc, r.commands)
	}

	loop := race.NewLoop(rc,
		race.WithMaxTime(config.MaxTime),
		race.WithMaxFrameDelta(time.Duration(cfg.MaxFrameDelta*float64(time.Second))))
	if config.Realtime {
		err = loop.Run(ctx)
	} else {
		_, err = loop.RunFast(ctx)
	}
	frames.Close()
	<-bcst.Done()
	wg.Wait()
	stopInput()
	if frames.Dropped() > 0 {
		r.log.Warn("frames dropped", log.Int64("count", frames.Dropped()))
	}

	printStandings(r.out, rc.Summary())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
