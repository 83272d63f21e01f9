package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/tkwin-games/tkwin/internal/autosave"
	"github.com/tkwin-games/tkwin/internal/buildinfo"
	"github.com/tkwin-games/tkwin/internal/cache"
	"github.com/tkwin-games/tkwin/internal/database"
	boutdb "github.com/tkwin-games/tkwin/internal/database/bout/database"
	tournamentdb "github.com/tkwin-games/tkwin/internal/database/tournament/database"
	"github.com/tkwin-games/tkwin/internal/judge"
	"github.com/tkwin-games/tkwin/internal/logging"
	"github.com/tkwin-games/tkwin/internal/operator"
	"github.com/tkwin-games/tkwin/internal/scoreboard"
	"github.com/tkwin-games/tkwin/internal/server"
	"github.com/tkwin-games/tkwin/internal/shutdown"
	"github.com/tkwin-games/tkwin/internal/tournament"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

func main() {
	_, _ = fmt.Fprint(os.Stdout, buildinfo.Graffiti)
	_, _ = fmt.Fprintf(os.Stdout, buildinfo.GreetingCLI, buildinfo.ProjectName, version, buildinfo.GithubURL)

	ctx, done := shutdown.New()
	defer done()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.DefaultLogger().Fatalf("load .env: %v", err)
	}

	config := operator.Config{}
	if err := envconfig.Process("", &config); err != nil {
		logging.DefaultLogger().Fatalf("processing the config: %v", err)
	}

	logger := logging.NewLogger(config.Debug)
	ctx = logging.WithLogger(ctx, logger)
	if err := realMain(ctx, config, done); err != nil {
		logger.Fatalf("main.realMain: %v", err)
	}
}

func realMain(ctx context.Context, config operator.Config, done func()) error {
	logger := logging.FromContext(ctx).Named("main.realMain")

	db, err := database.NewFromEnv(ctx, &config.DB)
	if err != nil {
		return fmt.Errorf("new database from env: %w", err)
	}
	defer db.Close(ctx)

	snapshotCache, err := cache.NewARC(config.CacheSize)
	if err != nil {
		return fmt.Errorf("can not create arc cache: %w", err)
	}

	manager := tournament.NewManager(tournamentdb.New(db, snapshotCache))
	board := scoreboard.NewBoard()
	hub := scoreboard.NewHub(ctx, board, operator.OriginChecker(config.CORSOrigins))
	notifiers := scoreboard.Multi{board, hub, scoreboard.NewConsole(os.Stdout)}

	params := operator.Params{
		Rules:       config.Rules,
		Tournaments: manager,
		Archive:     boutdb.New(db),
		Board:       board,
		Displays:    hub,
	}

	var announcer *scoreboard.Announcer
	if config.TelegramToken != "" {
		tg, err := tgbotapi.NewBotAPI(config.TelegramToken)
		if err != nil {
			return fmt.Errorf("bot api: %w", err)
		}
		tg.Debug = config.Debug
		logger.Infof("telegram announcements as %s to chat %d", tg.Self.UserName, config.TelegramChat)

		announcer = scoreboard.NewAnnouncer(ctx, tg, config.TelegramChat)
		notifiers = append(notifiers, announcer)
		params.Announcer = announcer
	}
	params.Notifier = notifiers

	op, err := operator.New(ctx, params)
	if err != nil {
		return fmt.Errorf("operator.New: %w", err)
	}
	defer op.Close()

	poller, closeDevices, err := openJudges(ctx, config, op)
	if err != nil {
		return err
	}
	defer closeDevices()

	srv, err := server.New(config.Port)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	saver := autosave.New(ctx, config.Autosave, manager)
	if err := saver.Start(); err != nil {
		return fmt.Errorf("autosave: %w", err)
	}
	defer saver.Stop()

	if announcer != nil {
		announcer.Run(ctx)
	}
	if poller != nil {
		poller.Run(ctx)
		defer poller.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return srv.ServeHTTP(gctx, &http.Server{Handler: op.Routes(gctx, hub, config.CORSOrigins)})
	})
	g.Go(func() error {
		defer done()
		return op.Serve(gctx, os.Stdin, os.Stdout)
	})

	err = g.Wait()
	if saveErr := saver.RunNow(); saveErr != nil {
		logger.Errorf("final save: %v", saveErr)
	}
	hits, misses := snapshotCache.Stats()
	logger.Debugf("snapshot cache: %d hits, %d misses", hits, misses)
	return err
}

// openJudges attaches the configured joysticks, judges fall back to console
// input when none are configured.
func openJudges(ctx context.Context, config operator.Config, op *operator.Operator) (*judge.Poller, func(), error) {
	logger := logging.FromContext(ctx).Named("main.openJudges")

	var joysticks []*judge.Joystick
	closeAll := func() {
		for _, j := range joysticks {
			if err := j.Close(); err != nil {
				logger.Errorf("close %s: %v", j.Name(), err)
			}
		}
	}

	devices := make([]judge.Device, 0, len(config.Joysticks))
	for _, path := range config.Joysticks {
		j, err := judge.OpenJoystick(path)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		joysticks = append(joysticks, j)
		devices = append(devices, j)
	}

	if len(devices) == 0 {
		logger.Infof("no joysticks configured, judge input from console only")
		return nil, closeAll, nil
	}

	poller, err := judge.NewPoller(judge.Config{
		Devices: devices,
		Judges:  config.Rules.JudgesCount,
		Handler: op.JudgeInput,
	})
	if err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("judge.NewPoller: %w", err)
	}

	op.SetControllers(poller.Controllers())
	logger.Infof("%d joysticks attached", len(devices))
	return poller, closeAll, nil
}
