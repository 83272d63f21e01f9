package autosave

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/tkwin-games/tkwin/internal/logging"
	"github.com/tkwin-games/tkwin/internal/tournament"
	"go.uber.org/zap"
)

type Saver interface {
	Save(ctx context.Context) error
}

func New(ctx context.Context, spec string, saver Saver) *Scheduler {
	logger := logging.FromContext(ctx).Named("autosave.Scheduler")
	c := cron.New(cron.WithLogger(cron.PrintfLogger(zap.NewStdLog(logger.Desugar()))))

	return &Scheduler{
		ctx:    ctx,
		cron:   c,
		spec:   spec,
		saver:  saver,
		logger: logger,
	}
}

// Scheduler periodically saves the active tournament.
type Scheduler struct {
	ctx    context.Context
	cron   *cron.Cron
	spec   string
	saver  Saver
	logger *zap.SugaredLogger
}

// Start schedules the save job, an empty spec disables autosave.
func (s *Scheduler) Start() error {
	if s.spec == "" {
		s.logger.Infof("autosave disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, func() {
		if err := s.RunNow(); err != nil {
			s.logger.Errorf("autosave: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule autosave %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Infof("autosave scheduled %s", s.spec)
	return nil
}

// Stop waits for a running save to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunNow saves immediately. Having no active tournament is not an error.
func (s *Scheduler) RunNow() error {
	err := s.saver.Save(s.ctx)
	if errors.Is(err, tournament.ErrNoTournament) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}

	s.logger.Debugf("tournament saved")
	return nil
}
