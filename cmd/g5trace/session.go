package main

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tturner/g5trace/internal/collection"
	"github.com/tturner/g5trace/internal/config"
	"github.com/tturner/g5trace/internal/dissemination"
	"github.com/tturner/g5trace/internal/errors"
	"github.com/tturner/g5trace/internal/logging"
	"github.com/tturner/g5trace/internal/metrics"
	"github.com/tturner/g5trace/internal/progress"
	"github.com/tturner/g5trace/internal/weather"
)

// progressThreshold is the record count below which no progress bar is drawn.
const progressThreshold = 5000

type globalFlags struct {
	configPath  string
	logLevel    string
	logFile     string
	metricsFile string
}

// session is the state shared by every analysis command: configuration,
// logger, metrics and the loaded collection.
type session struct {
	cfg         *config.Config
	logger      *logging.Logger
	metrics     *metrics.Registry
	coll        *collection.Collection
	out         io.Writer
	metricsFile string
}

// setup loads the configuration and builds the logger. Flags override
// the file.
func setup(cmd *cobra.Command, gf *globalFlags, input string) (*config.Config, *logging.Logger, error) {
	configPath := gf.configPath
	if configPath == "" {
		configPath = config.DefaultPath
	}
	cfg, err := config.Load(configPath, false)
	if err != nil {
		return nil, nil, err
	}

	levelName := cfg.Logging.Level
	if gf.logLevel != "" {
		levelName = gf.logLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, nil, err
	}
	logFile := cfg.Logging.File
	if gf.logFile != "" {
		logFile = gf.logFile
	}
	logger, err := logging.NewLoggerWithOptions(level, logFile, cfg.Logging.Format, cfg.Logging.LogEvery)
	if err != nil {
		return nil, nil, err
	}
	logger.LogStartup(cmd.Name(), input, configPath)
	return cfg, logger, nil
}

func openSession(cmd *cobra.Command, gf *globalFlags, input string) (*session, error) {
	cfg, logger, err := setup(cmd, gf, input)
	if err != nil {
		return nil, err
	}
	s := &session{
		cfg:         cfg,
		logger:      logger,
		metrics:     metrics.NewRegistry(),
		out:         cmd.OutOrStdout(),
		metricsFile: cfg.Metrics.Textfile,
	}
	if gf.metricsFile != "" {
		s.metricsFile = gf.metricsFile
	}

	newBar := progress.ForRecords(os.Stderr, progressThreshold)
	coll, err := collection.Load(input,
		collection.WithLogger(logger),
		collection.WithObserver(s.metrics),
		collection.WithProgress(func(total int64) collection.Progress { return newBar(total) }),
	)
	if err != nil {
		s.close()
		return nil, errors.WrapLoadError(err, input)
	}
	s.coll = coll
	return s, nil
}

// close writes the metrics textfile, if requested, and closes the logger.
func (s *session) close() {
	if s.metricsFile != "" {
		if err := s.metrics.WriteTextfile(s.metricsFile); err != nil {
			s.logger.Error("%v", err)
		}
	}
	_ = s.logger.Close()
}

func (s *session) engine() *dissemination.Engine {
	return dissemination.New(s.coll,
		dissemination.WithWindow(s.cfg.Analysis.CorrelationWindow()),
		dissemination.WithBucketWidth(s.cfg.Analysis.DistanceBucketMeters),
	)
}

func (s *session) weatherClient() *weather.Client {
	w := s.cfg.Weather
	return weather.NewClient(
		weather.WithBaseURL(w.BaseURL),
		weather.WithTimeout(w.Timeout()),
		weather.WithMaxConcurrent(w.MaxConcurrent),
		weather.WithLogger(s.logger),
		weather.WithObserver(s.metrics),
	)
}

// observe logs and records one finished analysis.
func (s *session) observe(name string, results int, elapsed time.Duration) {
	s.logger.LogAnalysis(name, results, elapsed)
	s.metrics.ObserveAnalysis(name, results, elapsed)
}

// timed runs an analysis and observes it. fn returns its result count.
func (s *session) timed(name string, fn func() int) {
	start := time.Now()
	n := fn()
	s.observe(name, n, time.Since(start))
}

// withSession opens a session for input, runs fn and closes the session.
func withSession(cmd *cobra.Command, gf *globalFlags, input string, fn func(*session) error) error {
	s, err := openSession(cmd, gf, input)
	if err != nil {
		return err
	}
	defer s.close()
	return fn(s)
}
