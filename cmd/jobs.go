package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-letters/app/service"
	"github.com/vibast-solutions/ms-go-letters/config"
)

var (
	workerMode bool
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Run back-office jobs",
}

var pdfCmd = &cobra.Command{
	Use:   "pdf",
	Short: "Run letter PDF related commands",
}

var pdfDispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Render and store the letters of queued PDF jobs",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"pdf_dispatch",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.PDFDispatchInterval },
			func(s *service.LetterService, ctx context.Context) error {
				return s.RunPDFDispatchBatch(ctx)
			},
		)
	},
}

var piiCmd = &cobra.Command{
	Use:   "pii",
	Short: "Run personal data retention commands",
}

var piiCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Scrub personal data from finished orders past the retention window",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"pii_cleanup",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.PIICleanupInterval },
			func(s *service.LetterService, ctx context.Context) error {
				return s.RunPIICleanupBatch(ctx)
			},
		)
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(pdfCmd)
	jobsCmd.AddCommand(piiCmd)
	pdfCmd.AddCommand(pdfDispatchCmd)
	piiCmd.AddCommand(piiCleanupCmd)

	jobsCmd.PersistentFlags().BoolVar(&workerMode, "worker", false, "Run continuously using configured interval")
}

func runCommand(
	name string,
	intervalResolver func(cfg *config.Config) time.Duration,
	fn func(s *service.LetterService, ctx context.Context) error,
) {
	cfg, letterService, cleanup := mustCreateLetterService()
	defer cleanup()

	if workerMode {
		runWorker(name, intervalResolver(cfg), letterService, fn)
		return
	}

	ctx := context.Background()
	runJob(name, func() error { return fn(letterService, ctx) })
}

func runWorker(
	name string,
	interval time.Duration,
	letterService *service.LetterService,
	fn func(s *service.LetterService, ctx context.Context) error,
) {
	if interval <= 0 {
		logrus.WithField("job", name).Fatal("invalid worker interval")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runJob(name, func() error { return fn(letterService, ctx) })

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	for {
		select {
		case <-quit:
			logrus.WithField("job", name).Info("Worker shutdown requested")
			return
		case <-ticker.C:
			runJob(name, func() error { return fn(letterService, ctx) })
		}
	}
}

func runJob(name string, fn func() error) {
	start := time.Now()
	err := fn()
	latency := time.Since(start)
	if err != nil {
		logrus.WithError(err).WithField("job", name).WithField("latency", latency.String()).Error("job_failed")
		return
	}
	logrus.WithField("job", name).WithField("latency", latency.String()).Info("job_completed")
}
