package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-exam-scanner/internal/capture"
	"go-exam-scanner/internal/logger"
	"go-exam-scanner/internal/normalizer"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel string
	maxSize  int64
	timeout  time.Duration
	insecure bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "scanctl",
		Short:        "Offline answer sheet normalization and PDF export",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetOutput(cmd.ErrOrStderr())
			logger.Configure(opts.logLevel)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().Int64Var(&opts.maxSize, "max-size", capture.DefaultMaxSize, "maximum input image size in bytes")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "timeout for camera snapshot URLs")
	cmd.PersistentFlags().BoolVar(&opts.insecure, "insecure", false, "accept self-signed certificates from camera apps")

	cmd.AddCommand(
		newNormalizeCmd(opts),
		newCropCmd(opts),
		newBatchCmd(opts),
		newExportCmd(opts),
	)
	return cmd
}

// acquire reads one frame from a file or, for http(s) inputs, a camera
// snapshot endpoint.
func (o *rootOptions) acquire(ctx context.Context, input string) (capture.Frame, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var src capture.Source = capture.FileSource{Path: input, MaxSize: o.maxSize}
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		u, err := capture.NewURLSource(input, capture.URLSourceOptions{
			Timeout:     o.timeout,
			MaxSize:     o.maxSize,
			InsecureTLS: o.insecure,
		})
		if err != nil {
			return capture.Frame{}, err
		}
		src = u
	}
	frame, err := src.Acquire(ctx)
	if err != nil {
		return capture.Frame{}, fmt.Errorf("%s: %w", input, err)
	}
	return frame, nil
}

// load acquires and decodes input, applying the EXIF orientation. The
// returned metadata describes the oriented image.
func (o *rootOptions) load(ctx context.Context, input string) (normalizer.RawImage, capture.Metadata, error) {
	frame, err := o.acquire(ctx, input)
	if err != nil {
		return normalizer.RawImage{}, capture.Metadata{}, err
	}
	raw, err := normalizer.Decode(frame.Data)
	if err != nil {
		return normalizer.RawImage{}, capture.Metadata{}, fmt.Errorf("%s: %w", input, err)
	}
	logger.WithField("source", frame.Source).WithField("orientation", frame.Meta.Orientation).Debug("Frame acquired")
	return normalizer.Orient(raw, frame.Meta.Orientation), frame.Meta.Oriented(), nil
}

// writeOutput writes data to path, creating the parent directory.
func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func describe(img normalizer.NormalizedImage) string {
	r := img.Region
	return fmt.Sprintf("%dx%d %s, detector %s, region %dx%d at %d,%d",
		img.Width, img.Height, img.Format, img.Detector, r.Width, r.Height, r.X, r.Y)
}
