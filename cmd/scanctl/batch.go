package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go-exam-scanner/internal/analyzer"
	"go-exam-scanner/internal/logger"
	"go-exam-scanner/internal/normalizer"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".bmp": true, ".tif": true, ".tiff": true}

func newBatchCmd(root *rootOptions) *cobra.Command {
	var (
		out     string
		workers int
	)
	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Normalize every image in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return errors.New("--output directory is required")
			}
			if filepath.Clean(out) == filepath.Clean(args[0]) {
				return errors.New("input and output directories must be different")
			}
			inputs, err := listImages(args[0])
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				return fmt.Errorf("no images found in %s", args[0])
			}
			if err := os.MkdirAll(out, 0o755); err != nil {
				return err
			}
			return runBatch(cmd.Context(), cmd, root, inputs, out, workers)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output directory")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (default CPU count)")
	return cmd
}

func runBatch(ctx context.Context, cmd *cobra.Command, root *rootOptions, inputs []string, outDir string, workers int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	pool := analyzer.NewWorkerPool(workers)
	pool.Start()
	defer pool.Close()

	n := normalizer.NewDefault()
	results := make([]string, len(inputs))
	errs := analyzer.Map(ctx, pool, len(inputs), func(i int) error {
		raw, _, err := root.load(ctx, inputs[i])
		if err != nil {
			return err
		}
		img, err := n.AutoNormalize(raw)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.Base(inputs[i]), filepath.Ext(inputs[i])) + ".jpg"
		dst := filepath.Join(outDir, name)
		if err := writeOutput(dst, img.Data); err != nil {
			return err
		}
		results[i] = fmt.Sprintf("%s: %s", dst, describe(img))
		return nil
	})

	failed := 0
	for i, err := range errs {
		if err != nil {
			failed++
			logger.WithError(err).WithField("file", inputs[i]).Warn("Normalization failed")
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", inputs[i], err)
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), results[i])
	}
	logger.WithFields(logrus.Fields{
		"total":  len(inputs),
		"failed": failed,
	}).Info("Batch finished")
	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(inputs))
	}
	return nil
}

// listImages returns image files directly inside dir, sorted by name.
// Hidden and AppleDouble files are skipped.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
