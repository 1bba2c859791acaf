package main

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"go-exam-scanner/internal/normalizer"

	"github.com/spf13/cobra"
)

func newNormalizeCmd(root *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "normalize <image>",
		Short: "Detect the sheet in an image and write it as a JPEG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _, err := root.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			img, err := normalizer.NewDefault().AutoNormalize(raw)
			if err != nil {
				return err
			}
			if out == "" {
				out = defaultOutput(args[0])
			}
			if err := writeOutput(out, img.Data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", out, describe(img))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output JPEG path (default <name>_normalized.jpg)")
	return cmd
}

func newCropCmd(root *rootOptions) *cobra.Command {
	var (
		out string
		req normalizer.CropRequest
	)
	cmd := &cobra.Command{
		Use:   "crop <image>",
		Short: "Crop a rectangle from an image and write it as a JPEG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _, err := root.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			img, err := normalizer.NewDefault().ManualCrop(raw, req)
			if err != nil {
				return err
			}
			if out == "" {
				out = defaultOutput(args[0])
			}
			if err := writeOutput(out, img.Data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", out, describe(img))
			return nil
		},
	}
	cmd.Flags().IntVar(&req.X, "x", 0, "left edge in pixels")
	cmd.Flags().IntVar(&req.Y, "y", 0, "top edge in pixels")
	cmd.Flags().IntVar(&req.Width, "width", 0, "crop width in pixels")
	cmd.Flags().IntVar(&req.Height, "height", 0, "crop height in pixels")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output JPEG path (default <name>_normalized.jpg)")
	cmd.MarkFlagRequired("width")
	cmd.MarkFlagRequired("height")
	return cmd
}

// defaultOutput derives <name>_normalized.jpg; URL inputs land in the
// working directory.
func defaultOutput(in string) string {
	if u, err := url.Parse(in); err == nil && u.Scheme != "" && u.Host != "" {
		in = path.Base(u.Path)
		if in == "/" || in == "." {
			in = "snapshot"
		}
	}
	base := strings.TrimSuffix(in, filepath.Ext(in))
	return base + "_normalized.jpg"
}
