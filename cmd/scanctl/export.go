package main

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"

	"go-exam-scanner/internal/exporter"
	"go-exam-scanner/internal/normalizer"

	"github.com/spf13/cobra"
)

type exportOptions struct {
	roll        string
	subjectCode string
	subjectName string
	out         string
	dpi         float64
	raw         bool
}

func newExportCmd(root *rootOptions) *cobra.Command {
	opts := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "export <page>...",
		Short: "Build a student's answer sheet PDF from page images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.roll == "" {
				return errors.New("--roll is required")
			}
			doc := exporter.StudentDocument{
				RollNumber:  opts.roll,
				SubjectCode: opts.subjectCode,
				SubjectName: opts.subjectName,
			}
			n := normalizer.NewDefault()
			for _, path := range args {
				raw, meta, err := root.load(cmd.Context(), path)
				if err != nil {
					return err
				}
				page, err := pageImage(n, raw, opts.raw)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				page.DPIX, page.DPIY = meta.DPIX, meta.DPIY
				doc.Pages = append(doc.Pages, page)
			}

			var buf bytes.Buffer
			if err := exporter.New(opts.dpi).ExportStudent(&buf, doc); err != nil {
				return err
			}
			out := opts.out
			if out == "" {
				out = exporter.FileName(opts.roll, opts.subjectCode)
			} else if filepath.Ext(out) == "" {
				out = filepath.Join(out, exporter.FileName(opts.roll, opts.subjectCode))
			}
			if err := writeOutput(out, buf.Bytes()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d pages, %d bytes\n", out, len(doc.Pages), buf.Len())
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.roll, "roll", "", "student roll number")
	cmd.Flags().StringVar(&opts.subjectCode, "subject-code", "", "subject code")
	cmd.Flags().StringVar(&opts.subjectName, "subject-name", "", "subject name")
	cmd.Flags().StringVarP(&opts.out, "output", "o", "", "output PDF path or directory")
	cmd.Flags().Float64Var(&opts.dpi, "dpi", 150, "page resolution for images that do not record one")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "embed pages as captured instead of normalizing them")
	return cmd
}

// pageImage returns a JPEG page. Raw mode re-encodes the full frame without
// sheet detection.
func pageImage(n *normalizer.Normalizer, src normalizer.RawImage, raw bool) (exporter.PageImage, error) {
	var (
		img normalizer.NormalizedImage
		err error
	)
	if raw {
		img, err = n.ManualCrop(src, normalizer.CropRequest{Width: src.Width(), Height: src.Height()})
	} else {
		img, err = n.AutoNormalize(src)
	}
	if err != nil {
		return exporter.PageImage{}, err
	}
	return exporter.PageImage{Data: img.Data, Width: img.Width, Height: img.Height}, nil
}
