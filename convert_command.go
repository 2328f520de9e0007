package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"imageconverter/identity"
	"imageconverter/job"
	"imageconverter/models"
	"imageconverter/options"
	"imageconverter/page"
	"imageconverter/selection"
	writerbackends "imageconverter/writerBackends"

	"github.com/spf13/cobra"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var (
		formatFlag   string
		qualityFlag  int
		losslessFlag bool
		pickFlag     bool
		timeoutFlag  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "convert [files...]",
		Short: "Convert image files and save converted-images.zip",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			paths := args
			if pickFlag {
				picked, err := selection.Picker()
				if err != nil {
					return fmt.Errorf("file picker: %w", err)
				}
				paths = append(paths, picked...)
			}
			if len(paths) == 0 {
				return errors.New("no files given; pass paths or use --pick")
			}

			format, err := models.ParseOutputFormat(formatFlag)
			if err != nil {
				return err
			}

			store, err := ctx.credentialsStore()
			if err != nil {
				return err
			}
			writer, err := writerbackends.FromConfig(cfg.Download, store)
			if err != nil {
				return err
			}
			saver := &keepingSaver{next: writer}

			orch, err := job.New(job.Config{
				Endpoint:  cfg.Backend.Endpoint,
				UserAgent: cfg.Backend.UserAgent,
				Client:    &http.Client{Timeout: timeoutFlag},
				Saver:     saver,
			})
			if err != nil {
				return err
			}

			provider, err := ctx.identityProvider(nil)
			if err != nil {
				return err
			}
			pg := page.New(identity.NewTracker(provider), orch)
			pg.Open()
			defer pg.Close()

			pg.Surface.OnFilesChosen(paths)
			pg.Panel.SetFormat(format)
			if cmd.Flags().Changed("quality") && !pg.Panel.SetQuality(qualityFlag) {
				return fmt.Errorf("--quality does not apply to %s", format)
			}
			if cmd.Flags().Changed("lossless") && !pg.Panel.SetLossless(losslessFlag) {
				return fmt.Errorf("--lossless only applies to png")
			}

			out := cmd.OutOrStdout()
			view := pg.View()
			if view.User == nil {
				fmt.Fprintln(out, view.Notice)
				return errors.New("not signed in; run `imageconverter login`")
			}
			fmt.Fprintf(out, "Welcome, %s\n", view.User.DisplayName)
			if len(view.Files) == 0 {
				return errors.New("none of the given files is a JPG, PNG, WEBP or AVIF image")
			}
			printView(out, view)

			if !pg.CanSubmit() {
				return errors.New("a conversion is already running")
			}
			fmt.Fprintln(out, "Converting...")
			outcome := pg.Submit(cmd.Context())
			if outcome.State != models.JobStateSucceeded {
				return errors.New(outcome.Message())
			}

			fmt.Fprintf(out, "Saved %s via %s\n", job.ArchiveName, writer.Type)
			if entries, err := listArchive(saver.data); err == nil && len(entries) > 0 {
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{e.Name, formatKB(int64(e.Size))})
				}
				fmt.Fprintln(out, renderTable([]string{"Converted file", "Size"}, rows, []columnAlignment{alignLeft, alignRight}))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", "jpg", "Output format: jpg, png, webp or avif")
	cmd.Flags().IntVarP(&qualityFlag, "quality", "q", models.DefaultQuality, "Quality 1-100 for jpg, webp and avif")
	cmd.Flags().BoolVar(&losslessFlag, "lossless", false, "Lossless compression for png")
	cmd.Flags().BoolVar(&pickFlag, "pick", false, "Choose files with a native file dialog")
	cmd.Flags().DurationVar(&timeoutFlag, "timeout", 5*time.Minute, "Overall request timeout (0 disables)")
	return cmd
}

func printView(out io.Writer, v page.View) {
	rows := make([][]string, 0, len(v.Files))
	for _, f := range v.Files {
		rows = append(rows, []string{f.Name, strconv.FormatInt(f.SizeKB, 10) + " KB"})
	}
	fmt.Fprintln(out, "Selected Files:")
	fmt.Fprintln(out, renderTable([]string{"File", "Size"}, rows, []columnAlignment{alignLeft, alignRight}))

	fmt.Fprintf(out, "Convert to: %s\n", v.Format)
	if c := v.Control; c != nil {
		switch c.Kind {
		case options.QualitySlider:
			fmt.Fprintf(out, "%s: %d\n", c.Label(), c.Value)
		default:
			fmt.Fprintf(out, "%s: %s\n", c.Label(), yesNo(c.Checked))
		}
	}
}

func formatKB(bytes int64) string {
	return fmt.Sprintf("%d KB", models.FileEntry{SizeBytes: bytes}.SizeKB())
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
