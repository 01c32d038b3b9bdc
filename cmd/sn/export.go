package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/sitenav/internal/archive"
	"github.com/alfredjeanlab/sitenav/internal/store/postgres"
)

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Archive the crawled pages as JSONL to a file, S3 or PostgreSQL",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyExportFlags(cmd)
		ctx := cmd.Context()

		var dests []archive.Destination
		if cfg.ArchiveFile != "" {
			dests = append(dests, &archive.FileDestination{Path: cfg.ArchiveFile, Out: cmd.OutOrStdout()})
		}
		if cfg.ArchiveS3Bucket != "" {
			d, err := archive.NewS3Destination(ctx, cfg.ArchiveS3Bucket, cfg.ArchiveS3Key, cfg.ArchiveS3Region, cfg.ArchiveS3Endpoint)
			if err != nil {
				return err
			}
			dests = append(dests, d)
		}
		if cfg.ArchiveDatabaseURL != "" {
			st, err := postgres.New(cfg.ArchiveDatabaseURL)
			if err != nil {
				return err
			}
			defer st.Close()
			keep, _ := cmd.Flags().GetInt("keep")
			dests = append(dests, &archive.StoreDestination{Store: st, Keep: keep})
		}
		if len(dests) == 0 {
			dests = append(dests, &archive.FileDestination{Path: "-", Out: cmd.OutOrStdout()})
		}

		sched := archive.NewScheduler(backend, cfg.URL, dests, cfg.ArchiveInterval, logger)
		if cfg.ArchiveInterval <= 0 {
			a, err := sched.RunOnce(ctx)
			if err != nil {
				return err
			}
			if !writesStdout(dests) {
				fmt.Fprintf(cmd.OutOrStdout(), "archived %d pages as %s\n", len(a.Nodes), a.ID)
			}
			return nil
		}

		ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
		defer stop()
		logger.Info("archiving on an interval", "interval", cfg.ArchiveInterval, "destinations", len(dests))
		sched.Start()
		<-ctx.Done()
		sched.Stop()
		return nil
	},
}

var exportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archives saved to PostgreSQL",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyExportFlags(cmd)
		if cfg.ArchiveDatabaseURL == "" {
			return fmt.Errorf("no database configured; pass --database-url or set SITENAV_ARCHIVE_DATABASE_URL")
		}
		limit, _ := cmd.Flags().GetInt("limit")
		st, err := postgres.New(cfg.ArchiveDatabaseURL)
		if err != nil {
			return err
		}
		defer st.Close()

		infos, err := st.ListArchives(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), infos)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTAKEN\tPAGES\tSOURCE")
		for _, i := range infos {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", i.ID, i.TakenAt.Format("2006-01-02 15:04:05"), i.NodeCount, i.Source)
		}
		return w.Flush()
	},
}

var exportShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print an archive saved to PostgreSQL as JSONL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyExportFlags(cmd)
		if cfg.ArchiveDatabaseURL == "" {
			return fmt.Errorf("no database configured; pass --database-url or set SITENAV_ARCHIVE_DATABASE_URL")
		}
		st, err := postgres.New(cfg.ArchiveDatabaseURL)
		if err != nil {
			return err
		}
		defer st.Close()

		a, err := st.GetArchive(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("archive %s: %w", args[0], err)
		}
		return archive.ExportJSONL(a, cmd.OutOrStdout())
	},
}

var exportDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an archive saved to PostgreSQL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyExportFlags(cmd)
		if cfg.ArchiveDatabaseURL == "" {
			return fmt.Errorf("no database configured; pass --database-url or set SITENAV_ARCHIVE_DATABASE_URL")
		}
		st, err := postgres.New(cfg.ArchiveDatabaseURL)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.DeleteArchive(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("archive %s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "archive %s deleted\n", args[0])
		return nil
	},
}

func writesStdout(dests []archive.Destination) bool {
	for _, d := range dests {
		if f, ok := d.(*archive.FileDestination); ok && f.Path == "-" {
			return true
		}
	}
	return false
}

// applyExportFlags overrides the archive settings with any flags given.
func applyExportFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	str := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	str("file", &cfg.ArchiveFile)
	str("s3-bucket", &cfg.ArchiveS3Bucket)
	str("s3-key", &cfg.ArchiveS3Key)
	str("s3-region", &cfg.ArchiveS3Region)
	str("s3-endpoint", &cfg.ArchiveS3Endpoint)
	str("database-url", &cfg.ArchiveDatabaseURL)
	if flags.Changed("interval") {
		cfg.ArchiveInterval, _ = flags.GetDuration("interval")
	}
}

func init() {
	pf := exportCmd.PersistentFlags()
	pf.String("database-url", "", "PostgreSQL URL (env SITENAV_ARCHIVE_DATABASE_URL)")

	f := exportCmd.Flags()
	f.String("file", "", `JSONL file to write; "-" for stdout (env SITENAV_ARCHIVE_FILE)`)
	f.String("s3-bucket", "", "S3 bucket (env SITENAV_ARCHIVE_S3_BUCKET)")
	f.String("s3-key", "", "S3 object key (env SITENAV_ARCHIVE_S3_KEY)")
	f.String("s3-region", "", "S3 region (env SITENAV_ARCHIVE_S3_REGION)")
	f.String("s3-endpoint", "", "custom S3 endpoint, e.g. MinIO (env SITENAV_ARCHIVE_S3_ENDPOINT)")
	f.Int("keep", 0, "with --database-url, keep only the newest N archives; 0 keeps all")
	f.Duration("interval", 0, "archive repeatedly at this interval until interrupted (env SITENAV_ARCHIVE_INTERVAL)")

	exportListCmd.Flags().Int("limit", 20, "maximum archives to list; 0 for all")

	exportCmd.AddCommand(exportListCmd)
	exportCmd.AddCommand(exportShowCmd)
	exportCmd.AddCommand(exportDeleteCmd)
}
