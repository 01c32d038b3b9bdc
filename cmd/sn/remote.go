package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alfredjeanlab/sitenav/internal/client"
	"github.com/alfredjeanlab/sitenav/internal/config"
)

var remoteCmd = &cobra.Command{
	Use:     "remote",
	Short:   "Manage named backend remotes",
	GroupID: "system",
	// The remotes file is all these commands need; skip backend setup.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
}

func loadRemotes() (config.Remotes, string, error) {
	path, err := config.RemotesPath()
	if err != nil {
		return config.Remotes{}, "", err
	}
	r, err := config.LoadRemotes(path)
	return r, path, err
}

// editRemotes applies edit and saves the file, then prints done.
func editRemotes(cmd *cobra.Command, edit func(*config.Remotes) error, done string) error {
	r, path, err := loadRemotes()
	if err != nil {
		return err
	}
	if err := edit(&r); err != nil {
		return err
	}
	if err := r.Save(path); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), done)
	return nil
}

var remoteAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Add or update a named remote",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rem := config.Remote{URL: args[1]}
		rem.NATSURL, _ = cmd.Flags().GetString("nats")
		rem.Description, _ = cmd.Flags().GetString("description")
		return editRemotes(cmd, func(r *config.Remotes) error {
			return r.Put(args[0], rem)
		}, fmt.Sprintf("remote %q added (%s)", args[0], rem.URL))
	},
}

var remoteRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a named remote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editRemotes(cmd, func(r *config.Remotes) error {
			return r.Delete(args[0])
		}, fmt.Sprintf("remote %q removed", args[0]))
	},
}

var remoteUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the active remote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editRemotes(cmd, func(r *config.Remotes) error {
			return r.Use(args[0])
		}, fmt.Sprintf("active remote set to %q", args[0]))
	},
}

var remoteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all remotes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, _, err := loadRemotes()
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), r)
		}
		if len(r.Remotes) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no remotes configured")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  NAME\tURL\tNATS")
		for _, name := range r.Names() {
			rem := r.Remotes[name]
			mark := " "
			if name == r.Active {
				mark = "*"
			}
			fmt.Fprintf(w, "%s %s\t%s\t%s\n", mark, name, rem.URL, orDash(rem.NATSURL))
		}
		return w.Flush()
	},
}

var remoteShowCmd = &cobra.Command{
	Use:   "show [<name>]",
	Short: "Show details for a remote (defaults to active)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, _, err := loadRemotes()
		if err != nil {
			return err
		}
		name, rem, err := r.Lookup(firstArg(args))
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{"name": name, "active": name == r.Active, "remote": rem})
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		if name == r.Active {
			name += " (active)"
		}
		for _, row := range [][2]string{
			{"Name", name},
			{"URL", rem.URL},
			{"NATS", rem.NATSURL},
			{"Description", rem.Description},
		} {
			if row[1] != "" {
				fmt.Fprintf(w, "%s:\t%s\n", row[0], row[1])
			}
		}
		return w.Flush()
	},
}

// remoteCheck is the outcome of probing one remote's health endpoint.
type remoteCheck struct {
	Name    string        `json:"name"`
	URL     string        `json:"url"`
	OK      bool          `json:"ok"`
	Message string        `json:"message"`
	Latency time.Duration `json:"latency_ns"`
}

var remoteCheckCmd = &cobra.Command{
	Use:   "check [<name>]",
	Short: "Probe the health of one remote, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, _, err := loadRemotes()
		if err != nil {
			return err
		}
		names := r.Names()
		if len(args) == 1 {
			name, _, err := r.Lookup(args[0])
			if err != nil {
				return err
			}
			names = []string{name}
		}
		perRemote, err := parsePositiveDuration(timeout)
		if err != nil {
			return fmt.Errorf("--timeout: %w", err)
		}

		results := make([]remoteCheck, len(names))
		g, ctx := errgroup.WithContext(cmd.Context())
		for i, name := range names {
			g.Go(func() error {
				results[i] = probeRemote(ctx, name, r.Remotes[name], perRemote)
				return nil
			})
		}
		_ = g.Wait()

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), results)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		failed := 0
		for _, res := range results {
			state := "ok"
			if !res.OK {
				state = "FAIL"
				failed++
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", res.Name, state, res.Latency.Round(time.Millisecond), res.Message)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d remotes unreachable", failed, len(results))
		}
		return nil
	},
}

func probeRemote(ctx context.Context, name string, rem config.Remote, timeout time.Duration) remoteCheck {
	res := remoteCheck{Name: name, URL: rem.URL}
	c := client.NewHTTPClient(rem.URL, client.WithTimeout(timeout))
	start := time.Now()
	msg, err := c.Health(ctx)
	res.Latency = time.Since(start)
	if err != nil {
		res.Message = err.Error()
		return res
	}
	res.OK, res.Message = true, msg
	return res
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	remoteAddCmd.Flags().String("nats", "", "NATS URL for crawl events")
	remoteAddCmd.Flags().String("description", "", "free-form note")

	remoteCmd.AddCommand(remoteAddCmd, remoteRemoveCmd, remoteListCmd, remoteUseCmd, remoteShowCmd, remoteCheckCmd)
}
