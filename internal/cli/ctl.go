package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"scadenze/internal/backend"
	"scadenze/internal/cache"
	"scadenze/internal/core"
	"scadenze/internal/services"
	"scadenze/internal/worker"
)

// RuntimeFactory opens the runtime a command works on.
type RuntimeFactory func(ctx context.Context) (*backend.Runtime, error)

// NewRootCmd builds the scadenzectl command tree.
func NewRootCmd(open RuntimeFactory) *cobra.Command {
	var rt *backend.Runtime

	cmd := &cobra.Command{
		Use:           "scadenzectl",
		Short:         "Inspect and refresh the recurring expenses board",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			rt, err = open(cmd.Context())
			return err
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if rt == nil {
				return nil
			}
			return rt.Close()
		},
	}
	runtime := func() *backend.Runtime { return rt }

	cmd.AddCommand(newShowCmd(runtime), newRefreshCmd(runtime), newCacheCmd(runtime))
	return cmd
}

func newShowCmd(rt func() *backend.Runtime) *cobra.Command {
	var (
		location string
		month    string
		day      int
		refresh  bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the month table of a location",
		Example: `  scadenzectl show
  scadenzectl show --location bh --month 2025-06 --day 15`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view, err := parseMonthFlag(month)
			if err != nil {
				return err
			}
			view.Day = day

			bv, err := rt().Board.MonthView(cmd.Context(), location, view, refresh)
			if err != nil {
				return err
			}
			return RenderMonth(cmd.OutOrStdout(), bv)
		},
	}

	cmd.Flags().StringVar(&location, "location", "", "location id (default: first configured)")
	cmd.Flags().StringVar(&month, "month", "", "month to show as YYYY-MM (default: current)")
	cmd.Flags().IntVar(&day, "day", 0, "day splitting past from upcoming (default: today)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "fetch the data set even when the cache is fresh")
	return cmd
}

func parseMonthFlag(s string) (services.ViewDate, error) {
	if s == "" {
		return services.ViewDate{}, nil
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return services.ViewDate{}, fmt.Errorf("invalid --month %q, want YYYY-MM", s)
	}
	return services.ViewDate{Year: t.Year(), Month: t.Month()}, nil
}

func newRefreshCmd(rt func() *backend.Runtime) *cobra.Command {
	var (
		location string
		all      bool
	)

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch data sets and rewrite their cache entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if all {
				w := worker.NewRefreshWorker(rt().Loader, rt().DataSets(), nil)
				n, err := w.WarmAll(cmd.Context())
				fmt.Fprintf(out, "refreshed %d of %d data sets\n", n, len(rt().DataSets()))
				return err
			}

			res, err := rt().Board.Refresh(cmd.Context(), location)
			if err != nil {
				var fetchErr *services.FetchError
				if errors.As(err, &fetchErr) {
					fmt.Fprintf(out, "%s: %s\n", res.Name, res.State)
				}
				return err
			}
			fmt.Fprintf(out, "%s: %s (%d records)\n", res.Name, res.State, len(res.Records))
			if res.State != services.StateFetchSucceeded {
				return fmt.Errorf("refresh %s failed, cached data kept", res.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&location, "location", "", "location id (default: first configured)")
	cmd.Flags().BoolVar(&all, "all", false, "refresh every configured data set")
	cmd.MarkFlagsMutuallyExclusive("location", "all")
	return cmd
}

func newCacheCmd(rt func() *backend.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the local cache",
	}

	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired cache entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			removed := rt().Sweeper.SweepNow()
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired entries\n", removed)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List cached data sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := rt().Store.Names(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	get := &cobra.Command{
		Use:   "get NAME",
		Short: "Show the cache entry of a data set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := core.DataSetName(args[0])
			if err := name.Validate(); err != nil {
				return err
			}
			store := rt().Store
			e, ok := store.Get(cmd.Context(), name)
			if !ok {
				return fmt.Errorf("no cache entry for %s", name)
			}
			return RenderEntry(cmd.OutOrStdout(), name, e, store.Now())
		},
	}

	cmd.AddCommand(sweep, list, get)
	return cmd
}

// entryInfo is the summary printed by cache get.
type entryInfo struct {
	Key        string
	CapturedAt time.Time
	Age        time.Duration
	Fresh      bool
	Records    int
	Invalid    bool
}

func describeEntry(name core.DataSetName, e cache.Entry, now time.Time) entryInfo {
	info := entryInfo{
		Key:        cache.Key(name),
		CapturedAt: e.CapturedAt(),
		Age:        e.Age(now),
		Fresh:      cache.IsFresh(e, now),
	}
	records, err := e.Records()
	if err != nil {
		info.Invalid = true
	}
	info.Records = len(records)
	return info
}
