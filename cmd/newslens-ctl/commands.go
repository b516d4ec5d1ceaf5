package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"newslens/internal/core/linker"
	ptime "newslens/internal/platform/time"
	orchdom "newslens/internal/services/orchestrator/domain"
)

// DefaultAddr is used when neither --addr nor NEWSLENS_ADDR is set
const DefaultAddr = "http://localhost:4000"

type rootFlags struct {
	addr    string
	token   string
	timeout time.Duration
	json    bool
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:           "newslens-ctl",
		Short:         "Operate the newslens automation workflows",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addr := os.Getenv("NEWSLENS_ADDR")
	if addr == "" {
		addr = DefaultAddr
	}
	root.PersistentFlags().StringVar(&f.addr, "addr", addr, "automation base url (env NEWSLENS_ADDR)")
	root.PersistentFlags().StringVar(&f.token, "token", os.Getenv("NEWSLENS_TOKEN"), "operator bearer token for pause, resume and trigger (env NEWSLENS_TOKEN)")
	root.PersistentFlags().DurationVar(&f.timeout, "timeout", 15*time.Minute, "request timeout, triggers wait for the run")
	root.PersistentFlags().BoolVar(&f.json, "json", false, "print raw json")

	root.AddCommand(
		listCmd(f),
		getCmd(f),
		stateCmd(f, "pause", "Pause a workflow; an in flight run finishes normally"),
		stateCmd(f, "resume", "Resume a paused or failed workflow"),
		triggerCmd(f),
		runsCmd(f),
		linkCmd(),
	)
	return root
}

func (f *rootFlags) client() (*client, error) {
	c, err := newClient(f.addr, f.timeout)
	if err != nil {
		return nil, err
	}
	c.token = strings.TrimSpace(f.token)
	return c, nil
}

func listCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List managed workflows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := f.client()
			if err != nil {
				return err
			}
			list, err := c.List(cmd.Context())
			if err != nil {
				return err
			}
			if f.json {
				return printJSON(cmd.OutOrStdout(), list)
			}
			return printSnapshots(cmd.OutOrStdout(), list...)
		},
	}
}

func getCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <workflow>",
		Short: "Show one workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := f.client()
			if err != nil {
				return err
			}
			s, err := c.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if f.json {
				return printJSON(cmd.OutOrStdout(), s)
			}
			return printSnapshots(cmd.OutOrStdout(), s)
		},
	}
}

// stateCmd builds pause and resume, which share shape and output
func stateCmd(f *rootFlags, verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <workflow>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := f.client()
			if err != nil {
				return err
			}
			call := c.Pause
			if verb == "resume" {
				call = c.Resume
			}
			s, err := call(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if f.json {
				return printJSON(cmd.OutOrStdout(), s)
			}
			return printSnapshots(cmd.OutOrStdout(), s)
		},
	}
}

func triggerCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "trigger <workflow>",
		Short: "Run a workflow once now and wait for it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := f.client()
			if err != nil {
				return err
			}
			out, err := c.Trigger(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if f.json {
				return printJSON(cmd.OutOrStdout(), out)
			}
			w := cmd.OutOrStdout()
			if out.Skipped {
				fmt.Fprintf(w, "%s: skipped, a run is already in progress\n", out.ID)
				return nil
			}
			fmt.Fprintf(w, "%s: ran\n", out.ID)
			return printSnapshots(w, out.Workflow)
		},
	}
}

func runsCmd(f *rootFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs <workflow>",
		Short: "Show recent runs from the run history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := f.client()
			if err != nil {
				return err
			}
			runs, err := c.Runs(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			if f.json {
				return printJSON(cmd.OutOrStdout(), runs)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STARTED\tDURATION\tOUTCOME\tITEMS\tMANUAL\tERROR")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%t\t%s\n",
					r.StartedAt.UTC().Format(time.RFC3339), r.Duration().Round(time.Millisecond),
					r.Outcome, r.ItemsProcessed, r.Manual, r.Error)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "max runs to show")
	return cmd
}

// linkCmd scores a batch against candidate threads offline with the production linker
func linkCmd() *cobra.Command {
	var (
		entities, keywords string
		threads            []string
		opts               = linker.DefaultOptions()
	)
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Score batch tokens against threads without touching the store",
		Example: `  newslens-ctl link --entities "gaza,egypt" --keywords "ceasefire,talks" \
    --thread "t1=gaza,israel;ceasefire" --thread "t2=ukraine;grain"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			cands, err := parseThreads(threads)
			if err != nil {
				return err
			}
			ents, kws := linker.ParseCSV(entities), linker.ParseCSV(keywords)

			w := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "THREAD\tSCORE\tENTITIES\tKEYWORDS")
			for _, c := range cands {
				fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%.4f\n", c.ThreadID, linker.Score(opts, ents, kws, c),
					linker.Jaccard(ents, c.Entities), linker.Jaccard(kws, c.Keywords))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			d, err := linker.Link(opts, ents, kws, cands)
			if err != nil {
				return err
			}
			if d.Created {
				fmt.Fprintf(w, "decision: new thread %s (best score %.4f < threshold %.4f)\n", d.ThreadID, d.Score, opts.Threshold)
				return nil
			}
			fmt.Fprintf(w, "decision: assign to %s (score %.4f)\n", d.ThreadID, d.Score)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&entities, "entities", "", "batch entities, comma separated")
	fl.StringVar(&keywords, "keywords", "", "batch keywords, comma separated")
	fl.StringArrayVar(&threads, "thread", nil, `candidate as "id=entities;keywords", repeatable, in candidate order`)
	fl.Float64Var(&opts.Threshold, "threshold", opts.Threshold, "minimum score to assign")
	fl.Float64Var(&opts.WeightEntities, "weight-entities", opts.WeightEntities, "entity jaccard weight")
	fl.Float64Var(&opts.WeightKeywords, "weight-keywords", opts.WeightKeywords, "keyword jaccard weight")
	return cmd
}

// parseThreads reads "id=entities;keywords" specs
func parseThreads(specs []string) ([]linker.Candidate, error) {
	out := make([]linker.Candidate, 0, len(specs))
	for _, s := range specs {
		id, rest, ok := strings.Cut(s, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("thread %q: want id=entities;keywords", s)
		}
		ents, kws, _ := strings.Cut(rest, ";")
		out = append(out, linker.Candidate{ThreadID: id, Entities: linker.ParseCSV(ents), Keywords: linker.ParseCSV(kws)})
	}
	return out, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSnapshots(w io.Writer, list ...orchdom.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATE\tRUNNING\tINTERVAL\tLAST RUN\tLAST SUCCESS\tITEMS\tLAST ERROR")
	for _, s := range list {
		errText := "-"
		if s.LastError != nil {
			errText = *s.LastError
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\t%s\t%d\t%s\n",
			s.ID, s.State, s.Running, time.Duration(s.IntervalSeconds)*time.Second,
			ptime.Format(s.LastRunAt, "-"), ptime.Format(s.LastSuccessAt, "-"), s.LastItemsProcessed, errText)
	}
	return tw.Flush()
}
