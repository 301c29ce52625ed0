package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/awmpietro/algotrace/internal/app"
	"github.com/awmpietro/algotrace/internal/player"
	"github.com/awmpietro/algotrace/internal/presets"
	"github.com/awmpietro/algotrace/internal/render"
	"github.com/awmpietro/algotrace/internal/replay"
	"github.com/awmpietro/algotrace/internal/trace"
	"github.com/awmpietro/algotrace/internal/trace/query"
)

func (c *cli) algorithmsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "algorithms",
		Short: "list algorithms and their variants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.service()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ALGORITHM\tDEFAULT\tVARIANTS")
			for _, d := range svc.Algorithms() {
				names := make([]string, 0, len(d.Variants))
				for _, v := range d.Variants {
					names = append(names, fmt.Sprintf("%s (%s)", v.Name, v.Family))
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", d.Algorithm, d.DefaultVariant, strings.Join(names, ", "))
			}
			return w.Flush()
		},
	}
}

func (c *cli) presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [algorithm]",
		Short: "list sample inputs for an algorithm, or the algorithms that have them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, name := range presets.Algorithms() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}
			svc, err := c.service()
			if err != nil {
				return err
			}
			list, err := svc.Presets(args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SLUG\tNAME\tDESCRIPTION")
			for _, p := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.Slug(), p.Name, p.Description)
			}
			return w.Flush()
		},
	}
}

func (c *cli) solveCmd() *cobra.Command {
	var (
		in     inputFlags
		format string
		where  string
		dot    bool
		index  int
	)
	cmd := &cobra.Command{
		Use:   "solve <algorithm> [variant]",
		Short: "solve an input and print its trace",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.solve(cmd.Context(), cmd, args, in)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			switch {
			case where != "":
				matches, err := query.Filter(res.Trace.Steps, where)
				if err != nil {
					return err
				}
				for _, m := range matches {
					fmt.Fprintf(out, "#%d %s %s\n", m.Index, m.Step.Kind, m.Step.Description)
				}
				return nil
			case dot:
				src, err := app.GraphvizAt(res.Algorithm, res.Trace, indexOrLast(index, res.Trace))
				if err != nil {
					return err
				}
				_, err = io.WriteString(out, src)
				return err
			}

			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res.Trace)
			case "summary":
				return writeSummary(out, res)
			case "table":
				_, err := io.WriteString(out, renderState(replay.Replay(res.Trace.Steps, indexOrLast(index, res.Trace))))
				return err
			}
			return fmt.Errorf("unknown format %q", format)
		},
	}
	in.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "summary", "json, summary or table")
	cmd.Flags().StringVarP(&where, "where", "w", "", "print only steps matching an expression, e.g. 'kind == \"PICK\"'")
	cmd.Flags().BoolVar(&dot, "dot", false, "print Graphviz DOT of the graph or Huffman forest")
	cmd.Flags().IntVar(&index, "index", -1, "step index for table and dot output (-1 is the last step)")
	return cmd
}

func (c *cli) compareCmd() *cobra.Command {
	var (
		in     inputFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "compare <algorithm>",
		Short: "solve one input with the greedy and the dp variant side by side",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmp, err := c.compare(cmd.Context(), cmd, args[0], in)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(cmp.Summary())
			case "summary":
				return writeComparison(out, cmp.Summary())
			}
			return fmt.Errorf("unknown format %q", format)
		},
	}
	in.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "summary", "json or summary")
	return cmd
}

func (c *cli) replayCmd() *cobra.Command {
	var (
		in    inputFlags
		index int
	)
	cmd := &cobra.Command{
		Use:   "replay <algorithm> [variant]",
		Short: "print the replayed state at a step as JSON",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.solve(cmd.Context(), cmd, args, in)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(replay.Replay(res.Trace.Steps, indexOrLast(index, res.Trace)))
		},
	}
	in.register(cmd)
	cmd.Flags().IntVar(&index, "index", -1, "step index (-1 is the last step)")
	return cmd
}

func (c *cli) plotCmd() *cobra.Command {
	var (
		in     inputFlags
		series string
		index  int
		opts   render.PlotOptions
	)
	cmd := &cobra.Command{
		Use:   "plot <algorithm> [variant]",
		Short: "plot comparisons over the trace, or the values at a step",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.solve(cmd.Context(), cmd, args, in)
			if err != nil {
				return err
			}
			var chart string
			switch series {
			case "counters":
				chart = render.Counters(res.Trace.Steps, opts)
			case "result":
				chart = render.ResultSeries(replay.Replay(res.Trace.Steps, indexOrLast(index, res.Trace)), opts)
			default:
				return fmt.Errorf("unknown series %q", series)
			}
			if chart == "" {
				return errors.New("nothing to plot")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), chart)
			return err
		},
	}
	in.register(cmd)
	cmd.Flags().StringVar(&series, "series", "counters", "counters or result")
	cmd.Flags().IntVar(&index, "index", -1, "step index for the result series")
	cmd.Flags().IntVar(&opts.Width, "width", 60, "plot width")
	cmd.Flags().IntVar(&opts.Height, "height", 10, "plot height")
	return cmd
}

func (c *cli) playCmd() *cobra.Command {
	var (
		in    inputFlags
		plot  bool
		where string
	)
	cmd := &cobra.Command{
		Use:   "play <algorithm> [variant]",
		Short: "animate a trace in the terminal",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if where != "" {
				if _, err := query.Compile(where); err != nil {
					return err
				}
			}
			res, err := c.solve(cmd.Context(), cmd, args, in)
			if err != nil {
				return err
			}
			return player.Run(res.Trace.Steps, player.Options{
				Title:    res.Algorithm + "/" + res.Variant,
				Speed:    c.speed,
				ShowPlot: plot,
				Where:    where,
			})
		},
	}
	in.register(cmd)
	cmd.Flags().Float64Var(&c.speed, "speed", c.speed, "playback speed multiplier")
	cmd.Flags().BoolVar(&plot, "plot", false, "start with the plot panel open")
	cmd.Flags().StringVarP(&where, "where", "w", "", "step query; n jumps to the next match")
	return cmd
}

func (c *cli) tracesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "traces",
		Short: "inspect traces persisted with --store",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "list the most recent traces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.service()
			if err != nil {
				return err
			}
			items, err := svc.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tALGORITHM\tVARIANT\tRESULT\tSTEPS\tCREATED")
			for _, s := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
					s.ID, s.Algorithm, s.Variant, s.ResultValue, s.StepCount, s.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of traces")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "print a stored trace record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service()
			if err != nil {
				return err
			}
			rec, err := svc.Trace(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "delete a stored trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service()
			if err != nil {
				return err
			}
			if err := svc.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, show, del)
	return cmd
}

func indexOrLast(index int, tr *trace.Trace) int {
	if index < 0 {
		return len(tr.Steps) - 1
	}
	return index
}

func writeSummary(w io.Writer, res app.SolveResult) error {
	tr := res.Trace
	found, reason := false, ""
	if sol, ok := tr.Solution(); ok {
		found, reason = sol.Found, sol.Reason
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "algorithm\t%s/%s\n", res.Algorithm, res.Variant)
	fmt.Fprintf(tw, "result\t%d\n", tr.ResultValue)
	fmt.Fprintf(tw, "found\t%v\n", found)
	if reason != "" {
		fmt.Fprintf(tw, "reason\t%s\n", reason)
	}
	if len(tr.SelectedItems) > 0 {
		fmt.Fprintf(tw, "selected\t%v\n", tr.SelectedItems)
	}
	fmt.Fprintf(tw, "steps\t%d\n", len(tr.Steps))
	fmt.Fprintf(tw, "time\t%s\n", tr.Metrics.TimeComplexity)
	fmt.Fprintf(tw, "space\t%s\n", tr.Metrics.SpaceComplexity)
	fmt.Fprintf(tw, "id\t%s\n", res.ID)
	fmt.Fprintf(tw, "hash\t%s\n", res.Hash)
	return tw.Flush()
}

func writeComparison(w io.Writer, s app.ComparisonSummary) error {
	verdict := "greedy is optimal"
	if !s.GreedyOptimal {
		verdict = fmt.Sprintf("greedy differs from dp by %+d", s.ResultDelta)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\tGREEDY\tDP\tDELTA\n", s.Algorithm)
	fmt.Fprintf(tw, "result\t%d\t%d\t%+d\n", s.GreedyResult, s.DPResult, s.ResultDelta)
	fmt.Fprintf(tw, "found\t%v\t%v\t\n", s.GreedyFound, s.DPFound)
	fmt.Fprintf(tw, "steps\t%d\t%d\t%+d\n", s.GreedySteps, s.DPSteps, s.StepDelta)
	fmt.Fprintf(tw, "comparisons\t%d\t%d\t%+d\n", s.GreedyComparisons, s.DPComparisons, s.GreedyComparisons-s.DPComparisons)
	fmt.Fprintf(tw, "time\t%.6fs\t%.6fs\t%+.6fs\n", s.GreedySeconds, s.DPSeconds, s.TimeDelta)
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, verdict)
	return err
}

// renderState prints every visual the state carries, in a fixed order.
func renderState(st replay.State) string {
	var parts []string
	if len(st.DPTable) > 0 {
		parts = append(parts, render.Table(st))
	}
	for _, s := range []string{render.Decisions(st), render.Graph(st), render.Forest(st)} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if st.Note != "" {
		parts = append(parts, st.Note+"\n")
	}
	return strings.Join(parts, "\n")
}
