package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/decyjphr/github-repository-analysis/internal/analysis"
	cfgpkg "github.com/decyjphr/github-repository-analysis/internal/config"
	"github.com/decyjphr/github-repository-analysis/internal/records"
	"github.com/decyjphr/github-repository-analysis/internal/reduction"
	"github.com/decyjphr/github-repository-analysis/internal/shell"
	"github.com/decyjphr/github-repository-analysis/internal/utils"
)

var (
	scX           string
	scY           string
	scStrategy    string
	scTarget      int
	scTolerance   float64
	scProgressive bool
	scPoints      string
)

var scatterCmd = &cobra.Command{
	Use:   "scatter <csv>",
	Short: "Project two fields onto a scatter and reduce the point cloud",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := *currentConfig()
		if cmd.Flags().Changed("progressive") {
			c.ProgressiveEnabled = scProgressive
		}
		if cmd.Flags().Changed("tolerance") {
			c.DedupTolerance = scTolerance
		}
		xs, err := parseFields([]string{scX, scY})
		if err != nil {
			return err
		}
		req, err := scatterRequest(&c, nil)
		if err != nil {
			return err
		}
		ds, err := loadDataset(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		req.Reduce.Points = scatterPoints(ds.Records, xs[0], xs[1])

		s := newSession(&c)
		defer s.Close()
		st, err := runRevealing(cmd.Context(), s.panel("scatter"), req, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		res := st.Result.Reduction

		out := cmd.OutOrStdout()
		r := analysis.Correlation(ds.Records, xs[0], xs[1])
		fmt.Fprintf(out, "%s vs %s: %d of %d points (%s)\n", xs[0], xs[1], res.Output, res.Input, res.Plan)
		if math.IsNaN(r) {
			fmt.Fprintln(out, "correlation: n/a")
		} else {
			fmt.Fprintf(out, "correlation: r=%.3f\n", r)
		}

		if scPoints == "" {
			return nil
		}
		var buf bytes.Buffer
		if err := writePoints(&buf, res.Points, xs[0], xs[1]); err != nil {
			return err
		}
		if scPoints == "-" {
			_, err := out.Write(buf.Bytes())
			return err
		}
		if err := utils.SafeWriteFile(scPoints, buf.Bytes()); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Wrote %d points to %s\n", len(res.Points), scPoints)
		return nil
	},
}

// scatterRequest builds the reduce request, honouring --strategy/--target.
func scatterRequest(c *cfgpkg.Global, points []reduction.Point) (shell.Request, error) {
	policy := reductionPolicy(c)
	if err := policy.Validate(); err != nil {
		return shell.Request{}, err
	}
	if scStrategy == "" {
		return shell.NewReduce(points, policy), nil
	}
	strategy, err := reduction.ParseStrategy(scStrategy)
	if err != nil {
		return shell.Request{}, err
	}
	if scTarget <= 0 && strategy != reduction.StrategyDedup && strategy != reduction.StrategyNone {
		return shell.Request{}, fmt.Errorf("--target is required with --strategy %s", strategy)
	}
	return shell.NewReducePlan(points, policy, reduction.Plan{Strategy: strategy, Target: scTarget}), nil
}

// runRevealing submits req and, when progressive reveal is on, reports each
// revealed batch to progress until the result is complete.
func runRevealing(ctx context.Context, p *shell.Panel, req shell.Request, progress io.Writer) (shell.State, error) {
	defer p.Close()
	updates, stop := p.Subscribe()
	defer stop()

	tag, err := p.Submit(req)
	if err != nil {
		return shell.State{}, err
	}
	for {
		select {
		case st, ok := <-updates:
			if !ok {
				return shell.State{}, shell.ErrClosed
			}
			if st.Tag != tag {
				continue
			}
			if st.Partial {
				fmt.Fprintf(progress, "… revealed %d/%d points\n", st.Visible, st.Total)
			}
			if !st.Terminal() {
				continue
			}
			if st.Err != nil {
				return st, st.Err
			}
			return st, nil
		case <-ctx.Done():
			return shell.State{}, ctx.Err()
		}
	}
}

func writePoints(w io.Writer, pts []reduction.Point, x, y records.Field) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"index", "repository", "org", x.Header(), y.Header()}); err != nil {
		return err
	}
	for _, p := range pts {
		row := []string{
			strconv.Itoa(p.Index),
			p.Label,
			p.Group,
			strconv.FormatFloat(p.X, 'g', -1, 64),
			strconv.FormatFloat(p.Y, 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func init() {
	rootCmd.AddCommand(scatterCmd)
	scatterCmd.Flags().StringVarP(&scX, "x", "x", "size", "field on the x axis")
	scatterCmd.Flags().StringVarP(&scY, "y", "y", "issues", "field on the y axis")
	scatterCmd.Flags().StringVar(&scStrategy, "strategy", "", "force a strategy: dedup|systematic|random|stratified|lttb (default: threshold policy)")
	scatterCmd.Flags().IntVar(&scTarget, "target", 0, "point count for --strategy")
	scatterCmd.Flags().Float64Var(&scTolerance, "tolerance", 1, "dedup distance (overrides config)")
	scatterCmd.Flags().BoolVar(&scProgressive, "progressive", false, "reveal the reduced points in growing batches")
	scatterCmd.Flags().StringVar(&scPoints, "points", "", "write reduced points as CSV to this path ('-' for stdout)")
}
