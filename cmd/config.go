package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/decyjphr/github-repository-analysis/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set repostats configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "bin_policy: %s\n", c.BinPolicy)
		fmt.Fprintf(out, "sturges_cap: %d\n", c.SturgesCap)
		fmt.Fprintf(out, "scale_method: %s\n", c.ScaleMethod)
		fmt.Fprintf(out, "percentiles: %s\n", formatFloats(c.Percentiles))
		fmt.Fprintf(out, "neighborhood_size: %d\n", c.NeighborhoodSize)
		fmt.Fprintf(out, "dedup_tolerance: %g\n", c.DedupTolerance)
		fmt.Fprintf(out, "lttb_high_threshold: %d\n", c.LTTBHighThreshold)
		fmt.Fprintf(out, "lttb_high_target: %d\n", c.LTTBHighTarget)
		fmt.Fprintf(out, "lttb_mid_threshold: %d\n", c.LTTBMidThreshold)
		fmt.Fprintf(out, "lttb_mid_target: %d\n", c.LTTBMidTarget)
		fmt.Fprintf(out, "dedup_threshold: %d\n", c.DedupThreshold)
		fmt.Fprintf(out, "dedup_target: %d\n", c.DedupTarget)
		fmt.Fprintf(out, "sample_seed: %d\n", c.SampleSeed)
		fmt.Fprintf(out, "sync_threshold: %d\n", c.SyncThreshold)
		fmt.Fprintf(out, "background_enabled: %t\n", c.BackgroundEnabled)
		fmt.Fprintf(out, "background_workers: %d\n", c.BackgroundWorkers)
		fmt.Fprintf(out, "background_timeout_sec: %d\n", c.BackgroundTimeoutSec)
		fmt.Fprintf(out, "progressive_enabled: %t\n", c.ProgressiveEnabled)
		if c.ProgressiveEnabled {
			fmt.Fprintf(out, "progressive_initial_batch: %d\n", c.ProgressiveInitialBatch)
			fmt.Fprintf(out, "progressive_growth: %g\n", c.ProgressiveGrowth)
			fmt.Fprintf(out, "progressive_interval_ms: %d\n", c.ProgressiveIntervalMs)
		}
		fmt.Fprintf(out, "log_level: %s\n", c.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", c.LogFormat)
		fmt.Fprintf(out, "log_output: %s\n", c.LogOutput)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c := *currentConfig()
		var err error
		switch key {
		case "bin_policy":
			switch strings.ToLower(val) {
			case "sturges", "fd", "freedman-diaconis", "scott":
				c.BinPolicy = strings.ToLower(val)
			default:
				return fmt.Errorf("invalid bin_policy: %s (use sturges, fd or scott)", val)
			}
		case "scale_method":
			switch strings.ToLower(val) {
			case "none", "minmax", "zscore", "robust":
				c.ScaleMethod = strings.ToLower(val)
			default:
				return fmt.Errorf("invalid scale_method: %s (use none, minmax, zscore or robust)", val)
			}
		case "sturges_cap":
			c.SturgesCap, err = parseIntValue(key, val)
		case "percentiles":
			c.Percentiles, err = parseFloatList(val)
		case "neighborhood_size":
			c.NeighborhoodSize, err = parseIntValue(key, val)
		case "dedup_tolerance":
			c.DedupTolerance, err = parseFloatValue(key, val)
		case "lttb_high_threshold":
			c.LTTBHighThreshold, err = parseIntValue(key, val)
		case "lttb_high_target":
			c.LTTBHighTarget, err = parseIntValue(key, val)
		case "lttb_mid_threshold":
			c.LTTBMidThreshold, err = parseIntValue(key, val)
		case "lttb_mid_target":
			c.LTTBMidTarget, err = parseIntValue(key, val)
		case "dedup_threshold":
			c.DedupThreshold, err = parseIntValue(key, val)
		case "dedup_target":
			c.DedupTarget, err = parseIntValue(key, val)
		case "sample_seed":
			c.SampleSeed, err = strconv.ParseInt(val, 10, 64)
			if err != nil {
				err = fmt.Errorf("invalid int for sample_seed: %v", val)
			}
		case "sync_threshold":
			c.SyncThreshold, err = parseIntValue(key, val)
		case "background_enabled":
			c.BackgroundEnabled, err = parseBoolValue(key, val)
		case "background_workers":
			c.BackgroundWorkers, err = parseIntValue(key, val)
		case "background_timeout_sec":
			c.BackgroundTimeoutSec, err = parseIntValue(key, val)
		case "progressive_enabled":
			c.ProgressiveEnabled, err = parseBoolValue(key, val)
		case "progressive_initial_batch":
			c.ProgressiveInitialBatch, err = parseIntValue(key, val)
		case "progressive_growth":
			c.ProgressiveGrowth, err = parseFloatValue(key, val)
		case "progressive_interval_ms":
			c.ProgressiveIntervalMs, err = parseIntValue(key, val)
		case "log_level":
			switch val {
			case "debug", "info", "warn", "error":
				c.LogLevel = val
			default:
				return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
			}
		case "log_format":
			switch val {
			case "text", "json":
				c.LogFormat = val
			default:
				return fmt.Errorf("invalid log_format: %s (use text or json)", val)
			}
		case "log_output":
			c.LogOutput = val
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(&c, cfgFile); err != nil {
			return err
		}
		cfg = &c
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func parseIntValue(key, val string) (int, error) {
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid int for %s: %v", key, val)
	}
	return i, nil
}

func parseFloatValue(key, val string) (float64, error) {
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid float for %s: %v", key, val)
	}
	return f, nil
}

func parseBoolValue(key, val string) (bool, error) {
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid bool for %s: %v", key, val)
	}
	return b, nil
}

// parseFloatList accepts "10,90" or "10 90".
func parseFloatList(val string) ([]float64, error) {
	parts := strings.FieldsFunc(val, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float in percentiles: %v", p)
		}
		out = append(out, f)
	}
	return out, nil
}

func formatFloats(fs []float64) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}
