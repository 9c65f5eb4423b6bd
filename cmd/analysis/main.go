// Command analysis measures how often approximate sets report values that
// were never inserted, and compares the observed rate with the estimate.
//
//	analysis fp --items 100000 --probes 100000 --bits 16
//	analysis redis --redis-url redis://localhost:6379/0 --bits 12
//
// Every flag can also be set from the environment with an APPROX_ prefix,
// for example APPROX_REDIS_URL.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/jcalabro/approx/redisset"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const envPrefix = "APPROX"

func main() {
	a := newApp()
	if err := a.newRootCmd().ExecuteContext(context.Background()); err != nil {
		a.logger.Error("analysis failed", zap.Error(err))
		_ = a.logger.Sync()
		os.Exit(1)
	}
}

// app carries state shared by every subcommand.
type app struct {
	v      *viper.Viper
	logger *zap.Logger
}

func newApp() *app {
	logger, err := newLogger("info")
	if err != nil {
		logger = zap.NewNop()
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return &app{v: v, logger: logger}
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "analysis",
		Short:         "Measure false positive rates of approximate sets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			logger, err := newLogger(a.v.GetString("log-level"))
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
	}
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(a.newFPCmd(), a.newRedisCmd())
	return root
}

// newLogger builds a production zap logger writing to stderr at level.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

func addExperimentFlags(fs *pflag.FlagSet) {
	fs.Uint64("items", 100_000, "number of keys to insert")
	fs.Uint64("probes", 100_000, "number of never-inserted keys to probe")
	fs.Uint("bits", 64, "keep only the low N bits of each code (1-64)")
}

func (a *app) experimentConfig() experimentConfig {
	return experimentConfig{
		Items:  a.v.GetUint64("items"),
		Probes: a.v.GetUint64("probes"),
		Bits:   a.v.GetUint("bits"),
	}
}

func (a *app) newFPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fp",
		Short: "Run insert/probe experiments against in-memory sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.experimentConfig()
			variant := a.v.GetString("variant")
			runs := a.v.GetInt("runs")
			if runs < 1 {
				return fmt.Errorf("%w: got %d", errBadRuns, runs)
			}

			h, err := truncated(cfg.Bits)
			if err != nil {
				return err
			}

			results := make([]result, 0, runs)
			for run := 1; run <= runs; run++ {
				f, err := newFilter(variant, h)
				if err != nil {
					return err
				}
				res, err := runExperiment(cmd.Context(), local{f}, cfg)
				if err != nil {
					return err
				}
				res.Run = run
				a.logResult(res, zap.String("variant", variant))
				results = append(results, res)
			}
			return printResults(cmd.OutOrStdout(), results)
		},
	}
	addExperimentFlags(cmd.Flags())
	cmd.Flags().String("variant", "set", "set type: set, sync or sharded")
	cmd.Flags().Int("runs", 1, "number of independent runs, each with a fresh seed")
	return cmd
}

func (a *app) newRedisCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "redis",
		Short: "Run an insert/probe experiment against a Redis-backed set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.experimentConfig()
			uri := a.v.GetString("redis-url")
			if uri == "" {
				return fmt.Errorf("--redis-url or %s_REDIS_URL is required", envPrefix)
			}

			h, err := truncated(cfg.Bits)
			if err != nil {
				return err
			}

			client, err := redisset.NewClient(uri)
			if err != nil {
				return err
			}
			defer client.Close()

			s, err := redisset.NewWithHasher(client, h,
				redisset.WithKeyPrefix(a.v.GetString("key-prefix")))
			if err != nil {
				return err
			}
			a.logger.Debug("using redis key", zap.String("key", s.Key()))

			res, err := runExperiment(cmd.Context(), s, cfg)
			if err != nil {
				return err
			}
			res.Run = 1
			a.logResult(res, zap.String("key", s.Key()))
			return printResults(cmd.OutOrStdout(), []result{res})
		},
	}
	addExperimentFlags(cmd.Flags())
	cmd.Flags().String("redis-url", "", "redis URI, e.g. redis://localhost:6379/0")
	cmd.Flags().String("key-prefix", redisset.DefaultKeyPrefix, "prefix of the generated redis key")
	return cmd
}

func (a *app) logResult(res result, fields ...zap.Field) {
	a.logger.Info("experiment finished", append(fields,
		zap.Int("run", res.Run),
		zap.Uint64("items", res.Items),
		zap.Uint64("new", res.New),
		zap.Uint64("probes", res.Probes),
		zap.Uint64("false_positives", res.FalsePositives),
		zap.Uint("bits", res.Bits),
		zap.Float64("observed_rate", res.ObservedRate()),
		zap.Float64("estimated_rate", res.EstimatedRate()),
	)...)
}

func printResults(w io.Writer, results []result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tBITS\tITEMS\tNEW\tPROBES\tFALSE POS\tOBSERVED\tESTIMATED")
	for _, r := range results {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\t%.6g\t%.6g\n",
			r.Run, r.Bits, r.Items, r.New, r.Probes, r.FalsePositives,
			r.ObservedRate(), r.EstimatedRate())
	}
	return tw.Flush()
}
