package main

import (
	"fmt"
	"io"
	"linkage"
	"linkage/debug"
	"linkage/load"
	"linkage/solver"
	"linkage/types"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if err := rootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("linkage")
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	v := viper.New()
	root := &cobra.Command{
		Use:           "linkage",
		Short:         "平面连杆机构位置求解",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			v.SetEnvPrefix("linkage")
			v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
			v.AutomaticEnv()
			if file := v.GetString("config"); file != "" {
				v.SetConfigFile(file)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("read settings: %w", err)
				}
			}
			level, err := zerolog.ParseLevel(v.GetString("log-level"))
			if err != nil {
				return err
			}
			zerolog.SetGlobalLevel(level)
			return nil
		},
	}
	root.PersistentFlags().String("config", "", "设置文件(yaml/json/toml)")
	root.PersistentFlags().String("log-level", "info", "日志级别")
	root.AddCommand(simulateCmd(v), checkCmd())
	return root
}

func simulateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate <config.json>",
		Short: "扫描驱动角并求解每帧关节坐标",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return simulate(v, args[0])
		},
	}
	f := cmd.Flags()
	f.Float64("start", linkage.DefaultSweep.Start, "起始驱动角(度)")
	f.Float64("end", linkage.DefaultSweep.End, "结束驱动角(度)")
	f.Int("frames", linkage.DefaultSweep.Frames, "帧数(含两端)")
	f.String("csv", "", "导出坐标 CSV")
	f.String("record", "", "导出调试记录 JSON")
	f.String("chart", "", "导出 HTML 曲线")
	f.String("plot", "", "导出 PNG 轨迹图")
	f.String("serve", "", "在该地址发布曲线页面，如 :8080")
	f.Float64("tolerance", types.Tolerance, "优化器收敛容差")
	f.Float64("residual-tolerance", types.ResidualTolerance, "接受解的最大杆长残差")
	f.Int("max-iterations", types.MaxIterations, "最大迭代次数")
	f.String("minimizer", "lm", "最小二乘方法 lm|bfgs")
	return cmd
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <config.json>",
		Short: "校验机构配置",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return check(cmd.OutOrStdout(), args[0])
		},
	}
}

func simulate(v *viper.Viper, path string) error {
	opts := []solver.Option{
		solver.WithTolerance(v.GetFloat64("tolerance")),
		solver.WithResidualTolerance(v.GetFloat64("residual-tolerance")),
		solver.WithMaxIterations(v.GetInt("max-iterations")),
	}
	switch m := v.GetString("minimizer"); m {
	case "lm":
	case "bfgs":
		opts = append(opts, solver.WithMinimizer(&solver.Gradient{}))
	default:
		return fmt.Errorf("unknown minimizer %q", m)
	}
	lk, err := linkage.Open(path,
		linkage.WithLogger(log.Logger),
		linkage.WithSolverOptions(opts...),
	)
	if err != nil {
		return err
	}
	sweep := linkage.Sweep{
		Start:  v.GetFloat64("start"),
		End:    v.GetFloat64("end"),
		Frames: v.GetInt("frames"),
	}
	rec := &debug.Record{}
	frames, err := lk.Simulate(sweep, rec)
	log.Info().Str("linkage", lk.Name).Int("frames", len(frames)).Msg("simulate")
	if err != nil {
		return err
	}
	if out := v.GetString("csv"); out != "" {
		if err := lk.ExportFile(out, frames); err != nil {
			return err
		}
	}
	if err := render(v.GetString("record"), rec); err != nil {
		return err
	}
	charts := &debug.Charts{Record: *rec, Title: lk.Name}
	if err := render(v.GetString("chart"), charts); err != nil {
		return err
	}
	if err := render(v.GetString("plot"), &debug.Plot{Record: *rec, Title: lk.Name}); err != nil {
		return err
	}
	if addr := v.GetString("serve"); addr != "" {
		http.HandleFunc("/", charts.Handler)
		log.Info().Str("addr", addr).Msg("serve")
		return http.ListenAndServe(addr, nil)
	}
	return nil
}

// render 输出调试结果到文件
func render(path string, d types.Debug) error {
	if path == "" {
		return nil
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := d.Render(file); err != nil {
		file.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	log.Info().Str("file", path).Msg("written")
	return file.Close()
}

func check(w io.Writer, path string) error {
	cfg, err := load.LoadFile(path)
	if err != nil {
		return err
	}
	m, err := cfg.Mechanism()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, m)
	fmt.Fprintf(w, "degree of freedom: %d\n", m.DegreesOfFreedom())
	if _, err := m.Validate(); err != nil {
		return err
	}
	fmt.Fprintln(w, "ok")
	return nil
}
