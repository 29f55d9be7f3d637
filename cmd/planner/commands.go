package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/paiban/refrigerio/internal/app"
	"github.com/paiban/refrigerio/internal/config"
	"github.com/paiban/refrigerio/internal/source"
	"github.com/paiban/refrigerio/pkg/calendar"
	"github.com/paiban/refrigerio/pkg/logger"
	"github.com/paiban/refrigerio/pkg/model"
	"github.com/paiban/refrigerio/pkg/placement"
	"github.com/paiban/refrigerio/pkg/simulation"
	"github.com/spf13/cobra"
)

// cli 命令共享的状态
type cli struct {
	cfg      *config.Config
	planner  *app.Planner
	profiles string // --profiles
	logLevel string
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "planner",
		Short:         "Refrigerio 休息编排命令行",
		Long:          "对班次批量安排休息、对比编排策略、生成演示用的话务量曲线，并把班次和话务量导入数据库。",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
	}

	root.PersistentFlags().StringVar(&c.profiles, "profiles", "", "话务量CSV文件（覆盖 PLANNER_PROFILES_FILE）")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "日志级别")

	root.AddCommand(c.simulateCmd())
	root.AddCommand(c.compareCmd())
	root.AddCommand(c.normalizeCmd())
	root.AddCommand(c.genProfileCmd())
	root.AddCommand(c.importCmd())
	return root
}

// init 加载配置并组装编排组件
func (c *cli) init() error {
	logger.Init(logger.Config{Level: c.logLevel, Format: "console", Output: "stderr"})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	if c.profiles != "" {
		cfg.Planner.ProfilesFile = c.profiles
	}
	cfg.Metrics.Enabled = false

	c.cfg = cfg
	c.planner, err = app.Build(cfg)
	return err
}

// shiftInput simulate/compare 的班次来源
type shiftInput struct {
	file     string
	generate int
	date     string
}

func (in *shiftInput) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&in.file, "shifts", "", "班次JSON文件")
	cmd.Flags().IntVar(&in.generate, "generate", 0, "不读文件，生成指定数量的演示班次")
	cmd.Flags().StringVar(&in.date, "date", "", "演示班次的日期（YYYY-MM-DD，默认今天）")
}

func (in *shiftInput) load(c *cli) ([]model.RawShiftRecord, error) {
	switch {
	case in.file != "":
		return source.ReadShiftsFile(in.file)
	case in.generate > 0:
		date := time.Now()
		if in.date != "" {
			d, err := calendar.ParseCalendarDate(in.date)
			if err != nil {
				return nil, err
			}
			date = d
		}
		return simulation.NewSeededGenerator(c.cfg.Planner.Generator).Shifts(date, in.generate), nil
	default:
		return nil, fmt.Errorf("需要 --shifts 或 --generate")
	}
}

func (c *cli) simulateCmd() *cobra.Command {
	var (
		input    shiftInput
		strategy string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "用一个策略批量编排并输出报告",
		RunE: func(cmd *cobra.Command, args []string) error {
			raws, err := input.load(c)
			if err != nil {
				return err
			}
			if strategy == "" {
				strategy = c.cfg.Planner.Strategy
			}
			s, err := placement.ParseStrategy(strategy)
			if err != nil {
				return err
			}

			report, err := c.planner.Driver.RunBatch(cmd.Context(), raws, c.planner.Profiles, s)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			return simulation.WriteReport(cmd.OutOrStdout(), report)
		},
	}
	input.bind(cmd)
	cmd.Flags().StringVar(&strategy, "strategy", "", "编排策略：optimized/distributed/concentrated")
	cmd.Flags().BoolVar(&asJSON, "json", false, "以JSON输出完整报告")
	return cmd
}

func (c *cli) compareCmd() *cobra.Command {
	var (
		input  shiftInput
		names  []string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "用多个策略编排同一批班次并对比效率",
		RunE: func(cmd *cobra.Command, args []string) error {
			raws, err := input.load(c)
			if err != nil {
				return err
			}
			var strategies []placement.Strategy
			for _, name := range names {
				s, err := placement.ParseStrategy(name)
				if err != nil {
					return err
				}
				strategies = append(strategies, s)
			}

			cmp, err := c.planner.Driver.Compare(cmd.Context(), raws, c.planner.Profiles, strategies)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), cmp)
			}
			return simulation.WriteComparison(cmd.OutOrStdout(), cmp)
		},
	}
	input.bind(cmd)
	cmd.Flags().StringSliceVar(&names, "strategies", nil, "参与对比的策略，默认全部")
	cmd.Flags().BoolVar(&asJSON, "json", false, "以JSON输出")
	return cmd
}

func (c *cli) normalizeCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "规范化班次记录并列出被拒绝的记录",
		RunE: func(cmd *cobra.Command, args []string) error {
			raws, err := source.ReadShiftsFile(file)
			if err != nil {
				return err
			}
			shifts, rejections := c.planner.Normalizer.NormalizeAll(raws)
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"shifts":     shifts,
				"rejections": rejections,
			})
		},
	}
	cmd.Flags().StringVar(&file, "shifts", "", "班次JSON文件")
	cmd.MarkFlagRequired("shifts")
	return cmd
}

func (c *cli) genProfileCmd() *cobra.Command {
	var (
		seed      int64
		days      []string
		skills    []string
		out       string
		shifts    int
		date      string
		shiftsOut string
	)
	cmd := &cobra.Command{
		Use:   "gen-profile",
		Short: "用固定种子生成演示话务量曲线（CSV）和班次（JSON）",
		RunE: func(cmd *cobra.Command, args []string) error {
			genCfg := *c.cfg.Planner.Generator
			if cmd.Flags().Changed("seed") {
				genCfg.Seed = seed
			}
			dayTypes := app.AllDayTypes
			if len(days) > 0 {
				dayTypes = nil
				for _, d := range days {
					day, ok := model.ParseDayType(d)
					if !ok {
						return fmt.Errorf("未知的日期类型 '%s'", d)
					}
					dayTypes = append(dayTypes, day)
				}
			}
			if len(skills) == 0 {
				skills = app.DefaultSkills
			}

			gen := simulation.NewSeededGenerator(&genCfg)
			set, err := gen.Profiles(dayTypes, skills)
			if err != nil {
				return err
			}
			if err := withOutput(cmd.OutOrStdout(), out, func(w io.Writer) error {
				return source.WriteVolume(w, set.Profiles())
			}); err != nil {
				return err
			}

			if shifts <= 0 {
				return nil
			}
			day := time.Now()
			if date != "" {
				if day, err = calendar.ParseCalendarDate(date); err != nil {
					return err
				}
			}
			return withOutput(cmd.OutOrStdout(), shiftsOut, func(w io.Writer) error {
				return source.WriteShifts(w, gen.Shifts(day, shifts))
			})
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 0, "随机种子（默认使用配置）")
	cmd.Flags().StringSliceVar(&days, "days", nil, "日期类型，默认全部")
	cmd.Flags().StringSliceVar(&skills, "skills", nil, "技能组")
	cmd.Flags().StringVarP(&out, "out", "o", "", "曲线输出文件，默认标准输出")
	cmd.Flags().IntVar(&shifts, "shifts", 0, "同时生成的班次数量")
	cmd.Flags().StringVar(&date, "date", "", "班次日期（YYYY-MM-DD）")
	cmd.Flags().StringVar(&shiftsOut, "shifts-out", "", "班次输出文件，默认标准输出")
	return cmd
}

// withOutput path 为空时写到 stdout
func withOutput(stdout io.Writer, path string, fn func(io.Writer) error) error {
	if path == "" {
		return fn(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
