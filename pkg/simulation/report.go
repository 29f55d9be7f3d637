package simulation

import (
	"fmt"
	"io"
	"strings"
)

// WriteReport 输出文本报告，跳过和部分编排的班次逐条列出
func WriteReport(w io.Writer, r *BatchReport) error {
	var b strings.Builder

	fmt.Fprintf(&b, "=== 休息编排报告: %s ===\n\n", r.Strategy)
	fmt.Fprintf(&b, "参与评分班次: %d（跳过 %d，部分编排 %d）\n", r.Summary.Shifts, r.Skipped, r.Partial)
	fmt.Fprintf(&b, "来电总量: %d\n", r.Summary.TotalCalls)
	fmt.Fprintf(&b, "休息次数: %d（%d 分钟）\n", r.Summary.TotalBreaks, r.Summary.BreakMinutes)
	fmt.Fprintf(&b, "高峰冲突: %d（%d 分钟）\n", r.Summary.Collisions, r.Summary.CollisionMinutes)
	fmt.Fprintf(&b, "效率: %.1f%%（平均 %.1f%%，单位 %s）\n",
		r.Summary.OverallEfficiency, r.Summary.MeanEfficiency, r.Summary.Unit)
	if r.Baseline != nil {
		fmt.Fprintf(&b, "现有休息效率: %.1f%%（冲突 %d）\n", r.Baseline.OverallEfficiency, r.Baseline.Collisions)
	}

	if partial := r.PartialShifts(); len(partial) > 0 {
		b.WriteString("\n【部分编排】\n")
		for _, res := range partial {
			fmt.Fprintf(&b, "  - %s %s: %d/%d\n", res.RecordID, res.AgentName, len(res.Windows), res.Required)
		}
	}

	if skipped := r.SkippedShifts(); len(skipped) > 0 {
		b.WriteString("\n【跳过】\n")
		for _, res := range skipped {
			fmt.Fprintf(&b, "  - %s %s: [%s] %s\n", res.RecordID, res.AgentName, res.Code, res.Reason)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteComparison 输出策略对比表
func WriteComparison(w io.Writer, c *Comparison) error {
	var b strings.Builder

	b.WriteString("=== 策略对比 ===\n\n")
	fmt.Fprintf(&b, "%-14s %10s %12s %12s %10s\n", "strategy", "breaks", "collisions", "efficiency", "skipped")
	for _, r := range c.Reports {
		mark := " "
		if r.Strategy == c.Best {
			mark = "*"
		}
		fmt.Fprintf(&b, "%s%-13s %10d %12d %11.1f%% %10d\n",
			mark, r.Strategy, r.Summary.TotalBreaks, r.Summary.Collisions, r.Summary.OverallEfficiency, r.Skipped)
	}
	fmt.Fprintf(&b, "\n最优策略: %s\n", c.Best)

	_, err := io.WriteString(w, b.String())
	return err
}
