package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"yijing/internal/ai"
	"yijing/internal/divination"
	"yijing/internal/hexagram"
	"yijing/internal/metrics"
	"yijing/internal/report"
)

var interpretFlags struct {
	seed     int64
	at       string
	method   string
	question string
	line     int
	mindmap  bool
	changed  bool
	plain    bool
}

var interpretCmd = &cobra.Command{
	Use:   "interpret",
	Short: "起卦后调用 AI 流式解卦",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd, interpretTimeout)
		defer cancel()
		f := interpretFlags
		if f.line < 0 || f.line > hexagram.LineCount {
			return fmt.Errorf("%w: %d", hexagram.ErrInvalidChangingLine, f.line)
		}
		if f.method != metrics.MethodDayan && f.method != metrics.MethodMeihua {
			return fmt.Errorf("unknown --method %q", f.method)
		}
		if f.method == metrics.MethodMeihua && f.at == "" {
			f.at = timeNow
		}
		at, err := parseAt(f.at)
		if err != nil {
			return err
		}
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		if a.ai == nil {
			return ai.ErrMissingAPIKey
		}

		reading, err := a.service.Cast(ctx, divination.Request{Seed: f.seed, At: at})
		if err != nil {
			return err
		}
		subject := reading.Subject(f.question)
		if f.method == metrics.MethodMeihua {
			ts, ok := reading.TimeSubject(f.question)
			if !ok {
				return errors.New("time casting failed: " + reading.TimeError)
			}
			subject = ts
		}
		if err := render(cmd, report.Markdown(reading, report.Options{}), f.plain); err != nil {
			return err
		}

		client := a.ai
		var prompt string
		switch {
		case f.mindmap:
			client = client.ForMindmap()
			prompt = ai.MindmapPrompt(subject, f.changed, nil)
		case f.line > 0:
			prompt = ai.LinePrompt(subject, f.line)
		default:
			prompt = ai.HexagramPrompt(subject)
		}
		text, errs := client.Stream(ctx, prompt, nil)
		return printStream(cmd, text, errs)
	},
}

func init() {
	rootCmd.AddCommand(interpretCmd)
	interpretCmd.Flags().Int64Var(&interpretFlags.seed, "seed", 0, "随机种子，0 表示取当前时间")
	interpretCmd.Flags().StringVar(&interpretFlags.at, "time", "", "同时做梅花易数：now 或 RFC3339 时间")
	interpretCmd.Flags().StringVar(&interpretFlags.method, "method", metrics.MethodDayan, "解哪一卦：dayan 或 meihua")
	interpretCmd.Flags().StringVarP(&interpretFlags.question, "question", "q", "", "所问之事")
	interpretCmd.Flags().IntVar(&interpretFlags.line, "line", 0, "只解析第几爻（1-6）")
	interpretCmd.Flags().BoolVar(&interpretFlags.mindmap, "mindmap", false, "生成 Markdown 思维导图")
	interpretCmd.Flags().BoolVar(&interpretFlags.changed, "changed", false, "思维导图针对变卦")
	interpretCmd.Flags().BoolVar(&interpretFlags.plain, "plain", false, "不经终端渲染，直接输出 Markdown")
}

// printStream 流中每次是截至当前的完整文本，只打印新增部分。
func printStream(cmd *cobra.Command, text <-chan string, errs <-chan error) error {
	out := cmd.OutOrStdout()
	var printed string
	for s := range text {
		if strings.HasPrefix(s, printed) {
			fmt.Fprint(out, s[len(printed):])
		} else {
			fmt.Fprint(out, "\n", s)
		}
		printed = s
	}
	fmt.Fprintln(out)
	return <-errs
}
