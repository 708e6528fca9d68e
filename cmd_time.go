package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"yijing/internal/report"
)

var timeFlags struct {
	jsonOut bool
	steps   bool
	plain   bool
}

var timeCmd = &cobra.Command{
	Use:   "time [now|RFC3339]",
	Short: "梅花易数：按时刻的农历年月日时起卦",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd, castTimeout)
		defer cancel()
		arg := timeNow
		if len(args) == 1 {
			arg = args[0]
		}
		at, err := parseAt(arg)
		if err != nil {
			return err
		}
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		res, info, err := a.service.Time(ctx, *at)
		if err != nil {
			return err
		}
		if timeFlags.jsonOut {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(map[string]any{"lunar": info, "time": res})
		}
		return render(cmd, report.TimeMarkdown(res, info, report.Options{Steps: timeFlags.steps}), timeFlags.plain)
	},
}

func init() {
	rootCmd.AddCommand(timeCmd)
	timeCmd.Flags().BoolVar(&timeFlags.jsonOut, "json", false, "输出 JSON")
	timeCmd.Flags().BoolVar(&timeFlags.steps, "steps", false, "附上推演过程")
	timeCmd.Flags().BoolVar(&timeFlags.plain, "plain", false, "不经终端渲染，直接输出 Markdown")
}
