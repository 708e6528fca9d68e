package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"yijing/internal/divination"
	"yijing/internal/model"
	"yijing/internal/report"
)

var castFlags struct {
	seed     int64
	at       string
	jsonOut  bool
	steps    bool
	plain    bool
	progress bool
}

var castCmd = &cobra.Command{
	Use:   "cast",
	Short: "大衍筮法起卦，可同时按时间做梅花易数",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd, castTimeout)
		defer cancel()
		at, err := parseAt(castFlags.at)
		if err != nil {
			return err
		}
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		req := divination.Request{Seed: castFlags.seed, At: at}
		if castFlags.progress {
			req.OnLine = func(l model.Line) {
				fmt.Fprintf(os.Stderr, "第%d爻：%s（%d）\n", l.Position, l.Value.Name(), int(l.Value))
			}
		}
		reading, err := a.service.Cast(ctx, req)
		if err != nil {
			return err
		}
		if castFlags.jsonOut {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(reading)
		}
		return render(cmd, report.Markdown(reading, report.Options{Steps: castFlags.steps}), castFlags.plain)
	},
}

func init() {
	rootCmd.AddCommand(castCmd)
	castCmd.Flags().Int64Var(&castFlags.seed, "seed", 0, "随机种子，0 表示取当前时间；同一种子结果相同")
	castCmd.Flags().StringVar(&castFlags.at, "time", "", "同时做梅花易数：now 或 RFC3339 时间")
	castCmd.Flags().BoolVar(&castFlags.jsonOut, "json", false, "输出 JSON")
	castCmd.Flags().BoolVar(&castFlags.steps, "steps", false, "附上推演过程")
	castCmd.Flags().BoolVar(&castFlags.plain, "plain", false, "不经终端渲染，直接输出 Markdown")
	castCmd.Flags().BoolVar(&castFlags.progress, "progress", false, "每得一爻即输出到 stderr")
}

func render(cmd *cobra.Command, md string, plain bool) error {
	r, err := report.NewRenderer(plain)
	if err != nil {
		return err
	}
	out, err := r(md)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}
