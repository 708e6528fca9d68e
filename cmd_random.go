package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"yijing/internal/divination"
	"yijing/internal/hexagram"
	"yijing/internal/report"
)

var randomFlags struct {
	count   int
	seed    int64
	jsonOut bool
	plain   bool
}

type randomHexagram struct {
	Value  int    `json:"value"`
	Binary string `json:"binary"`
	Name   string `json:"name"`
}

type randomOutput struct {
	Seed      int64            `json:"seed"`
	Hexagrams []randomHexagram `json:"hexagrams"`
}

func describe(hs []hexagram.Hexagram) []randomHexagram {
	out := make([]randomHexagram, len(hs))
	for i, h := range hs {
		out[i] = randomHexagram{Value: int(h), Binary: h.String(), Name: hexagram.Name(h)}
	}
	return out
}

var randomCmd = &cobra.Command{
	Use:   "random",
	Short: "随机抽取若干互不相同的卦",
	RunE: func(cmd *cobra.Command, args []string) error {
		seed := randomFlags.seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		hs := divination.RandomHexagrams(seed, randomFlags.count)
		if randomFlags.jsonOut {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(randomOutput{Seed: seed, Hexagrams: describe(hs)})
		}
		return render(cmd, report.HexagramList(hs), randomFlags.plain)
	},
}

func init() {
	rootCmd.AddCommand(randomCmd)
	randomCmd.Flags().IntVarP(&randomFlags.count, "count", "n", 4, "抽取个数（最多 64）")
	randomCmd.Flags().Int64Var(&randomFlags.seed, "seed", 0, "随机种子，0 表示取当前时间")
	randomCmd.Flags().BoolVar(&randomFlags.jsonOut, "json", false, "输出 JSON")
	randomCmd.Flags().BoolVar(&randomFlags.plain, "plain", false, "不经终端渲染，直接输出 Markdown")
}
