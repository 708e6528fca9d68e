package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"yijing/internal/server"
	"yijing/internal/trace"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务（起卦 JSON、AI 解卦 SSE、HTML 报告、/metrics）",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = trace.WithTraceID(ctx, trace.NewTraceID())

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		addr := a.cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		var interp, mindmap server.Interpreter
		if a.ai != nil {
			interp, mindmap = a.ai, a.ai.ForMindmap()
		}
		return server.New(a.service, interp, mindmap, a.metrics).ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "监听地址，覆盖配置中的 server.addr")
}

