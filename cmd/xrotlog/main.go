// xrotlog 把标准输入写入多进程共享的按大小轮转日志文件。
//
// 用法:
//
//	xrotlog <命令> [命令参数]
//
// 命令:
//
//	pipe        逐行复制标准输入到轮转文件
//	rotate      在共享锁下立即轮转一次
//	lockpath    打印日志文件对应的锁文件路径
//	run         按日志配置文件构建 Logger，逐行记录标准输入
//
// 退出码:
//
//	0: 成功
//	1: 运行失败
//	2: 参数错误
//
// 示例:
//
//	myapp 2>&1 | xrotlog pipe --file /var/log/myapp.log --max-bytes 1048576
//	myapp | xrotlog pipe --file app.log --schedule "@daily"
//	xrotlog rotate --file /var/log/myapp.log
//	xrotlog run --config logging.yaml --watch
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"
)

// 版本信息，可通过 -ldflags 注入
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

// usageError 参数错误，退出码 2
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel)

	os.Exit(run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr))
}

// streams 命令使用的标准流
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

func createApp(s streams) *cli.Command {
	return &cli.Command{
		Name:      "xrotlog",
		Usage:     "多进程共享的按大小轮转日志工具",
		Version:   fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Reader:    s.in,
		Writer:    s.out,
		ErrWriter: s.err,
		Commands: []*cli.Command{
			pipeCommand(s),
			rotateCommand(s),
			lockPathCommand(s),
			runCommand(s),
		},
		// 由 run() 统一映射退出码，不让 urfave/cli 直接 os.Exit
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			var ec cli.ExitCoder
			if errors.As(err, &ec) {
				fmt.Fprintln(s.err, err)
			}
		},
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	app := createApp(streams{in: stdin, out: stdout, err: stderr})

	err := app.Run(ctx, args)
	if err == nil {
		return 0
	}
	var uerr *usageError
	if errors.As(err, &uerr) {
		fmt.Fprintf(stderr, "参数错误: %v\n", uerr)
		return 2
	}
	if isCLIUsageError(err) {
		fmt.Fprintf(stderr, "参数错误: %v\n", err)
		return 2
	}
	fmt.Fprintf(stderr, "错误: %v\n", err)
	return 1
}

// isCLIUsageError 识别 urfave/cli 自身产生的参数错误
func isCLIUsageError(err error) bool {
	msg := err.Error()
	for _, prefix := range []string{
		"flag provided but not defined",
		"Required flag",
		"invalid value",
		"No help topic",
		"flag needs an argument",
	} {
		if strings.Contains(msg, prefix) {
			return true
		}
	}
	return false
}

// setupSignalHandler 第一次信号取消 ctx，第二次强制退出（130 = 128 + SIGINT）
func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()

		<-sigCh
		signal.Stop(sigCh)
		os.Exit(130)
	}()
}
