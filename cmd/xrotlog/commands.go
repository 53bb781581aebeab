package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xwrench/pkg/observability/xlog"
	"github.com/omeyang/xwrench/pkg/observability/xlogconf"
	"github.com/omeyang/xwrench/pkg/observability/xrotate"
)

// maxLineBytes 单行上限，超出部分按多次写入处理
const maxLineBytes = 1 << 20

func fileFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "file",
		Aliases:  []string{"f"},
		Usage:    "日志文件路径",
		Required: true,
	}
}

func pipeCommand(s streams) *cli.Command {
	return &cli.Command{
		Name:  "pipe",
		Usage: "逐行复制标准输入到轮转文件，直到 EOF",
		Flags: []cli.Flag{
			fileFlag(),
			&cli.Int64Flag{Name: "max-bytes", Aliases: []string{"m"}, Usage: "轮转阈值（字节），0 表示不按大小轮转"},
			&cli.BoolFlag{Name: "truncate", Usage: "首次打开时清空文件"},
			&cli.StringFlag{Name: "encoding", Usage: "文件编码（IANA 名称）"},
			&cli.BoolFlag{Name: "delay", Usage: "首次写入时才创建文件"},
			&cli.BoolFlag{Name: "debug", Usage: "输出降级模式的进入与退出"},
			&cli.StringFlag{Name: "schedule", Usage: "按 cron 表达式定时轮转（如 \"@daily\"、\"0 * * * *\"）"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Int64("max-bytes") < 0 {
				return usagef("--max-bytes must be >= 0")
			}
			opts := []xrotate.SizeOption{
				xrotate.WithMaxBytes(cmd.Int64("max-bytes")),
				xrotate.WithTruncate(cmd.Bool("truncate")),
				xrotate.WithEncoding(cmd.String("encoding")),
				xrotate.WithDelay(cmd.Bool("delay")),
				xrotate.WithDebug(cmd.Bool("debug")),
				xrotate.WithOnError(func(err error) {
					xlog.Warn(ctx, "rotator fault", xlog.Path(cmd.String("file")), xlog.Err(err))
				}),
			}
			r, err := xrotate.NewSize(cmd.String("file"), opts...)
			if err != nil {
				if errors.Is(err, xrotate.ErrInvalidEncoding) {
					return &usageError{msg: err.Error()}
				}
				return err
			}
			return errors.Join(pipe(ctx, s.in, r, cmd.String("schedule")), r.Close())
		},
	}
}

// pipe 复制 in 到 r；schedule 非空时同时按 cron 定时轮转，in 读完后停止调度。
func pipe(ctx context.Context, in io.Reader, r xrotate.Rotator, schedule string) error {
	var sched *cron.Cron
	if schedule != "" {
		sched = cron.New()
		if _, err := sched.AddFunc(schedule, func() {
			if err := r.Rotate(); err != nil {
				xlog.Warn(ctx, "scheduled rotation failed", xlog.Err(err))
			}
		}); err != nil {
			return usagef("invalid --schedule %q: %v", schedule, err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		n, err := copyLines(gctx, in, r)
		xlog.Debug(gctx, "pipe finished", xlog.Count(n))
		return err
	})
	if sched != nil {
		g.Go(func() error {
			sched.Start()
			<-gctx.Done()
			<-sched.Stop().Done()
			return nil
		})
	}
	return g.Wait()
}

// copyLines 按行写入，每行一次 Write 以保证记录完整；返回写入的行数。
func copyLines(ctx context.Context, in io.Reader, w io.Writer) (int64, error) {
	br := bufio.NewReaderSize(in, 64*1024)
	var n int64
	for {
		if err := ctx.Err(); err != nil {
			return n, nil
		}
		line, err := readLine(br)
		if len(line) > 0 {
			if _, werr := w.Write(line); werr != nil {
				return n, werr
			}
			n++
		}
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("read input: %w", err)
		}
	}
}

// readLine 读取一行（含换行符），超过 maxLineBytes 时截成多段
func readLine(br *bufio.Reader) ([]byte, error) {
	var line []byte
	for {
		chunk, err := br.ReadSlice('\n')
		line = append(line, chunk...)
		if !errors.Is(err, bufio.ErrBufferFull) || len(line) >= maxLineBytes {
			if errors.Is(err, bufio.ErrBufferFull) {
				err = nil
			}
			return line, err
		}
	}
}

func rotateCommand(s streams) *cli.Command {
	return &cli.Command{
		Name:  "rotate",
		Usage: "在共享锁下立即轮转一次（文件不存在时什么也不做）",
		Flags: []cli.Flag{fileFlag()},
		Action: func(_ context.Context, cmd *cli.Command) error {
			r, err := xrotate.NewSize(cmd.String("file"), xrotate.WithDelay(true))
			if err != nil {
				return err
			}
			if err := errors.Join(r.Rotate(), r.Close()); err != nil {
				return err
			}
			fmt.Fprintf(s.out, "rotated %s\n", r.Filename())
			return nil
		},
	}
}

func lockPathCommand(s streams) *cli.Command {
	return &cli.Command{
		Name:      "lockpath",
		Usage:     "打印日志文件对应的锁文件路径",
		ArgsUsage: "<file>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return usagef("lockpath requires exactly one <file> argument")
			}
			fmt.Fprintln(s.out, xrotate.LockPath(cmd.Args().First()))
			return nil
		},
	}
}

func runCommand(s streams) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "按日志配置文件构建 Logger，逐行以 Info 级别记录标准输入",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "日志配置文件（.yaml/.yml/.json）", Required: true},
			&cli.BoolFlag{Name: "watch", Usage: "配置文件变化时热更新级别"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.String("config")
			cfg, err := xlogconf.Load(path)
			if err != nil {
				if errors.Is(err, xlogconf.ErrUnsupportedFormat) || errors.Is(err, xlogconf.ErrEmptyPath) {
					return &usageError{msg: err.Error()}
				}
				return err
			}
			logger, cleanup, err := xlogconf.Build(cfg, xlogconf.WithStreams(s.out, s.err))
			if err != nil {
				return err
			}
			return errors.Join(logLines(ctx, s.in, logger, path, cmd.Bool("watch")), cleanup())
		},
	}
}

func logLines(ctx context.Context, in io.Reader, logger xlog.LoggerWithLevel, path string, watch bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if watch {
		w, err := xlogconf.NewWatcher(path, logger, func(_ xlogconf.Config, err error) {
			if err != nil {
				xlog.Warn(gctx, "reload logging config failed", xlog.Path(path), xlog.Err(err))
			}
		})
		if err != nil {
			return err
		}
		g.Go(func() error { return w.Run(gctx) })
	}

	g.Go(func() error {
		defer cancel()
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for sc.Scan() {
			if gctx.Err() != nil {
				return nil
			}
			logger.Info(gctx, strings.TrimRight(sc.Text(), "\r"))
		}
		return sc.Err()
	})
	return g.Wait()
}
