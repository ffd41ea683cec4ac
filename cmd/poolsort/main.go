// Package main is the entry point for poolsort.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"poolsort/internal/api"
	"poolsort/internal/bench"
	"poolsort/internal/config"
	"poolsort/internal/logger"

	"github.com/google/uuid"
)

var (
	version = "dev"
)

// options はコマンドラインフラグの値
type options struct {
	configFile string
	preset     string
	elements   int
	threads    int
	runs       int
	seed       uint64
	threshold  int
	baseline   bool
	target     string
	logLevel   string
	addr       string

	// 明示的に指定されたフラグ名
	set map[string]bool
}

func main() {
	var opts options

	// フラグ定義
	flag.StringVar(&opts.configFile, "config", "", "設定ファイルパス (YAML/JSON)")
	flag.StringVar(&opts.preset, "preset", "", "プリセット名 (quick, default, large, stress)")
	flag.IntVar(&opts.elements, "elements", 0, "要素数")
	flag.IntVar(&opts.threads, "threads", 0, "ワーカー数")
	flag.IntVar(&opts.runs, "runs", 0, "計測の繰り返し回数")
	flag.Uint64Var(&opts.seed, "seed", 0, "入力データの乱数シード")
	flag.IntVar(&opts.threshold, "threshold", 0, "同期ソートに切り替える範囲サイズ")
	flag.BoolVar(&opts.baseline, "baseline", false, "slices.Contains/slices.Sort との比較を行う")
	flag.StringVar(&opts.target, "target", "", "検索する値（省略時は標準入力から読む）")
	flag.StringVar(&opts.logLevel, "log-level", "", "ログレベル (debug, info, warn, error)")
	flag.StringVar(&opts.addr, "addr", ":8080", "サーバーアドレス (例: :8080, 0.0.0.0:3000)")
	listPresets := flag.Bool("list-presets", false, "利用可能なプリセットを表示")
	showVersion := flag.Bool("version", false, "バージョンを表示")
	serverMode := flag.Bool("server", false, "HTTP APIサーバーモードで起動")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `poolsort - Worker pool parallel search and sort benchmark

Usage:
  poolsort [options]

Options:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # 100万要素を生成し、標準入力から検索値を読む
  poolsort

  # プリセットを実行
  poolsort --preset quick --target 42

  # 設定ファイルから実行
  poolsort --config bench.yaml

  # フラグでカスタマイズ
  poolsort --elements 5000000 --threads 16 --runs 10 --baseline --target 7

  # プリセット一覧を表示
  poolsort --list-presets

  # HTTP APIサーバーモードで起動
  poolsort --server --addr :3000
`)
	}

	flag.Parse()

	opts.set = make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	// バージョン表示
	if *showVersion {
		fmt.Printf("poolsort version %s\n", version)
		return
	}

	// プリセット一覧表示
	if *listPresets {
		printPresets(os.Stdout)
		return
	}

	fileConfig, err := loadFileConfig(opts.configFile)
	if err != nil {
		logger.Error("", "設定エラー: %v", err)
		os.Exit(1)
	}

	if err := applyLogLevel(fileConfig, opts); err != nil {
		logger.Error("", "設定エラー: %v", err)
		os.Exit(1)
	}

	// HTTP APIサーバーモード
	if *serverMode {
		addr := opts.addr
		if !opts.set["addr"] && fileConfig != nil && fileConfig.Server.Addr != "" {
			addr = fileConfig.Server.Addr
		}
		if err := runServer(addr); err != nil {
			logger.Error("", "サーバーエラー: %v", err)
			os.Exit(1)
		}
		return
	}

	// ベンチマーク設定の決定
	benchConfig, err := buildBenchConfig(fileConfig, opts)
	if err != nil {
		logger.Error("", "設定エラー: %v", err)
		os.Exit(1)
	}

	// ベンチマーク実行
	if err := runBench(benchConfig, opts.target, os.Stdin, os.Stdout); err != nil {
		logger.Error("", "ベンチマーク実行エラー: %v", err)
		os.Exit(1)
	}
}

// loadFileConfig は設定ファイルを読み込んで検証する。path が空ならnil
func loadFileConfig(path string) (*config.FileConfig, error) {
	if path == "" {
		return nil, nil
	}
	fileConfig, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("設定ファイル読み込みエラー: %w", err)
	}
	if err := fileConfig.Validate(); err != nil {
		return nil, fmt.Errorf("設定検証エラー: %w", err)
	}
	return fileConfig, nil
}

// applyLogLevel はフラグ、設定ファイルの順でログレベルを決めて反映する
func applyLogLevel(fileConfig *config.FileConfig, opts options) error {
	name := opts.logLevel
	if name == "" && fileConfig != nil {
		name = fileConfig.Log.Level
	}
	level, err := logger.ParseLevel(name)
	if err != nil {
		return err
	}
	logger.Default.SetLevel(level)
	return nil
}

// buildBenchConfig はベンチマーク設定を構築する
// 優先順位: フラグ > 設定ファイル > プリセット > デフォルト
func buildBenchConfig(fileConfig *config.FileConfig, opts options) (bench.Config, error) {
	var cfg bench.Config

	if fileConfig != nil {
		// 1. 設定ファイルから読み込み
		var err error
		cfg, err = fileConfig.ToBenchConfig()
		if err != nil {
			return cfg, fmt.Errorf("設定変換エラー: %w", err)
		}
	} else if opts.preset != "" {
		// 2. プリセットから読み込み
		preset, ok := bench.GetPreset(opts.preset)
		if !ok {
			return cfg, fmt.Errorf("不明なプリセット: %s (利用可能: %v)", opts.preset, bench.ListPresets())
		}
		cfg = preset
	} else {
		// 3. デフォルト（100万要素、8ワーカー）
		cfg = bench.DefaultConfig()
	}

	// フラグでオーバーライド
	if opts.elements > 0 {
		cfg.Elements = opts.elements
	}
	if opts.threads > 0 {
		cfg.Threads = opts.threads
	}
	if opts.runs > 0 {
		cfg.Runs = opts.runs
	}
	if opts.set["seed"] {
		cfg.Seed = opts.seed
	}
	if opts.threshold > 0 {
		cfg.SortThreshold = opts.threshold
	}

	// フラグが明示的に指定された場合のみオーバーライド
	if opts.set["baseline"] {
		cfg.Baseline = opts.baseline
	}

	return cfg, cfg.Validate()
}

// readTarget は r から検索値を1つ読む
func readTarget(r io.Reader) (int, error) {
	var target int
	if _, err := fmt.Fscan(bufio.NewReader(r), &target); err != nil {
		return 0, fmt.Errorf("検索値の読み込みエラー: %w", err)
	}
	return target, nil
}

// runBench はベンチマークを実行する
func runBench(cfg bench.Config, targetFlag string, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "poolsort - Worker pool parallel search and sort")
	fmt.Fprintln(out, "===============================================")
	fmt.Fprintf(out, "Bench: %s\n", cfg.Name)
	fmt.Fprintf(out, "Elements: %d, Workers: %d, Runs: %d\n", cfg.Elements, cfg.Threads, cfg.Runs)
	fmt.Fprintf(out, "Sort threshold: %d, Baseline: %v\n", cfg.SortThreshold, cfg.Baseline)
	fmt.Fprintln(out, "===============================================")
	fmt.Fprintln(out)

	engine := bench.New(cfg)
	data := engine.Generate()

	var target int
	if targetFlag != "" {
		v, err := strconv.Atoi(strings.TrimSpace(targetFlag))
		if err != nil {
			return fmt.Errorf("不正な検索値: %w", err)
		}
		target = v
	} else {
		fmt.Fprintf(out, "A slice holding %d ints has been created. Enter number to search for.\n", len(data))
		v, err := readTarget(in)
		if err != nil {
			return err
		}
		target = v
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// シグナルハンドリング
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(out, "\n中断シグナルを受信、ベンチマークを終了中...")
			cancel()
		case <-ctx.Done():
		}
	}()

	result, err := engine.RunData(ctx, uuid.New().String(), data, target)
	if err != nil {
		return err
	}

	if result.Found {
		fmt.Fprintf(out, "%d was found in the slice.\n", target)
	} else {
		fmt.Fprintf(out, "%d was not found in the slice.\n", target)
	}

	// レポート出力
	fmt.Fprintln(out, result.Report())

	return nil
}

// printPresets は利用可能なプリセットを表示する
func printPresets(out io.Writer) {
	fmt.Fprintln(out, "利用可能なプリセット:")
	fmt.Fprintln(out)

	for _, name := range bench.ListPresets() {
		p, _ := bench.GetPreset(name)
		fmt.Fprintf(out, "  %-10s %-40s (%d elements, %d workers, %d runs)\n",
			p.Name, p.Description, p.Elements, p.Threads, p.Runs)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "使用例: poolsort --preset quick --target 42")
}

// runServer はHTTP APIサーバーを起動する
func runServer(addr string) error {
	fmt.Println("poolsort - HTTP API Server")
	fmt.Println("==========================")
	fmt.Printf("Starting server on http://%s\n", addr)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// シグナルハンドリング
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\n中断シグナルを受信、サーバーを終了中...")
		cancel()
	}()

	server, err := api.NewServer(addr)
	if err != nil {
		return err
	}
	return server.Start(ctx)
}
