package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"P3DrumMachine/config"
	"P3DrumMachine/logger"
	"P3DrumMachine/storage"

	"github.com/spf13/cobra"
)

var (
	rootFlag     string
	logLevelFlag string

	cfg         *config.Config
	fileManager *storage.FileManager
	closeIndex  func() error
)

var rootCmd = &cobra.Command{
	Use:   "p3dm",
	Short: "P3 Drum Machine 会话存储工具",
	Long: `管理 P3 Drum Machine 的本地会话文件、采样和录音。
会话保存在 <root>/P3DrumMachine/Sessions 下，摘要索引由 INDEX_BACKEND 选择 (sqlite, mysql, redis, none)。`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd.Context())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		teardown()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "storage root (default: $P3DM_ROOT or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn, error")
}

// Execute executes the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func setup(ctx context.Context) error {
	cfg = config.Load()
	if rootFlag != "" {
		cfg.Root = rootFlag
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}

	if err := logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogFile,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}

	root := cfg.Root
	if root == "" {
		root = storage.DefaultRoot()
	}

	index, closer, err := openIndex(ctx, cfg, storage.BaseDir(root))
	if err != nil {
		// 索引不可用时退回目录扫描
		logger.Warn("summary index unavailable, listing will scan session files",
			logger.String("backend", cfg.IndexBackend), logger.ErrorField(err))
		index, closer = nil, nil
	}
	closeIndex = closer

	fileManager = storage.NewFileManager(root, index, storage.WithDiskReserve(cfg.DiskReserveBytes))
	logger.Debug("storage ready",
		logger.String("base", fileManager.BaseDir()),
		logger.String("index", cfg.IndexBackend))
	return nil
}

func teardown() {
	if closeIndex != nil {
		if err := closeIndex(); err != nil {
			logger.Warn("failed to close summary index", logger.ErrorField(err))
		}
		closeIndex = nil
	}
	logger.Sync()
}
