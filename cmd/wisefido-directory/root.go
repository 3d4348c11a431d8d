package main

import (
	"fmt"
	"os"
	"path/filepath"

	"wisefido-directory/internal/abbrev"
	"wisefido-directory/internal/config"
	"wisefido-directory/internal/directory"
	"wisefido-directory/internal/ingest"
	"wisefido-directory/internal/logger"
	"wisefido-directory/internal/metrics"
	"wisefido-directory/internal/notify"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const serviceName = "wisefido-directory"

// app 子命令共享的运行时对象
type app struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Hospital room directory: ingest, normalize, tag and search rooms",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			l, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, serviceName)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			a.cfg = cfg
			a.logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to YAML config file")

	root.AddCommand(
		newServeCommand(a),
		newSearchCommand(a),
		newUnmappedCommand(a),
		newExportCommand(a),
	)
	return root
}

// newNormalizer 加载可选的缩写覆盖文件
func (a *app) newNormalizer() (*abbrev.Normalizer, error) {
	n := abbrev.New()
	path := a.cfg.Directory.AbbrevOverridesFile
	if path == "" {
		return n, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open overrides %s: %w", path, err)
	}
	defer f.Close()
	if err := n.LoadOverrides(f); err != nil {
		return nil, fmt.Errorf("failed to load overrides %s: %w", path, err)
	}
	a.logger.Info("Abbreviation overrides loaded", zap.String("file", path))
	return n, nil
}

func (a *app) newStore(notifier notify.Notifier, m *metrics.Metrics) (*directory.Store, error) {
	n, err := a.newNormalizer()
	if err != nil {
		return nil, err
	}
	return directory.NewStore(n, a.logger, directory.Options{
		AutocompleteLimit: a.cfg.Directory.AutocompleteLimit,
		ResultsPerPage:    a.cfg.Directory.ResultsPerPage,
		LinkTemplate:      a.cfg.Directory.LinkTemplate,
		Notifier:          notifier,
		Metrics:           m,
	}), nil
}

func readFiles(paths []string) ([]ingest.File, error) {
	files := make([]ingest.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		files = append(files, ingest.File{Name: filepath.Base(p), Data: data})
	}
	return files, nil
}

// loadOffline 读取文件并导入到一个新的数据集（search/unmapped/export 子命令使用）
func (a *app) loadOffline(cmd *cobra.Command, paths []string) (*directory.Store, error) {
	store, err := a.newStore(notify.NewLogNotifier(a.logger), nil)
	if err != nil {
		return nil, err
	}
	files, err := readFiles(paths)
	if err != nil {
		return nil, err
	}
	outcomes := store.ImportFiles(cmd.Context(), files)
	for _, o := range outcomes {
		if o.Status == directory.FileError {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", o.Name, o.Message)
		}
	}
	if sum := directory.Summarize(outcomes); sum.Processed == 0 {
		return nil, fmt.Errorf("no files could be imported")
	}
	return store, nil
}
