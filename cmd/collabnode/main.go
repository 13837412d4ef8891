// Command collabnode is the operator-facing CLI for a single collabnode
// peer: identity management, collaborative-object CRUD against a local
// store, and ambient node diagnostics.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"collabnode/pkg/config"
)

var (
	envName string
	dataDir string
	log     = logrus.New()
)

func main() {
	root := &cobra.Command{
		Use:               "collabnode",
		Short:             "peer-to-peer code-collaboration node",
		PersistentPreRunE: rootInit,
	}
	root.PersistentFlags().StringVar(&envName, "env", "", "config environment to merge over default.yaml (e.g. test)")
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "override storage.refs_path from config")

	root.AddCommand(newIdentityCmd())
	root.AddCommand(newProjectCmd())
	root.AddCommand(newIssueCmd())
	root.AddCommand(newPatchCmd())
	root.AddCommand(newThreadCmd())
	root.AddCommand(newNodeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// rootInit loads .env, merges config/default.yaml with the --env overlay,
// and sets the logrus level — the same load order the teacher's netInit
// middleware uses, minus the libp2p node construction this CLI doesn't own.
func rootInit(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	// Bootstrap the zap global logger the cob backing-store layer reaches
	// for with zap.L(), the same early-init idiom as the teacher's
	// ensureAIInitialised (cmd/cli/ai.go).
	if zapLogger, zerr := zap.NewProduction(); zerr == nil {
		zap.ReplaceGlobals(zapLogger)
	}

	cfg, err := config.Load(envName)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if dataDir == "" {
		dataDir = cfg.Storage.RefsPath
	}
	if dataDir == "" {
		dataDir = "./data/refs"
	}

	lvl, err := logrus.ParseLevel(viper.GetString("logging.level"))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return nil
}
