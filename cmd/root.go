package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meysamhadeli/buildscope/config"
	"github.com/meysamhadeli/buildscope/constants/lipgloss"
	"github.com/meysamhadeli/buildscope/diagnostics"
	"github.com/meysamhadeli/buildscope/events"
	"github.com/meysamhadeli/buildscope/toolchain"
	"github.com/meysamhadeli/buildscope/utils"
	"github.com/meysamhadeli/buildscope/workspace"
	"github.com/meysamhadeli/buildscope/workspace/contracts"
)

// RootDependencies holds the wired collaborators every subcommand builds on.
type RootDependencies struct {
	Config        *config.Config
	Cwd           string
	Notifier      *events.Notifier
	Runner        contracts.ICommandRunner
	Provider      contracts.IDirectoryProvider
	Diagnostics   contracts.IDiagnostics
	Resolver      *toolchain.Resolver
	DefaultsCache *toolchain.DefaultsCache
	Workspace     *workspace.Workspace
}

var rootCmd = &cobra.Command{
	Use:   "buildscope",
	Short: "Merge, watch and query the compile databases of a catkin-style workspace.",
	Long: `buildscope keeps a live projection over every compile_commands.json a
meta-build-system workspace produces: it merges them into one per-source-file
view, resolves each compiler's implicit include search paths, watches the
build directory for changes, and answers flag and dependency queries for
editor tooling.`,
	Run: func(cmd *cobra.Command, args []string) {
		if version, _ := cmd.Flags().GetBool("version"); version {
			fmt.Println(config.DefaultConfig.Version)
			return
		}
		_ = cmd.Help()
	},
}

func init() {
	config.InitFlags(rootCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}
}

// handleRootCommand loads configuration and wires the dependency tree used
// by every subcommand.
func handleRootCommand(cmd *cobra.Command) *RootDependencies {
	rootDependencies := &RootDependencies{}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error getting current directory: %v", err)))
		return nil
	}
	rootDependencies.Cwd = cwd

	rootDependencies.Config = config.LoadConfigWithCache(cmd.Root(), cwd)
	rootDependencies.Notifier = events.NewNotifier()
	rootDependencies.Runner = utils.NewCommandRunner()
	rootDependencies.Diagnostics = diagnostics.NewTerminal()

	if rootDependencies.Config.EnableCache {
		cache, err := toolchain.NewDefaultsCache("")
		if err != nil {
			fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Warning: compiler defaults cache disabled: %v", err)))
		} else {
			rootDependencies.DefaultsCache = cache
		}
	}

	rootDependencies.Resolver = toolchain.NewResolver(rootDependencies.Runner, rootDependencies.DefaultsCache)
	rootDependencies.Provider = workspace.NewToolProvider(
		rootDependencies.Runner,
		rootDependencies.Config.Tool,
		rootDependencies.Config.Profile,
	)
	rootDependencies.Workspace = workspace.NewWorkspace(
		rootDependencies.Config,
		rootDependencies.Provider,
		rootDependencies.Diagnostics,
		rootDependencies.Notifier,
		rootDependencies.Resolver,
	)

	return rootDependencies
}
