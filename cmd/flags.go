package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meysamhadeli/buildscope/utils"
)

// FlagsCmd: buildscope flags <source-file>
var flagsCmd = &cobra.Command{
	Use:   "flags [source-file]",
	Short: "Print the resolved compile configuration of one source file.",
	Long: `The 'flags' subcommand loads the workspace once and prints the composed
configuration of a source file: include paths (explicit flags first, then the
compiler's implicit defaults), defines, the compiler path, and the configured
standard and IntelliSense mode.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return fmt.Errorf("failed to initialize dependencies")
		}
		defer rootDependencies.Workspace.Dispose()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if err := rootDependencies.Workspace.Reload(ctx); err != nil {
			return err
		}
		return printSourceFileConfiguration(ctx, rootDependencies, args[0])
	},
}

func init() {
	rootCmd.AddCommand(flagsCmd)
}

// printSourceFileConfiguration renders the configuration of one source file
// as syntax-highlighted JSON.
func printSourceFileConfiguration(ctx context.Context, rootDependencies *RootDependencies, sourceFile string) error {
	configuration, ok := rootDependencies.Workspace.GetSourceFileConfiguration(sourceFile)
	if !ok {
		return fmt.Errorf("no compile command known for %s", sourceFile)
	}

	if record, ok := rootDependencies.Workspace.Store().GetRecord(sourceFile); ok {
		if err := utils.RenderHighlightedWithContext(ctx, record.Command, "bash", rootDependencies.Config.Theme); err != nil {
			return err
		}
	}

	rendered, err := json.MarshalIndent(configuration, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}

	return utils.RenderHighlightedWithContext(ctx, string(rendered), "json", rootDependencies.Config.Theme)
}
