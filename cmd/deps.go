package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meysamhadeli/buildscope/constants/lipgloss"
	"github.com/meysamhadeli/buildscope/depgraph"
)

// DepsCmd: buildscope deps <package>
var depsCmd = &cobra.Command{
	Use:   "deps [package]",
	Short: "List every package that transitively depends on the given one.",
	Long: `The 'deps' subcommand loads the workspace, builds the package dependency
graph and lists the transitive dependee closure of one package in breadth-first
order: the packages that would need rebuilding if the given package changed.`,
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
		return printTransitiveDependees(rootDependencies, args[0])
	},
}

func init() {
	rootCmd.AddCommand(depsCmd)
}

func printTransitiveDependees(rootDependencies *RootDependencies, pkgName string) error {
	registry := rootDependencies.Workspace.Registry()

	start, ok := registry.Get(pkgName)
	if !ok {
		return fmt.Errorf("unknown package %s", pkgName)
	}

	count := 0
	registry.TransitiveDependees(start, func(pkg *depgraph.Package) bool {
		fmt.Println(pkg.Name)
		count++
		return false
	})

	if count == 0 {
		fmt.Println(lipgloss.Gray.Render("no packages depend on " + pkgName))
	}
	return nil
}
