package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/meysamhadeli/buildscope/config"
	"github.com/meysamhadeli/buildscope/constants/lipgloss"
	"github.com/meysamhadeli/buildscope/pkgmeta"
)

// resetCacheCmd represents the reset-cache command
var resetCacheCmd = &cobra.Command{
	Use:   "reset-cache",
	Short: "Reset the on-disk caches of buildscope",
	Long: `The 'reset-cache' command removes all cached files in the '.cache' directory.
This includes resolved compiler default include paths and configuration cache.
Use this command after a toolchain upgrade or when experiencing cache-related issues.`,
	Run: func(cmd *cobra.Command, args []string) {
		var force bool
		var stats bool

		// Parse flags
		force, _ = cmd.Flags().GetBool("force")
		stats, _ = cmd.Flags().GetBool("stats")

		// Handle reset-cache command
		handleResetCacheCommand(force, stats, cmd)
	},
}

func init() {
	// Define command-specific flags
	resetCacheCmd.Flags().BoolP("force", "f", false, "Force cache reset without confirmation")
	resetCacheCmd.Flags().BoolP("stats", "s", false, "Show cache statistics before reset")

	// Add the reset-cache command to the root command
	rootCmd.AddCommand(resetCacheCmd)
}

func handleResetCacheCommand(force bool, showStats bool, cmd *cobra.Command) {
	rootDependencies := handleRootCommand(cmd)
	if rootDependencies == nil {
		return
	}

	if rootDependencies.DefaultsCache == nil {
		fmt.Println(lipgloss.Yellow.Render("Cache is disabled. No cache to reset."))
		return
	}

	// Show cache statistics if requested
	if showStats {
		fmt.Println(lipgloss.Info.Render("Cache Statistics:"))
		if cacheStats, err := rootDependencies.DefaultsCache.Stats(); err == nil {
			if dir, ok := cacheStats["cache_dir"].(string); ok {
				fmt.Printf("  Cache Directory: %s\n", dir)
			}
			if files, ok := cacheStats["cache_files"].(int); ok {
				fmt.Printf("  Cached Compilers: %d\n", files)
			}
			if size, ok := cacheStats["total_size"].(int64); ok {
				fmt.Printf("  Total Size: %.2f KB\n", float64(size)/1024)
			}
		} else {
			fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Warning: Could not show statistics: %v", err)))
		}

		// Only show stats, skip the actual reset
		return
	}

	// Confirm reset for full cache reset (if not forced)
	if !force {
		reader := bufio.NewReader(os.Stdin)
		fmt.Print("Are you sure you want to reset the compiler defaults cache? (y/N): ")
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println(lipgloss.Yellow.Render("Cache reset cancelled."))
			return
		}
	}

	// Reset the cache
	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100).WithRemoveWhenDone(true)

	spinnerInstance, _ := spinner.Start("Resetting caches...")

	err := rootDependencies.DefaultsCache.Clear()

	config.ClearConfigCache()
	pkgmeta.ClearIgnoreCache()

	spinnerInstance.Stop()
	fmt.Print("\r")

	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error resetting cache: %v", err)))
		return
	}

	fmt.Println(lipgloss.Green.Render("✓ Caches have been successfully reset!"))
}
