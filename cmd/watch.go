package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/meysamhadeli/buildscope/constants/lipgloss"
	"github.com/meysamhadeli/buildscope/events"
	"github.com/meysamhadeli/buildscope/utils"
)

// WatchCmd: buildscope watch
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Load the workspace and keep its compile databases live within a session.",
	Long: `The 'watch' subcommand loads the workspace once and then keeps the merged
compile-database projection up to date as the build writes, rewrites or removes
compile_commands.json files. The session accepts slash commands to query flags,
packages and dependency closures while the watches run.`,
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		handleWatchCommand(rootDependencies)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func handleWatchCommand(rootDependencies *RootDependencies) {

	// Create a context with cancel function
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	defer rootDependencies.Workspace.Dispose()

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").WithDelay(100).WithRemoveWhenDone(true)

	reader := bufio.NewReader(os.Stdin)

	watchOptionsBox := lipgloss.BoxStyle.Render("/help  Help for watch subcommand")
	fmt.Println(watchOptionsBox)

	unsubscribe := subscribeSessionEvents(rootDependencies.Notifier)
	defer unsubscribe()

	spinnerLoad, _ := spinner.Start("Loading workspace...")

	err := rootDependencies.Workspace.Reload(ctx)

	spinnerLoad.Stop()
	fmt.Print("\r")

	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}

	for {
		select {
		case <-ctx.Done():
			fmt.Println(lipgloss.Yellow.Render("\n🔄 Exiting..."))
			return

		default:
			userInput, err := utils.InputPromptWithContext(ctx, reader)

			if err != nil {
				if err == context.Canceled {
					fmt.Println(lipgloss.Yellow.Render("\n🔄 Exiting..."))
					return
				}
				fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
				continue
			}

			if userInput == "" {
				fmt.Print("\r")
				continue
			}

			handled, exit := findWatchSubCommand(ctx, userInput, rootDependencies)
			if exit {
				return
			}
			if !handled {
				fmt.Println(lipgloss.Yellow.Render("Unknown command. Type /help for available commands."))
			}
		}
	}
}

// subscribeSessionEvents prints a note whenever the projection changes under
// the session's feet.
func subscribeSessionEvents(notifier *events.Notifier) func() {
	unsubCommands := notifier.Subscribe(events.BuildCommandsChanged, func(bool) {
		fmt.Println(lipgloss.Gray.Render("• build commands changed"))
	})
	unsubPaths := notifier.Subscribe(events.SystemPathsChanged, func(bool) {
		fmt.Println(lipgloss.Gray.Render("• system include paths changed"))
	})
	unsubTests := notifier.Subscribe(events.TestsSetChanged, func(bool) {
		fmt.Println(lipgloss.Gray.Render("• new package built, test rescan warranted"))
	})
	return func() {
		unsubCommands()
		unsubPaths()
		unsubTests()
	}
}

func findWatchSubCommand(ctx context.Context, command string, rootDependencies *RootDependencies) (bool, bool) {
	switch {
	case command == "/help":
		helps := "/clear  Clear screen\n/exit  Exit from buildscope\n/stats  Session statistics\n/packages  List workspace packages\n/databases  List merged compile databases\n/flags <file>  Show the configuration of a source file\n/deps <package>  List transitive dependees of a package\n/reload  Reload the whole workspace"
		styledHelps := lipgloss.BoxStyle.Render(helps)
		fmt.Println(styledHelps)
		return true, false
	case command == "/clear":
		fmt.Print("\033[2J\033[H")
		return true, false
	case command == "/exit":
		return false, true
	case command == "/stats":
		rootDependencies.Workspace.Stats().Display()
		return true, false
	case command == "/packages":
		for _, name := range rootDependencies.Workspace.Registry().Names() {
			fmt.Println(name)
		}
		return true, false
	case command == "/databases":
		for _, path := range rootDependencies.Workspace.Store().DatabasePaths() {
			fmt.Println(path)
		}
		return true, false
	case command == "/reload":
		if err := rootDependencies.Workspace.Reload(ctx); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		} else {
			fmt.Println(lipgloss.Green.Render("✔️ Workspace reloaded."))
		}
		return true, false
	case strings.HasPrefix(command, "/flags "):
		sourceFile := strings.TrimSpace(strings.TrimPrefix(command, "/flags "))
		if err := printSourceFileConfiguration(ctx, rootDependencies, sourceFile); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		}
		return true, false
	case strings.HasPrefix(command, "/deps "):
		pkgName := strings.TrimSpace(strings.TrimPrefix(command, "/deps "))
		if err := printTransitiveDependees(rootDependencies, pkgName); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		}
		return true, false
	}
	return false, false
}
