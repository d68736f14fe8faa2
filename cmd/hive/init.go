package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hivetechs/hive/internal/storage"
)

var initCmd = &cobra.Command{
	Use:   "init [project-name]",
	Short: "Initialize hive in the current directory",
	Long: `Initialize hive by creating a .hive/ directory with a database.

This creates:
  - .hive/ directory
  - .hive/<project-name>.db (SQLite database)
  - .hive/.gitignore (keeps the session lock and WAL files out of git)

If no project name is provided, the database is named hive.db.

Example:
  cd ~/myproject
  hive init                        # Creates .hive/hive.db
  hive init myapp                  # Creates .hive/myapp.db`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectName := ""
		if len(args) > 0 {
			projectName = args[0]
		}

		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}

		path, err := storage.InitProject(cwd, projectName)
		if err != nil {
			return err
		}

		// Open and close once so the schema exists
		db, err := storage.NewStorage(cmd.Context(), &storage.Config{Path: path})
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		_ = db.Close()

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s Initialized hive\n\n", green("✓"))
		fmt.Printf("  Database: %s\n", cyan(path))
		fmt.Printf("  Config:   %s %s\n", cyan(storage.ConfigPath(path)), gray("(optional)"))
		fmt.Println()
		fmt.Printf("%s Next steps:\n", gray("→"))
		fmt.Printf("  %s\n", gray(`hive detect "add a login page"`))
		fmt.Printf("  %s\n", gray("hive repl"))
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
