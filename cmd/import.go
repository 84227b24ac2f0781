/*
Copyright © 2026 Leadbase Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/leadbasehq/leadbase/server/importer"
	"github.com/leadbasehq/leadbase/server/models"
	"github.com/leadbasehq/leadbase/utils"
	"github.com/spf13/cobra"
)

var (
	importFileArg      string
	importWorkspaceArg uint
)

func init() {
	rootCmd.AddCommand(createImportCmd())
}

func createImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Reconcile a csv of contacts & properties against a workspace",
		Long: `Reads a csv export of contacts and their properties, and reconciles each row
against the workspace's records - updating what's already there and creating
what isn't. Prints a tally of the changes when done.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd)
		},
	}

	cmd.Flags().StringVarP(&importFileArg, "file", "f", "", "path to the csv file to import")
	cmd.Flags().UintVarP(&importWorkspaceArg, "workspace", "w", 0, "workspace to import into (defaults to the default workspace)")
	cmd.Flags().StringVar(&serverCongFile, "sconfig", "", "Config for server")

	cmd.MarkFlagRequired("file")

	return cmd
}

func runImport(cmd *cobra.Command) error {
	if !utils.FileExist(importFileArg) {
		return formattedError("no such file: %v", importFileArg)
	}

	err := initImportDb()
	if err != nil {
		return err
	}

	workspaceID := importWorkspaceArg
	if workspaceID == 0 {
		workspace, err := models.DefaultWorkspace()
		if err != nil {
			return err
		}
		workspaceID = workspace.ID
	}

	file, err := os.Open(importFileArg)
	if err != nil {
		return err
	}
	defer file.Close()

	rows, err := importer.ReadRows(file)
	if err != nil {
		return formattedError("unable to parse %v: %v", importFileArg, err)
	}

	if len(rows) == 0 {
		cmd.Printf("%v nothing to import in %v\n", warningLabel, importFileArg)
		return nil
	}

	tally := importer.New(nil).Run(context.Background(), workspaceID, rows)

	cmd.Printf("Import complete: %v properties(%v new, %v updated), %v contacts(%v new, %v updated), %v relationships\n",
		green(tally.Properties.New+tally.Properties.Updated),
		tally.Properties.New, tally.Properties.Updated,
		green(tally.Contacts.New+tally.Contacts.Updated),
		tally.Contacts.New, tally.Contacts.Updated,
		green(tally.Relationships))

	if tally.Errors > 0 {
		cmd.Printf("%v %v row(s) could not be imported\n", warningLabel, red(tally.Errors))
	}

	return nil
}

// initImportDb opens the same record store the server uses. Tests run
// against a throwaway db instead.
func initImportDb() error {
	if isTestEnv {
		models.InitializeTestDb()
		return nil
	}

	config := serverConfig()

	dataDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	if isDevEnv {
		dataDir, err = os.Getwd()
		if err != nil {
			return err
		}
	}

	return models.InitializeDb(config.GetString("sqlite.passPhrase"), filepath.Join(dataDir, ".leadbase"))
}
