package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

type TestDataProvider []struct {
	description string
	args        []string
	expectedOut string
}

func TestImportCmd(t *testing.T) {
	var (
		importCmd *cobra.Command
		buff      = new(bytes.Buffer)
		actualOut string
	)

	// Save env flags before stubbing them out
	// And revert after test is done
	savedIsTestEnv := isTestEnv
	defer func() {
		isTestEnv = savedIsTestEnv
	}()
	isTestEnv = true

	path, _ := os.Getwd()
	fixtureFile := filepath.Join(path, "test-fixtures", "contacts.csv")

	cases := TestDataProvider{
		{
			description: "Should fail when file flag is not provided",
			args:        []string{""},
			expectedOut: "\"file\" not set",
		},
		{
			description: "Should NOT import a file that does not exist",
			args:        []string{"--file", "missing.csv"},
			expectedOut: "no such file",
		},
		{
			description: "Should import rows & report rows that could not be imported",
			args:        []string{"--file", fixtureFile},
			expectedOut: "row(s) could not be imported",
		},
		{
			description: "Should report the reconciliation tally",
			args:        []string{"--file", fixtureFile},
			expectedOut: "Import complete",
		},
	}

	for _, c := range cases {
		t.Run(c.description, func(t *testing.T) {
			importCmd = createImportCmd()

			// Clear output buffer before the next test
			buff.Reset()

			importCmd.SetOut(buff)
			importCmd.SetErr(buff)
			importCmd.SetArgs(c.args)

			importCmd.Execute()

			actualOut = buff.String()
			if !strings.Contains(actualOut, c.expectedOut) {
				t.Errorf("Expected: \n\"%s\" \nTo contain: \n\"%s\"", actualOut, c.expectedOut)
			}
		})
	}
}
