package tradechain

import (
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

// This file contains the logic to test the examples in the README.md file.
//
// To add a new testable example to the README.md file, you need to follow these steps:
//
// 1.  Add the command to the README.md file, wrapped in a ```bash ... ``` block.
// 2.  Add the expected output of the command, wrapped in a ```console ... ``` block.
//
// The test will automatically parse the README.md file, run the commands, and compare the output with the expected output.

// Command holds a command and its expected output.
type Command struct {
	Cmd      string
	Expected string
}

// buildTcs builds the tcs command and returns the path to the executable.
func buildTcs(t *testing.T, tmp string) string {
	t.Helper()

	output := filepath.Join(tmp, "tcs")

	// Build the tcs command
	buildCmd := exec.Command("go", "build", "-o", output, "./tcs/")
	err := buildCmd.Run()
	if err != nil {
		t.Fatalf("failed to build tcs command: %v", err)
	}

	return output
}

// parseTestableCommands parses a markdown file to extract commands and their expected outputs.
func parseTestableCommands(t *testing.T, file string) []Command {
	t.Helper()

	// Read the file
	content, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("failed to read %s: %v", file, err)
	}

	// Parse the file
	repo := string(content)
	re := regexp.MustCompile("(?m)```bash\\n(tcs.*?)\\n```\\n\\n```console\n((.|\\n)*?)```")
	matches := re.FindAllStringSubmatch(repo, -1)

	var commands []Command
	for _, match := range matches {
		commands = append(commands, Command{Cmd: match[1], Expected: match[2]})
	}

	return commands
}

// runTestableCommands runs the testable commands from a given markdown file.
func runTestableCommands(t *testing.T, file string) {
	t.Helper()

	tmp := t.TempDir()
	tcsPath := buildTcs(t, tmp)

	commands := parseTestableCommands(t, file)

	for _, cmd := range commands {
		args := strings.Fields(cmd.Cmd)
		t.Log("Running command:", tcsPath, args)
		command := exec.Command(tcsPath, args[1:]...)
		command.Dir = tmp
		// Reports date themselves, pin the clock so outputs stay comparable.
		command.Env = append(os.Environ(), "TCS_TESTING_NOW=2006-01-02 15:04:05")
		output, err := command.CombinedOutput()
		if err != nil {
			t.Fatalf("failed to run command: %v, output: \n%s", err, output)
		}
		result := string(output)
		// replace tabs with spaces for consistent comparison
		result = strings.ReplaceAll(result, "\t", "        ")

		if cmd.Expected != result {
			t.Errorf("expected output:\n%q\nbut got:\n%q", cmd.Expected, result)
		}
	}
}
