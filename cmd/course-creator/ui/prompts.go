package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

var stdin = bufio.NewReader(os.Stdin)

// Prompt asks the user for input with a prompt message.
func Prompt(message string) (string, error) {
	fmt.Fprintf(os.Stdout, "%s: ", message)
	input, err := stdin.ReadString('\n')
	if err != nil && !(err == io.EOF && input != "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// PromptWithDefault asks the user for input with a default value.
func PromptWithDefault(message, defaultValue string) (string, error) {
	input, err := Prompt(fmt.Sprintf("%s [%s]", message, defaultValue))
	if err != nil {
		return "", err
	}
	if input == "" {
		return defaultValue, nil
	}
	return input, nil
}

// Confirm asks the user for a yes/no confirmation.
func Confirm(message string, defaultValue bool) (bool, error) {
	defaultStr := "y/N"
	if defaultValue {
		defaultStr = "Y/n"
	}

	input, err := Prompt(fmt.Sprintf("%s [%s]", message, defaultStr))
	if err != nil {
		return false, err
	}

	input = strings.ToLower(input)
	if input == "" {
		return defaultValue, nil
	}
	return input == "y" || input == "yes", nil
}

// Choose shows a numbered menu and returns the zero-based index picked.
func Choose(title string, options []string) (int, error) {
	fmt.Fprintln(os.Stdout)
	headerColor.Fprintln(os.Stdout, title)
	for i, opt := range options {
		fmt.Fprintf(os.Stdout, "  %d) %s\n", i+1, opt)
	}

	for {
		input, err := Prompt("Select an option")
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(input)
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		Warning("Please enter a number between 1 and %d", len(options))
	}
}

// PromptMultiline reads lines until a line containing only "." or EOF.
func PromptMultiline(message string) (string, error) {
	fmt.Fprintf(os.Stdout, "%s (finish with a single '.' line):\n", message)

	var lines []string
	for {
		line, err := stdin.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "." {
			break
		}
		if line != "" {
			lines = append(lines, trimmed)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.Join(lines, "\n"), nil
}

// EditText opens $VISUAL or $EDITOR on initial and returns the saved text.
// Without an editor it falls back to PromptMultiline.
func EditText(message, initial string) (string, error) {
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		return PromptMultiline(message)
	}

	f, err := os.CreateTemp("", "course-outline-*.md")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(initial); err != nil {
		f.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("run editor: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read edited outline: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}
