package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var errEmptyPassword = errors.New("master password is empty")

// readMasterPassword reads the master password. On a terminal it prompts on
// stderr with echo disabled; otherwise it reads one line from stdin without
// prompting.
func readMasterPassword(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()

	if file, ok := in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Master password: ")
		passwordBytes, err := term.ReadPassword(int(file.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		if len(passwordBytes) == 0 {
			return "", errEmptyPassword
		}
		return string(passwordBytes), nil
	}

	return readPasswordLine(in)
}

// readPasswordLine returns the first line of r with the line ending removed.
func readPasswordLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errEmptyPassword
	}
	return line, nil
}
