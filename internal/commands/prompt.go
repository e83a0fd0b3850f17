package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

var errInterrupted = errors.New("interrupted")

// readPasswordWithMask reads a password from the terminal echoing asterisks
func readPasswordWithMask(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		// Fallback to hidden input
		password, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		return string(password), err
	}
	defer term.Restore(fd, oldState)

	password, err := readMasked(bufio.NewReader(os.Stdin), os.Stderr)
	// raw mode: move to column 0 explicitly
	fmt.Fprint(os.Stderr, "\r\n")
	return password, err
}

// readMasked consumes keystrokes until Enter, echoing '*' for each printable rune
func readMasked(r io.RuneReader, echo io.Writer) (string, error) {
	var password []rune
	for {
		char, _, err := r.ReadRune()
		if err == io.EOF {
			return string(password), nil
		}
		if err != nil {
			return "", err
		}

		switch char {
		case '\n', '\r':
			return string(password), nil
		case 127, 8: // Backspace or Delete
			if len(password) > 0 {
				password = password[:len(password)-1]
				fmt.Fprint(echo, "\b \b")
			}
		case 3: // Ctrl+C
			return "", errInterrupted
		default:
			if char >= 32 && char != 127 {
				password = append(password, char)
				fmt.Fprint(echo, "*")
			}
		}
	}
}

// readLine reads one trimmed line from stdin after printing prompt
func readLine(in *bufio.Reader, prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	line, err := in.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return trimEOL(line), nil
}

func trimEOL(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
