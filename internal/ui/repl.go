package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// RunPlain runs a line-mode chat until "quit", end of input or ctx ends.
// Errors are printed and the loop continues.
func RunPlain(ctx context.Context, chat Conversation, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Interactive chat mode (type 'quit' to exit, 'clear' to reset history)")

	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	var scanErr error
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
		scanErr = scanner.Err()
	}()

	for {
		fmt.Fprint(out, "\nQuery: ")

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return scanErr
			}
			line = l
		}

		query := strings.TrimSpace(line)
		switch strings.ToLower(query) {
		case "":
			continue
		case "quit":
			return nil
		case "clear":
			if err := chat.Clear(ctx); err != nil {
				fmt.Fprintf(out, "\nError: %v\n", err)
				continue
			}
			fmt.Fprintln(out, "Conversation history cleared")
			continue
		}

		fmt.Fprintln(out)
		for chunk, err := range chat.Stream(ctx, query) {
			if err != nil {
				fmt.Fprintf(out, "\nError: %v", err)
				break
			}
			fmt.Fprint(out, chunk)
		}
		fmt.Fprintln(out)
	}
}
