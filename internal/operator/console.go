package operator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
)

// Serve reads commands line by line from r and writes their output to w until
// r is exhausted, ctx is done or the quit command is entered.
func (o *Operator) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	prompt := func() {
		_, _ = fmt.Fprint(w, "> ")
	}
	prompt()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("read commands: %w", err)
					}
				default:
				}
				return nil
			}

			out, err := o.Execute(ctx, line)
			switch {
			case errors.Is(err, ErrQuit):
				return nil
			case err != nil:
				_, _ = fmt.Fprintf(w, "error: %v\n", err)
			case out != "":
				_, _ = fmt.Fprintln(w, out)
			}
			prompt()
		}
	}
}
