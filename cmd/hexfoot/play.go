package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hexfoot/engine/internal/action"
	"github.com/hexfoot/engine/internal/transport"
)

const prompt = "> "

// play reads one command per line from in and prints each result as JSON.
// It returns at full time, on EOF, or when ctx is cancelled.
func play(ctx context.Context, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	errCh := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errCh <- sc.Err()
	}()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	fmt.Fprintf(out, "%s %s, type \"state\" for the board or \"quit\" to leave\n", ServiceName, Version)
	fmt.Fprint(out, prompt)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-workerManager.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errCh:
					return err
				default:
					return nil
				}
			}
			line = strings.TrimSpace(line)
			switch line {
			case "":
				fmt.Fprint(out, prompt)
				continue
			case "quit", "exit":
				return nil
			}

			if err := playLine(enc, line); err != nil {
				fmt.Fprintln(out, "error:", err)
			}
			fmt.Fprint(out, prompt)
		}
	}
}

func playLine(enc *json.Encoder, line string) error {
	ev, err := parserService.ParseLine(line)
	if err != nil {
		return err
	}
	if strings.HasPrefix(ev.Command, ":LOG:") {
		return fmt.Errorf("%s is not a player command", ev.Command)
	}
	v, err := eventDispatcher.Dispatch(ev)
	if err != nil {
		return err
	}
	if step, ok := v.(action.Step); ok {
		return enc.Encode(transport.ViewStep(step))
	}
	return enc.Encode(v)
}
