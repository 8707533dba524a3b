package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/polytrader/polytrader"
	"github.com/polytrader/polytrader/pkg/domain"
)

// SessionOptions configure one interactive pipeline session.
type SessionOptions struct {
	MarketID string
	// JSON emits raw NDJSON events instead of rendered output. Interrupts
	// are auto-confirmed since there is no interactive reader.
	JSON bool
}

// RunSession drives a single pipeline run in the terminal: it creates a
// thread, streams progress, asks for confirmation when the run pauses, and
// renders the final report. Input is read from in; all output goes to out.
func RunSession(ctx context.Context, engine *polytrader.Engine, opts SessionOptions, in io.Reader, out io.Writer) error {
	threadID := engine.CreateThread(ctx)
	if !opts.JSON {
		fmt.Fprintf(out, "Thread %s\n", threadID)
	}

	events, run, err := engine.StartRun(ctx, threadID, polytrader.RunInputs{MarketID: opts.MarketID})
	if err != nil {
		return err
	}
	return followRun(ctx, engine, threadID, run, events, opts, in, out)
}

// ResumeSession re-enters an existing thread at its latest checkpoint,
// typically to retry a failed run. The thread must have persisted history,
// which in practice means Redis durability.
func ResumeSession(ctx context.Context, engine *polytrader.Engine, threadID string, opts SessionOptions, in io.Reader, out io.Writer) error {
	events, run, err := engine.Resume(ctx, threadID, polytrader.RunInputs{MarketID: opts.MarketID})
	if err != nil {
		return err
	}
	return followRun(ctx, engine, threadID, run, events, opts, in, out)
}

// followRun streams run events, loops through confirmation interrupts, and
// renders the final report.
func followRun(ctx context.Context, engine *polytrader.Engine, threadID string, run *domain.Run, events <-chan domain.Event, opts SessionOptions, in io.Reader, out io.Writer) error {
	printEvents(out, events, opts.JSON)

	var err error
	reader := bufio.NewReader(in)
	snapshot, _ := engine.Run(run.ID)
	for snapshot != nil && snapshot.Status == domain.RunInterrupted {
		pending := snapshot.PendingInterrupt

		approved := true
		if !opts.JSON {
			if question, ok := pending.Payload["question"].(string); ok {
				fmt.Fprintln(out, question)
			}
			if info := pending.Payload["analysis_info"]; info != nil {
				fmt.Fprint(out, renderMarkdown(analysisMarkdown(info)))
			}
			approved, err = confirm(reader, out)
			if err != nil {
				return err
			}
		}
		if !approved {
			fmt.Fprintln(out, "Stopped. The thread can be resumed later.")
			return nil
		}

		// Confirming echoes the proposed analysis back as the decision.
		decision := map[string]any{}
		if info := pending.Payload["analysis_info"]; info != nil {
			decision["analysis_info"] = info
		}
		events, _, err = engine.ResolveInterrupt(ctx, threadID, run.ID, decision)
		if err != nil {
			return err
		}
		printEvents(out, events, opts.JSON)
		snapshot, _ = engine.Run(run.ID)
	}

	if snapshot != nil && snapshot.Status == domain.RunFailed {
		return fmt.Errorf("run failed: %s", snapshot.Error)
	}

	if !opts.JSON {
		cp, err := engine.Checkpointer().LoadLatest(ctx, threadID)
		if err != nil {
			return fmt.Errorf("load final state: %w", err)
		}
		fmt.Fprint(out, renderMarkdown(reportMarkdown(cp.State)))
	}
	return nil
}

func printEvents(out io.Writer, events <-chan domain.Event, asJSON bool) {
	for ev := range events {
		if asJSON {
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintln(out, string(data))
			continue
		}
		switch ev.Kind {
		case domain.EventUpdate:
			fields := make([]string, len(ev.UpdatedFields))
			for i, f := range ev.UpdatedFields {
				fields[i] = string(f)
			}
			fmt.Fprintf(out, "  %s done (%s)\n", ev.Node, strings.Join(fields, ", "))
		case domain.EventInterrupt:
			fmt.Fprintf(out, "  %s paused for confirmation\n", ev.Node)
		case domain.EventError:
			fmt.Fprintf(out, "  %s error [%s]: %s\n", ev.Node, ev.ErrorKind, ev.Message)
		}
	}
}

func confirm(reader *bufio.Reader, out io.Writer) (bool, error) {
	fmt.Fprint(out, "Proceed with the trade decision? [y/N]: ")
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
