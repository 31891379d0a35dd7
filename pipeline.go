// Package ch10gen is the library entry point for the generator: Generate
// drives the loaders, scheduler, generator kernel, word codec, and
// writer through one synchronous pass to produce a Chapter 10 file,
// exactly the single-threaded cooperative pipeline described in
// spec.md §5. GenerateToFile is the file-oriented convenience wrapper
// the CLI and batch daemon build on; validator.Validate runs the
// post-write acceptance checks against the result.
package ch10gen

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/codec"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/common"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/genkernel"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/genlog"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/icd"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/packet"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/runledger"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/schedule"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/scenario"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/validator"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/writer"
)

// lateResponseDelayNs models an injected late RT response as a fixed
// 50 microsecond push on that single message's IPTS; Generate holds
// every later message on the same channel at or after that pushed
// IPTS, so the writer's monotonic-IPTS check continues to hold.
const lateResponseDelayNs = 50_000

// Config bundles the writer's flush-controller tuning with the
// optional progress/cancellation knobs a CLI or daemon front-end may
// set. The zero value is a valid, fully synchronous, non-cancellable
// configuration.
type Config struct {
	Writer writer.Config

	// Progress, if non-nil, receives periodic human-readable progress
	// lines while Generate runs.
	Progress io.Writer

	// Cancel, if non-nil, is checked between scheduled emissions; once
	// closed the run aborts with a *writer.CancelledError, having
	// flushed the writer's pending packets to the sink first. Generate
	// does not close the sink on cancel either; that stays with the
	// caller.
	Cancel <-chan struct{}
}

// Result summarizes one completed Generate call.
type Result struct {
	Stats writer.Stats
}

// Generate runs the full pipeline against an already-loaded ICD and
// scenario, writing one Chapter 10 file to sink. sink is opened and
// closed by the caller; Generate never closes it itself, but it does
// call Close on the internal writer (which flushes pending packets)
// on every exit path.
func Generate(doc *icd.ICD, scen *scenario.Scenario, cfg Config, sink io.Writer) (Result, error) {
	kernel, err := genkernel.Build(doc, scen.Bindings, scen.Seed)
	if err != nil {
		return Result{}, fmt.Errorf("ch10gen: building generator kernel: %w", err)
	}

	sched, err := schedule.Build(doc, scen.DurationS, scen.JitterNs, scen.Seed)
	if err != nil {
		return Result{}, fmt.Errorf("ch10gen: building schedule: %w", err)
	}
	for _, warn := range sched.UtilizationWarnings {
		genlog.Warnf("%s", warn)
	}

	w, err := writer.New(sink, doc, scen.Name, cfg.Writer)
	if err != nil {
		return Result{}, fmt.Errorf("ch10gen: starting writer: %w", err)
	}

	metrics := common.NewMetrics()
	metrics.Start()
	var stopProgress func()
	if cfg.Progress != nil {
		stopProgress = common.StartProgressPrinter(cfg.Progress, metrics, time.Second)
	}
	defer func() {
		metrics.Stop()
		if stopProgress != nil {
			stopProgress()
		}
	}()

	channelID := packet.ChannelBusA
	failoverChannelID := packet.ChannelBusB
	if doc.Bus == "B" {
		channelID, failoverChannelID = packet.ChannelBusB, packet.ChannelBusA
	}

	injectors := map[string]*genkernel.ErrorInjector{}
	counts := map[string]int64{}
	lastIPTS := map[uint16]int64{}
	var lastBytes int64

	for _, ev := range sched.Events {
		if cancelled(cfg.Cancel) {
			w.Close()
			return Result{Stats: w.Stats()}, &writer.CancelledError{}
		}

		msg, ok := doc.MessageByName(ev.Message)
		if !ok {
			w.Close()
			return Result{}, fmt.Errorf("ch10gen: scheduled event references unknown message %q", ev.Message)
		}

		count := counts[ev.Message]
		counts[ev.Message] = count + 1
		timeSeconds := float64(ev.TimeNs) / 1e9

		values, warns, err := kernel.EvaluateMessage(ev.Message, timeSeconds, count)
		if err != nil {
			w.Close()
			return Result{}, fmt.Errorf("ch10gen: evaluating %s: %w", ev.Message, err)
		}
		for _, warn := range warns {
			genlog.Warnf("%s: %s", ev.Message, warn.String())
		}

		injector := injectors[ev.Message]
		if injector == nil {
			injector = genkernel.NewErrorInjector(scen.Seed, ev.Message, scen.ErrorInjectionFor(ev.Message))
			injectors[ev.Message] = injector
		}
		decision := injector.Decide(timeSeconds)
		if decision.NoResponse {
			continue
		}

		block, err := encodeMessageBlock(msg, values, decision)
		if err != nil {
			w.Close()
			return Result{}, fmt.Errorf("ch10gen: encoding %s: %w", ev.Message, err)
		}

		iptsNs := ev.TimeNs
		if decision.LateResponse {
			iptsNs += lateResponseDelayNs
		}

		writeChannelID := channelID
		if decision.FailedOver {
			writeChannelID = failoverChannelID
		}
		if last, ok := lastIPTS[writeChannelID]; ok && iptsNs < last {
			iptsNs = last
		}
		lastIPTS[writeChannelID] = iptsNs

		if err := w.WriteMessage(writeChannelID, iptsNs, block); err != nil {
			w.Close()
			return Result{}, err
		}

		bytesNow := w.Stats().BytesWritten
		if delta := bytesNow - lastBytes; delta > 0 {
			metrics.AddBytes(delta)
			lastBytes = bytesNow
		}
	}

	if err := w.Close(); err != nil {
		return Result{}, err
	}
	return Result{Stats: w.Stats()}, nil
}

func cancelled(c <-chan struct{}) bool {
	if c == nil {
		return false
	}
	select {
	case <-c:
		return true
	default:
		return false
	}
}

// encodeMessageBlock turns one evaluated message instance into a wire-
// ready MessageBlock: it packs the data words per the ICD's slot
// layout, builds the command and status words, and orders them per
// the message's transfer direction. A word-count fault widens the
// command word's declared wc past the actual data word count, so the
// validator's command/status cross-check catches it downstream.
func encodeMessageBlock(msg icd.Message, values map[string]float64, decision genkernel.Decision) (packet.MessageBlock, error) {
	data, err := encodeSlots(msg, values)
	if err != nil {
		return packet.MessageBlock{}, err
	}

	declaredWC := msg.WC
	if decision.WordCountError {
		declaredWC++
	}

	// RT2RT has no second addressed terminal in this ICD model (a
	// message carries exactly one rt/sa pair), so it is ordered the
	// same way as BC2RT/MODE: command, data, status. packet.OrderWordsRT2RT
	// exists for a future two-terminal ICD extension but has no caller
	// in this single-RT model.
	transmit := msg.TR == codec.RT2BC
	command := codec.EncodeCommandWord(msg.RT, transmit, msg.SA, declaredWC)
	status := codec.EncodeStatusWord(msg.RT, codec.StatusFlags{MessageError: decision.ParityError})

	words := packet.OrderWords(msg.TR, command, data, status)

	return packet.MessageBlock{
		Status: packet.BlockStatus{
			WordCountError: decision.WordCountError,
			SyncError:      decision.SyncError,
			MessageError:   decision.ParityError,
			RT2RT:          msg.TR == codec.RT2RT,
		},
		Words: words,
	}, nil
}

// encodeSlots packs one message's evaluated field values into its
// wc-length data word array, per the ICD's resolved slot layout.
func encodeSlots(msg icd.Message, values map[string]float64) ([]uint16, error) {
	words := make([]uint16, msg.WC)
	for _, slot := range msg.Slots {
		switch slot.Kind {
		case icd.SlotScalar:
			f := slot.Fields[0]
			v, err := fieldValue(f, values)
			if err != nil {
				return nil, err
			}
			enc, warns, err := codec.EncodeScalar(v, f.ScalarSpec())
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f.Name, err)
			}
			logWarnings(msg.Name, warns)
			words[slot.Index] = enc[0]

		case icd.SlotSplit:
			f := slot.Fields[0]
			v, err := fieldValue(f, values)
			if err != nil {
				return nil, err
			}
			enc, warns, err := codec.EncodeScalar(v, f.ScalarSpec())
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f.Name, err)
			}
			if len(enc) != 2 {
				return nil, fmt.Errorf("%s: split field encoded to %d words, want 2", f.Name, len(enc))
			}
			logWarnings(msg.Name, warns)
			words[slot.Index] = enc[0]
			words[slot.Index+1] = enc[1]

		case icd.SlotPacked:
			var acc uint16
			for _, f := range slot.Fields {
				v, err := fieldValue(f, values)
				if err != nil {
					return nil, err
				}
				packed, warns, err := codec.PackBitfield(acc, v, codec.BitfieldSpec{Scalar: f.ScalarSpec(), Mask: *f.Mask, Shift: *f.Shift})
				if err != nil {
					return nil, fmt.Errorf("%s: %w", f.Name, err)
				}
				logWarnings(msg.Name, warns)
				acc = packed
			}
			words[slot.Index] = acc
		}
	}
	return words, nil
}

func fieldValue(f icd.Field, values map[string]float64) (float64, error) {
	v, ok := values[f.Name]
	if !ok {
		return 0, fmt.Errorf("field %s has no evaluated value", f.Name)
	}
	return v, nil
}

func logWarnings(message string, warns []codec.Warning) {
	for _, w := range warns {
		genlog.Warnf("%s: %s", message, w.String())
	}
}

// GenerateToFile is the file-oriented convenience wrapper the CLI and
// batch daemon use: it opens outPath, runs Generate against it, hashes
// the result into a one-entry manifest, records the ICD source file's
// digest in Run.ICDSHA when scen.ICDPath is set, and records a Run
// under runID if ledger is non-nil. The scenario file is not hashed;
// Run.ScenarioSHA is left empty.
func GenerateToFile(doc *icd.ICD, scen *scenario.Scenario, cfg Config, outPath string, ledger *runledger.Ledger, runID string) (runledger.Run, error) {
	started := time.Now()

	var icdSHA string
	if scen.ICDPath != "" {
		if sum, _, err := common.Sha256OfFile(scen.ICDPath); err == nil {
			icdSHA = sum
		}
	}

	f, err := os.Create(outPath)
	if err != nil {
		return runledger.Run{}, fmt.Errorf("ch10gen: creating %s: %w", outPath, err)
	}
	bw := bufio.NewWriterSize(f, 1<<20)

	result, genErr := Generate(doc, scen, cfg, bw)
	flushErr := bw.Flush()
	closeErr := f.Close()

	if genErr != nil {
		return runledger.Run{}, genErr
	}
	if flushErr != nil {
		return runledger.Run{}, fmt.Errorf("ch10gen: flushing %s: %w", outPath, flushErr)
	}
	if closeErr != nil {
		return runledger.Run{}, fmt.Errorf("ch10gen: closing %s: %w", outPath, closeErr)
	}

	manifest, err := runledger.BuildManifest([]string{outPath})
	if err != nil {
		return runledger.Run{}, fmt.Errorf("ch10gen: building manifest: %w", err)
	}

	report, err := validator.Validate(outPath, doc)
	if err != nil {
		return runledger.Run{}, fmt.Errorf("ch10gen: validating %s: %w", outPath, err)
	}

	run := runledger.Run{
		ID:           runID,
		CreatedAt:    started,
		ICDSHA:       icdSHA,
		Manifest:     manifest,
		Pass:         report.Summary.Pass,
		Errors:       report.Summary.Errors,
		Warnings:     report.Summary.Warnings,
		PacketCount:  result.Stats.PacketsWritten,
		MessageCount: result.Stats.MessagesWritten,
	}

	genlog.Logf("run %s: wrote %d packets, %d messages to %s, validate PASS=%v errors=%d warnings=%d",
		runID, run.PacketCount, run.MessageCount, outPath, run.Pass, run.Errors, run.Warnings)

	if ledger != nil {
		if err := ledger.Record(run); err != nil {
			return run, fmt.Errorf("ch10gen: recording run %s: %w", runID, err)
		}
	}
	return run, nil
}
