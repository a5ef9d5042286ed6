// Command medflow turns a clinic visit transcription into structured medical
// documents: patient data, a SOAP note, clinical data, and lab and pharmacy
// requisitions. Processed visits are stored per patient; the storage and
// audio-archive backends are selected through MEDFLOW_* environment variables.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"medflow/internal/blob"
	"medflow/internal/genai"
	"medflow/internal/prompts"
	"medflow/internal/render"
	"medflow/internal/service"
	"medflow/internal/store"
)

var (
	exitFunc = os.Exit

	// newComplete builds the generation transport. Overridden in tests.
	newComplete = func() (genai.CompleteFunc, error) {
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		t := &genai.OpenAITransport{
			APIKey:  key,
			BaseURL: os.Getenv("MEDFLOW_OPENAI_BASE_URL"),
			Client:  &http.Client{Timeout: 2 * time.Minute},
		}
		return t.Complete, nil
	}
)

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	var err error
	switch args[0] {
	case "process":
		err = runProcess(args[1:], stdout, stderr)
	case "patients":
		err = runPatients(args[1:], stdout)
	case "visits":
		err = runVisits(args[1:], stdout)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		usage(stderr)
		return 2
	}
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: medflow <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "commands:")
	fmt.Fprintln(w, "  process [-prompts file] [-audio file] <transcript.txt|->   process a transcription and store the visit")
	fmt.Fprintln(w, "  patients                                                   list stored patients")
	fmt.Fprintln(w, "  visits <patient name>                                      list a patient's visits, newest first")
}

func runProcess(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	fs.SetOutput(stderr)
	promptsPath := fs.String("prompts", "", "path to a prompts.json overriding the embedded prompt set")
	audioPath := fs.String("audio", "", "recording file to archive alongside the visit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("process: expected exactly one transcript argument")
	}

	transcript, err := readTranscript(fs.Arg(0))
	if err != nil {
		return err
	}

	complete, err := newComplete()
	if err != nil {
		return err
	}
	reg, err := prompts.New(*promptsPath)
	if err != nil {
		return fmt.Errorf("load prompts: %w", err)
	}
	recordStore, err := store.Open()
	if err != nil {
		return fmt.Errorf("open record store: %w", err)
	}

	ctx := context.Background()
	logger := service.StdLogger{L: log.New(stderr, "medflow ", log.LstdFlags)}
	opts := []service.Option{service.WithLogger(logger)}
	if *audioPath != "" {
		archive, err := blob.Open(ctx)
		if err != nil {
			return fmt.Errorf("open audio archive: %w", err)
		}
		opts = append(opts, service.WithAudioArchive(archive))
	}
	svc, err := service.New(genai.NewGateway(complete), reg, recordStore, opts...)
	if err != nil {
		return err
	}

	var audioKey string
	if *audioPath != "" {
		f, err := os.Open(*audioPath)
		if err != nil {
			return fmt.Errorf("open recording: %w", err)
		}
		defer func() { _ = f.Close() }()
		info, err := svc.ArchiveRecording(ctx, f, strings.TrimPrefix(ext(*audioPath), "."), "")
		if err != nil {
			return err
		}
		audioKey = info.Key
	}

	rec, visitID, err := svc.ProcessTranscript(ctx, transcript, audioKey)
	if err != nil {
		return err
	}

	soapTemplate, err := reg.Prompt("templates", "soap_note_output")
	if err != nil {
		return err
	}
	for _, section := range []string{
		render.PatientData(rec.PatientData),
		render.SOAPNote(rec.SOAPNote, soapTemplate),
		render.Document(rec.ClinicalData),
		render.LabRequisition(rec.LabRequisition),
		render.PharmacyRequisition(rec.PharmacyRequisition),
	} {
		fmt.Fprintln(stdout, section)
		fmt.Fprintln(stdout)
	}
	fmt.Fprintln(stdout, "saved visit", visitID)
	return nil
}

func runPatients(args []string, stdout io.Writer) error {
	if len(args) != 0 {
		return fmt.Errorf("patients: no arguments expected")
	}
	recordStore, err := store.Open()
	if err != nil {
		return fmt.Errorf("open record store: %w", err)
	}
	summaries, err := recordStore.Patients(context.Background())
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(stdout, "no patients stored")
		return nil
	}
	for _, s := range summaries {
		fmt.Fprintf(stdout, "%s\tMRN %s\tvisits %d\tlast %s\n", s.PatientName, orDash(s.MRN), s.VisitCount, orDash(s.LastVisit))
	}
	return nil
}

func runVisits(args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("visits: expected exactly one patient name argument")
	}
	recordStore, err := store.Open()
	if err != nil {
		return fmt.Errorf("open record store: %w", err)
	}
	visits, err := recordStore.Visits(context.Background(), args[0])
	if err != nil {
		return err
	}
	if len(visits) == 0 {
		fmt.Fprintf(stdout, "no visits stored for %s\n", args[0])
		return nil
	}
	for _, v := range visits {
		id, _ := v["visit_id"].(string)
		ts, _ := v["timestamp"].(string)
		fmt.Fprintf(stdout, "%s\t%s\n", id, orDash(ts))
	}
	return nil
}

// readTranscript loads the transcription from a file, or stdin for "-".
func readTranscript(arg string) (string, error) {
	var raw []byte
	var err error
	if arg == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(arg)
	}
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "", fmt.Errorf("transcript is empty")
	}
	return text, nil
}

func ext(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i:]
	}
	return ""
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
