package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"medtriage/models"
)

var runFlags struct {
	symptoms     string
	language     string
	audioPath    string
	patientID    string
	policyNumber string
	location     string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one orchestration and print the aggregated response as JSON",
	RunE:  runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.symptoms, "symptoms", "", "Symptom description or transcript hint")
	f.StringVar(&runFlags.language, "language", "", "Language hint (BCP 47, e.g. en, es-MX)")
	f.StringVar(&runFlags.audioPath, "audio", "", "Path to an audio file to transcribe and analyze")
	f.StringVar(&runFlags.patientID, "patient-id", "", "Patient identifier for history lookup")
	f.StringVar(&runFlags.policyNumber, "policy-number", "", "Insurance policy number")
	f.StringVar(&runFlags.location, "location", "", "Caller location for dispatch")
}

func runRun(cmd *cobra.Command, _ []string) error {
	ev := models.EmergencyEvent{
		ID:           uuid.New().String(),
		SessionID:    uuid.New().String(),
		Channel:      models.ChannelCLI,
		Symptoms:     strings.TrimSpace(runFlags.symptoms),
		Language:     runFlags.language,
		PatientID:    runFlags.patientID,
		PolicyNumber: runFlags.policyNumber,
		Location:     runFlags.location,
		ReceivedAt:   time.Now().UTC(),
	}
	if runFlags.audioPath != "" {
		audio, err := os.ReadFile(runFlags.audioPath)
		if err != nil {
			return fmt.Errorf("read audio: %w", err)
		}
		ev.Audio = audio
	}
	if ev.Symptoms == "" && len(ev.Audio) == 0 {
		return errors.New("one of --symptoms or --audio is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	resp := a.orch.Process(cmd.Context(), ev)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(resp)
}
