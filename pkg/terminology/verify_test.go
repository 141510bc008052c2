package terminology

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofhir/fhir/r4"

	"github.com/gofhir/valuesets/pkg/emitter"
	"github.com/gofhir/valuesets/pkg/issue"
	"github.com/gofhir/valuesets/pkg/logger"
	"github.com/gofhir/valuesets/pkg/referential"
)

const (
	verifySystem = "http://terminology.hl7.org/CodeSystem/v3-MaritalStatus"
	verifyPath   = "Patient.maritalStatus.coding"
)

func emitSample(t *testing.T) (*referential.Accumulator, []emitter.Info, string) {
	t.Helper()

	acc := referential.New()
	key := referential.Key{System: verifySystem, Path: verifyPath}
	acc.Add(key, referential.Concept{Code: "M", Display: ptr("Married")})
	acc.Add(key, referential.Concept{Code: "S"})

	dir := t.TempDir()
	now := func() time.Time { return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC) }
	infos, err := emitter.New(dir, emitter.WithDate(now), emitter.WithLogger(logger.Discard())).
		Emit(context.Background(), acc)
	if err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	return acc, infos, dir
}

func loadEmitted(t *testing.T, svc *Service, dir string, infos []emitter.Info) {
	t.Helper()
	for _, info := range infos {
		for _, name := range []string{info.CodeSystemFile, info.Filename} {
			if _, err := svc.LoadFile(context.Background(), nil, filepath.Join(dir, name)); err != nil {
				t.Fatalf("LoadFile(%s) error = %v", name, err)
			}
		}
	}
}

func TestVerifyEmittedArtifacts(t *testing.T) {
	acc, infos, dir := emitSample(t)
	svc := NewService()
	loadEmitted(t, svc, dir, infos)

	res := issue.NewResult()
	if err := Verify(context.Background(), svc, acc, infos, res); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if len(res.Issues) != 0 {
		t.Errorf("expected no issues, got %+v", res.Issues)
	}

	expansion, err := svc.ExpandValueSet(context.Background(), infos[0].URL)
	if err != nil {
		t.Fatal(err)
	}
	if expansion.Total != 2 {
		t.Errorf("Total = %d; want 2", expansion.Total)
	}
}

func TestVerifyReportsMismatches(t *testing.T) {
	acc, infos, dir := emitSample(t)
	svc := NewService()
	loadEmitted(t, svc, dir, infos)

	// Replace the emitted CodeSystem with one that lost a code and changed a display.
	if err := svc.LoadCodeSystem(&r4.CodeSystem{
		Url:     ptr(infos[0].CodeSystemURL),
		Concept: []r4.CodeSystemConcept{{Code: ptr("M"), Display: ptr("Wed")}},
	}); err != nil {
		t.Fatal(err)
	}

	res := issue.NewResult()
	if err := Verify(context.Background(), svc, acc, infos, res); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if res.WarningCount() != 2 {
		t.Fatalf("WarningCount() = %d; want 2: %+v", res.WarningCount(), res.Issues)
	}
	if res.Issues[0].MessageID != string(issue.DiagDisplayMismatch) {
		t.Errorf("first issue = %s; want display mismatch", res.Issues[0].MessageID)
	}
	if res.Issues[1].MessageID != string(issue.DiagCodeNotInValueSet) {
		t.Errorf("second issue = %s; want code not in value set", res.Issues[1].MessageID)
	}
	if res.HasErrors() {
		t.Error("verification findings must not be errors")
	}
}

func TestVerifyMissingValueSet(t *testing.T) {
	acc, infos, _ := emitSample(t)

	res := issue.NewResult()
	if err := Verify(context.Background(), NewService(), acc, infos, res); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if len(res.Issues) != 1 || res.Issues[0].MessageID != string(issue.DiagValueSetNotFound) {
		t.Fatalf("issues = %+v; want one value set not found", res.Issues)
	}
}

func TestVerifyForeignInclude(t *testing.T) {
	acc, infos, _ := emitSample(t)
	svc := NewService()
	if err := svc.LoadValueSet(includeAll(infos[0].URL, "http://other")); err != nil {
		t.Fatal(err)
	}

	res := issue.NewResult()
	if err := Verify(context.Background(), svc, acc, infos, res); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if res.Issues[0].MessageID != string(issue.DiagCodeSystemURLMismatch) {
		t.Fatalf("first issue = %+v; want include mismatch", res.Issues[0])
	}
	if !strings.Contains(res.Issues[0].Diagnostics, infos[0].CodeSystemURL) {
		t.Errorf("Diagnostics = %q", res.Issues[0].Diagnostics)
	}
	// Both codes are missing since the included system holds nothing.
	if res.WarningCount() != 3 {
		t.Errorf("WarningCount() = %d; want 3", res.WarningCount())
	}
}
