package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"sensornode/protocol"
)

func TestLinePrinterWaitsForNewline(t *testing.T) {
	var out bytes.Buffer
	p := &linePrinter{w: &out}

	p.flush("\nHel", false)
	p.flush("\nHello Wor", false)
	if out.String() != "" {
		t.Errorf("Expected nothing printed before a line completes, got %q", out.String())
	}
	p.flush("\nHello World\ntemp", false)
	p.flush("\nHello World\ntemp = 72.5 F\n", false)
	p.flush("\nHello World\ntemp = 72.5 F\npart", true)

	want := "Hello World\ntemp = 72.5 F\npart\n"
	if out.String() != want {
		t.Errorf("Expected %q, got %q", want, out.String())
	}
}

func TestRunDevicePrintsWholeLines(t *testing.T) {
	defer func(n int, c, p, tr string) {
		runReports, configPath, runPort, runTrace = n, c, p, tr
	}(runReports, configPath, runPort, runTrace)
	runReports, configPath, runPort, runTrace = 2, "", "", ""

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(&out)
	if err := runDevice(cmd, nil); err != nil {
		t.Fatalf("runDevice failed: %v", err)
	}

	want := []string{
		"Passed Circular Buffer Test",
		"Hello World",
		"Sensor node up",
		"temp = 72.5 F",
		"temp = 72.5 F",
	}
	if diff := cmp.Diff(want, protocol.SplitLines(out.String())); diff != "" {
		t.Errorf("printed lines mismatch (-want +got):\n%s", diff)
	}
}
