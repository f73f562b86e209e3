package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tinytelemetry/flowdeck/internal/filter"
	"github.com/tinytelemetry/flowdeck/internal/model"
	"gopkg.in/yaml.v3"
)

func sampleFlows() []model.Flow {
	return []model.Flow{
		{ID: "1", Method: "GET", URL: "https://api.example.com/users", Status: model.IntPtr(200)},
		{ID: "2", Method: "POST", URL: "https://api.example.com/orders", Status: model.IntPtr(503)},
		{ID: "3", Method: "GET", URL: "https://api.example.com/health"},
	}
}

func TestWriteFlows_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := writeFlows(&buf, "json", sampleFlows(), 3); err != nil {
		t.Fatalf("writeFlows: %v", err)
	}

	var out struct {
		Flows []model.Flow `json:"flows"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if len(out.Flows) != 3 {
		t.Fatalf("decoded %d flows, want 3", len(out.Flows))
	}
	if out.Flows[1].ID != "2" || *out.Flows[1].Status != 503 {
		t.Fatalf("unexpected second flow: %+v", out.Flows[1])
	}
	if out.Flows[2].Status != nil {
		t.Fatalf("flow without response should keep a null status")
	}
}

func TestWriteFlows_JSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := writeFlows(&buf, "json", nil, 0); err != nil {
		t.Fatalf("writeFlows: %v", err)
	}
	if !strings.Contains(buf.String(), `"flows": []`) {
		t.Fatalf("empty list should encode as an array, got %s", buf.String())
	}
}

func TestWriteFlows_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := writeFlows(&buf, "yaml", sampleFlows()[:2], 3); err != nil {
		t.Fatalf("writeFlows: %v", err)
	}

	var out map[string][]map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	flows := out["flows"]
	if len(flows) != 2 {
		t.Fatalf("decoded %d flows, want 2", len(flows))
	}
	if flows[0]["method"] != "GET" || flows[1]["status"] != 503 {
		t.Fatalf("unexpected flows: %v", flows)
	}
}

func TestWriteFlows_Table(t *testing.T) {
	var buf bytes.Buffer
	if err := writeFlows(&buf, "table", sampleFlows()[:2], 1500); err != nil {
		t.Fatalf("writeFlows: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"METHOD", "STATUS", "/orders", "503", "2 of 1,500 flows"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}

func TestWriteFlows_TableMissingStatus(t *testing.T) {
	var buf bytes.Buffer
	if err := writeFlows(&buf, "", sampleFlows()[2:], 3); err != nil {
		t.Fatalf("writeFlows: %v", err)
	}
	if !strings.Contains(buf.String(), "/health") || !strings.Contains(buf.String(), " - ") {
		t.Fatalf("flow without status should render '-':\n%s", buf.String())
	}
}

func TestWriteFlows_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := writeFlows(&buf, "xml", sampleFlows(), 3); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestFilterFlags_Criteria(t *testing.T) {
	f := filterFlags{search: "users", method: "all", status: "2xx"}
	c, err := f.criteria()
	if err != nil {
		t.Fatalf("criteria: %v", err)
	}
	if c.Method != filter.AllMethods || c.Status != filter.Status2xx || c.Search != "users" {
		t.Fatalf("criteria = %+v", c)
	}

	visible := filter.Visible(sampleFlows(), c)
	if len(visible) != 1 || visible[0].ID != "1" {
		t.Fatalf("visible = %+v", visible)
	}

	if _, err := (filterFlags{method: "ALL", status: "6xx"}).criteria(); err == nil {
		t.Fatal("expected error for unknown status filter")
	}
}
