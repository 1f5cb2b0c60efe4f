// Copyright 2026 The ptremap Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bench

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/common/expfmt"
	"gopkg.in/yaml.v3"
)

func testReport() *Report {
	ms := time.Millisecond
	c := Config{Sequential, Read}
	var rs []Result
	rs = append(rs, results(c, Direct, 10*ms, 10*ms, 10*ms, 10*ms, 10*ms)...)
	rs = append(rs, results(c, Checked, 30*ms, 30*ms, 30*ms, 30*ms, 30*ms)...)
	return &Report{
		RunID:       "run0",
		Host:        Host{Hostname: "box", CPUModel: "cpu", CPUs: 4, Kernel: "6.1"},
		Seed:        9,
		Pages:       100,
		Repetitions: 5,
		Results:     rs,
		Comparisons: Compare(rs),
	}
}

func TestReportText(t *testing.T) {
	var b bytes.Buffer
	if err := testReport().Write(&b, FormatText); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := b.String()
	for _, want := range []string{
		"run run0: 100 pages, 5 repetitions, seed 9",
		"{direct, sequential, read, 0.010000}",
		"{checked, sequential, read, 0.030000}",
		"3.00x",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text report lacks %q:\n%s", want, out)
		}
	}
}

func TestReportCSV(t *testing.T) {
	var b bytes.Buffer
	if err := testReport().Write(&b, FormatCSV); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	recs, err := csv.NewReader(&b).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(recs) != 11 {
		t.Fatalf("%d records, want 11", len(recs))
	}
	if diff := cmp.Diff(CSVHeader, recs[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"checked", "sequential", "read", "4", "0.03", "0.015"}, recs[10]); diff != "" {
		t.Errorf("last record mismatch (-want +got):\n%s", diff)
	}
}

func TestReportProm(t *testing.T) {
	var b bytes.Buffer
	if err := testReport().Write(&b, FormatProm); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(&b)
	if err != nil {
		t.Fatalf("parsing report: %v", err)
	}
	if got := len(mfs[MetricPassSeconds].GetMetric()); got != 10 {
		t.Errorf("%d pass samples, want 10", got)
	}
	medians := map[string]float64{}
	for _, m := range mfs[MetricMedianSeconds].GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == "strategy" {
				medians[l.GetValue()] = m.GetGauge().GetValue()
			}
		}
	}
	if diff := cmp.Diff(map[string]float64{"direct": 0.01, "checked": 0.03}, medians); diff != "" {
		t.Errorf("medians mismatch (-want +got):\n%s", diff)
	}
	overhead := mfs[MetricOverhead].GetMetric()
	if len(overhead) != 1 || overhead[0].GetGauge().GetValue() != 3 {
		t.Errorf("overhead samples = %v, want one of 3", overhead)
	}
}

func TestReportYAML(t *testing.T) {
	var b bytes.Buffer
	if err := testReport().Write(&b, FormatYAML); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	var got struct {
		RunID   string `yaml:"runID"`
		Results []struct {
			Strategy string  `yaml:"strategy"`
			Elapsed  float64 `yaml:"elapsedSeconds"`
		} `yaml:"results"`
	}
	if err := yaml.Unmarshal(b.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal failed: %v\n%s", err, b.String())
	}
	if got.RunID != "run0" || len(got.Results) != 10 {
		t.Fatalf("got run %q with %d results", got.RunID, len(got.Results))
	}
	if got.Results[5].Strategy != "checked" || got.Results[5].Elapsed != 0.03 {
		t.Errorf("result 5 = %+v", got.Results[5])
	}
}

func TestReportJSON(t *testing.T) {
	var b bytes.Buffer
	if err := testReport().Write(&b, FormatJSON); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	for _, want := range []string{`"strategy": "checked"`, `"pattern": "sequential"`, `"elapsedSeconds": 0.03`} {
		if !strings.Contains(b.String(), want) {
			t.Errorf("JSON report lacks %s", want)
		}
	}
}

func TestReportHTML(t *testing.T) {
	var b bytes.Buffer
	if err := testReport().Write(&b, FormatHTML); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := b.String()
	for _, want := range []string{"<html", "checked", "ptremap run run0"} {
		if !strings.Contains(out, want) {
			t.Errorf("HTML report lacks %q", want)
		}
	}
}
