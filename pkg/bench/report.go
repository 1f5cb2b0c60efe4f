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
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	echartstypes "github.com/go-echarts/go-echarts/v2/types"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"gopkg.in/yaml.v3"
)

// Report is the outcome of a completed run.
type Report struct {
	RunID       string       `json:"runID" yaml:"runID"`
	Host        Host         `json:"host" yaml:"host"`
	Seed        uint64       `json:"seed" yaml:"seed"`
	Pages       int          `json:"pages" yaml:"pages"`
	Repetitions int          `json:"repetitions" yaml:"repetitions"`
	Results     []Result     `json:"results" yaml:"results"`
	Comparisons []Comparison `json:"comparisons" yaml:"comparisons"`
}

// Format is a report encoding.
type Format int

// Report formats.
const (
	FormatText Format = iota
	FormatJSON
	FormatYAML
	FormatCSV
	FormatProm
	FormatHTML
)

var formatNames = []string{"text", "json", "yaml", "csv", "prom", "html"}

// String implements fmt.Stringer.String.
func (f Format) String() string {
	if int(f) < 0 || int(f) >= len(formatNames) {
		return fmt.Sprintf("Format(%d)", int(f))
	}
	return formatNames[f]
}

// Set implements flag.Value.Set.
func (f *Format) Set(v string) error {
	for i, name := range formatNames {
		if v == name {
			*f = Format(i)
			return nil
		}
	}
	return fmt.Errorf("invalid report format %q, must be one of %v", v, formatNames)
}

// Get implements flag.Getter.Get.
func (f *Format) Get() any {
	return *f
}

// UnmarshalText implements encoding.TextUnmarshaler.UnmarshalText.
func (f *Format) UnmarshalText(text []byte) error {
	return f.Set(string(text))
}

// MarshalText implements encoding.TextMarshaler.MarshalText.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// Write encodes r to w in format f.
func (r *Report) Write(w io.Writer, f Format) error {
	switch f {
	case FormatText:
		return r.writeText(w)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatCSV:
		return r.writeCSV(w)
	case FormatProm:
		return r.writeProm(w)
	case FormatHTML:
		return r.writeHTML(w)
	default:
		return fmt.Errorf("unknown report format %v", f)
	}
}

func (r *Report) writeText(w io.Writer) error {
	fmt.Fprintf(w, "run %s: %d pages, %d repetitions, seed %d\n", r.RunID, r.Pages, r.Repetitions, r.Seed)
	if r.Host.CPUModel != "" || r.Host.Kernel != "" {
		fmt.Fprintf(w, "host %s: %s, %d CPUs, kernel %s, %s\n", r.Host.Hostname, r.Host.CPUModel, r.Host.CPUs, r.Host.Kernel, r.Host.Go)
	}
	fmt.Fprintln(w)
	for _, res := range r.Results {
		fmt.Fprintln(w, res)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "UNIT\tDIRECT\tCHECKED\tOVERHEAD\tMIN/MAX CHECKED\tCPU DIRECT\tCPU CHECKED\tMONOTONIC")
	for _, c := range r.Comparisons {
		fmt.Fprintf(tw, "%v\t%v\t%v\t%.2fx\t%v/%v\t%v\t%v\t%t\n",
			c.Config,
			c.Direct.Median.Round(time.Microsecond),
			c.Checked.Median.Round(time.Microsecond),
			c.Overhead,
			c.Checked.Min.Round(time.Microsecond),
			c.Checked.Max.Round(time.Microsecond),
			c.Direct.MedianCPU.Round(time.Microsecond),
			c.Checked.MedianCPU.Round(time.Microsecond),
			c.Monotonic)
	}
	return tw.Flush()
}

// CSVHeader is the first record of the CSV encoding.
var CSVHeader = []string{"strategy", "pattern", "operation", "repetition", "elapsed_seconds", "cpu_seconds"}

func (r *Report) writeCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, res := range r.Results {
		rec := []string{
			res.Strategy.String(),
			res.Pattern.String(),
			res.Op.String(),
			strconv.Itoa(res.Repetition),
			strconv.FormatFloat(res.ElapsedSeconds, 'g', -1, 64),
			strconv.FormatFloat(res.CPUSeconds, 'g', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Metric names of the Prometheus encoding.
const (
	MetricPassSeconds   = "ptremap_pass_seconds"
	MetricMedianSeconds = "ptremap_median_seconds"
	MetricOverhead      = "ptremap_checked_overhead_ratio"
)

func label(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: &name, Value: &value}
}

func gauge(v float64, labels ...*dto.LabelPair) *dto.Metric {
	return &dto.Metric{Label: labels, Gauge: &dto.Gauge{Value: &v}}
}

func family(name, help string, ms []*dto.Metric) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   &name,
		Help:   &help,
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: ms,
	}
}

func (r *Report) writeProm(w io.Writer) error {
	run := label("run", r.RunID)
	var passes, medians, overheads []*dto.Metric
	for _, res := range r.Results {
		passes = append(passes, gauge(res.ElapsedSeconds,
			run,
			label("strategy", res.Strategy.String()),
			label("pattern", res.Pattern.String()),
			label("operation", res.Op.String()),
			label("repetition", strconv.Itoa(res.Repetition))))
	}
	for _, c := range r.Comparisons {
		p, o := label("pattern", c.Config.Pattern.String()), label("operation", c.Config.Op.String())
		medians = append(medians,
			gauge(c.Direct.Median.Seconds(), run, label("strategy", Direct.String()), p, o),
			gauge(c.Checked.Median.Seconds(), run, label("strategy", Checked.String()), p, o))
		overheads = append(overheads, gauge(c.Overhead, run, p, o))
	}
	for _, mf := range []*dto.MetricFamily{
		family(MetricPassSeconds, "Wall time of one pass over the region.", passes),
		family(MetricMedianSeconds, "Median pass wall time per strategy and unit.", medians),
		family(MetricOverhead, "Checked median divided by direct median.", overheads),
	} {
		if len(mf.Metric) == 0 {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encoding %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

func (r *Report) writeHTML(w io.Writer) error {
	bar := charts.NewBar()
	units := make([]string, 0, len(r.Comparisons))
	direct := make([]opts.BarData, 0, len(r.Comparisons))
	checked := make([]opts.BarData, 0, len(r.Comparisons))
	for _, c := range r.Comparisons {
		units = append(units, c.Config.String())
		direct = append(direct, opts.BarData{Value: c.Direct.Median.Seconds() * 1e3})
		checked = append(checked, opts.BarData{Value: c.Checked.Median.Seconds() * 1e3})
	}
	bar.SetXAxis(units).
		AddSeries(Direct.String(), direct).
		AddSeries(Checked.String(), checked)
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Median pass time (ms)",
			Subtitle: fmt.Sprintf("%d pages, %d repetitions", r.Pages, r.Repetitions),
		}),
		charts.WithInitializationOpts(opts.Initialization{Theme: echartstypes.ThemeVintage}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ms", Show: true}, 0),
		charts.WithLegendOpts(opts.Legend{Show: true, Right: "5%"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithToolboxOpts(opts.Toolbox{
			Show: true,
			Feature: &opts.ToolBoxFeature{
				SaveAsImage: &opts.ToolBoxFeatureSaveAsImage{Name: "png", Show: true, Type: "png"},
			},
		}),
	)
	bar.Validate()

	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("ptremap run %s", r.RunID)
	page.Theme = echartstypes.ThemeVintage
	page.AddCharts(bar)
	page.InitAssets()
	page.Validate()
	if err := page.Render(w); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}
	return nil
}
