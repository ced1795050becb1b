package archive

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"bandsim/internal/engine"
)

// A record produced by NewRecord must satisfy the published schema, so
// external consumers can rely on it.
func TestRunRecordMatchesSchema(t *testing.T) {
	schema, err := jsonschema.Compile(filepath.Join("schemas", "run_record.schema.json"))
	if err != nil {
		t.Fatalf("compile schema: %v", err)
	}

	rec := NewRecord("poverty_point", 42, []engine.Results{
		{
			ScenarioName: "poverty_point",
			Seed:         42,
			Years: []engine.YearState{
				{Year: 1, Sigma: 0.22, Bands: 30, Population: 750,
					MeanBandSize: 25, AggregatorShare: 0.1, MeanResources: 0.55},
				{Year: 2, Sigma: 0.24, ShortfallActive: true, ShortfallMagnitude: 0.45,
					Bands: 29, Population: 710, Attendance: 3, Headcount: 80,
					MeanBandSize: 24.5, MeanResources: 0.4, MonumentVolume: 0.6,
					ExoticsTotal: 1, ObligationTies: 4},
			},
			Summary: engine.Summary{
				MeanSigma:            0.23,
				MeanAggregatorShare:  0.1,
				FinalAggregatorShare: 0.1,
				Dominant:             "independence",
			},
		},
	})

	raw, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if err := schema.Validate(v); err != nil {
		t.Fatalf("record violates schema: %v", err)
	}
}

func TestSchemaRejectsBadRecord(t *testing.T) {
	schema, err := jsonschema.Compile(filepath.Join("schemas", "run_record.schema.json"))
	if err != nil {
		t.Fatalf("compile schema: %v", err)
	}

	var v any
	_ = json.Unmarshal([]byte(`{"id": "short", "scenario": ""}`), &v)
	if err := schema.Validate(v); err == nil {
		t.Fatal("schema accepted a malformed record")
	}
}
