package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/yakshavingxyz/datadance/internal/ir"
)

// Snapshot renders a result as canonical JSON:
//
//	{"cases":[{"derived":…,"name":…,"result":…,"seq":…}],"scenario":…}
//
// Run IDs are left out; they are derived from seq and content already.
func Snapshot(result *Result) ([]byte, error) {
	cases := make(ir.Array, len(result.Cases))
	for i, c := range result.Cases {
		cases[i] = ir.Object{
			"name":    ir.String(c.Name),
			"seq":     ir.Int(c.Seq),
			"result":  nonNil(c.Result),
			"derived": nonNil(c.Derived),
		}
	}
	return ir.MarshalCanonical(ir.Object{
		"scenario": ir.String(result.Scenario),
		"cases":    cases,
	})
}

func nonNil(obj ir.Object) ir.Object {
	if obj == nil {
		return ir.Object{}
	}
	return obj
}

// RunWithGolden executes a scenario, fails the test on unmet expectations,
// and compares the snapshot against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) error {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Errorf("%s: %s", scenario.Name, msg)
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
