package presets

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/awmpietro/algotrace/internal/solver"
)

func TestEveryPresetSolves(t *testing.T) {
	reg := solver.NewRegistry()

	for _, alg := range Algorithms() {
		s, err := reg.Lookup(alg, "")
		if err != nil {
			t.Fatalf("preset algorithm %s is not registered: %v", alg, err)
		}
		for _, p := range List(alg) {
			in, err := s.DecodeYAML(&p.Input)
			if err != nil {
				t.Fatalf("%s/%s: decode: %v", alg, p.Name, err)
			}
			tr, err := s.Solve(in)
			if err != nil {
				t.Fatalf("%s/%s: solve: %v", alg, p.Name, err)
			}
			sol, ok := tr.Solution()
			if !ok || !sol.Found {
				t.Fatalf("%s/%s: expected a solution, got %+v", alg, p.Name, sol)
			}

			body, err := p.InputJSON()
			if err != nil {
				t.Fatalf("%s/%s: input json: %v", alg, p.Name, err)
			}
			in, err := s.DecodeJSON(body)
			if err != nil {
				t.Fatalf("%s/%s: decode json: %v", alg, p.Name, err)
			}
			fromJSON, err := s.Solve(in)
			if err != nil {
				t.Fatalf("%s/%s: solve json: %v", alg, p.Name, err)
			}
			if fromJSON.ResultValue != tr.ResultValue || len(fromJSON.Steps) != len(tr.Steps) {
				t.Fatalf("%s/%s: expected JSON and YAML input to agree", alg, p.Name)
			}
		}
	}
}

func TestAliasesShareDijkstraPresets(t *testing.T) {
	for _, alias := range []string{"prims", "kruskals"} {
		got := List(alias)
		if len(got) != 2 || got[0].Name != "Simple Grid" {
			t.Fatalf("expected %s to reuse dijkstra presets, got %+v", alias, got)
		}
	}
}

func TestGet_BySlugOrName(t *testing.T) {
	p, err := Get("dijkstra", "complex-network")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "Complex Network" {
		t.Fatalf("expected Complex Network, got %s", p.Name)
	}
	if _, err := Get("lcs", "dna sequence"); err != nil {
		t.Fatalf("expected case-insensitive name lookup, got %v", err)
	}
	if _, err := Get("lcs", "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInputJSON_KeepsMappingOrder(t *testing.T) {
	p, err := Get("dijkstra", "simple-grid")
	if err != nil {
		t.Fatal(err)
	}
	body, err := p.InputJSON()
	if err != nil {
		t.Fatal(err)
	}
	want := `{"start_node":"A","graph":{"A":{"B":2,"C":4},"B":{"A":2,"C":1,"D":7}`
	if !strings.HasPrefix(string(body), want) {
		t.Fatalf("expected ordered JSON, got %s", body)
	}
}

func TestMarshalJSON(t *testing.T) {
	p, err := Get("coin-change", "US Coins")
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		Slug  string `json:"slug"`
		Input struct {
			Amount int   `json:"amount"`
			Coins  []int `json:"coins"`
		} `json:"input"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if out.Slug != "us-coins" || out.Input.Amount != 63 || len(out.Input.Coins) != 4 {
		t.Fatalf("unexpected preset json %s", b)
	}
}

func TestParse_RejectsDanglingAlias(t *testing.T) {
	_, err := Parse([]byte("algorithms: {}\naliases: {prims: dijkstra}\n"))
	if err == nil {
		t.Fatalf("expected error for alias to unknown algorithm")
	}
}

func TestAlgorithms_Sorted(t *testing.T) {
	algs := Algorithms()
	if len(algs) != 12 {
		t.Fatalf("expected presets for 12 algorithms, got %d: %v", len(algs), algs)
	}
	for i := 1; i < len(algs); i++ {
		if algs[i-1] >= algs[i] {
			t.Fatalf("expected sorted names, got %v", algs)
		}
	}
}
