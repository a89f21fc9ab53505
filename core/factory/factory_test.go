package factory

import "testing"

type sample struct{ Ratio float64 }

type sampleConf struct {
	Ratio float64 `json:"ratio"`
}

func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*sample]()
	if err := reg.Register("policy", func(conf map[string]any) (*sample, error) {
		var c sampleConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &sample{Ratio: c.Ratio}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	inst, err := reg.Create(ModuleConfig{Type: "policy", Conf: map[string]any{"ratio": 0.9}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inst.Ratio != 0.9 {
		t.Fatalf("expected 0.9 got %v", inst.Ratio)
	}
}

func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[int]()
	if err := reg.Register("x", func(map[string]any) (int, error) { return 1, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("x", func(map[string]any) (int, error) { return 2, nil }); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.Register("y", nil); err == nil {
		t.Fatal("expected nil factory error")
	}
	if _, err := reg.Create(ModuleConfig{Type: "missing"}); err == nil {
		t.Fatal("expected unknown type error")
	}
}
