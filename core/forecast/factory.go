package forecast

import "github.com/sunpeak/dispatchd/core/factory"

var engineRegistry = factory.NewRegistry[Engine]()

// RegisterEngine adds a forecast provider factory identified by name.
// Built-in providers register themselves; the remote endpoint provider is
// registered by its connector package.
func RegisterEngine(name string, f factory.Factory[Engine]) error {
	return engineRegistry.Register(name, f)
}

// NewEngine creates a forecast Engine from the provided configuration. An
// empty type defaults to the stub provider.
func NewEngine(cfg factory.ModuleConfig) (Engine, error) {
	if cfg.Type == "" {
		cfg.Type = "stub"
	}
	return engineRegistry.Create(cfg)
}

func init() {
	_ = RegisterEngine("stub", func(conf map[string]any) (Engine, error) {
		s := NewStub()
		var c struct {
			MW         float64 `json:"mw"`
			Confidence float64 `json:"confidence"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.MW > 0 {
			s.MW = c.MW
		}
		if c.Confidence > 0 {
			s.Confidence = c.Confidence
		}
		return s, nil
	})
}
