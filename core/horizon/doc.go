// Package horizon builds normalized optimization horizons from heterogeneous
// upstream inputs: a forecast that may already be multi-interval, plant
// metadata, and an optional live weather snapshot. It owns the trusted merge
// of plant parameters (telemetry over explicit config over defaults) and the
// grid-limit policy that models interconnect and inverter clipping.
package horizon
