// Package gpufield renders the noise color field on the GPU.
//
// Field runs the compute program from package shader through
// gogpu/wgpu's HAL: one dispatch per frame writes packed RGBA into a
// storage buffer, which is copied to a staging buffer and read back into
// the field pixmap. Time and sampling follow field.NoiseField exactly, so
// the two are interchangeable behind field.Field.
//
// Hosts opt in through a glowtext.FieldFactory:
//
//	f, err := glowtext.New(q, opts,
//	    glowtext.WithFieldFactory(gpufield.NewFactory(gpufield.Config{Fallback: true})),
//	)
//
// Without an adapter the factory either falls back to the CPU noise field
// or returns ErrNoAdapter, which puts the component in degraded mode.
package gpufield
