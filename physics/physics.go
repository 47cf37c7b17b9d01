// Package physics defines the collaborator contracts consumed by the
// coefficient builder: transport, source, pedestal, MHD and neoclassical
// models. None of these are implemented here — per spec §1 their internal
// physics is out of scope — only the callback contract and the unit
// discipline on source terms.
package physics

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
	"github.com/plasmacore/tokamak-core/mesh"
	"github.com/plasmacore/tokamak-core/profile"
	"github.com/plasmacore/tokamak-core/tensor"
)

// Unit tags a source term's physical unit so the builder can refuse to
// mix them (spec §7, "Unit / kind mismatch").
type Unit int

const (
	// EVPerM3PerS is the internal unit: eV·m⁻³·s⁻¹.
	EVPerM3PerS Unit = iota
	// MWPerM3 is the external/IO unit some source models report in.
	MWPerM3
)

func (u Unit) String() string {
	switch u {
	case EVPerM3PerS:
		return "eV·m⁻³·s⁻¹"
	case MWPerM3:
		return "MW/m³"
	default:
		return "unknown unit"
	}
}

// MWToEVPerM3PerS is the exact conversion factor from MW/m³ to eV·m⁻³·s⁻¹
// (spec §4.3, E5): 1 MW/m³ = 6.2415090744e24 eV·m⁻³·s⁻¹, since
// 1 MJ = 1/1.602176634e-19 eV·1e-... — the constant is pinned by spec
// rather than re-derived, so it is kept as a named literal.
const MWToEVPerM3PerS = 6.2415090744e24

// Params is the per-model parameter database, wired via gosl/fun the way
// the teacher's material models are (mdl/diffusion/m1.go's Init).
type Params = fun.Prms

// TransportCoeffs is what a TransportModel reports per spec §6.
type TransportCoeffs struct {
	ChiI, ChiE, D, V tensor.T // each shape [N]
}

// TransportModel computes transport (diffusivity/convection) coefficients
// from the current profiles and geometry.
type TransportModel interface {
	Compute(p profile.Profiles, g mesh.Geometry, params Params) (TransportCoeffs, error)
}

// SourceTerm is one named contribution to a source array, tagged with its
// unit so the builder can convert or reject it.
type SourceTerm struct {
	Name   string
	Values tensor.T // [N]
	Unit   Unit
}

// SourceModel computes one or more heating/particle/current source terms.
type SourceModel interface {
	Compute(p profile.Profiles, g mesh.Geometry, params Params) ([]SourceTerm, error)
}

// PedestalModel, MHDModel and NeoclassicalModel are optional, advisory
// collaborators with the same profile/geometry/params shape as
// TransportModel; they are consulted by a Builder only if configured.
type PedestalModel interface {
	Compute(p profile.Profiles, g mesh.Geometry, params Params) (TransportCoeffs, error)
}

type MHDModel interface {
	Compute(p profile.Profiles, g mesh.Geometry, params Params) ([]SourceTerm, error)
}

type NeoclassicalModel interface {
	Compute(p profile.Profiles, g mesh.Geometry, params Params) ([]SourceTerm, error)
}

// ConvertToEVPerM3PerS converts a MW/m³ source term into the internal
// eV·m⁻³·s⁻¹ unit. It is the only place that factor is ever applied —
// coeff.Builder calls this at its boundary and never stores a term without
// converting first (spec §4.3: "The builder never leaves mixed units.").
func ConvertToEVPerM3PerS(term SourceTerm) SourceTerm {
	if term.Unit == EVPerM3PerS {
		return term
	}
	if term.Unit != MWPerM3 {
		chk.Panic("physics: source term %q has unrecognized unit %v", term.Name, term.Unit)
	}
	v := term.Values.Value()
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x * MWToEVPerM3PerS
	}
	return SourceTerm{
		Name:   term.Name,
		Values: tensor.FromValues(out, term.Values.Shape()),
		Unit:   EVPerM3PerS,
	}
}
