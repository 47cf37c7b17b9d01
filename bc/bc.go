// Package bc implements the boundary-condition tagged variant used at
// both edges of the radial domain, and the fail-fast validation of the
// external (possibly under- or over-specified) configuration contract
// that produces it.
package bc

import "github.com/cpmech/gosl/chk"

// Kind discriminates a boundary condition. BC is a genuine sum type in the
// sense that callers must branch on Kind — there is no sentinel value
// (e.g. NaN-as-"unset") doing double duty.
type Kind int

const (
	// Dirichlet fixes the face value to Value.
	Dirichlet Kind = iota
	// Neumann fixes the face gradient to Value.
	Neumann
)

func (k Kind) String() string {
	switch k {
	case Dirichlet:
		return "Dirichlet"
	case Neumann:
		return "Neumann"
	default:
		return "unknown"
	}
}

// BC is one boundary condition applied at one edge for one variable.
type BC struct {
	Kind  Kind
	Value float64
}

// DirichletBC constructs a Dirichlet(value) condition.
func DirichletBC(value float64) BC { return BC{Kind: Dirichlet, Value: value} }

// NeumannBC constructs a Neumann(gradient) condition.
func NeumannBC(gradient float64) BC { return BC{Kind: Neumann, Value: gradient} }

// EdgePair holds the core (ρ̂=0) and edge (ρ̂=1) boundary conditions for one
// variable.
type EdgePair struct {
	Core BC
	Edge BC
}

// Spec is the wire-level / configuration-contract representation: exactly
// one of Dirichlet/Neumann must be set per edge. This is where "both
// Dirichlet and Neumann on the same edge, or neither" (spec §7,
// Validation errors) can actually arise, since external configuration
// data cannot be trusted to respect the BC sum type the way in-memory
// code does.
type Spec struct {
	Dirichlet *float64
	Neumann   *float64
}

// Resolve validates a Spec and converts it to a BC. Fails fast (no
// recovery) on the boundary per spec §7: exactly one of Dirichlet/Neumann
// must be present.
func (s Spec) Resolve(edgeName string) BC {
	switch {
	case s.Dirichlet != nil && s.Neumann != nil:
		chk.Panic("bc: %s edge specifies both Dirichlet and Neumann; exactly one is required", edgeName)
	case s.Dirichlet == nil && s.Neumann == nil:
		chk.Panic("bc: %s edge specifies neither Dirichlet nor Neumann; exactly one is required", edgeName)
	case s.Dirichlet != nil:
		return DirichletBC(*s.Dirichlet)
	default:
		return NeumannBC(*s.Neumann)
	}
}

// EdgeSpec is the configuration-contract pair resolved into an EdgePair.
type EdgeSpec struct {
	Core Spec
	Edge Spec
}

// Resolve validates and converts an EdgeSpec into an EdgePair.
func (es EdgeSpec) Resolve(variable string) EdgePair {
	return EdgePair{
		Core: es.Core.Resolve(variable + ".core"),
		Edge: es.Edge.Resolve(variable + ".edge"),
	}
}

// DefaultTemperatureOrDensity returns the conventional BC pair used for
// Tᵢ, Tₑ, nₑ: Neumann(0) at the core, Dirichlet(edgeValue) at the edge.
func DefaultTemperatureOrDensity(edgeValue float64) EdgePair {
	return EdgePair{Core: NeumannBC(0), Edge: DirichletBC(edgeValue)}
}

// DefaultPsi returns the conventional BC pair used for ψ: Dirichlet(0) at
// the core, Neumann(edgeGradient) (proportional to plasma current Iₚ) at
// the edge.
func DefaultPsi(edgeGradient float64) EdgePair {
	return EdgePair{Core: DirichletBC(0), Edge: NeumannBC(edgeGradient)}
}
