package phase

import (
	"errors"
	"fmt"
)

// Number identifies one of the fixed development phases.
type Number int

const (
	Requirements Number = iota + 1
	CodeGeneration
	Deployment
	SelfImprovement
	Testing
	Documentation
	Debugging
	Performance
	Security
	Database
	APIDesign
	UX
	Refactoring
	Monitoring
)

// First and Last bound the valid phase numbers.
const (
	First = Requirements
	Last  = Monitoring
)

// ErrInvalidPhase indicates a phase number outside 1..14.
var ErrInvalidPhase = errors.New("invalid phase")

// Descriptor is the static description of a phase.
type Descriptor struct {
	Number      Number `json:"number"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Agent       string `json:"agent"`
}

var descriptors = [...]Descriptor{
	{Requirements, "Requirements", "Clarify goals, users and features of the project", "Phase1RequirementsAgent"},
	{CodeGeneration, "Code Generation", "Generate the application source from the requirements", "Phase2CodeGenerationAgent"},
	{Deployment, "Deployment", "Prepare build and deployment configuration", "Phase3DeploymentAgent"},
	{SelfImprovement, "Self-Improvement", "Review generated code and apply improvements", "Phase4SelfImprovementAgent"},
	{Testing, "Testing", "Generate unit and integration tests", "Phase5TestGenerationAgent"},
	{Documentation, "Documentation", "Write README, API and user documentation", "Phase6DocumentationAgent"},
	{Debugging, "Debugging", "Diagnose and fix reported defects", "Phase7DebugAgent"},
	{Performance, "Performance", "Profile and optimize hot paths", "Phase8PerformanceAgent"},
	{Security, "Security", "Audit for vulnerabilities and harden the code", "Phase9SecurityAgent"},
	{Database, "Database", "Design schema, indexes and migrations", "Phase10DatabaseAgent"},
	{APIDesign, "API Design", "Design and review the public API surface", "Phase11APIDesignAgent"},
	{UX, "UX", "Review usability and accessibility", "Phase12UXAgent"},
	{Refactoring, "Refactoring", "Restructure code without changing behavior", "Phase13RefactoringAgent"},
	{Monitoring, "Monitoring", "Set up logging, metrics and alerting", "Phase14MonitoringAgent"},
}

// Valid reports whether n is a known phase.
func (n Number) Valid() bool {
	return n >= First && n <= Last
}

// Descriptor returns the static descriptor of n.
func (n Number) Descriptor() Descriptor {
	if !n.Valid() {
		return Descriptor{Number: n, Title: fmt.Sprintf("Phase %d", int(n))}
	}
	return descriptors[n-1]
}

func (n Number) String() string {
	return fmt.Sprintf("Phase %d: %s", int(n), n.Descriptor().Title)
}

// Parse validates an integer phase number.
func Parse(v int) (Number, error) {
	n := Number(v)
	if !n.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPhase, v)
	}
	return n, nil
}

// Clamp maps out-of-range values onto the nearest valid phase.
func Clamp(v int) Number {
	switch {
	case v < int(First):
		return First
	case v > int(Last):
		return Last
	default:
		return Number(v)
	}
}

// All returns every descriptor in phase order.
func All() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors[:])
	return out
}
