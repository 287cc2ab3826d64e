// Package kind declares node kinds: the fixed port and control schema that
// every node of a kind shares.
//
// # Definitions
//
// A [Definition] names its input ports, output ports and controls. Each port
// is bound to a [socket.Kind]; the binding is fixed per kind, so sockets are
// never stored on a graph or in a document. They are derived from the kind.
//
//	reg := socket.Reference()
//	set := kind.Reference(reg)
//	def, _ := set.Lookup("NodeB")
//	in, _ := def.Input("b")   // PortSpec{Name: "b", Socket: "NodeBSocket"}
//
// Lookups on a definition are checked: [Definition.Input], [Definition.Output]
// and [Definition.Control] report whether the name exists rather than
// returning a zero value silently.
//
// # Controls
//
// Controls are typed editable values. [ControlType.Coerce] converts a
// caller-supplied value into the canonical representation for its type:
//
//	text, multiline   string
//	number            float64 (any Go integer or float is accepted)
//
// # Definition Files
//
// New sockets and kinds can be added without code changes by loading a TOML
// file with [LoadTOML]:
//
//	sockets = ["Number", "Text"]
//
//	[[compatible]]
//	source = "Number"
//	target = "Text"
//
//	[[kinds]]
//	name = "Constant"
//	group = "Math"
//	width = 180
//	height = 120
//	outputs = [{ name = "out", socket = "Number" }]
//	controls = [{ name = "value", type = "number", default = 0 }]
package kind
