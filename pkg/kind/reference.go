package kind

import "github.com/matzehuels/nodewire/pkg/socket"

// Reference kind names.
const (
	NodeA = "NodeA"
	NodeB = "NodeB"
	NodeC = "NodeC"
)

// ReferenceDefinitions returns the built-in node kinds. NodeA feeds NodeB
// through NodeBSocket, and NodeB feeds NodeC through NodeCSocket.
func ReferenceDefinitions() []Definition {
	return []Definition{
		{
			Name:     NodeA,
			Outputs:  []PortSpec{{Name: "a", Socket: socket.NodeB}},
			Controls: []ControlSpec{{Name: "a", Type: ControlText}},
			Width:    200,
			Height:   140,
		},
		{
			Name:    NodeB,
			Group:   "Extra",
			Inputs:  []PortSpec{{Name: "b", Socket: socket.NodeB}},
			Outputs: []PortSpec{{Name: "c", Socket: socket.NodeC}},
			Controls: []ControlSpec{
				{Name: "b", Type: ControlText, Label: "my value"},
				{Name: "b2", Type: ControlText},
			},
			Width:  200,
			Height: 180,
		},
		{
			Name:     NodeC,
			Group:    "Extra",
			Inputs:   []PortSpec{{Name: "c", Socket: socket.NodeC}},
			Controls: []ControlSpec{{Name: "c", Type: ControlText}},
			Width:    200,
			Height:   140,
		},
	}
}

// Reference returns a set holding the built-in kinds. The registry must
// declare the reference sockets; it panics otherwise.
func Reference(reg *socket.Registry) *Set {
	set := NewSet(reg)
	for _, def := range ReferenceDefinitions() {
		if err := set.Register(def); err != nil {
			panic(err)
		}
	}
	return set
}
