package socket

import (
	"testing"

	"github.com/matzehuels/nodewire/pkg/errors"
)

func TestReferenceSelfCompatibleOnly(t *testing.T) {
	reg := Reference()
	kinds := reg.Kinds()
	if len(kinds) != 3 {
		t.Fatalf("Kinds() = %v, want 3 kinds", kinds)
	}

	for _, a := range kinds {
		for _, b := range kinds {
			want := a == b
			if got := reg.Compatible(a, b); got != want {
				t.Errorf("Compatible(%s, %s) = %v, want %v", a, b, got, want)
			}
		}
	}
}

func TestAllowIsDirectional(t *testing.T) {
	reg := NewRegistry("Number", "Text")
	if err := reg.Allow("Number", "Text"); err != nil {
		t.Fatalf("Allow: %v", err)
	}

	if !reg.Compatible("Number", "Text") {
		t.Error("Compatible(Number, Text) = false, want true")
	}
	if reg.Compatible("Text", "Number") {
		t.Error("Compatible(Text, Number) = true, want false")
	}

	edges := reg.Edges()
	if len(edges["Number"]) != 1 || edges["Number"][0] != "Text" {
		t.Errorf("Edges() = %v, want Number -> [Text]", edges)
	}
}

func TestUndeclaredNeverCompatible(t *testing.T) {
	reg := Reference()
	if reg.Compatible("Ghost", "Ghost") {
		t.Error("undeclared kinds must not be compatible, even with themselves")
	}
	if reg.Compatible(NodeA, "Ghost") {
		t.Error("Compatible(NodeASocket, Ghost) = true, want false")
	}
}

func TestDeclareErrors(t *testing.T) {
	reg := Reference()

	tests := []struct {
		name  string
		kinds []Kind
	}{
		{"duplicate existing", []Kind{NodeA}},
		{"duplicate in call", []Kind{"X", "X"}},
		{"invalid name", []Kind{"bad name"}},
		{"empty", []Kind{""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.Declare(tt.kinds...)
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("Declare(%v) error = %v, want %s", tt.kinds, err, errors.ErrCodeInvalidInput)
			}
		})
	}

	if reg.Has("X") {
		t.Error("failed Declare must not add any kind")
	}
}

func TestAllowUnknown(t *testing.T) {
	reg := Reference()
	if err := reg.Allow(NodeA, "Ghost"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Allow(NodeASocket, Ghost) error = %v, want %s", err, errors.ErrCodeInvalidInput)
	}
	if err := reg.Allow("Ghost", NodeA); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Allow(Ghost, NodeASocket) error = %v, want %s", err, errors.ErrCodeInvalidInput)
	}
}

func TestNewRegistryPanicsOnDuplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewRegistry with duplicate kinds should panic")
		}
	}()
	NewRegistry("A", "A")
}
