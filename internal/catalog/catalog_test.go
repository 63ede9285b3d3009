package catalog

import "testing"

func TestLoadEmbedded(t *testing.T) {
	cat, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cat.Len() == 0 {
		t.Fatal("empty catalog")
	}
	for _, id := range CalculableIDs {
		def := cat.Get(id)
		if def == nil {
			t.Errorf("calculable property %d missing from catalog", id)
			continue
		}
		if def.Kind != KindNumber {
			t.Errorf("property %d kind = %q, want number", id, def.Kind)
		}
	}
}

func TestShapeOptions(t *testing.T) {
	cat, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	shape := cat.Get(PropShape)
	if shape == nil {
		t.Fatal("shape property missing")
	}
	if !shape.Enumerated() {
		t.Fatal("shape is not enumerated")
	}
	if shape.OptionText(OptShapeSquare) == OptShapeSquare {
		t.Errorf("square option %s has no text", OptShapeSquare)
	}
	if shape.OptionText(OptShapeRectangular) == OptShapeRectangular {
		t.Errorf("rectangular option %s has no text", OptShapeRectangular)
	}
}

func TestGetUnknownID(t *testing.T) {
	cat, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cat.Get(999999) != nil {
		t.Error("unknown id resolved to a definition")
	}
	if cat.Has(999999) {
		t.Error("unknown id reported as present")
	}
}

func TestFindByText(t *testing.T) {
	cat, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	def := cat.FindByText("Фабричный цвет")
	if def == nil {
		t.Fatal("factory colour property not found by text")
	}
	if def.Kind != KindText {
		t.Errorf("kind = %q, want text", def.Kind)
	}
	if cat.FindByText("нет такого свойства") != nil {
		t.Error("bogus text resolved to a definition")
	}
}

func TestIDsSortedAndCopied(t *testing.T) {
	cat, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	ids := cat.IDs()
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("ids not strictly ascending at %d: %v", i, ids)
		}
	}
	ids[0] = -1
	if cat.IDs()[0] == -1 {
		t.Error("IDs returned internal slice")
	}
}
