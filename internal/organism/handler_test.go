package organism

import (
	"testing"

	"genecore/pkg/genetics"
	"genecore/pkg/tagtree"
)

func TestTagHandlerRoundTrip(t *testing.T) {
	h := NewTagHandler()
	item := genetics.NewItem("a", "frog", "adult")
	if _, ok := h.IndividualData(item); ok {
		t.Fatalf("expected no data on a fresh item")
	}
	data := tagtree.NewCompound()
	data.PutInt("age", 3)
	h.SetIndividualData(item, data)
	if item.Tag() == nil {
		t.Fatalf("expected root tag to be created")
	}
	got, ok := h.IndividualData(item)
	if !ok || got != data {
		t.Fatalf("expected stored compound to be returned as-is")
	}
	h.SetIndividualData(item, nil)
	if _, ok := h.IndividualData(item); ok {
		t.Fatalf("expected data to be removed")
	}
}

func TestTagHandlerIgnoresWrongKind(t *testing.T) {
	h := TagHandler{}
	item := genetics.NewItem("a", "frog", "adult")
	tag := tagtree.NewCompound()
	tag.PutString(DefaultKey, "oops")
	item.SetTag(tag)
	if _, ok := h.IndividualData(item); ok {
		t.Fatalf("non-compound value must not count as data")
	}
	h.SetIndividualData(nil, tagtree.NewCompound())
	if _, ok := h.IndividualData(nil); ok {
		t.Fatalf("nil item has no data")
	}
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	custom := TagHandler{Key: "Larva"}
	r.Register("frog", "larva", custom)
	if got := r.Lookup("frog", "larva"); got != genetics.OrganismHandler(custom) {
		t.Fatalf("expected registered handler, got %#v", got)
	}
	if got := r.Lookup("frog", "adult"); got != genetics.OrganismHandler(NewTagHandler()) {
		t.Fatalf("expected fallback handler, got %#v", got)
	}
	other := TagHandler{Key: "Other"}
	r.SetFallback(other)
	r.SetFallback(nil)
	if got := r.Lookup("fox", "adult"); got != genetics.OrganismHandler(other) {
		t.Fatalf("expected replaced fallback, got %#v", got)
	}
}
