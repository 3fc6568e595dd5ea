package scene

import "testing"

func TestAddChildReparents(t *testing.T) {
	a := NewNode("a", Vec3{})
	b := NewNode("b", Vec3{})
	child := NewNode("child", Vec3{X: 1})

	a.AddChild(child)
	b.AddChild(child)

	if len(a.Children()) != 0 {
		t.Errorf("a should have no children after reparent, got %d", len(a.Children()))
	}
	if child.Parent() != b {
		t.Error("child parent should be b")
	}
}

func TestClearDetachesSubtrees(t *testing.T) {
	root := NewNode("root", Vec3{})
	level := root.AddChild(NewNode("level", Vec3{}))
	level.AddChild(NewNode("tile", Vec3{}))

	if got := root.Count(); got != 3 {
		t.Fatalf("Count() = %d, want 3", got)
	}

	root.Clear()

	if got := root.Count(); got != 1 {
		t.Errorf("Count() after Clear = %d, want 1", got)
	}
	if level.Parent() != nil {
		t.Error("cleared child should have no parent")
	}
}

func TestVisibilityInherited(t *testing.T) {
	root := NewNode("root", Vec3{})
	leaf := root.AddChild(NewNode("level", Vec3{})).AddChild(NewNode("leaf", Vec3{}))

	if !leaf.Visible() {
		t.Fatal("leaf should start visible")
	}

	root.SetVisible(false)
	if leaf.Visible() {
		t.Error("leaf should be hidden when an ancestor is hidden")
	}

	root.SetVisible(true)
	if !leaf.Visible() {
		t.Error("leaf should be visible again")
	}
}

func TestFindKind(t *testing.T) {
	root := NewNode("root", Vec3{})
	for i := 0; i < 3; i++ {
		n := NewNode("spawn", Vec3{X: float64(i)})
		n.Kind = "spawn"
		root.AddChild(n)
	}
	root.AddChild(NewNode("wall", Vec3{}))

	if got := len(root.FindKind("spawn")); got != 3 {
		t.Errorf("FindKind(spawn) = %d, want 3", got)
	}
}

func TestDetachRoot(t *testing.T) {
	n := NewNode("solo", Vec3{})
	n.Detach()
	if n.Parent() != nil {
		t.Error("detached root should have nil parent")
	}
}
