package contextstore

import "testing"

func TestContext_FlatKeyWithDotsCoexistsWithNestedPath(t *testing.T) {
	c := New()
	c.Set("user", Map(map[string]Value{"role": Str("nested")}))
	c.Set("user.role", Str("flat"))

	flat, ok := c.Lookup("user.role")
	if !ok || flat.S != "flat" {
		t.Fatalf("flat key user.role = %+v, want literal flat entry", flat)
	}

	nested, ok := c.Lookup("user")
	if !ok || nested.Kind != KindMap || nested.M["role"].S != "nested" {
		t.Fatalf("user map lookup = %+v, want nested role", nested)
	}
}

func TestContext_DottedLookupThroughNestedMaps(t *testing.T) {
	c := New()
	c.Set("project", Map(map[string]Value{
		"owner": Map(map[string]Value{
			"name": Str("ada"),
		}),
	}))
	v, ok := c.Lookup("project.owner.name")
	if !ok || v.S != "ada" {
		t.Fatalf("project.owner.name = %+v, want ada", v)
	}
}

func TestContext_DottedLookupFailsThroughNonMapIntermediate(t *testing.T) {
	c := New()
	c.Set("count", Int(5))
	if _, ok := c.Lookup("count.value"); ok {
		t.Fatal("lookup through a non-map intermediate should fail, not panic or shadow")
	}
}

func TestMerge_IsShallowPerTopLevelKey(t *testing.T) {
	base := map[string]Value{
		"project": Map(map[string]Value{"name": Str("base"), "keep": Str("yes")}),
		"stage":   Str("base-stage"),
	}
	overrides := map[string]Value{
		"project": Map(map[string]Value{"name": Str("override")}),
	}
	merged := Merge(base, overrides)

	project, ok := merged.Lookup("project")
	if !ok || project.M["name"].S != "override" {
		t.Fatalf("project.name after merge = %+v, want override", project)
	}
	if _, ok := project.M["keep"]; ok {
		t.Fatal("merge must replace the whole nested map, not deep-merge; 'keep' should be gone")
	}
	stage, ok := merged.Lookup("stage")
	if !ok || stage.S != "base-stage" {
		t.Fatalf("stage after merge = %+v, want base-stage (untouched by overrides)", stage)
	}
}

func TestValidateKey(t *testing.T) {
	valid := []string{"user", "_private", "user.role", "a1.b2"}
	for _, k := range valid {
		if err := ValidateKey(k); err != nil {
			t.Errorf("ValidateKey(%q) = %v, want nil", k, err)
		}
	}
	invalid := []string{"", "1abc", "user-role", "user role", "user;rm"}
	for _, k := range invalid {
		if err := ValidateKey(k); err == nil {
			t.Errorf("ValidateKey(%q) = nil, want error", k)
		}
	}
}
