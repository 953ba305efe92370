package generics

import (
	"testing"

	"github.com/forge18/luanext-typechecker/pkg/types"
)

func TestBuildSubstitutionFillsDefaultsAndUnknown(t *testing.T) {
	withDefault := &types.TypeParameter{Name: "T", Default: types.String}
	noDefault := &types.TypeParameter{Name: "U"}

	subst, err := BuildSubstitution([]*types.TypeParameter{withDefault, noDefault}, []types.Type{types.Number})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subst[withDefault] != types.Number {
		t.Error("expected the supplied argument to bind T")
	}
	if subst[noDefault] != types.Unknown {
		t.Error("expected an unpaired parameter with no default to bind Unknown")
	}
}

func TestBuildSubstitutionTooManyArgsIsArityError(t *testing.T) {
	t1 := &types.TypeParameter{Name: "T"}
	_, err := BuildSubstitution([]*types.TypeParameter{t1}, []types.Type{types.Number, types.String})
	if err == nil {
		t.Fatal("expected supplying more arguments than parameters to fail")
	}
	if _, ok := err.(*ArityError); !ok {
		t.Errorf("expected an *ArityError, got %T", err)
	}
}

func TestCheckConstraintsFlagsViolation(t *testing.T) {
	param := &types.TypeParameter{Name: "T", Constraint: types.String}
	subst := Substitution{param: types.Number}

	violations := CheckConstraints(subst, []*types.TypeParameter{param}, func(src, dst types.Type) bool {
		return src.Equals(dst)
	})
	if len(violations) != 1 || violations[0].Param != param {
		t.Errorf("expected one violation for the mismatched constraint, got %v", violations)
	}
}

func TestInstantiateSubstitutesTypeParameterLeaf(t *testing.T) {
	param := &types.TypeParameter{Name: "T"}
	subst := Substitution{param: types.Number}
	if got := Instantiate(param, subst); got != types.Number {
		t.Errorf("expected T to substitute to Number, got %s", got.String())
	}
}

// TestInstantiateFunctionSubstitutesThroughParamsAndReturn exercises
// `function id<T>(v: T): T` instantiated with T := string, the generic
// identity shape spec.md §8's end-to-end scenario relies on.
func TestInstantiateFunctionSubstitutesThroughParamsAndReturn(t *testing.T) {
	param := &types.TypeParameter{Name: "T"}
	id := &types.FunctionType{
		TypeParams: []*types.TypeParameter{param},
		Params:     []types.Param{{Name: "v", Type: param}},
		Return:     param,
	}
	subst := Substitution{param: types.String}
	got := Instantiate(id, subst).(*types.FunctionType)

	if len(got.TypeParams) != 0 {
		t.Error("expected the substituted function to carry no free type parameters")
	}
	if got.Params[0].Type != types.String {
		t.Errorf("expected the parameter to substitute to string, got %s", got.Params[0].Type.String())
	}
	if got.Return != types.String {
		t.Errorf("expected the return type to substitute to string, got %s", got.Return.String())
	}
}

// TestHygienicRenameDoesNotSubstituteOwnParameter exercises the case
// hygienicRename exists to guard: a nested generic's own type parameter is
// never replaced even if the substitution map (incorrectly) targets it.
func TestHygienicRenameDoesNotSubstituteOwnParameter(t *testing.T) {
	inner := &types.TypeParameter{Name: "T"}
	nested := &types.FunctionType{TypeParams: []*types.TypeParameter{inner}, Params: []types.Param{{Name: "v", Type: inner}}, Return: inner}
	subst := Substitution{inner: types.Number}

	got := Instantiate(nested, subst).(*types.FunctionType)
	if got.Params[0].Type != inner {
		t.Error("expected the nested generic's own parameter to stay free, not be captured by the outer substitution")
	}
}

func TestInstantiateObjectTypeSubstitutesPropertyTypes(t *testing.T) {
	param := &types.TypeParameter{Name: "T"}
	box := types.NewObjectType().WithProperty("value", param)
	subst := Substitution{param: types.Boolean}

	got := Instantiate(box, subst).(*types.ObjectType)
	if got.Properties["value"].Type != types.Boolean {
		t.Errorf("expected value's type to substitute to boolean, got %s", got.Properties["value"].Type.String())
	}
}
