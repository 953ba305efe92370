package typeenv

import (
	"github.com/forge18/luanext-typechecker/pkg/source"
	"github.com/forge18/luanext-typechecker/pkg/types"
)

var utilityNames = map[string]bool{
	"Pick": true, "Omit": true, "Partial": true, "Required": true,
	"Readonly": true, "Record": true, "Exclude": true, "Extract": true,
	"NonNullable": true, "ReturnType": true, "InstanceType": true,
	"Parameters": true, "ThisType": true, "Keyof": true,
}

func isUtilityName(name string) bool { return utilityNames[name] }

// UtilityError is reported with diagnostics.UtilityMisapplied when a
// utility type's argument does not meet its shape requirement.
type UtilityError struct {
	Name   string
	Reason string
}

func (u *UtilityError) Error() string { return u.Name + ": " + u.Reason }

// EvalUtility applies the named utility-type operator to args, per spec.md
// §6's reserved-name table. args have already been resolved to ground
// types by the caller.
func (e *Env) EvalUtility(name string, args []types.Type, span source.Span) (types.Type, error) {
	switch name {
	case "Pick":
		return e.evalPick(args, span)
	case "Omit":
		return e.evalOmit(args, span)
	case "Partial":
		return e.evalPartial(args, span, true)
	case "Required":
		return e.evalPartial(args, span, false)
	case "Readonly":
		return e.evalReadonly(args, span)
	case "Record":
		return e.evalRecord(args, span)
	case "Exclude":
		return e.evalExclude(args, span)
	case "Extract":
		return e.evalExtract(args, span)
	case "NonNullable":
		return e.evalNonNullable(args, span)
	case "ReturnType":
		return e.evalReturnType(args, span)
	case "InstanceType":
		return e.evalInstanceType(args, span)
	case "Parameters":
		return e.evalParameters(args, span)
	case "ThisType":
		if len(args) != 1 {
			return nil, &UtilityError{name, "expects exactly one type argument"}
		}
		return args[0], nil
	case "Keyof":
		if len(args) != 1 {
			return nil, &UtilityError{name, "expects exactly one type argument"}
		}
		return e.EvalKeyof(args[0], span)
	}
	return nil, &UtilityError{name, "unknown utility type"}
}

func asObject(t types.Type) (*types.ObjectType, bool) {
	switch v := t.(type) {
	case *types.ObjectType:
		return v, true
	case *types.InterfaceType:
		return v.Members, true
	case *types.ClassType:
		return v.Members, true
	}
	return nil, false
}

// keyLiterals returns the set of string keys a union-of-literals (or a
// single literal) denotes, for Pick/Omit/Record's key argument.
func keyLiterals(t types.Type) ([]string, bool) {
	var out []string
	for _, m := range types.UnionMembers(t) {
		lit, ok := m.(*types.LiteralType)
		if !ok || lit.Kind != types.LiteralString {
			return nil, false
		}
		out = append(out, lit.Text)
	}
	return out, true
}

func (e *Env) evalPick(args []types.Type, span source.Span) (types.Type, error) {
	if len(args) != 2 {
		return nil, &UtilityError{"Pick", "expects two type arguments"}
	}
	obj, ok := asObject(args[0])
	if !ok {
		return nil, &UtilityError{"Pick", "first argument must be an object, interface, or class type"}
	}
	keys, ok := keyLiterals(args[1])
	if !ok {
		return nil, &UtilityError{"Pick", "second argument must be a string literal or union of string literals"}
	}
	out := types.NewObjectType()
	out.Span = span
	for _, k := range keys {
		prop, ok := obj.Properties[k]
		if !ok {
			return nil, &UtilityError{"Pick", "key " + k + " does not exist on the source type"}
		}
		p := *prop
		out.Properties[k] = &p
	}
	return out, nil
}

func (e *Env) evalOmit(args []types.Type, span source.Span) (types.Type, error) {
	if len(args) != 2 {
		return nil, &UtilityError{"Omit", "expects two type arguments"}
	}
	obj, ok := asObject(args[0])
	if !ok {
		return nil, &UtilityError{"Omit", "first argument must be an object, interface, or class type"}
	}
	keys, ok := keyLiterals(args[1])
	if !ok {
		return nil, &UtilityError{"Omit", "second argument must be a string literal or union of string literals"}
	}
	excluded := make(map[string]bool, len(keys))
	for _, k := range keys {
		excluded[k] = true
	}
	out := types.NewObjectType()
	out.Span = span
	for name, prop := range obj.Properties {
		if !excluded[name] {
			p := *prop
			out.Properties[name] = &p
		}
	}
	return out, nil
}

func (e *Env) evalPartial(args []types.Type, span source.Span, makeOptional bool) (types.Type, error) {
	label := "Required"
	if makeOptional {
		label = "Partial"
	}
	if len(args) != 1 {
		return nil, &UtilityError{label, "expects exactly one type argument"}
	}
	obj, ok := asObject(args[0])
	if !ok {
		return nil, &UtilityError{label, "argument must be an object, interface, or class type"}
	}
	out := types.NewObjectType()
	out.Span = span
	for name, prop := range obj.Properties {
		p := *prop
		p.Optional = makeOptional
		out.Properties[name] = &p
	}
	return out, nil
}

func (e *Env) evalReadonly(args []types.Type, span source.Span) (types.Type, error) {
	if len(args) != 1 {
		return nil, &UtilityError{"Readonly", "expects exactly one type argument"}
	}
	obj, ok := asObject(args[0])
	if !ok {
		return nil, &UtilityError{"Readonly", "argument must be an object, interface, or class type"}
	}
	out := types.NewObjectType()
	out.Span = span
	for name, prop := range obj.Properties {
		p := *prop
		p.Readonly = true
		out.Properties[name] = &p
	}
	return out, nil
}

func (e *Env) evalRecord(args []types.Type, span source.Span) (types.Type, error) {
	if len(args) != 2 {
		return nil, &UtilityError{"Record", "expects two type arguments"}
	}
	out := types.NewObjectType()
	out.Span = span
	if keys, ok := keyLiterals(args[0]); ok {
		for _, k := range keys {
			out.Properties[k] = &types.Property{Type: args[1]}
		}
		return out, nil
	}
	if args[0] == types.String {
		out.Index = &types.IndexSignature{KeyKind: types.StringKey, Value: args[1]}
		return out, nil
	}
	if args[0] == types.Number {
		out.Index = &types.IndexSignature{KeyKind: types.NumberKey, Value: args[1]}
		return out, nil
	}
	return nil, &UtilityError{"Record", "first argument must be string, number, or a union of string literals"}
}

func (e *Env) evalExclude(args []types.Type, span source.Span) (types.Type, error) {
	if len(args) != 2 {
		return nil, &UtilityError{"Exclude", "expects two type arguments"}
	}
	var kept []types.Type
	for _, m := range types.UnionMembers(args[0]) {
		if !overlapsAny(m, types.UnionMembers(args[1])) {
			kept = append(kept, m)
		}
	}
	return types.NewUnionType(kept...), nil
}

func (e *Env) evalExtract(args []types.Type, span source.Span) (types.Type, error) {
	if len(args) != 2 {
		return nil, &UtilityError{"Extract", "expects two type arguments"}
	}
	var kept []types.Type
	for _, m := range types.UnionMembers(args[0]) {
		if overlapsAny(m, types.UnionMembers(args[1])) {
			kept = append(kept, m)
		}
	}
	return types.NewUnionType(kept...), nil
}

func overlapsAny(m types.Type, candidates []types.Type) bool {
	for _, c := range candidates {
		if m.Equals(c) {
			return true
		}
	}
	return false
}

func (e *Env) evalNonNullable(args []types.Type, span source.Span) (types.Type, error) {
	if len(args) != 1 {
		return nil, &UtilityError{"NonNullable", "expects exactly one type argument"}
	}
	var kept []types.Type
	for _, m := range types.UnionMembers(args[0]) {
		if m != types.Nil {
			kept = append(kept, m)
		}
	}
	return types.NewUnionType(kept...), nil
}

func asFunction(t types.Type) (*types.FunctionType, bool) {
	fn, ok := t.(*types.FunctionType)
	return fn, ok
}

func (e *Env) evalReturnType(args []types.Type, span source.Span) (types.Type, error) {
	if len(args) != 1 {
		return nil, &UtilityError{"ReturnType", "expects exactly one type argument"}
	}
	fn, ok := asFunction(args[0])
	if !ok {
		return nil, &UtilityError{"ReturnType", "argument must be a function type"}
	}
	return fn.Return, nil
}

func (e *Env) evalParameters(args []types.Type, span source.Span) (types.Type, error) {
	if len(args) != 1 {
		return nil, &UtilityError{"Parameters", "expects exactly one type argument"}
	}
	fn, ok := asFunction(args[0])
	if !ok {
		return nil, &UtilityError{"Parameters", "argument must be a function type"}
	}
	elems := make([]types.Type, len(fn.Params))
	opts := make([]bool, len(fn.Params))
	for i, p := range fn.Params {
		elems[i] = p.Type
		opts[i] = p.Optional
	}
	return types.NewTupleType(elems, opts, nil), nil
}

func (e *Env) evalInstanceType(args []types.Type, span source.Span) (types.Type, error) {
	if len(args) != 1 {
		return nil, &UtilityError{"InstanceType", "expects exactly one type argument"}
	}
	if ctor, ok := args[0].(*types.ConstructorType); ok {
		return ctor.Constructs, nil
	}
	if cls, ok := args[0].(*types.ClassType); ok {
		return cls, nil
	}
	return nil, &UtilityError{"InstanceType", "argument must be a constructor or class type"}
}

// EvalKeyof produces the union of an object/interface/class type's own
// property-name string literals, unioned with the domain of its index
// signature's key kind if present.
func (e *Env) EvalKeyof(operand types.Type, span source.Span) (types.Type, error) {
	obj, ok := asObject(operand)
	if !ok {
		return nil, &UtilityError{"Keyof", "operand must be an object, interface, or class type"}
	}
	var members []types.Type
	for name := range obj.Properties {
		members = append(members, types.NewStringLiteral(name))
	}
	if obj.Index != nil {
		if obj.Index.KeyKind == types.StringKey {
			members = append(members, types.String)
		} else {
			members = append(members, types.Number)
		}
	}
	if len(members) == 0 {
		return types.Never, nil
	}
	return types.NewUnionType(members...), nil
}
