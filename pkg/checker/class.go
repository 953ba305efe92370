package checker

import (
	"github.com/forge18/luanext-typechecker/pkg/ast"
	"github.com/forge18/luanext-typechecker/pkg/diagnostics"
	"github.com/forge18/luanext-typechecker/pkg/source"
	"github.com/forge18/luanext-typechecker/pkg/symbols"
	"github.com/forge18/luanext-typechecker/pkg/types"
)

// hoistClassShell registers an empty *types.ClassType under s.Name so
// sibling declarations (including s's own Extends/Implements, and other
// classes declared earlier or later in the module) can refer to it before
// its members are filled in. Grounded on the teacher's two-pass class
// registration in class.go (forward-declare the type, then resolve the
// body), generalized here across every top-level declaration kind rather
// than just classes, since this dialect allows classes, interfaces, and
// type aliases to forward-reference each other freely at module scope.
func (c *Checker) hoistClassShell(s *ast.ClassDecl) *types.ClassType {
	cls := &types.ClassType{
		Name:          s.Name,
		TypeParams:    c.resolveTypeParams(s.TypeParams),
		Members:       types.NewObjectType(),
		StaticMembers: types.NewObjectType(),
		Span:          s.Span(),
	}
	if err := c.env.RegisterType(s.Name, cls, cls.TypeParams); err != nil {
		c.errorf(diagnostics.KindDuplicateDeclaration, s.Span(), "%s", err.Error())
	}
	return cls
}

// hoistClassBody fills in cls's Base, Implements, and Members now that
// every class/interface name in the module has a shell registered.
func (c *Checker) hoistClassBody(s *ast.ClassDecl, cls *types.ClassType) {
	restore := c.pushTypeParamScope(cls.TypeParams)
	defer restore()

	if s.Extends != nil {
		if base := c.resolveClassRef(s.Extends); base != nil {
			cls.Base = base
		}
	}
	for _, impl := range s.Implements {
		if iface := c.resolveInterfaceRef(impl); iface != nil {
			cls.Implements = append(cls.Implements, iface)
		}
	}
	if cycle := types.DetectCircularInheritance(cls); cycle != nil {
		c.errorf(diagnostics.KindCircularInheritance, s.Span(), "class %q participates in a circular inheritance chain", cycle.Name)
		cls.Base = nil
	}

	for _, m := range s.Members {
		c.hoistClassMember(cls, m, s.Span())
	}
}

func (c *Checker) resolveClassRef(te ast.TypeExpr) *types.ClassType {
	t := c.resolveType(te)
	if cls, ok := t.(*types.ClassType); ok {
		return cls
	}
	c.errorf(diagnostics.KindTypeMismatch, te.Span(), "extends clause does not name a class")
	return nil
}

func (c *Checker) resolveInterfaceRef(te ast.TypeExpr) *types.InterfaceType {
	t := c.resolveType(te)
	if iface, ok := t.(*types.InterfaceType); ok {
		return iface
	}
	c.errorf(diagnostics.KindTypeMismatch, te.Span(), "implements clause does not name an interface")
	return nil
}

func (c *Checker) hoistClassMember(cls *types.ClassType, m ast.ClassMember, span source.Span) {
	target := cls.Members
	if m.Static {
		target = cls.StaticMembers
	}
	vis := memberVisibility(m.Visibility)
	if m.IsMethod {
		fn := c.methodSignatureType(cls, m.Method)
		target.Properties[m.Name] = &types.Property{Type: fn, Visibility: vis}
		return
	}
	target.Properties[m.Name] = &types.Property{
		Type:       c.resolveType(m.FieldType),
		Optional:   m.Optional,
		Readonly:   m.Readonly,
		Visibility: vis,
	}
}

// methodSignatureType resolves a method's declared signature without
// checking its body (that happens in phase 2, once every class's members
// are registered so cross-class method calls resolve).
func (c *Checker) methodSignatureType(cls *types.ClassType, fn *ast.FunctionExpr) *types.FunctionType {
	tparams := c.resolveTypeParams(fn.TypeParams)
	restore := c.pushTypeParamScope(tparams)
	defer restore()

	params := make([]types.Param, len(fn.Params))
	for i, p := range fn.Params {
		var pt types.Type = types.Any
		if p.Type != nil {
			pt = c.resolveType(p.Type)
		}
		params[i] = types.Param{Name: p.Name, Type: pt, Optional: p.Optional, Rest: p.Rest}
	}
	var ret types.Type = types.Any
	if fn.ReturnType != nil {
		ret = c.resolveType(fn.ReturnType)
	}
	return &types.FunctionType{TypeParams: tparams, Params: params, Return: ret, ThisParam: cls, Span: fn.Span()}
}

func memberVisibility(v ast.MemberVisibility) types.Visibility {
	switch v {
	case ast.VisProtected:
		return types.Protected
	case ast.VisPrivate:
		return types.Private
	default:
		return types.Public
	}
}

// hoistClassSymbol declares the class name in the symbol table as a
// constructor-shaped value: calling it (via `Name(...)`) is this dialect's
// instantiation syntax, so the visible symbol type is a ConstructorType
// built from the constructor method's signature, if any.
func (c *Checker) hoistClassSymbol(s *ast.ClassDecl, cls *types.ClassType) {
	ctor := &types.ConstructorType{TypeParams: cls.TypeParams, Constructs: cls, Span: s.Span()}
	if ctorFn, ok := cls.Members.Properties["new"]; ok {
		if fn, ok := ctorFn.Type.(*types.FunctionType); ok {
			ctor.Params = fn.Params
		}
	}
	c.syms.Declare(s.Name, &symbols.Symbol{Name: s.Name, Kind: symbols.KindClass, Type: ctor, Exported: s.Exported, DeclSpan: s.Span()})
}

// checkClassBody type-checks every method body in source order, with
// `this` bound to cls inside each. Field initializers are plain
// declarations resolved during hoisting, so there is nothing left to check
// about them here beyond the constructor completeness rule, which
// validateClasses (phase 3) verifies once every class's shape is settled.
func (c *Checker) checkClassBody(s *ast.ClassDecl) {
	t, ok := c.env.LookupType(s.Name)
	if !ok {
		return
	}
	cls, ok := t.Type.(*types.ClassType)
	if !ok {
		return
	}
	restoreEnv := c.pushTypeParamScope(cls.TypeParams)
	defer restoreEnv()

	c.syms.EnterScope()
	defer c.syms.ExitScope()
	for _, m := range s.Members {
		if !m.IsMethod || m.Method.Body == nil {
			continue
		}
		methodType, _ := memberLookupOn(cls, m.Static)[m.Name]
		var fnType *types.FunctionType
		if methodType != nil {
			fnType, _ = methodType.Type.(*types.FunctionType)
		}
		if fnType != nil {
			fnType.ThisParam = cls
		}
		c.checkMethodBody(cls, m.Method, fnType)
	}
}

func memberLookupOn(cls *types.ClassType, static bool) map[string]*types.Property {
	if static {
		return cls.StaticMembers.Properties
	}
	return cls.Members.Properties
}

// checkMethodBody is checkFunctionBody with `this` bound to cls for the
// duration of the body, and without re-registering the signature (it was
// already fixed during hoisting so other members could call it).
func (c *Checker) checkMethodBody(cls *types.ClassType, fn *ast.FunctionExpr, sig *types.FunctionType) {
	var params []types.Param
	var declaredRet types.Type
	var tparams []*types.TypeParameter
	if sig != nil {
		params = sig.Params
		declaredRet = sig.Return
		tparams = sig.TypeParams
	}
	restore := c.pushTypeParamScope(tparams)
	defer restore()

	c.syms.EnterScope()
	defer c.syms.ExitScope()
	for _, p := range params {
		c.syms.Declare(p.Name, &symbols.Symbol{Name: p.Name, Kind: symbols.KindParameter, Type: p.Type, Mutable: true, DeclSpan: fn.Span()})
	}

	fctx := &functionContext{outer: c.fn, declaredRet: declaredRet, thisType: cls}
	c.fn = fctx
	if fn.Body != nil {
		c.checkBlock(fn.Body)
	}
	c.fn = fctx.outer

	if declaredRet != nil && !fctx.sawReturn && !isVoidish(declaredRet) {
		c.errorf(diagnostics.KindMissingReturn, fn.Span(), "method does not return a value on every path")
	}
}

// validateClasses is phase 3's class validation pass: implements
// completeness, override compatibility, and constructor field-init
// completeness. It runs once every class in the module has a fully
// resolved shape, so assignability checks against interfaces and base
// classes see the final member sets.
func (c *Checker) validateClasses(decls []*ast.ClassDecl) {
	for _, s := range decls {
		t, ok := c.env.LookupType(s.Name)
		if !ok {
			continue
		}
		cls, ok := t.Type.(*types.ClassType)
		if !ok {
			continue
		}
		c.validateImplements(s, cls)
		c.validateOverrides(s, cls)
		c.validateConstructorCompleteness(s, cls)
	}
}

func (c *Checker) validateImplements(s *ast.ClassDecl, cls *types.ClassType) {
	for _, iface := range cls.Implements {
		if !c.isAssignable(cls, iface) {
			c.errorf(diagnostics.KindTypeMismatch, s.Span(), "class %q does not satisfy interface %q", cls.Name, iface.Name)
		}
	}
}

func (c *Checker) validateOverrides(s *ast.ClassDecl, cls *types.ClassType) {
	for _, m := range s.Members {
		if !m.IsMethod || !m.Override {
			continue
		}
		if cls.Base == nil {
			c.errorf(diagnostics.KindTypeMismatch, s.Span(), "%q is marked override but %q has no base class", m.Name, cls.Name)
			continue
		}
		baseProp, _, ok := memberLookup(cls.Base, m.Name)
		if !ok {
			c.errorf(diagnostics.KindTypeMismatch, s.Span(), "%q overrides nothing in base class %q", m.Name, cls.Base.Name)
			continue
		}
		ownProp := cls.Members.Properties[m.Name]
		if ownProp == nil {
			c.errorf(diagnostics.KindTypeMismatch, s.Span(), "%q has a signature incompatible with the overridden member in %q", m.Name, cls.Base.Name)
			continue
		}
		result := c.checkAssign(ownProp.Type, baseProp.Type)
		switch {
		case !result.OK:
			c.errorf(diagnostics.KindTypeMismatch, s.Span(), "%q has a signature incompatible with the overridden member in %q", m.Name, cls.Base.Name)
		case result.UnsoundVariance:
			c.errorf(diagnostics.KindUnsoundVariance, s.Span(), "%q narrows a parameter type relative to the overridden member in %q; calls valid against the base signature may fail at this override", m.Name, cls.Base.Name)
		}
	}
}

// validateConstructorCompleteness verifies every required (non-optional)
// declared field is assigned on every path through the constructor,
// grounded on spec.md's "verify constructor initializes every required
// non-optional field on every path" rule. Methods, static fields and
// readonly fields are not checked. Assignment is detected syntactically by
// assignedFields: a `this.field = ...` statement reachable unconditionally
// from the constructor's entry (i.e. not nested only inside one branch of
// an if without a matching assignment in every branch) counts.
func (c *Checker) validateConstructorCompleteness(s *ast.ClassDecl, cls *types.ClassType) {
	var ctor *ast.FunctionExpr
	for _, m := range s.Members {
		if m.IsMethod && m.Name == "new" {
			ctor = m.Method
		}
	}
	required := map[string]bool{}
	for _, m := range s.Members {
		if m.IsMethod || m.Static || m.Optional || m.Readonly {
			continue
		}
		required[m.Name] = true
	}
	if len(required) == 0 {
		return
	}
	if ctor == nil || ctor.Body == nil {
		for name := range required {
			c.errorf(diagnostics.KindTypeMismatch, s.Span(), "class %q has no constructor to initialize required field %q", cls.Name, name)
		}
		return
	}
	assigned := assignedFields(ctor.Body)
	for name := range required {
		if !assigned[name] {
			c.errorf(diagnostics.KindTypeMismatch, ctor.Span(), "constructor does not initialize required field %q on every path", name)
		}
	}
}

// assignedFields walks a constructor body and returns the set of field
// names unconditionally assigned via `this.field = ...` — conservatively,
// a top-level assignment of the body counts, and so does a field assigned
// in both the then and the else arm of an if (an elseif chain counts only
// when it ends in an else); assignments inside loops or inside an if
// without an else do not, matching the "on every path" requirement without
// needing full path-sensitive data-flow analysis.
func assignedFields(b *ast.Block) map[string]bool {
	out := map[string]bool{}
	for _, stmt := range b.Statements {
		if a, ok := stmt.(*ast.AssignStatement); ok {
			if m, ok := a.Target.(*ast.MemberExpr); ok {
				if ident, ok := m.Object.(*ast.Identifier); ok && ident.Text == "this" {
					out[m.Property] = true
				}
			}
		}
		if ifs, ok := stmt.(*ast.IfStatement); ok && ifs.Else != nil {
			thenSet := assignedFields(ifs.Then)
			var elseSet map[string]bool
			if elseBlock, ok := ifs.Else.(*ast.Block); ok {
				elseSet = assignedFields(elseBlock)
			} else if elseIf, ok := ifs.Else.(*ast.IfStatement); ok {
				elseSet = assignedFields(&ast.Block{Statements: []ast.Statement{elseIf}})
			}
			for name := range thenSet {
				if elseSet[name] {
					out[name] = true
				}
			}
		}
	}
	return out
}
