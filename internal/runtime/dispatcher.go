// internal/runtime/dispatcher.go

package runtime

import (
	"strings"

	"rgehrsitz/rexchain/internal/memory"
	"rgehrsitz/rexchain/internal/rules"
	"rgehrsitz/rexchain/internal/vocabulary"
)

// Dispatcher executes rule actions against working memory.
type Dispatcher struct {
	wm       *memory.WorkingMemory
	vocab    *vocabulary.Registry
	resolver *Resolver
}

func NewDispatcher(wm *memory.WorkingMemory, resolver *Resolver) *Dispatcher {
	return &Dispatcher{wm: wm, vocab: wm.Vocabulary(), resolver: resolver}
}

// Dispatch invokes the action's method on its target and re-registers the target.
// The target is the fact stored under the method's base path, or a fresh instance of
// the type of that name.
func (d *Dispatcher) Dispatch(a rules.Action, b Bindings) error {
	args, err := bindArgs(a.Args, b)
	if err != nil {
		return err
	}

	targetKey, ok := a.Target()
	if !ok {
		return newError(KindTargetConstruction, a.Method, "", nil)
	}
	target, err := d.target(targetKey)
	if err != nil {
		return err
	}

	typ, ok := d.vocab.TypeOf(target)
	if !ok {
		return newError(KindMethodResolution, a.Method, "type "+vocabulary.GoTypeName(target)+" is not registered", nil)
	}
	method, ok := typ.Method(a.MethodName(), len(args))
	if !ok {
		return newError(KindMethodResolution, a.Method, "no such method in class '"+typ.Name+"'", nil)
	}

	values := make([]any, len(args))
	for i, text := range args {
		t, err := d.resolver.ResolvePath(text)
		if err != nil {
			return err
		}
		v, err := method.Params[i].Coerce(t.Value, t.Valid)
		if err != nil {
			return newError(KindArgumentCoercion, typ.Name+"."+method.Name, "argument "+t.String(), err)
		}
		values[i] = v
	}

	if err := method.Call(target, values); err != nil {
		return newError(KindInvocation, typ.Name+"."+method.Name, "", err)
	}
	d.wm.Register(target)
	return nil
}

func (d *Dispatcher) target(key string) (any, error) {
	if fact, ok := d.wm.Get(key); ok && fact != nil {
		return fact, nil
	}
	fact, err := d.vocab.NewInstance(key)
	if err != nil {
		return nil, newError(KindTargetConstruction, key, "", err)
	}
	return fact, nil
}

// bindArgs replaces variables with the keys they were bound to.
func bindArgs(args []string, b Bindings) ([]string, error) {
	out := make([]string, len(args))
	for i, arg := range args {
		if !strings.HasPrefix(arg, VariablePrefix) {
			out[i] = arg
			continue
		}
		key, ok := b[arg]
		if !ok {
			return nil, newError(KindBinding, arg, "", nil)
		}
		out[i] = key
	}
	return out, nil
}
