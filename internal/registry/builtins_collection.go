package registry

import "github.com/octofhir/fhirpath-go/internal/value"

func registerCollectionBuiltins(r *DefaultRegistry) {
	r.register("count", Signature{MinArgs: 0, MaxArgs: 0, Pure: true}, func(base value.Value, _ Args) (value.Value, error) {
		return value.Int(int64(base.Len())), nil
	})
	r.register("empty", Signature{MinArgs: 0, MaxArgs: 0, Pure: true}, func(base value.Value, _ Args) (value.Value, error) {
		return value.Bool(base.IsEmpty()), nil
	})
	r.register("exists", Signature{MinArgs: 0, MaxArgs: 0, Pure: true}, func(base value.Value, _ Args) (value.Value, error) {
		return value.Bool(!base.IsEmpty()), nil
	})
	r.register("first", Signature{MinArgs: 0, MaxArgs: 0, Pure: true}, func(base value.Value, _ Args) (value.Value, error) {
		items := base.Items()
		if len(items) == 0 {
			return value.Empty, nil
		}
		return items[0], nil
	})
	r.register("last", Signature{MinArgs: 0, MaxArgs: 0, Pure: true}, func(base value.Value, _ Args) (value.Value, error) {
		items := base.Items()
		if len(items) == 0 {
			return value.Empty, nil
		}
		return items[len(items)-1], nil
	})
	r.register("tail", Signature{MinArgs: 0, MaxArgs: 0, Pure: true}, func(base value.Value, _ Args) (value.Value, error) {
		items := base.Items()
		if len(items) <= 1 {
			return value.Empty, nil
		}
		return value.Coll(append([]value.Value{}, items[1:]...)), nil
	})
	r.register("skip", Signature{MinArgs: 1, MaxArgs: 1, Pure: true}, func(base value.Value, args Args) (value.Value, error) {
		n := int(args[0].Int())
		items := base.Items()
		if n >= len(items) {
			return value.Empty, nil
		}
		if n < 0 {
			n = 0
		}
		return value.Coll(append([]value.Value{}, items[n:]...)), nil
	})
	r.register("take", Signature{MinArgs: 1, MaxArgs: 1, Pure: true}, func(base value.Value, args Args) (value.Value, error) {
		n := int(args[0].Int())
		items := base.Items()
		if n <= 0 {
			return value.Empty, nil
		}
		if n > len(items) {
			n = len(items)
		}
		return value.Coll(append([]value.Value{}, items[:n]...)), nil
	})
	r.register("single", Signature{MinArgs: 0, MaxArgs: 0, Pure: true}, func(base value.Value, _ Args) (value.Value, error) {
		items := base.Items()
		if len(items) == 0 {
			return value.Empty, nil
		}
		if len(items) > 1 {
			return value.Value{}, &CardinalityError{Func: "single", Len: len(items)}
		}
		return items[0], nil
	})
	r.register("distinct", Signature{MinArgs: 0, MaxArgs: 0, Pure: true}, func(base value.Value, _ Args) (value.Value, error) {
		items := base.Items()
		out := make([]value.Value, 0, len(items))
		for _, it := range items {
			dup := false
			for _, seen := range out {
				if value.Equal(it, seen) {
					dup = true
					break
				}
			}
			if !dup {
				out = append(out, it)
			}
		}
		return value.Coll(out), nil
	})
	r.register("union", Signature{MinArgs: 1, MaxArgs: 1, Pure: true}, func(base value.Value, args Args) (value.Value, error) {
		all := append(append([]value.Value{}, base.Items()...), args[0].Items()...)
		out := make([]value.Value, 0, len(all))
		for _, it := range all {
			dup := false
			for _, seen := range out {
				if value.Equal(it, seen) {
					dup = true
					break
				}
			}
			if !dup {
				out = append(out, it)
			}
		}
		return value.Coll(out), nil
	})
	r.register("combine", Signature{MinArgs: 1, MaxArgs: 1, Pure: true}, func(base value.Value, args Args) (value.Value, error) {
		return value.Coll(append(append([]value.Value{}, base.Items()...), args[0].Items()...)), nil
	})
	r.register("iif", Signature{MinArgs: 2, MaxArgs: 3, Pure: true}, func(base value.Value, args Args) (value.Value, error) {
		cond, ok := args[0].Singleton()
		if ok && cond.Kind == value.KindBoolean && cond.Bool() {
			return args[1], nil
		}
		if len(args) == 3 {
			return args[2], nil
		}
		return value.Empty, nil
	})
	r.register("not", Signature{MinArgs: 0, MaxArgs: 0, Pure: true}, func(base value.Value, _ Args) (value.Value, error) {
		b, ok := base.Singleton()
		if !ok || b.Kind != value.KindBoolean {
			return value.Empty, nil
		}
		return value.Bool(!b.Bool()), nil
	})

	r.registerLambda("where", Signature{MinArgs: 1, MaxArgs: 1, Pure: true}, func(base value.Value, item func(value.Value, int) (value.Value, error)) (value.Value, error) {
		items := base.Items()
		out := make([]value.Value, 0, len(items))
		for i, el := range items {
			cond, err := item(el, i)
			if err != nil {
				return value.Value{}, err
			}
			c, ok := cond.Singleton()
			if ok && c.Kind == value.KindBoolean && c.Bool() {
				out = append(out, el)
			}
		}
		return value.Coll(out), nil
	})
	r.registerLambda("select", Signature{MinArgs: 1, MaxArgs: 1, Pure: true}, func(base value.Value, item func(value.Value, int) (value.Value, error)) (value.Value, error) {
		items := base.Items()
		out := make([]value.Value, 0, len(items))
		for i, el := range items {
			v, err := item(el, i)
			if err != nil {
				return value.Value{}, err
			}
			if !v.IsEmpty() {
				out = append(out, v)
			}
		}
		return value.Coll(out), nil
	})
	r.registerLambda("all", Signature{MinArgs: 1, MaxArgs: 1, Pure: true}, func(base value.Value, item func(value.Value, int) (value.Value, error)) (value.Value, error) {
		items := base.Items()
		for i, el := range items {
			v, err := item(el, i)
			if err != nil {
				return value.Value{}, err
			}
			c, ok := v.Singleton()
			if !ok || c.Kind != value.KindBoolean || !c.Bool() {
				return value.Bool(false), nil
			}
		}
		return value.Bool(true), nil
	})
	r.registerLambda("exists", Signature{MinArgs: 1, MaxArgs: 1, Pure: true}, func(base value.Value, item func(value.Value, int) (value.Value, error)) (value.Value, error) {
		items := base.Items()
		for i, el := range items {
			v, err := item(el, i)
			if err != nil {
				return value.Value{}, err
			}
			c, ok := v.Singleton()
			if ok && c.Kind == value.KindBoolean && c.Bool() {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	})
	r.registerLambda("repeat", Signature{MinArgs: 1, MaxArgs: 1, Pure: true}, func(base value.Value, item func(value.Value, int) (value.Value, error)) (value.Value, error) {
		const maxIterations = 10000 // guards against a divergent repeat() expression
		frontier := base.Items()
		var out []value.Value
		for iterations := 0; len(frontier) > 0 && iterations < maxIterations; iterations++ {
			var next []value.Value
			for i, el := range frontier {
				v, err := item(el, i)
				if err != nil {
					return value.Value{}, err
				}
				next = append(next, v.Items()...)
			}
			out = append(out, next...)
			frontier = next
		}
		return value.Coll(out), nil
	})
}
