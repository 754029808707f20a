package registry

import (
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/octofhir/fhirpath-go/internal/value"
)

// collator backs locale-aware string comparison through CompareStrings,
// the same library (golang.org/x/text/collate + language) the teacher uses
// in its own string-comparison builtins. The string functions below do not
// use it.
var collator = collate.New(language.Und)

// CompareStrings orders a and b using the registry's shared collator. The
// evaluator uses it for String `~`/`!~`; `<`/`>` on String operands compare
// byte-wise through value.Compare instead.
func CompareStrings(a, b string) int { return collator.CompareString(a, b) }

func registerStringBuiltins(r *DefaultRegistry) {
	str := func(v value.Value) (string, bool) {
		s, ok := v.Singleton()
		if !ok || s.Kind != value.KindString {
			return "", false
		}
		return s.Str(), true
	}

	r.register("length", Signature{MinArgs: 0, MaxArgs: 0, Pure: true}, func(base value.Value, _ Args) (value.Value, error) {
		s, ok := str(base)
		if !ok {
			return value.Empty, nil
		}
		return value.Int(int64(len([]rune(s)))), nil
	})
	r.register("upper", Signature{MinArgs: 0, MaxArgs: 0, Pure: true}, func(base value.Value, _ Args) (value.Value, error) {
		s, ok := str(base)
		if !ok {
			return value.Empty, nil
		}
		return value.Str(strings.ToUpper(s)), nil
	})
	r.register("lower", Signature{MinArgs: 0, MaxArgs: 0, Pure: true}, func(base value.Value, _ Args) (value.Value, error) {
		s, ok := str(base)
		if !ok {
			return value.Empty, nil
		}
		return value.Str(strings.ToLower(s)), nil
	})
	r.register("trim", Signature{MinArgs: 0, MaxArgs: 0, Pure: true}, func(base value.Value, _ Args) (value.Value, error) {
		s, ok := str(base)
		if !ok {
			return value.Empty, nil
		}
		return value.Str(strings.TrimSpace(s)), nil
	})
	r.register("contains", Signature{MinArgs: 1, MaxArgs: 1, Pure: true}, func(base value.Value, args Args) (value.Value, error) {
		s, ok := str(base)
		sub, subOk := str(args[0])
		if !ok || !subOk {
			return value.Empty, nil
		}
		return value.Bool(strings.Contains(s, sub)), nil
	})
	r.register("startsWith", Signature{MinArgs: 1, MaxArgs: 1, Pure: true}, func(base value.Value, args Args) (value.Value, error) {
		s, ok := str(base)
		sub, subOk := str(args[0])
		if !ok || !subOk {
			return value.Empty, nil
		}
		return value.Bool(strings.HasPrefix(s, sub)), nil
	})
	r.register("endsWith", Signature{MinArgs: 1, MaxArgs: 1, Pure: true}, func(base value.Value, args Args) (value.Value, error) {
		s, ok := str(base)
		sub, subOk := str(args[0])
		if !ok || !subOk {
			return value.Empty, nil
		}
		return value.Bool(strings.HasSuffix(s, sub)), nil
	})
	r.register("replace", Signature{MinArgs: 2, MaxArgs: 2, Pure: true}, func(base value.Value, args Args) (value.Value, error) {
		s, ok := str(base)
		from, fromOk := str(args[0])
		to, toOk := str(args[1])
		if !ok || !fromOk || !toOk {
			return value.Empty, nil
		}
		return value.Str(strings.ReplaceAll(s, from, to)), nil
	})
	r.register("substring", Signature{MinArgs: 1, MaxArgs: 2, Pure: true}, func(base value.Value, args Args) (value.Value, error) {
		s, ok := str(base)
		if !ok {
			return value.Empty, nil
		}
		runes := []rune(s)
		start := int(args[0].Int())
		if start < 0 || start >= len(runes) {
			return value.Empty, nil
		}
		end := len(runes)
		if len(args) == 2 {
			length := int(args[1].Int())
			if length < 0 {
				length = 0
			}
			if start+length < end {
				end = start + length
			}
		}
		return value.Str(string(runes[start:end])), nil
	})
	r.register("split", Signature{MinArgs: 1, MaxArgs: 1, Pure: true}, func(base value.Value, args Args) (value.Value, error) {
		s, ok := str(base)
		sep, sepOk := str(args[0])
		if !ok || !sepOk {
			return value.Empty, nil
		}
		parts := strings.Split(s, sep)
		out := make([]value.Value, len(parts))
		for i, p := range parts {
			out[i] = value.Str(p)
		}
		return value.Coll(out), nil
	})
	r.register("join", Signature{MinArgs: 1, MaxArgs: 1, Pure: true}, func(base value.Value, args Args) (value.Value, error) {
		sep, sepOk := str(args[0])
		if !sepOk {
			return value.Empty, nil
		}
		items := base.Items()
		parts := make([]string, 0, len(items))
		for _, it := range items {
			if it.Kind == value.KindString {
				parts = append(parts, it.Str())
			}
		}
		return value.Str(strings.Join(parts, sep)), nil
	})
	r.register("matches", Signature{MinArgs: 1, MaxArgs: 1, Pure: true}, func(base value.Value, args Args) (value.Value, error) {
		s, ok := str(base)
		pattern, patOk := str(args[0])
		if !ok || !patOk {
			return value.Empty, nil
		}
		matched, err := regexpMatch(pattern, s)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(matched), nil
	})
}
