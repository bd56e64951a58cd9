package backend

import (
	"reflect"
)

// Function is an export bound to the Go signature F.
//
// The zero Function is unresolved. Resolution happens once, in Bind; Get
// only inspects the cached result.
type Function[F any] struct {
	export   string
	owner    *Backend
	fn       F
	resolved bool
}

// Bind resolves export in b and binds it to F, which must be a func type.
//
// An absent export yields an unresolved Function and no error. Native
// symbols are bound through the platform FFI; in-process symbols must have a
// func type convertible to F, otherwise a *SignatureError is returned.
func Bind[F any](b *Backend, export string) (Function[F], error) {
	f := Function[F]{export: export, owner: b}

	sym, ok := b.Resolve(export)
	if !ok {
		return f, nil
	}

	want := reflect.TypeFor[F]()
	if sym.Func != nil {
		v := reflect.ValueOf(sym.Func)
		if v.Kind() != reflect.Func || !v.Type().ConvertibleTo(want) {
			return f, &SignatureError{Export: export, Want: want.String(), Got: v.Type().String()}
		}
		f.fn = v.Convert(want).Interface().(F)
		f.resolved = true
		return f, nil
	}

	if err := bindNative(&f.fn, sym.Addr); err != nil {
		return f, err
	}
	f.resolved = true
	return f, nil
}

// Export returns the export name the Function was bound from.
func (f *Function[F]) Export() string {
	return f.export
}

// Resolved reports whether the export exists in the backend.
func (f *Function[F]) Resolved() bool {
	return f.resolved
}

// Signature returns the Go signature the export is bound to.
func (f *Function[F]) Signature() string {
	return reflect.TypeFor[F]().String()
}

// Get returns the bound function. It fails with ErrUnresolved when the
// export is absent and with ErrReleased once the owning Backend is closed.
func (f *Function[F]) Get() (F, error) {
	var zero F
	if !f.resolved {
		return zero, ErrUnresolved
	}
	if f.owner == nil || f.owner.released {
		return zero, ErrReleased
	}
	return f.fn, nil
}
